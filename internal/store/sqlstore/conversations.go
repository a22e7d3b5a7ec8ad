package sqlstore

import (
	"context"

	"github.com/vcalderon2009/note-taker/internal/model"
)

type conversations struct{ s *Store }

func (c *conversations) Create(ctx context.Context, m *model.Conversation) (*model.Conversation, error) {
	out := *m
	out.CreatedAt = now()
	row := c.s.queryRow(ctx, `
        INSERT INTO conversations (user_id, title, created_at)
        VALUES (?, ?, ?)
        RETURNING id
    `, m.UserID, m.Title, out.CreatedAt)
	if err := row.Scan(&out.ID); err != nil {
		return nil, c.s.mapErr(err, "conversation", 0, "")
	}
	return &out, nil
}

func (c *conversations) Get(ctx context.Context, id int64) (*model.Conversation, error) {
	var out model.Conversation
	row := c.s.queryRow(ctx, `
        SELECT id, user_id, title, created_at FROM conversations WHERE id=?
    `, id)
	if err := row.Scan(&out.ID, &out.UserID, &out.Title, &out.CreatedAt); err != nil {
		return nil, c.s.mapErr(err, "conversation", id, "")
	}
	return &out, nil
}

func (c *conversations) List(ctx context.Context, userID int64, page model.Page) ([]*model.Conversation, error) {
	limit, offset := limitOrDefault(page, 50)
	rows, err := c.s.query(ctx, `
        SELECT id, user_id, title, created_at
        FROM conversations WHERE user_id=?
        ORDER BY created_at DESC, id DESC
        LIMIT ? OFFSET ?
    `, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	res := []*model.Conversation{}
	for rows.Next() {
		var m model.Conversation
		if err := rows.Scan(&m.ID, &m.UserID, &m.Title, &m.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &m)
	}
	return res, rows.Err()
}

func (c *conversations) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	err := c.s.queryRow(ctx, `SELECT COUNT(1) FROM conversations WHERE user_id=?`, userID).Scan(&n)
	return n, err
}

func (c *conversations) Delete(ctx context.Context, id int64) error {
	res, err := c.s.exec(ctx, `DELETE FROM conversations WHERE id=?`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "conversation", id)
}
