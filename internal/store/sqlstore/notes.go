package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/vcalderon2009/note-taker/internal/model"
)

type notes struct{ s *Store }

const noteColumns = `id, user_id, conversation_id, category_id, title, body, tags, created_at, updated_at`

func (n *notes) Create(ctx context.Context, m *model.Note) (*model.Note, error) {
	tags, err := encodeTags(m.Tags)
	if err != nil {
		return nil, err
	}
	out := *m
	out.CreatedAt = now()
	out.UpdatedAt = out.CreatedAt
	row := n.s.queryRow(ctx, `
        INSERT INTO notes (user_id, conversation_id, category_id, title, body, tags, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id
    `, m.UserID, m.ConversationID, m.CategoryID, m.Title, m.Body, tags, out.CreatedAt, out.UpdatedAt)
	if err := row.Scan(&out.ID); err != nil {
		return nil, n.s.mapErr(err, "note", 0, "")
	}
	return &out, nil
}

func (n *notes) Get(ctx context.Context, id int64) (*model.Note, error) {
	row := n.s.queryRow(ctx, `SELECT `+noteColumns+` FROM notes WHERE id=?`, id)
	out, err := scanNote(row)
	if err != nil {
		return nil, n.s.mapErr(err, "note", id, "")
	}
	return out, nil
}

func (n *notes) List(ctx context.Context, userID int64) ([]*model.Note, error) {
	rows, err := n.s.query(ctx, `
        SELECT `+noteColumns+` FROM notes WHERE user_id=?
        ORDER BY created_at DESC, id DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	res := []*model.Note{}
	for rows.Next() {
		m, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (n *notes) Update(ctx context.Context, id int64, p model.NotePatch) (*model.Note, error) {
	var st setter
	if p.Title != nil {
		st.add("title", *p.Title)
	}
	if p.Body != nil {
		st.add("body", *p.Body)
	}
	if p.Tags != nil {
		tags, err := encodeTags(*p.Tags)
		if err != nil {
			return nil, err
		}
		st.add("tags", tags)
	}
	if p.CategoryID != nil {
		st.add("category_id", *p.CategoryID)
	}
	st.add("updated_at", now())
	res, err := n.s.exec(ctx, `UPDATE notes SET `+st.clause()+` WHERE id=?`, append(st.args, id)...)
	if err != nil {
		return nil, err
	}
	if err := expectOne(res, "note", id); err != nil {
		return nil, err
	}
	return n.Get(ctx, id)
}

func (n *notes) Delete(ctx context.Context, id int64) error {
	res, err := n.s.exec(ctx, `DELETE FROM notes WHERE id=?`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "note", id)
}

func (n *notes) ClearCategory(ctx context.Context, categoryID int64) error {
	_, err := n.s.exec(ctx, `UPDATE notes SET category_id=NULL WHERE category_id=?`, categoryID)
	return err
}

func (n *notes) CountByCategory(ctx context.Context, categoryID int64) (int, error) {
	var c int
	err := n.s.queryRow(ctx, `SELECT COUNT(1) FROM notes WHERE category_id=?`, categoryID).Scan(&c)
	return c, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(r rowScanner) (*model.Note, error) {
	var m model.Note
	var tags sql.NullString
	if err := r.Scan(&m.ID, &m.UserID, &m.ConversationID, &m.CategoryID, &m.Title, &m.Body, &tags, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &m.Tags); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// encodeTags stores tags as JSON text; nil stays NULL.
func encodeTags(tags []string) (any, error) {
	if tags == nil {
		return nil, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
