package sqlstore

import (
	"context"

	"github.com/vcalderon2009/note-taker/internal/model"
)

type users struct{ s *Store }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	out := *m
	out.CreatedAt = now()
	row := u.s.queryRow(ctx, `
        INSERT INTO users (email, created_at)
        VALUES (?, ?)
        RETURNING id
    `, m.Email, out.CreatedAt)
	if err := row.Scan(&out.ID); err != nil {
		return nil, u.s.mapErr(err, "user", 0, "email")
	}
	return &out, nil
}

func (u *users) Get(ctx context.Context, id int64) (*model.User, error) {
	var out model.User
	row := u.s.queryRow(ctx, `SELECT id, email, created_at FROM users WHERE id=?`, id)
	if err := row.Scan(&out.ID, &out.Email, &out.CreatedAt); err != nil {
		return nil, u.s.mapErr(err, "user", id, "")
	}
	return &out, nil
}

func (u *users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var out model.User
	row := u.s.queryRow(ctx, `SELECT id, email, created_at FROM users WHERE email=?`, email)
	if err := row.Scan(&out.ID, &out.Email, &out.CreatedAt); err != nil {
		return nil, u.s.mapErr(err, "user", 0, "")
	}
	return &out, nil
}
