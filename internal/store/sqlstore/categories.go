package sqlstore

import (
	"context"

	"github.com/vcalderon2009/note-taker/internal/model"
)

type categories struct{ s *Store }

const categoryColumns = `id, user_id, name, description, color, icon, created_at, updated_at`

func (c *categories) Create(ctx context.Context, m *model.Category) (*model.Category, error) {
	out := *m
	out.CreatedAt = now()
	out.UpdatedAt = out.CreatedAt
	row := c.s.queryRow(ctx, `
        INSERT INTO categories (user_id, name, description, color, icon, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        RETURNING id
    `, m.UserID, m.Name, m.Description, m.Color, m.Icon, out.CreatedAt, out.UpdatedAt)
	if err := row.Scan(&out.ID); err != nil {
		return nil, c.s.mapErr(err, "category", 0, "name")
	}
	return &out, nil
}

func (c *categories) Get(ctx context.Context, userID, id int64) (*model.Category, error) {
	row := c.s.queryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE user_id=? AND id=?`, userID, id)
	out, err := scanCategory(row)
	if err != nil {
		return nil, c.s.mapErr(err, "category", id, "")
	}
	return out, nil
}

func (c *categories) GetByName(ctx context.Context, userID int64, name string) (*model.Category, error) {
	row := c.s.queryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE user_id=? AND name=?`, userID, name)
	out, err := scanCategory(row)
	if err != nil {
		return nil, c.s.mapErr(err, "category", 0, "")
	}
	return out, nil
}

func (c *categories) List(ctx context.Context, userID int64) ([]*model.Category, error) {
	rows, err := c.s.query(ctx, `
        SELECT `+categoryColumns+` FROM categories WHERE user_id=?
        ORDER BY name ASC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	res := []*model.Category{}
	for rows.Next() {
		m, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (c *categories) Update(ctx context.Context, userID, id int64, p model.CategoryPatch) (*model.Category, error) {
	var st setter
	if p.Name != nil {
		st.add("name", *p.Name)
	}
	if p.Description != nil {
		st.add("description", *p.Description)
	}
	if p.Color != nil {
		st.add("color", *p.Color)
	}
	if p.Icon != nil {
		st.add("icon", *p.Icon)
	}
	st.add("updated_at", now())
	res, err := c.s.exec(ctx, `UPDATE categories SET `+st.clause()+` WHERE user_id=? AND id=?`, append(st.args, userID, id)...)
	if err != nil {
		return nil, c.s.mapErr(err, "category", id, "name")
	}
	if err := expectOne(res, "category", id); err != nil {
		return nil, err
	}
	return c.Get(ctx, userID, id)
}

func (c *categories) Delete(ctx context.Context, userID, id int64) error {
	res, err := c.s.exec(ctx, `DELETE FROM categories WHERE user_id=? AND id=?`, userID, id)
	if err != nil {
		return err
	}
	return expectOne(res, "category", id)
}

func scanCategory(r rowScanner) (*model.Category, error) {
	var m model.Category
	if err := r.Scan(&m.ID, &m.UserID, &m.Name, &m.Description, &m.Color, &m.Icon, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
