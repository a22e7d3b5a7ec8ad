package sqlstore

import (
	"context"

	"github.com/vcalderon2009/note-taker/internal/model"
)

type tasks struct{ s *Store }

const taskColumns = `id, user_id, conversation_id, category_id, title, description, due_at, status, priority, created_at, updated_at`

func (t *tasks) Create(ctx context.Context, m *model.Task) (*model.Task, error) {
	out := *m
	if out.Status == "" {
		out.Status = model.DefaultTaskStatus
	}
	out.CreatedAt = now()
	out.UpdatedAt = out.CreatedAt
	row := t.s.queryRow(ctx, `
        INSERT INTO tasks (user_id, conversation_id, category_id, title, description, due_at, status, priority, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id
    `, out.UserID, out.ConversationID, out.CategoryID, out.Title, out.Description, out.DueAt, out.Status, out.Priority, out.CreatedAt, out.UpdatedAt)
	if err := row.Scan(&out.ID); err != nil {
		return nil, t.s.mapErr(err, "task", 0, "")
	}
	return &out, nil
}

func (t *tasks) Get(ctx context.Context, id int64) (*model.Task, error) {
	row := t.s.queryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id)
	out, err := scanTask(row)
	if err != nil {
		return nil, t.s.mapErr(err, "task", id, "")
	}
	return out, nil
}

func (t *tasks) List(ctx context.Context, userID int64) ([]*model.Task, error) {
	rows, err := t.s.query(ctx, `
        SELECT `+taskColumns+` FROM tasks WHERE user_id=?
        ORDER BY created_at DESC, id DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	res := []*model.Task{}
	for rows.Next() {
		m, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (t *tasks) Update(ctx context.Context, id int64, p model.TaskPatch) (*model.Task, error) {
	var st setter
	if p.Title != nil {
		st.add("title", *p.Title)
	}
	if p.Description != nil {
		st.add("description", *p.Description)
	}
	if p.DueAt != nil {
		st.add("due_at", p.DueAt.UTC())
	}
	if p.Status != nil {
		st.add("status", *p.Status)
	}
	if p.Priority != nil {
		st.add("priority", *p.Priority)
	}
	if p.CategoryID != nil {
		st.add("category_id", *p.CategoryID)
	}
	st.add("updated_at", now())
	res, err := t.s.exec(ctx, `UPDATE tasks SET `+st.clause()+` WHERE id=?`, append(st.args, id)...)
	if err != nil {
		return nil, err
	}
	if err := expectOne(res, "task", id); err != nil {
		return nil, err
	}
	return t.Get(ctx, id)
}

func (t *tasks) Delete(ctx context.Context, id int64) error {
	res, err := t.s.exec(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "task", id)
}

func (t *tasks) ClearCategory(ctx context.Context, categoryID int64) error {
	_, err := t.s.exec(ctx, `UPDATE tasks SET category_id=NULL WHERE category_id=?`, categoryID)
	return err
}

func (t *tasks) CountByCategory(ctx context.Context, categoryID int64, status string) (int, error) {
	var c int
	if status == "" {
		err := t.s.queryRow(ctx, `SELECT COUNT(1) FROM tasks WHERE category_id=?`, categoryID).Scan(&c)
		return c, err
	}
	err := t.s.queryRow(ctx, `SELECT COUNT(1) FROM tasks WHERE category_id=? AND status=?`, categoryID, status).Scan(&c)
	return c, err
}

func scanTask(r rowScanner) (*model.Task, error) {
	var m model.Task
	if err := r.Scan(&m.ID, &m.UserID, &m.ConversationID, &m.CategoryID, &m.Title, &m.Description,
		&m.DueAt, &m.Status, &m.Priority, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
