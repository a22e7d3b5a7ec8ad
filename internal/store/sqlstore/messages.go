package sqlstore

import (
	"context"
	"database/sql"

	"github.com/vcalderon2009/note-taker/internal/model"
)

type messages struct{ s *Store }

const messageColumns = `id, conversation_id, role, content, tokens_in, tokens_out, latency_ms, created_at`

func (m *messages) Create(ctx context.Context, msg *model.Message) (*model.Message, error) {
	out := *msg
	out.CreatedAt = now()
	row := m.s.queryRow(ctx, `
        INSERT INTO messages (conversation_id, role, content, tokens_in, tokens_out, latency_ms, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        RETURNING id
    `, msg.ConversationID, msg.Role, msg.Content, msg.TokensIn, msg.TokensOut, msg.LatencyMS, out.CreatedAt)
	if err := row.Scan(&out.ID); err != nil {
		return nil, m.s.mapErr(err, "message", 0, "")
	}
	return &out, nil
}

func (m *messages) List(ctx context.Context, conversationID int64, page model.Page) ([]*model.Message, error) {
	limit, offset := limitOrDefault(page, 100)
	rows, err := m.s.query(ctx, `
        SELECT `+messageColumns+`
        FROM messages WHERE conversation_id=?
        ORDER BY created_at ASC, id ASC
        LIMIT ? OFFSET ?
    `, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (m *messages) Recent(ctx context.Context, conversationID int64, limit int) ([]*model.Message, error) {
	rows, err := m.s.query(ctx, `
        SELECT `+messageColumns+`
        FROM messages WHERE conversation_id=?
        ORDER BY created_at DESC, id DESC
        LIMIT ?
    `, conversationID, limit)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (m *messages) DeleteByConversation(ctx context.Context, conversationID int64) error {
	_, err := m.s.exec(ctx, `DELETE FROM messages WHERE conversation_id=?`, conversationID)
	return err
}

func scanMessages(rows *sql.Rows) ([]*model.Message, error) {
	defer func() { _ = rows.Close() }()
	res := []*model.Message{}
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content,
			&msg.TokensIn, &msg.TokensOut, &msg.LatencyMS, &msg.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &msg)
	}
	return res, rows.Err()
}
