package chat

import (
	"context"
	"database/sql"

	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/pkg/storage"
)

// PostgresRepo stores messages in the chat_messages table:
//
//	id TEXT PRIMARY KEY, sender_id TEXT, receiver_id TEXT,
//	content TEXT, ts BIGINT, status TEXT
//
// with an index on (sender_id, receiver_id, status) for the unread query and
// (sender_id, receiver_id, ts) for conversation reads.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Save(ctx context.Context, m Message) error {
	const q = `
INSERT INTO chat_messages (id, sender_id, receiver_id, content, ts, status)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err := r.db.ExecContext(ctx, q, m.ID, m.SenderID, m.ReceiverID, m.Content, m.Timestamp, m.Status)
	return err
}

// SaveAll upserts the batch in one transaction; used by the read-receipt bulk
// status transition.
func (r *PostgresRepo) SaveAll(ctx context.Context, ms []Message) error {
	if len(ms) == 0 {
		return nil
	}
	const q = `
UPDATE chat_messages
SET status = $2
WHERE id = $1
`
	return storage.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		for _, m := range ms {
			if _, err := tx.ExecContext(ctx, q, m.ID, m.Status); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresRepo) FindBetween(ctx context.Context, a, b string, limit int) ([]Message, error) {
	const q = `
SELECT id, sender_id, receiver_id, content, ts, status
FROM chat_messages
WHERE (sender_id = $1 AND receiver_id = $2)
   OR (sender_id = $2 AND receiver_id = $1)
ORDER BY ts ASC
LIMIT $3
`
	return r.scanAll(ctx, q, a, b, limit)
}

func (r *PostgresRepo) FindUnread(ctx context.Context, senderID, receiverID string) ([]Message, error) {
	const q = `
SELECT id, sender_id, receiver_id, content, ts, status
FROM chat_messages
WHERE sender_id = $1 AND receiver_id = $2 AND status = $3
ORDER BY ts ASC
`
	return r.scanAll(ctx, q, senderID, receiverID, StatusSent)
}

func (r *PostgresRepo) scanAll(ctx context.Context, q string, args ...any) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Timestamp, &m.Status); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
