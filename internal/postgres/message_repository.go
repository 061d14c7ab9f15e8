package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YakymenkoDarii/RealTimeChatApp/internal/domain"
)

// MessageRepo persists chat messages in Postgres. A single Append is one
// INSERT and therefore atomic; unrelated conversations never contend.
type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Append(ctx context.Context, msg domain.ChatMessage) (domain.ChatMessage, error) {
	const q = `
		INSERT INTO chat_messages (sender_id, receiver_id, content, created_at, is_read, sentiment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.pool.QueryRow(ctx, q,
		msg.SenderID, msg.ReceiverID, msg.Content, msg.CreatedAt, msg.IsRead, string(msg.Sentiment),
	).Scan(&msg.ID)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("failed to append message: %w", err)
	}
	return msg, nil
}

func (r *MessageRepo) QueryConversation(ctx context.Context, userA, userB string, page int) ([]domain.ChatMessage, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * domain.ConversationPageSize

	const q = `
		SELECT id, sender_id, receiver_id, content, created_at, is_read, sentiment
		FROM chat_messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, q, userA, userB, domain.ConversationPageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	defer rows.Close()

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ChatMessage, error) {
		var m domain.ChatMessage
		var sentiment string
		err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.CreatedAt, &m.IsRead, &sentiment)
		m.Sentiment = domain.ParseSentiment(sentiment)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversation rows: %w", err)
	}
	return messages, nil
}

func (r *MessageRepo) MarkRead(ctx context.Context, ids []int64, readerID string) error {
	if len(ids) == 0 {
		return nil
	}

	const q = `
		UPDATE chat_messages
		SET is_read = TRUE
		WHERE id = ANY($1) AND receiver_id = $2 AND NOT is_read`

	if _, err := r.pool.Exec(ctx, q, ids, readerID); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

func (r *MessageRepo) CountUnread(ctx context.Context, receiverID string) (map[string]int, error) {
	const q = `
		SELECT sender_id, COUNT(*)
		FROM chat_messages
		WHERE receiver_id = $1 AND NOT is_read
		GROUP BY sender_id`

	rows, err := r.pool.Query(ctx, q, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread messages: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var senderID string
		var count int
		if err := rows.Scan(&senderID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan unread count: %w", err)
		}
		counts[senderID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read unread counts: %w", err)
	}
	return counts, nil
}
