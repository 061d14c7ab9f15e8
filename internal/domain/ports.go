package domain

import "context"

// IdentityResolver looks up account records. Backed by the account
// subsystem's storage; the chat core never writes through it.
type IdentityResolver interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// MessageRepository is the durable store of chat messages.
type MessageRepository interface {
	// Append persists a message and returns it with the assigned id.
	Append(ctx context.Context, msg ChatMessage) (ChatMessage, error)

	// QueryConversation returns the page-th block (1-based, fixed size
	// ConversationPageSize) of messages exchanged between the two users in
	// either direction, newest first, ties broken by id descending.
	QueryConversation(ctx context.Context, userA, userB string, page int) ([]ChatMessage, error)

	// MarkRead flags the given messages as read, but only those whose
	// receiver is readerID. Idempotent.
	MarkRead(ctx context.Context, ids []int64, readerID string) error

	// CountUnread returns, per sender id, how many persisted messages
	// addressed to receiverID are still unread.
	CountUnread(ctx context.Context, receiverID string) (map[string]int, error)
}

// SentimentService is the external text-analysis collaborator. It may be
// slow or unavailable; callers supply the fallback.
type SentimentService interface {
	Analyze(ctx context.Context, text string) (string, error)
}

// Identity is the authenticated principal extracted from a token.
type Identity struct {
	UserID   string
	UserName string
}

// TokenValidator checks the token presented at connect time. Rejection
// terminates the connect attempt before any presence mutation.
type TokenValidator interface {
	Validate(token string) (Identity, error)
}
