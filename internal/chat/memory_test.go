package chat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/YakymenkoDarii/RealTimeChatApp/internal/domain"
)

// memStore is an in-memory MessageRepository with the same ordering and
// paging semantics as the Postgres implementation.
type memStore struct {
	mu         sync.Mutex
	messages   []domain.ChatMessage
	nextID     int64
	failAppend bool
}

func newMemStore() *memStore { return &memStore{nextID: 1} }

func (s *memStore) Append(ctx context.Context, msg domain.ChatMessage) (domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAppend {
		return domain.ChatMessage{}, errors.New("storage failure")
	}

	msg.ID = s.nextID
	s.nextID++
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *memStore) QueryConversation(ctx context.Context, userA, userB string, page int) ([]domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if page < 1 {
		page = 1
	}

	var conversation []domain.ChatMessage
	for _, m := range s.messages {
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			conversation = append(conversation, m)
		}
	}
	sort.SliceStable(conversation, func(i, j int) bool {
		if !conversation[i].CreatedAt.Equal(conversation[j].CreatedAt) {
			return conversation[i].CreatedAt.After(conversation[j].CreatedAt)
		}
		return conversation[i].ID > conversation[j].ID
	})

	start := (page - 1) * domain.ConversationPageSize
	if start >= len(conversation) {
		return nil, nil
	}
	end := min(start+domain.ConversationPageSize, len(conversation))
	return append([]domain.ChatMessage(nil), conversation[start:end]...), nil
}

func (s *memStore) MarkRead(ctx context.Context, ids []int64, readerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	for i := range s.messages {
		if wanted[s.messages[i].ID] && s.messages[i].ReceiverID == readerID {
			s.messages[i].IsRead = true
		}
	}
	return nil
}

func (s *memStore) CountUnread(ctx context.Context, receiverID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)
	for _, m := range s.messages {
		if m.ReceiverID == receiverID && !m.IsRead {
			counts[m.SenderID]++
		}
	}
	return counts, nil
}

// seed inserts a message directly, bypassing the pipeline.
func (s *memStore) seed(sender, receiver, content string, at time.Time) domain.ChatMessage {
	msg, _ := s.Append(context.Background(), domain.ChatMessage{
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		CreatedAt:  at,
		Sentiment:  domain.SentimentNeutral,
	})
	return msg
}

func (s *memStore) get(id int64) (domain.ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID == id {
			return m, true
		}
	}
	return domain.ChatMessage{}, false
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// memIdentities is an in-memory IdentityResolver.
type memIdentities struct {
	mu    sync.Mutex
	users []domain.User
}

func (r *memIdentities) add(user domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, user)
}

func (r *memIdentities) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.UserName == username {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memIdentities) FindByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memIdentities) ListUsers(ctx context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.User(nil), r.users...), nil
}

// stubAnnotator returns a fixed label without touching any collaborator.
type stubAnnotator struct {
	label domain.Sentiment
}

func (a *stubAnnotator) Analyze(ctx context.Context, text string) (domain.Sentiment, bool) {
	if a.label == "" {
		return domain.SentimentNeutral, true
	}
	return a.label, false
}
