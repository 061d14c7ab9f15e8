// Package chat implements the coordination hub: connection lifecycle,
// the send/relay/persist pipeline, typing relay, and history loading.
//
// The coordinator holds no connection state of its own; presence lives in
// the injected registry and delivery goes through the fanout. Every method
// is safe for concurrent use from many connections.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"

	"github.com/YakymenkoDarii/RealTimeChatApp/internal/broadcast"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/domain"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/metrics"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/presence"
)

// Annotator is the bounded-time sentiment step. It cannot fail; the bool
// reports whether the neutral fallback was taken.
type Annotator interface {
	Analyze(ctx context.Context, text string) (domain.Sentiment, bool)
}

// Coordinator orchestrates connect/disconnect, send, typing relay, and
// history loads over the injected collaborators.
type Coordinator struct {
	registry   *presence.Registry
	fanout     *broadcast.Fanout
	messages   domain.MessageRepository
	identities domain.IdentityResolver
	annotator  Annotator
	clock      clockwork.Clock
}

func NewCoordinator(
	registry *presence.Registry,
	fanout *broadcast.Fanout,
	messages domain.MessageRepository,
	identities domain.IdentityResolver,
	annotator Annotator,
	clock clockwork.Clock,
) *Coordinator {
	return &Coordinator{
		registry:   registry,
		fanout:     fanout,
		messages:   messages,
		identities: identities,
		annotator:  annotator,
		clock:      clock,
	}
}

// OnConnect registers the authenticated connection. A first connect for the
// username announces the user to everyone else; a reconnect only swaps the
// connection handle. peerHint, when set, triggers an immediate history load
// for that peer. Finally every viewer receives a refreshed roster.
func (c *Coordinator) OnConnect(ctx context.Context, conn *broadcast.Conn, identity domain.Identity, peerHint string) error {
	user, err := c.identities.FindByUsername(ctx, identity.UserName)
	if err != nil {
		return fmt.Errorf("failed to resolve connecting user %q: %w", identity.UserName, err)
	}

	c.fanout.Attach(conn)
	delta := c.registry.Connect(*user, conn)

	if delta.IsNewUser {
		c.fanout.SendToAllExcept(conn, domain.ServerFrame{
			Event: domain.EventNotify,
			Data:  user.Summary(),
		})
	}

	if peerHint != "" {
		if err := c.LoadMessages(ctx, identity, peerHint, 1); err != nil {
			slog.Warn("Initial history load failed", "username", identity.UserName, "peer", peerHint, "error", err)
		}
	}

	c.broadcastRoster(ctx)
	return nil
}

// OnDisconnect removes the presence entry unconditionally and refreshes the
// roster for everyone still connected.
func (c *Coordinator) OnDisconnect(ctx context.Context, conn *broadcast.Conn, identity domain.Identity) {
	c.registry.Disconnect(identity.UserName)
	c.fanout.Detach(conn)
	c.broadcastRoster(ctx)
}

// SendMessage runs the annotate -> persist -> deliver pipeline. Persistence
// failure is fatal: no delivery happens and the error is surfaced to the
// caller. An unresolvable recipient is not fatal; the message is persisted
// against the raw identifier and delivered on the recipient's next history
// load. The pipeline keeps running even if the sender's connection drops
// mid-operation.
func (c *Coordinator) SendMessage(ctx context.Context, sender domain.Identity, req domain.SendMessageRequest) (domain.ChatMessage, error) {
	ctx = context.WithoutCancel(ctx)

	receiver, err := c.identities.FindByID(ctx, req.ReceiverID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			err = domain.ErrUnknownRecipient
		}
		slog.Warn("Recipient not resolved, persisting anyway",
			"sender", sender.UserName, "receiver_id", req.ReceiverID, "error", err)
		receiver = nil
	}

	label, _ := c.annotator.Analyze(ctx, req.Content)

	msg := domain.ChatMessage{
		SenderID:   sender.UserID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		CreatedAt:  c.clock.Now().UTC(),
		IsRead:     false,
		Sentiment:  label,
	}

	persisted, err := c.messages.Append(ctx, msg)
	if err != nil {
		metrics.SendFailuresTotal.Inc()
		return domain.ChatMessage{}, fmt.Errorf("failed to persist message: %w", err)
	}
	metrics.MessagesSentTotal.WithLabelValues(string(persisted.Sentiment)).Inc()

	frame := domain.ServerFrame{Event: domain.EventReceiveMessage, Data: persisted}

	// Offline receiver: persistence alone is the delivery.
	if receiver != nil {
		c.fanout.SendTo(c.registry.Lookup(receiver.UserName), frame)
	}

	// The sender's echo carries the authoritative record with assigned id
	// and sentiment. A no-op if the sender is already gone.
	c.fanout.SendTo(c.registry.Lookup(sender.UserName), frame)

	return persisted, nil
}

// NotifyTyping relays a typing event to the recipient's connection, if any.
// No persistence, no rate limiting; an offline recipient drops the event.
func (c *Coordinator) NotifyTyping(sender domain.Identity, req domain.NotifyTypingRequest) {
	conn := c.registry.Lookup(req.RecipientUserName)
	c.fanout.SendTo(conn, domain.ServerFrame{
		Event: domain.EventNotifyTyping,
		Data:  sender.UserName,
	})
}

// LoadMessages fetches one fixed-size page of the conversation between the
// reader and peer, flags the reader's received messages as read, and
// delivers the page to the reader's own connection only. The client owns
// the page cursor; repeated calls with the same page are idempotent reads.
func (c *Coordinator) LoadMessages(ctx context.Context, reader domain.Identity, peerID string, page int) error {
	if page < 1 {
		page = 1
	}

	messages, err := c.messages.QueryConversation(ctx, reader.UserID, peerID, page)
	if err != nil {
		return fmt.Errorf("failed to load conversation page %d: %w", page, err)
	}

	var unreadIDs []int64
	for i := range messages {
		if messages[i].ReceiverID == reader.UserID && !messages[i].IsRead {
			unreadIDs = append(unreadIDs, messages[i].ID)
			messages[i].IsRead = true
		}
	}
	if err := c.messages.MarkRead(ctx, unreadIDs, reader.UserID); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}

	metrics.HistoryLoadsTotal.Inc()

	c.fanout.SendTo(c.registry.Lookup(reader.UserName), domain.ServerFrame{
		Event: domain.EventReceiveMessages,
		Data:  messages,
	})
	return nil
}

// broadcastRoster sends every online viewer their personalized roster: all
// registered accounts, online first, each annotated with the viewer's own
// unread count per sender.
func (c *Coordinator) broadcastRoster(ctx context.Context) {
	users, err := c.identities.ListUsers(ctx)
	if err != nil {
		slog.Error("Failed to list users for roster broadcast", "error", err)
		return
	}

	for _, viewer := range c.registry.Snapshot() {
		unread, err := c.messages.CountUnread(ctx, viewer.UserID)
		if err != nil {
			slog.Error("Failed to count unread messages", "user_id", viewer.UserID, "error", err)
			unread = nil
		}

		roster := lo.Map(users, func(u domain.User, _ int) domain.RosterEntry {
			return domain.RosterEntry{
				ID:           u.ID,
				UserName:     u.UserName,
				FullName:     u.FullName,
				ProfileImage: u.ProfileImage,
				IsOnline:     c.registry.Online(u.UserName),
				UnreadCount:  unread[u.ID],
			}
		})
		sort.SliceStable(roster, func(i, j int) bool {
			return roster[i].IsOnline && !roster[j].IsOnline
		})

		c.fanout.SendTo(viewer.Conn, domain.ServerFrame{
			Event: domain.EventOnlineUsers,
			Data:  roster,
		})
	}
}
