package domain

import "time"

// Sentiment is the coarse three-way classification attached to a message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment maps a collaborator-provided label onto one of the three
// defined values. Anything unrecognized becomes neutral, never empty.
func ParseSentiment(label string) Sentiment {
	switch Sentiment(label) {
	case SentimentPositive, SentimentNegative:
		return Sentiment(label)
	default:
		return SentimentNeutral
	}
}

// ChatMessage is a persisted direct message. The record is immutable after
// creation except for IsRead, which transitions false to true exactly once
// when the receiver loads the conversation.
type ChatMessage struct {
	ID         int64     `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdDate"`
	IsRead     bool      `json:"isRead"`
	Sentiment  Sentiment `json:"sentiment"`
}

// ConversationPageSize is the fixed number of messages per history page.
const ConversationPageSize = 10
