package domain

import "encoding/json"

// Client -> server operations carried over the socket.
const (
	OpSendMessage  = "SendMessage"
	OpNotifyTyping = "NotifyTyping"
	OpLoadMessages = "LoadMessages"
)

// Server -> client event names.
const (
	EventOnlineUsers       = "OnlineUsers"
	EventReceiveMessage    = "ReceiveMessage"
	EventReceiveMessages   = "ReceiveMessageList"
	EventNotifyTyping      = "NotifyTypingToUser"
	EventNotify            = "Notify"
	EventError             = "Error"
)

// ClientFrame is one inbound call read off the socket.
type ClientFrame struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"data"`
}

// ServerFrame is one outbound event written to the socket.
type ServerFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// SendMessageRequest is the payload of the SendMessage operation.
type SendMessageRequest struct {
	ReceiverID string `json:"receiverId" validate:"required"`
	Content    string `json:"content" validate:"required,max=4000"`
}

// NotifyTypingRequest is the payload of the NotifyTyping operation.
type NotifyTypingRequest struct {
	RecipientUserName string `json:"recipientUsername" validate:"required"`
}

// LoadMessagesRequest is the payload of the LoadMessages operation.
// Page defaults to 1; the client owns the cursor and increments it between
// successive history-scroll requests.
type LoadMessagesRequest struct {
	RecipientID string `json:"recipientId" validate:"required"`
	Page        int    `json:"page"`
}

// OperationError is the payload of the Error event sent back to the caller
// when an operation fails (e.g. persistence failure on send).
type OperationError struct {
	Op     string `json:"op"`
	Reason string `json:"reason"`
}
