// Package server is the HTTP/WebSocket surface: account endpoints, health
// and metrics, and the chat socket. The socket handler validates the token
// before upgrading, then pumps inbound frames into the coordinator.
package server
