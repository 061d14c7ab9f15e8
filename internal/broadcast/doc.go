// Package broadcast implements event fan-out to WebSocket clients.
//
// Each connection owns a write goroutine fed by a buffered channel, so a slow
// or dead client never blocks the caller or delivery to other connections.
// Slow clients are evicted when their buffer fills.
package broadcast
