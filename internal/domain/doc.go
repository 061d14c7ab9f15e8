// Package domain holds the core types and collaborator interfaces of the
// chat hub: users, messages, presence entries, the wire-level frames, and
// the narrow ports the coordinator consumes (identity resolution, message
// persistence, sentiment analysis, token validation).
package domain
