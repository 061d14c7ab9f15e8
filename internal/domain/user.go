package domain

import "time"

// User is the account record owned by the account subsystem. The chat core
// treats it as read-only reference data.
type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"userName"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	ProfileImage string    `json:"profileImage"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RosterEntry is one row of the OnlineUsers roster sent to clients after
// any presence change. UnreadCount is relative to the viewer receiving
// the roster.
type RosterEntry struct {
	ID           string `json:"id"`
	UserName     string `json:"userName"`
	FullName     string `json:"fullName"`
	ProfileImage string `json:"profilePicture"`
	IsOnline     bool   `json:"isOnline"`
	UnreadCount  int    `json:"unreadCount"`
}

// ProfileSummary is the payload of the Notify event announcing a user that
// just came online for the first time in this registry's lifetime.
type ProfileSummary struct {
	ID           string `json:"id"`
	UserName     string `json:"userName"`
	FullName     string `json:"fullName"`
	ProfileImage string `json:"profilePicture"`
}

// Summary extracts the broadcastable profile fields of a user.
func (u User) Summary() ProfileSummary {
	return ProfileSummary{
		ID:           u.ID,
		UserName:     u.UserName,
		FullName:     u.FullName,
		ProfileImage: u.ProfileImage,
	}
}
