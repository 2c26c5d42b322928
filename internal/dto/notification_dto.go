package dto

import "time"

type NotificationResponseDTO struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	Priority  string    `json:"priority"`
	Read      bool      `json:"read"`
	ActionURL string    `json:"action_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type UnreadCountDTO struct {
	UnreadCount int64 `json:"unread_count"`
}

// FeedSnapshotDTO is one SSE frame of a live notification feed: the full
// bounded window plus its unread counter.
type FeedSnapshotDTO struct {
	UnreadCount   int                       `json:"unread_count"`
	Notifications []NotificationResponseDTO `json:"notifications"`
}
