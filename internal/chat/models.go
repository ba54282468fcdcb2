package chat

import "time"

type Thread struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID         int64     `json:"id"`
	ChatID     string    `json:"chat_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

type Participant struct {
	ChatID      string    `json:"chat_id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url"`
	JoinedAt    time.Time `json:"joined_at"`
}
