package model

import "time"

// Message represents a chat message as returned to clients
type Message struct {
	ID        int64      `json:"id"`
	Text      string     `json:"text"`
	Time      string     `json:"time"`
	UserID    int64      `json:"user_id"`
	IsRemoved bool       `json:"is_removed"`
	EditedAt  *time.Time `json:"edited_at"`
	IsMine    bool       `json:"is_mine"`
	Reactions []Reaction `json:"reactions"`
}

// EditedMessage is the payload of a successful edit
type EditedMessage struct {
	ID       int64     `json:"id"`
	Text     string    `json:"text"`
	EditedAt time.Time `json:"edited_at"`
}

// Reaction is one emoji left on a message by one user
type Reaction struct {
	Emoji  string `json:"emoji"`
	UserID int64  `json:"user_id"`
}
