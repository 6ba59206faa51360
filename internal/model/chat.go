package model

// Chat is one entry of the chat list
type Chat struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Avatar      string  `json:"avatar"`
	IsGroup     bool    `json:"is_group"`
	IsArchived  bool    `json:"is_archived"`
	LastMessage *string `json:"last_message"`
	Time        *string `json:"time"`
	Unread      int     `json:"unread"`
}

// Contact is another user of the messenger
type Contact struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Status string `json:"status"`
}

// TimeLayout renders timestamps as hour:minute on a 24h clock.
const TimeLayout = "15:04"
