package domain

import "time"

// Link represents a posted link on the board
type Link struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
	PostedByID  int64     `json:"posted_by_id"`
}

// User is the author of links and votes
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Vote connects a user to a link they voted on
type Vote struct {
	ID        int64     `json:"id"`
	LinkID    int64     `json:"link_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
