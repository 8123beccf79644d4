package models

import "time"

// TagPattern maps a derived description key to a category and/or payee.
// Pattern is unique across the store.
type TagPattern struct {
	ID         string    `json:"id"`
	Pattern    string    `json:"pattern"`
	CategoryID string    `json:"category_id,omitempty"`
	PayeeID    string    `json:"payee_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
