package domain

import "time"

// Message is one chat line scoped to a project. The relay constructs
// and forwards messages; the datastore owns their durable form.
type Message struct {
	ID        int64     `json:"id"`
	UserID    UserID    `json:"u_id"`
	ProjectID ProjectID `json:"p_id"`
	Text      string    `json:"message_text"`
	CreatedAt time.Time `json:"created_at"`
}
