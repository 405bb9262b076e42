package domain

import "time"

// Note is one entry in a ticket's response thread. Notes are append-only:
// once persisted they are never edited, removed, or reordered. AuthorRole is
// a snapshot of the author's role at write time, so later role changes do not
// rewrite history. AttachmentRef is an opaque reference issued by the
// attachment store; the core never interprets it.
type Note struct {
	ID            string
	TicketID      string
	Text          string
	AuthorID      string
	AuthorRole    Role
	Author        *User
	AttachmentRef *string
	CreatedAt     time.Time
}
