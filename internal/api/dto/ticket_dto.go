package dto

import "time"

// CreateTicketRequest payload. CustomerID is only honored when the actor is
// staff; customers always open tickets for themselves.
type CreateTicketRequest struct {
	Title       string `json:"title" form:"title"`
	InitialNote string `json:"initialNote" form:"initialNote"`
	CustomerID  string `json:"customerId" form:"customerId"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// CreateNoteRequest payload.
type CreateNoteRequest struct {
	Text string `json:"text" form:"text"`
}

// CustomerRef is the embedded customer identity on ticket responses.
type CustomerRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NoteAuthor is the embedded author identity on note responses.
type NoteAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// NoteResponse represents one thread entry.
type NoteResponse struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	CreatedBy  NoteAuthor `json:"createdBy"`
	Attachment *string    `json:"attachment"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// TicketResponse is the full ticket projection.
type TicketResponse struct {
	ID        string         `json:"id"`
	DisplayID string         `json:"displayId"`
	Title     string         `json:"title"`
	Status    string         `json:"status"`
	Customer  CustomerRef    `json:"customer"`
	Notes     []NoteResponse `json:"notes"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// TicketSummary is the listing projection: same shape without the thread.
type TicketSummary struct {
	ID        string      `json:"id"`
	DisplayID string      `json:"displayId"`
	Title     string      `json:"title"`
	Status    string      `json:"status"`
	Customer  CustomerRef `json:"customer"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
