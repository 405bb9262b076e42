package domain

import (
	"fmt"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets. No status is
// terminal; any transition between the three is allowed for staff.
type TicketStatus string

const (
	TicketStatusActive  TicketStatus = "Active"
	TicketStatusPending TicketStatus = "Pending"
	TicketStatusClosed  TicketStatus = "Closed"
)

// ParseTicketStatus validates a status string.
func ParseTicketStatus(value string) (TicketStatus, error) {
	switch TicketStatus(strings.TrimSpace(value)) {
	case TicketStatusActive:
		return TicketStatusActive, nil
	case TicketStatusPending:
		return TicketStatusPending, nil
	case TicketStatusClosed:
		return TicketStatusClosed, nil
	default:
		return "", fmt.Errorf("unknown ticket status %q", value)
	}
}

// Ticket is the aggregate for support requests. CustomerID always references
// a customer-role user; DisplayID is the human-facing sequential label.
type Ticket struct {
	ID         string
	DisplayID  string
	Title      string
	Status     TicketStatus
	CustomerID string
	Customer   *User
	Notes      []Note
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FormatDisplayID renders a sequence value as a display label, zero-padded
// to at least three digits (TKT-001, TKT-1042).
func FormatDisplayID(seq int64) string {
	return fmt.Sprintf("TKT-%03d", seq)
}
