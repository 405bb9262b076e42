package domain

// TicketStats aggregates counts for the admin dashboard.
type TicketStats struct {
	TotalTickets   int64 `json:"totalTickets"`
	ActiveTickets  int64 `json:"activeTickets"`
	PendingTickets int64 `json:"pendingTickets"`
	ClosedTickets  int64 `json:"closedTickets"`
	TotalCustomers int64 `json:"totalCustomers"`
}
