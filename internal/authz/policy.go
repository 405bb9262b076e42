// Package authz centralizes the role-based access rules. Every mutation and
// read in the ticket services consults this table before touching storage,
// so the full rule set lives in one place and each action×role pair can be
// tested directly.
package authz

import "github.com/spec-kit/support-desk/internal/domain"

// Action identifies an operation gated by the policy.
type Action string

const (
	ActionViewTicket   Action = "viewTicket"
	ActionListTickets  Action = "listTickets"
	ActionCreateTicket Action = "createTicket"
	ActionChangeStatus Action = "changeStatus"
	ActionAddNote      Action = "addNote"
	ActionViewStats    Action = "viewStats"
)

// Scope describes how far a grant reaches.
type Scope int

const (
	// ScopeNone denies the action outright.
	ScopeNone Scope = iota
	// ScopeOwned allows the action only on tickets the actor owns.
	ScopeOwned
	// ScopeAny allows the action on any ticket.
	ScopeAny
)

// grants is the complete rule table. Customers act on their own tickets,
// staff on all; status changes and stats are staff/admin concerns.
var grants = map[Action]map[domain.Role]Scope{
	ActionViewTicket: {
		domain.RoleCustomer: ScopeOwned,
		domain.RoleAgent:    ScopeAny,
		domain.RoleAdmin:    ScopeAny,
	},
	ActionListTickets: {
		domain.RoleCustomer: ScopeOwned,
		domain.RoleAgent:    ScopeAny,
		domain.RoleAdmin:    ScopeAny,
	},
	ActionCreateTicket: {
		domain.RoleCustomer: ScopeOwned,
		domain.RoleAgent:    ScopeAny,
		domain.RoleAdmin:    ScopeAny,
	},
	ActionChangeStatus: {
		domain.RoleCustomer: ScopeNone,
		domain.RoleAgent:    ScopeAny,
		domain.RoleAdmin:    ScopeAny,
	},
	ActionAddNote: {
		domain.RoleCustomer: ScopeOwned,
		domain.RoleAgent:    ScopeAny,
		domain.RoleAdmin:    ScopeAny,
	},
	ActionViewStats: {
		domain.RoleCustomer: ScopeNone,
		domain.RoleAgent:    ScopeNone,
		domain.RoleAdmin:    ScopeAny,
	},
}

// ScopeFor returns the grant scope for an actor and action.
func ScopeFor(actor *domain.User, action Action) Scope {
	if actor == nil {
		return ScopeNone
	}
	return grants[action][actor.Role]
}

// Can reports whether the actor may perform the action against a ticket
// owned by ownerID. For actions without a target (stats, listing) pass an
// empty ownerID; owned-scope grants then deny, which is the safe default.
func Can(actor *domain.User, action Action, ownerID string) bool {
	switch ScopeFor(actor, action) {
	case ScopeAny:
		return true
	case ScopeOwned:
		return ownerID != "" && actor.ID == ownerID
	default:
		return false
	}
}
