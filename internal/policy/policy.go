// Package policy decides whether a caller may perform an action on a resource.
//
// Decisions come from a single table keyed by (resource, action, role). A
// missing entry denies. Authorize never fails; callers turn a denial into the
// error appropriate for their operation.
package policy

import (
	"medibook-server/internal/models"
)

// Caller is the authenticated identity performing an operation.
type Caller struct {
	UserID string
	Role   models.Role
}

// Resource names an entity kind guarded by the policy.
type Resource string

const (
	ResourceUser        Resource = "user"
	ResourceDoctor      Resource = "doctor"
	ResourceTimeslot    Resource = "timeslot"
	ResourceAppointment Resource = "appointment"
	ResourceMessage     Resource = "message"
)

// Action names an operation on a resource.
type Action string

const (
	ActionCreate   Action = "create"
	ActionList     Action = "list"
	ActionRead     Action = "read"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionMarkRead Action = "mark_read"
)

// Rule is the outcome recorded in the table for one (resource, action, role).
type Rule int

const (
	Deny Rule = iota
	Allow
	// Owner allows when the caller's user ID is among the resource owners.
	Owner
)

type ruleSet map[models.Role]Rule

var table = map[Resource]map[Action]ruleSet{
	ResourceUser: {
		ActionCreate: {models.RoleAdmin: Allow},
		ActionList:   {models.RoleAdmin: Allow},
		ActionRead:   {models.RoleAdmin: Allow, models.RoleDoctor: Owner, models.RoleCustomer: Owner},
		ActionUpdate: {models.RoleAdmin: Allow, models.RoleDoctor: Owner, models.RoleCustomer: Owner},
		ActionDelete: {models.RoleAdmin: Allow, models.RoleDoctor: Owner, models.RoleCustomer: Owner},
	},
	ResourceDoctor: {
		ActionCreate: {models.RoleAdmin: Allow},
		ActionList:   {models.RoleAdmin: Allow, models.RoleDoctor: Allow, models.RoleCustomer: Allow},
		ActionRead:   {models.RoleAdmin: Allow, models.RoleDoctor: Allow, models.RoleCustomer: Allow},
		ActionUpdate: {models.RoleAdmin: Allow, models.RoleDoctor: Owner},
		ActionDelete: {models.RoleAdmin: Allow},
	},
	ResourceTimeslot: {
		ActionCreate: {models.RoleAdmin: Allow, models.RoleDoctor: Owner},
		ActionList:   {models.RoleAdmin: Allow, models.RoleDoctor: Allow, models.RoleCustomer: Allow},
		// customers are further limited to available timeslots
		ActionRead:   {models.RoleAdmin: Allow, models.RoleDoctor: Owner, models.RoleCustomer: Allow},
		ActionUpdate: {models.RoleAdmin: Allow, models.RoleDoctor: Owner},
		ActionDelete: {models.RoleAdmin: Allow, models.RoleDoctor: Owner},
	},
	ResourceAppointment: {
		ActionCreate: {models.RoleCustomer: Allow},
		ActionList:   {models.RoleAdmin: Allow, models.RoleDoctor: Allow, models.RoleCustomer: Allow},
		ActionRead:   {models.RoleAdmin: Allow, models.RoleDoctor: Owner, models.RoleCustomer: Owner},
		ActionUpdate: {models.RoleAdmin: Allow, models.RoleCustomer: Owner},
		ActionDelete: {models.RoleAdmin: Allow, models.RoleCustomer: Owner},
	},
	ResourceMessage: {
		ActionCreate:   {models.RoleAdmin: Allow, models.RoleDoctor: Allow, models.RoleCustomer: Allow},
		ActionList:     {models.RoleAdmin: Allow, models.RoleDoctor: Allow, models.RoleCustomer: Allow},
		ActionRead:     {models.RoleAdmin: Allow, models.RoleDoctor: Owner, models.RoleCustomer: Owner},
		ActionMarkRead: {models.RoleAdmin: Allow, models.RoleDoctor: Owner, models.RoleCustomer: Owner},
		ActionDelete:   {models.RoleAdmin: Allow, models.RoleDoctor: Owner, models.RoleCustomer: Owner},
	},
}

// RuleFor returns the table entry for (resource, action, role).
func RuleFor(resource Resource, action Action, role models.Role) Rule {
	return table[resource][action][role]
}

// Authorize reports whether caller may perform action on resource. owners are
// the user IDs associated with the resource instance: the doctor's user for a
// timeslot, the booking customer or the timeslot's doctor for an appointment,
// the sender and receiver for a message.
func Authorize(caller Caller, resource Resource, action Action, owners ...string) bool {
	switch RuleFor(resource, action, caller.Role) {
	case Allow:
		return true
	case Owner:
		if caller.UserID == "" {
			return false
		}
		for _, id := range owners {
			if id == caller.UserID {
				return true
			}
		}
	}
	return false
}
