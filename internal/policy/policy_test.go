package policy

import (
	"testing"

	"medibook-server/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAdminAllowedEverywhereExceptBooking(t *testing.T) {
	admin := Caller{UserID: "admin-1", Role: models.RoleAdmin}

	for resource, actions := range table {
		for action := range actions {
			want := !(resource == ResourceAppointment && action == ActionCreate)
			assert.Equal(t, want, Authorize(admin, resource, action), "%s/%s", resource, action)
		}
	}
}

func TestAuthorize(t *testing.T) {
	customer := Caller{UserID: "cust-1", Role: models.RoleCustomer}
	doctor := Caller{UserID: "doc-user-1", Role: models.RoleDoctor}

	tests := []struct {
		name     string
		caller   Caller
		resource Resource
		action   Action
		owners   []string
		want     bool
	}{
		{"customer books", customer, ResourceAppointment, ActionCreate, nil, true},
		{"doctor cannot book", doctor, ResourceAppointment, ActionCreate, nil, false},
		{"customer reads own booking", customer, ResourceAppointment, ActionRead, []string{"cust-1", "doc-user-1"}, true},
		{"customer reads other booking", customer, ResourceAppointment, ActionRead, []string{"cust-2", "doc-user-1"}, false},
		{"doctor reads booking on own timeslot", doctor, ResourceAppointment, ActionRead, []string{"cust-1", "doc-user-1"}, true},
		{"doctor cannot update booking", doctor, ResourceAppointment, ActionUpdate, []string{"cust-1", "doc-user-1"}, false},
		{"customer cancels own booking", customer, ResourceAppointment, ActionDelete, []string{"cust-1"}, true},
		{"doctor creates own timeslot", doctor, ResourceTimeslot, ActionCreate, []string{"doc-user-1"}, true},
		{"doctor creates timeslot for another", doctor, ResourceTimeslot, ActionCreate, []string{"doc-user-2"}, false},
		{"customer cannot create timeslot", customer, ResourceTimeslot, ActionCreate, []string{"cust-1"}, false},
		{"customer cannot create doctor", customer, ResourceDoctor, ActionCreate, nil, false},
		{"doctor cannot delete own profile", doctor, ResourceDoctor, ActionDelete, []string{"doc-user-1"}, false},
		{"doctor updates own profile", doctor, ResourceDoctor, ActionUpdate, []string{"doc-user-1"}, true},
		{"anyone sends messages", customer, ResourceMessage, ActionCreate, nil, true},
		{"sender cannot mark read", customer, ResourceMessage, ActionMarkRead, []string{"doc-user-1"}, false},
		{"receiver marks read", customer, ResourceMessage, ActionMarkRead, []string{"cust-1"}, true},
		{"sender deletes", customer, ResourceMessage, ActionDelete, []string{"cust-1", "doc-user-1"}, true},
		{"self update", customer, ResourceUser, ActionUpdate, []string{"cust-1"}, true},
		{"update other user", customer, ResourceUser, ActionUpdate, []string{"cust-2"}, false},
		{"list users", doctor, ResourceUser, ActionList, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.caller, tt.resource, tt.action, tt.owners...))
		})
	}
}

func TestUnknownRoleDenied(t *testing.T) {
	c := Caller{UserID: "x", Role: models.Role("patient")}
	assert.False(t, Authorize(c, ResourceMessage, ActionCreate))
	assert.Equal(t, Deny, RuleFor(ResourceMessage, ActionCreate, c.Role))
}

func TestOwnerRuleNeedsCallerID(t *testing.T) {
	c := Caller{Role: models.RoleCustomer}
	assert.False(t, Authorize(c, ResourceUser, ActionRead, ""))
}
