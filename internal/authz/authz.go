// Package authz decides whether a principal may perform an action on a resource.
package authz

import (
	"sort"

	"github.com/google/uuid"
)

// Role is an application role stored on the user's profile
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleSalesManager Role = "sales_manager"
	RoleSalesRep     Role = "sales_rep"
	RoleViewer       Role = "viewer"
)

// Action is a CRUD verb
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resource is a protected entity collection
type Resource string

const (
	ResourceContacts      Resource = "contacts"
	ResourceClients       Resource = "clients"
	ResourceProjects      Resource = "projects"
	ResourceTasks         Resource = "tasks"
	ResourceOpportunities Resource = "opportunities"
	ResourceLeads         Resource = "leads"
)

// Principal is the acting user and their role. An empty role grants nothing.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

// Record carries the ownership data of a concrete row
type Record struct {
	OwnerID *uuid.UUID
}

// Owned is implemented by domain models that have an owner
type Owned interface {
	Owner() *uuid.UUID
}

// RecordOf builds a Record from an owned model
func RecordOf(o Owned) *Record {
	if o == nil {
		return nil
	}
	return &Record{OwnerID: o.Owner()}
}

var (
	allRoles     = []Role{RoleAdmin, RoleSalesManager, RoleSalesRep, RoleViewer}
	writers      = []Role{RoleAdmin, RoleSalesManager, RoleSalesRep}
	managers     = []Role{RoleAdmin, RoleSalesManager}
	managersView = []Role{RoleAdmin, RoleSalesManager, RoleViewer}
	adminOnly    = []Role{RoleAdmin}
)

// permissions is keyed "resource.action"
var permissions = map[string][]Role{
	"contacts.view":   allRoles,
	"contacts.create": writers,
	"contacts.update": writers,
	"contacts.delete": adminOnly,

	"clients.view":   allRoles,
	"clients.create": managers,
	"clients.update": managers,
	"clients.delete": adminOnly,

	"projects.view":   managersView,
	"projects.create": managers,
	"projects.update": managers,
	"projects.delete": adminOnly,

	"tasks.view":   managersView,
	"tasks.create": managers,
	"tasks.update": managers,
	"tasks.delete": adminOnly,

	"opportunities.view":   allRoles,
	"opportunities.create": writers,
	"opportunities.update": writers,
	"opportunities.delete": adminOnly,

	"leads.view":   allRoles,
	"leads.create": writers,
	"leads.update": writers,
	"leads.delete": adminOnly,
}

func key(resource Resource, action Action) string {
	return string(resource) + "." + string(action)
}

// Can reports whether p may perform action on resource. When record is non-nil,
// sales reps may only update or delete rows they own.
func Can(p Principal, action Action, resource Resource, record *Record) bool {
	if p.Role == "" {
		return false
	}
	allowed, ok := permissions[key(resource, action)]
	if !ok || !hasRole(allowed, p.Role) {
		return false
	}

	if p.Role == RoleSalesRep && record != nil && (action == ActionUpdate || action == ActionDelete) {
		return record.OwnerID != nil && *record.OwnerID == p.UserID
	}
	return true
}

func hasRole(roles []Role, r Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Permissions lists the "resource.action" keys granted to role, sorted.
func Permissions(role Role) []string {
	out := make([]string, 0)
	for k, roles := range permissions {
		if hasRole(roles, role) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// ParseRole maps a stored role string to a Role. Unknown strings yield ("", false).
func ParseRole(s string) (Role, bool) {
	for _, r := range allRoles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Resources lists every protected resource
func Resources() []Resource {
	return []Resource{ResourceContacts, ResourceClients, ResourceProjects, ResourceTasks, ResourceOpportunities, ResourceLeads}
}
