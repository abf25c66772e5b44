// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
)

// listItem represents a single audit event row for display.
type listItem struct {
	ID         string
	Timestamp  time.Time
	Category   string
	EventType  string
	ActorName  string // resolved from ActorID
	TargetName string // resolved from UserID
	OrgName    string // resolved from OrganizationID
	IP         string
	Success    bool
	Details    map[string]string
}

// listData is the view model for the audit log list page.
type listData struct {
	viewdata.BaseVM

	Items []listItem

	// Filters
	Category  string
	EventType string
	StartDate string
	EndDate   string

	// Filter options
	Categories []categoryOption
	EventTypes []string

	// Pagination
	Page       int
	TotalPages int
	Total      int64
	Shown      int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

// categoryOption represents a category for the filter dropdown.
type categoryOption struct {
	Value string
	Label string
}

func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Authentication"},
		{Value: audit.CategoryAdmin, Label: "Administration"},
	}
}

// eventTypesForCategory returns the event types for a given category.
// An empty category returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedUserDisabled,
		audit.EventLogout,
		audit.EventUserRegistered,
	}

	adminEvents := []string{
		audit.EventUserCreated,
		audit.EventUserDisabled,
		audit.EventUserEnabled,
		audit.EventOrgCreated,
		audit.EventOrgUpdated,
		audit.EventOrgDeleted,
		audit.EventConnectionCreated,
		audit.EventConnectionDecided,
		audit.EventConnectionDeleted,
		audit.EventRoleGranted,
		audit.EventRoleResigned,
		audit.EventInvitationSent,
		audit.EventInvitationClaimed,
		audit.EventInvitationRevoked,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		return all
	default:
		return nil
	}
}
