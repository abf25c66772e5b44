// internal/app/features/organizations/types.go
package organizations

import (
	"github.com/dalemusser/mentorhub/internal/app/system/formutil"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// listItem is a single row in the organizations list.
type listItem struct {
	ID     primitive.ObjectID
	Name   string
	NameCI string // case-insensitive name for cursor building
	Status string

	// Admin columns.
	ConnectionsCount int64
	InvitesCount     int64
}

// listData is the view model for the organizations list page.
type listData struct {
	viewdata.BaseVM

	Q     string
	Items []listItem

	// Pagination
	Shown      int
	Total      int64
	HasPrev    bool
	HasNext    bool
	PrevCursor string
	NextCursor string
	RangeStart int
	RangeEnd   int
	PrevStart  int
	NextStart  int
}

// personRow is one mentor or org admin shown on the organization page.
type personRow struct {
	Name  string
	Email string
}

// viewData is the view model for the organization page.
type viewData struct {
	viewdata.BaseVM

	ID          string
	Name        string
	Description string
	Homepage    string
	Contact     string
	Status      string

	Mentors []personRow
	Admins  []personRow

	// IsOrgAdmin is true when the viewer administers this organization and
	// should see the link to its connections page.
	IsOrgAdmin bool
}

// orgManageModalData is used for the HTMX "Manage Organization" modal.
type orgManageModalData struct {
	ID      string
	Name    string
	BackURL string
}

// newData is the view model for the "New Organization" page.
type newData struct {
	formutil.Base

	Name        string
	Description string
	Homepage    string
	Contact     string
}

// editData is the view model for the "Edit Organization" page.
type editData struct {
	formutil.Base

	ID          string
	Name        string
	Description string
	Homepage    string
	Contact     string
	Status      string
}
