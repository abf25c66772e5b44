// internal/app/features/users/types.go
package users

import (
	"time"

	"github.com/dalemusser/mentorhub/internal/app/system/formutil"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// userRow is one row in the admin users list.
type userRow struct {
	ID       primitive.ObjectID
	FullName string
	Email    string
	Role     string
	Status   string
}

// listData is the view model for the admin users list page.
type listData struct {
	viewdata.BaseVM

	SearchQuery string
	Status      string // "", active, disabled
	UserRole    string // "", admin, user

	Rows []userRow

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

// newData is the view model for the "New User" form.
type newData struct {
	formutil.Base

	FullName string
	Email    string
	UserRole string
}

// auditRow is one audit event on the user detail page.
type auditRow struct {
	Event   string
	When    time.Time
	IP      string
	Details string
}

// viewData is the view model for the user detail page.
type viewData struct {
	viewdata.BaseVM

	ID       string
	FullName string
	Email    string
	UserRole string
	Status   string
	IsSelf   bool

	AuditEvents []auditRow
}
