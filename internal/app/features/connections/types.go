// internal/app/features/connections/types.go
package connections

import (
	"time"

	"github.com/dalemusser/mentorhub/internal/app/system/formutil"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// listItem is one row in a connections list; Counterpart is the org name on
// the user side and the user name on the org side.
type listItem struct {
	ID           primitive.ObjectID
	Counterpart  string
	Status       string
	GrantedRole  string
	Unseen       bool
	LastModified time.Time
}

// listData is the view model for the user-side connections list.
type listData struct {
	viewdata.BaseVM
	Items      []listItem
	HasProfile bool
}

// inviteRow is one outstanding invitation on the org page.
type inviteRow struct {
	ID        primitive.ObjectID
	Email     string
	RoleLabel string
	ExpiresAt time.Time
}

// orgListData is the view model for the organization-side connections page.
type orgListData struct {
	viewdata.BaseVM
	OrgID   string
	OrgName string
	Items   []listItem
	Invites []inviteRow
}

// trackRow is the per-track decision state shown on the connection page.
type trackRow struct {
	Track        models.Track
	Label        string
	State        models.TrackState
	UserDecision models.Decision
	OrgDecision  models.Decision

	// CanDecideUser / CanDecideOrg are true when the viewer may still act
	// on that side of this track.
	CanDecideUser bool
	CanDecideOrg  bool
	CanResign     bool
}

// messageRow is one entry of the connection thread.
type messageRow struct {
	AuthorName string
	System     bool
	Content    string
	CreatedOn  time.Time
}

// connViewData is the view model for the connection page.
type connViewData struct {
	viewdata.BaseVM
	ID        string
	OrgID     string
	OrgName   string
	UserName  string
	Status    string
	Tracks    []trackRow
	Messages  []messageRow
	CanPost   bool
	CanDelete bool
}

// orgOption is a dropdown entry on the start form.
type orgOption struct {
	ID   string
	Name string
}

// startData is the view model for the "request a role" form.
type startData struct {
	formutil.Base
	Orgs  []orgOption
	OrgID string
	Track string
	Note  string
}
