// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// DefaultSiteName is used until Init is called with the configured name.
const DefaultSiteName = "MentorHub"

// siteName is set once at startup from app config.
var siteName = DefaultSiteName

// Init sets the configured site name. Call once from bootstrap.
func Init(name string) {
	if name != "" {
		siteName = name
	}
}

// SiteName returns the configured site name.
func SiteName() string {
	return siteName
}

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, "Page Title", "/default-back"),
//	    // page-specific fields...
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	Role       string
	UserName   string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection
	CSRFToken string // Token for form submission
}

// NewBaseVM creates a fully populated BaseVM for a page.
//
// Parameters:
//   - r: the HTTP request
//   - title: the page title
//   - backDefault: default URL for the back button if none in request
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	role, name, _, signedIn := authz.UserCtx(r)

	return BaseVM{
		SiteName:    siteName,
		IsLoggedIn:  signedIn,
		Role:        role,
		UserName:    name,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}
}
