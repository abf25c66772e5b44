// internal/app/features/organizations/new.go
package organizations

import (
	"context"
	"errors"
	"net/http"
	"strings"

	organizationstore "github.com/dalemusser/mentorhub/internal/app/store/organizations"
	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/mentorhub/internal/app/system/formutil"
	"github.com/dalemusser/mentorhub/internal/app/system/inputval"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// orgInput defines validation rules for organization forms.
type orgInput struct {
	Name        string `validate:"required,max=200" label:"Organization name"`
	Description string `validate:"max=4000" label:"Description"`
	Homepage    string `validate:"max=300" label:"Homepage"`
	Contact     string `validate:"max=500" label:"Contact info"`
}

// ServeNew renders the "New Organization" form.
// Authorization: RequireRole("admin") middleware in routes.go.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	data := newData{}
	formutil.SetBase(&data.Base, r, "New Organization", "/organizations")
	templates.Render(w, r, "organization_new", data)
}

// HandleCreate processes the New Organization form submission.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/organizations")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	description := strings.TrimSpace(r.FormValue("description"))
	homepage := strings.TrimSpace(r.FormValue("homepage"))
	contact := strings.TrimSpace(r.FormValue("contact"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	renderWithError := func(msg string) {
		data := newData{
			Name:        name,
			Description: description,
			Homepage:    homepage,
			Contact:     contact,
		}
		formutil.SetBase(&data.Base, r, "New Organization", "/organizations")
		data.SetError(msg)
		templates.Render(w, r, "organization_new", data)
	}

	input := orgInput{Name: name, Description: description, Homepage: homepage, Contact: contact}
	if result := inputval.Validate(input); result.HasErrors() {
		renderWithError(result.First())
		return
	}
	if homepage != "" && !inputval.IsValidHTTPURL(homepage) {
		renderWithError("The homepage must be an absolute http or https URL.")
		return
	}

	org, err := h.Orgs.Create(ctx, models.Organization{
		Name:        name,
		Description: description,
		Homepage:    homepage,
		ContactInfo: contact,
	})
	if errors.Is(err, organizationstore.ErrDuplicateOrganization) {
		renderWithError("An organization with that name already exists.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create organization", err, "Database error while creating the organization.", "/organizations")
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.OrgCreated(ctx, r, actorID, org.ID, org.Name)

	http.Redirect(w, r, "/organizations/"+org.ID.Hex()+"/view", http.StatusSeeOther)
}
