// internal/app/features/organizations/edit.go
package organizations

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	organizationstore "github.com/dalemusser/mentorhub/internal/app/store/organizations"
	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/mentorhub/internal/app/system/formutil"
	"github.com/dalemusser/mentorhub/internal/app/system/inputval"
	"github.com/dalemusser/mentorhub/internal/app/system/status"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeEdit renders the "Edit Organization" form.
// Authorization: RequireRole("admin") middleware in routes.go.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	orgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Organization not found.", "/organizations")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	org, err := h.Orgs.GetByID(ctx, orgID)
	if errors.Is(err, organizationstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "Organization not found.", "/organizations")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load organization", err, "Unable to load the organization.", "/organizations")
		return
	}

	data := editData{
		ID:          org.ID.Hex(),
		Name:        org.Name,
		Description: org.Description,
		Homepage:    org.Homepage,
		Contact:     org.ContactInfo,
		Status:      org.Status,
	}
	formutil.SetBase(&data.Base, r, "Edit Organization", "/organizations")
	templates.Render(w, r, "organization_edit", data)
}

// HandleEdit processes the Edit Organization form submission.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	orgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Organization not found.", "/organizations")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/organizations")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	description := strings.TrimSpace(r.FormValue("description"))
	homepage := strings.TrimSpace(r.FormValue("homepage"))
	contact := strings.TrimSpace(r.FormValue("contact"))
	orgStatus := strings.TrimSpace(r.FormValue("status"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	renderWithError := func(msg string) {
		data := editData{
			ID:          orgID.Hex(),
			Name:        name,
			Description: description,
			Homepage:    homepage,
			Contact:     contact,
			Status:      orgStatus,
		}
		formutil.SetBase(&data.Base, r, "Edit Organization", "/organizations")
		data.SetError(msg)
		templates.Render(w, r, "organization_edit", data)
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
	if orgStatus != status.Active && orgStatus != status.Disabled {
		renderWithError("Please choose a valid status.")
		return
	}

	err = h.Orgs.Update(ctx, orgID, models.Organization{
		Name:        name,
		Description: description,
		Homepage:    homepage,
		ContactInfo: contact,
		Status:      orgStatus,
	})
	if errors.Is(err, organizationstore.ErrDuplicateOrganization) {
		renderWithError("An organization with that name already exists.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update organization", err, "Database error while updating the organization.", "/organizations")
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.OrgUpdated(ctx, r, actorID, orgID, name)

	http.Redirect(w, r, "/organizations/"+orgID.Hex()+"/view", http.StatusSeeOther)
}
