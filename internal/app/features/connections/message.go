// internal/app/features/connections/message.go
package connections

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	"github.com/dalemusser/mentorhub/internal/app/policy/connectionpolicy"
	connectionstore "github.com/dalemusser/mentorhub/internal/app/store/connections"
	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/mentorhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mentorhub/internal/app/system/limits"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /connections/{id}/message                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleMessage appends a message to the connection thread. Anyone who can
// view the connection can write to its thread.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	connID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Connection not found.", "/connections")
		return
	}
	connPath := "/connections/" + connID.Hex()

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", connPath)
		return
	}

	content := strings.TrimSpace(r.FormValue("content"))
	if content == "" {
		http.Redirect(w, r, connPath, http.StatusSeeOther)
		return
	}
	if len(content) > limits.MaxMessageLength {
		uierrors.RenderBadRequest(w, r, "The message is too long.", connPath)
		return
	}
	content = htmlsanitize.Sanitize(content)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	conn, err := h.Connections.Get(ctx, connID)
	if errors.Is(err, connectionstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "Connection not found.", "/connections")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load connection", err, "A server error occurred.", "/connections")
		return
	}

	ok, err := connectionpolicy.CanView(ctx, h.Profiles, r, conn)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "view authorization check", err, "A server error occurred.", "/connections")
		return
	}
	if !ok {
		uierrors.RenderForbidden(w, r, "You are not part of this connection.", "/connections")
		return
	}

	_, uname, uid, _ := authz.UserCtx(r)
	if _, err := h.Messages.Append(ctx, connID, uid, uname, content); err != nil {
		h.ErrLog.LogServerError(w, r, "append message", err, "A server error occurred.", connPath)
		return
	}

	http.Redirect(w, r, connPath, http.StatusSeeOther)
}
