package home

import (
	"net/http"

	connectionstore "github.com/dalemusser/mentorhub/internal/app/store/connections"
	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler holds dependencies needed to serve the home page.
type Handler struct {
	Profiles    *profilestore.Store
	Connections *connectionstore.Store
	Log         *zap.Logger
}

func NewHandler(profiles *profilestore.Store, connections *connectionstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles:    profiles,
		Connections: connections,
		Log:         logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	data := struct {
		viewdata.BaseVM
		HasProfile  bool
		UnseenCount int64
	}{
		BaseVM: viewdata.NewBaseVM(r, "Welcome", "/"),
	}

	// Signed-in users get the unseen-connections badge on the landing page.
	if _, _, uid, ok := authz.UserCtx(r); ok {
		profile, err := h.Profiles.GetByUserID(r.Context(), uid)
		if err == nil {
			data.HasProfile = true
			count, err := h.Connections.CountUnseen(r.Context(), models.ActorUser, profile.ID)
			if err != nil {
				h.Log.Warn("home: count unseen connections", zap.Error(err))
			} else {
				data.UnseenCount = count
			}
		} else if err != profilestore.ErrNotFound {
			h.Log.Warn("home: load profile", zap.Error(err))
		}
	}

	templates.Render(w, r, "home", data)
}
