// internal/app/features/organizations/list.go
package organizations

import (
	"context"
	"maps"
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/mentorhub/internal/app/system/orgutil"
	"github.com/dalemusser/mentorhub/internal/app/system/paging"
	"github.com/dalemusser/mentorhub/internal/app/system/status"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/text"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ServeList handles GET /organizations (with optional ?q= search).
// Everyone can browse; admins additionally see disabled organizations and
// per-org connection counts. Supports HTMX partial refresh of the table
// when HX-Target="orgs-table-wrap".
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	role, _, _, _ := authz.UserCtx(r)
	isAdmin := role == "admin"

	q := query.Search(r, "q")
	after := query.Get(r, "after")
	before := query.Get(r, "before")
	start := paging.ParseStart(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	base := bson.M{}
	if !isAdmin {
		base["status"] = status.Active
	}
	if fq := text.Fold(q); fq != "" {
		base["name_ci"] = bson.M{"$gte": fq, "$lt": fq + "\uffff"}
	}

	total, err := h.Orgs.Count(ctx, base)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count organizations", err, "Unable to load organizations.", "/")
		return
	}

	f := maps.Clone(base)
	find := options.Find()
	sortField := "name_ci"

	cfg := paging.ConfigureKeyset(before, after)
	cfg.ApplyToFind(find, sortField)
	if ks := cfg.KeysetWindow(sortField); ks != nil {
		// The search filter and the cursor window both constrain name_ci.
		if nameFilter, ok := f["name_ci"]; ok {
			f["$and"] = []bson.M{{"name_ci": nameFilter}, ks}
			delete(f, "name_ci")
		} else {
			maps.Copy(f, ks)
		}
	}

	orgs, err := h.Orgs.Find(ctx, f, find)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find organizations", err, "Unable to load organizations.", "/")
		return
	}

	if cfg.Direction == paging.Backward {
		paging.Reverse(orgs)
	}
	page := paging.TrimPage(&orgs, before, after)

	shown := len(orgs)
	rng := paging.ComputeRange(start, shown)

	var connCounts, inviteCounts map[primitive.ObjectID]int64
	if isAdmin && len(orgs) > 0 {
		orgIDs := make([]primitive.ObjectID, 0, len(orgs))
		for _, o := range orgs {
			orgIDs = append(orgIDs, o.ID)
		}
		in := bson.M{"organization_id": bson.M{"$in": orgIDs}}

		connCounts, err = orgutil.AggregateCountByField(ctx, h.DB, "connections", in, "organization_id")
		if err != nil {
			h.ErrLog.LogServerError(w, r, "aggregate connection counts", err, "Unable to load organizations.", "/")
			return
		}
		inviteCounts, err = orgutil.AggregateCountByField(ctx, h.DB, "anonymous_connections", in, "organization_id")
		if err != nil {
			h.ErrLog.LogServerError(w, r, "aggregate invitation counts", err, "Unable to load organizations.", "/")
			return
		}
	}

	items := make([]listItem, 0, len(orgs))
	for _, o := range orgs {
		items = append(items, listItem{
			ID:               o.ID,
			Name:             o.Name,
			NameCI:           o.NameCI,
			Status:           o.Status,
			ConnectionsCount: connCounts[o.ID],
			InvitesCount:     inviteCounts[o.ID],
		})
	}

	prevCur, nextCur := paging.BuildCursors(orgs,
		func(o models.Organization) string { return o.NameCI },
		func(o models.Organization) primitive.ObjectID { return o.ID })

	data := listData{
		BaseVM: viewdata.NewBaseVM(r, "Organizations", "/"),
		Q:      q,
		Items:  items,

		Shown:      shown,
		Total:      total,
		HasPrev:    page.HasPrev,
		HasNext:    page.HasNext,
		PrevCursor: prevCur,
		NextCursor: nextCur,
		RangeStart: rng.Start,
		RangeEnd:   rng.End,
		PrevStart:  rng.PrevStart,
		NextStart:  rng.NextStart,
	}

	// HTMX partial: just the table
	if r.Header.Get("HX-Request") != "" && r.Header.Get("HX-Target") == "orgs-table-wrap" {
		templates.RenderSnippet(w, "organizations_table", data)
		return
	}

	templates.Render(w, r, "organizations_list", data)
}
