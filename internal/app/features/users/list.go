// internal/app/features/users/list.go
package users

import (
	"context"
	"maps"
	"net/http"
	"strings"

	"github.com/dalemusser/mentorhub/internal/app/system/normalize"
	"github.com/dalemusser/mentorhub/internal/app/system/paging"
	"github.com/dalemusser/mentorhub/internal/app/system/search"
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

// ServeList handles GET /users: the admin account list with search,
// status/role filters, and keyset pagination. Searches containing an email
// address pivot the sort to the email index.
// Authorization: RequireRole("admin") middleware in routes.go.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	searchQ := query.Search(r, "search")
	st := normalize.QueryParam(query.Get(r, "status")) // "", active, disabled
	uRole := normalize.QueryParam(query.Get(r, "role")) // "", admin, user
	after := query.Get(r, "after")
	before := query.Get(r, "before")
	start := paging.ParseStart(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	base := bson.M{}
	if st == status.Active || st == status.Disabled {
		base["status"] = st
	}
	if uRole == "admin" || uRole == "user" {
		base["role"] = uRole
	}

	emailPivot := search.EmailPivotNoOrgOK(searchQ, st)

	var searchOr []bson.M
	if searchQ != "" {
		fq := text.Fold(searchQ)
		sLower := strings.ToLower(strings.TrimSpace(searchQ))
		if emailPivot {
			searchOr = []bson.M{
				{"email": bson.M{"$gte": sLower, "$lt": sLower + "\uffff"}},
			}
		} else {
			searchOr = []bson.M{
				{"full_name_ci": bson.M{"$gte": fq, "$lt": fq + "\uffff"}},
				{"email": bson.M{"$gte": sLower, "$lt": sLower + "\uffff"}},
			}
		}
		base["$or"] = searchOr
	}

	total, err := h.Users.Count(ctx, base)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count users", err, "Unable to load users.", "/")
		return
	}

	f := maps.Clone(base)
	find := options.Find()
	sortField := "full_name_ci"
	if emailPivot {
		sortField = "email"
	}

	cfg := paging.ConfigureKeyset(before, after)
	cfg.ApplyToFind(find, sortField)
	if ks := cfg.KeysetWindow(sortField); ks != nil {
		if len(searchOr) > 0 {
			f["$and"] = []bson.M{{"$or": searchOr}, ks}
			delete(f, "$or")
		} else {
			maps.Copy(f, ks)
		}
	}

	accounts, err := h.Users.Find(ctx, f, find)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find users", err, "Unable to load users.", "/")
		return
	}

	if cfg.Direction == paging.Backward {
		paging.Reverse(accounts)
	}
	page := paging.TrimPage(&accounts, before, after)

	shown := len(accounts)
	rng := paging.ComputeRange(start, shown)

	rows := make([]userRow, 0, shown)
	for _, u := range accounts {
		rows = append(rows, userRow{
			ID:       u.ID,
			FullName: u.FullName,
			Email:    strings.ToLower(u.Email),
			Role:     normalize.Role(u.Role),
			Status:   normalize.Status(u.Status),
		})
	}

	cursorKey := func(u models.User) string {
		if emailPivot {
			return strings.ToLower(u.Email)
		}
		return u.FullNameCI
	}
	prevCur, nextCur := paging.BuildCursors(accounts, cursorKey,
		func(u models.User) primitive.ObjectID { return u.ID })

	data := listData{
		BaseVM:      viewdata.NewBaseVM(r, "Users", "/"),
		SearchQuery: searchQ,
		Status:      st,
		UserRole:    uRole,
		Rows:        rows,

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
	if r.Header.Get("HX-Request") != "" && r.Header.Get("HX-Target") == "users-table-wrap" {
		templates.RenderSnippet(w, "users_table", data)
		return
	}

	templates.Render(w, r, "users_list", data)
}
