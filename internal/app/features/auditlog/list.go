// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

// ServeList handles GET /audit and displays the audit log with filtering.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	eventType := strings.TrimSpace(r.URL.Query().Get("event_type"))
	startDate := strings.TrimSpace(r.URL.Query().Get("start_date"))
	endDate := strings.TrimSpace(r.URL.Query().Get("end_date"))

	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}

	if startDate != "" {
		if t, err := time.Parse("2006-01-02", startDate); err == nil {
			filter.StartTime = &t
		}
	}
	if endDate != "" {
		if t, err := time.Parse("2006-01-02", endDate); err == nil {
			endOfDay := t.Add(24*time.Hour - time.Second)
			filter.EndTime = &endOfDay
		}
	}

	events, err := h.Audits.Query(ctx, filter)
	if err != nil {
		h.Log.Error("failed to query audit events", zap.Error(err))
		h.ErrLog.LogServerError(w, r, "database error", err, "A database error occurred.", "/")
		return
	}

	total, err := h.Audits.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("failed to count audit events", zap.Error(err))
		h.ErrLog.LogServerError(w, r, "database error", err, "A database error occurred.", "/")
		return
	}

	// Collect unique user and org IDs so names resolve in one batch each.
	userIDSet := make(map[primitive.ObjectID]struct{})
	orgIDSet := make(map[primitive.ObjectID]struct{})
	for _, e := range events {
		if e.ActorID != nil {
			userIDSet[*e.ActorID] = struct{}{}
		}
		if e.UserID != nil {
			userIDSet[*e.UserID] = struct{}{}
		}
		if e.OrganizationID != nil {
			orgIDSet[*e.OrganizationID] = struct{}{}
		}
	}

	userNames := make(map[primitive.ObjectID]string)
	if len(userIDSet) > 0 {
		ids := make([]primitive.ObjectID, 0, len(userIDSet))
		for id := range userIDSet {
			ids = append(ids, id)
		}
		users, err := h.Users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
		} else {
			for _, u := range users {
				userNames[u.ID] = u.FullName
			}
		}
	}

	orgNames := make(map[primitive.ObjectID]string)
	if len(orgIDSet) > 0 {
		ids := make([]primitive.ObjectID, 0, len(orgIDSet))
		for id := range orgIDSet {
			ids = append(ids, id)
		}
		orgs, err := h.Orgs.GetByIDs(ctx, ids)
		if err != nil {
			h.Log.Warn("failed to fetch org names for audit log", zap.Error(err))
		} else {
			for _, o := range orgs {
				orgNames[o.ID] = o.Name
			}
		}
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:        e.ID.Hex(),
			Timestamp: e.Timestamp,
			Category:  e.Category,
			EventType: e.EventType,
			IP:        e.IP,
			Success:   e.Success,
			Details:   e.Details,
		}
		if e.ActorID != nil {
			if name, ok := userNames[*e.ActorID]; ok {
				item.ActorName = name
			} else {
				item.ActorName = e.ActorID.Hex()
			}
		}
		if e.UserID != nil {
			if name, ok := userNames[*e.UserID]; ok {
				item.TargetName = name
			} else {
				item.TargetName = e.UserID.Hex()
			}
		}
		if e.OrganizationID != nil {
			if name, ok := orgNames[*e.OrganizationID]; ok {
				item.OrgName = name
			} else {
				item.OrgName = e.OrganizationID.Hex()
			}
		}
		items = append(items, item)
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	prevPage := page - 1
	if prevPage < 1 {
		prevPage = 1
	}
	nextPage := page + 1
	if nextPage > totalPages {
		nextPage = totalPages
	}

	templates.Render(w, r, "audit_list", listData{
		BaseVM:     viewdata.NewBaseVM(r, "Audit Log", "/"),
		Items:      items,
		Category:   category,
		EventType:  eventType,
		StartDate:  startDate,
		EndDate:    endDate,
		Categories: allCategories(),
		EventTypes: eventTypesForCategory(category),
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		Shown:      len(items),
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		PrevPage:   prevPage,
		NextPage:   nextPage,
	})
}
