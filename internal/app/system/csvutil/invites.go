// internal/app/system/csvutil/invites.go
package csvutil

import (
	"encoding/csv"
	"html/template"
	"io"
	"strings"

	"github.com/dalemusser/mentorhub/internal/app/system/inputval"
	"github.com/dalemusser/mentorhub/internal/domain/models"
)

// InviteCSVRow is the normalized row produced by PreScanInvitesCSV.
type InviteCSVRow struct {
	Email string
	Role  models.Track
}

// PreScanInvitesCSV reads all rows from r, skips a header if present,
// validates each row, and either returns normalized rows OR a formatted
// HTML error message (template.HTML) describing the first few bad lines.
// It never writes to a DB; it's safe to call before any mutations.
func PreScanInvitesCSV(r io.Reader) (rows []InviteCSVRow, htmlErr template.HTML, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// Pull first row to check header
	first, ferr := reader.Read()
	if ferr == io.EOF {
		first = nil
	} else if ferr != nil {
		return nil, template.HTML(template.HTMLEscapeString(ferr.Error())), nil
	}
	var raw [][]string
	if len(first) >= 2 &&
		strings.EqualFold(strings.TrimSpace(first[0]), "email") &&
		strings.EqualFold(strings.TrimSpace(first[1]), "role") {
		// header detected, skip
	} else if first != nil {
		raw = append(raw, first)
	}
	for {
		rec, e := reader.Read()
		if e == io.EOF {
			break
		}
		if e != nil || len(rec) == 0 {
			continue
		}
		raw = append(raw, rec)
		if len(raw) > MaxRows {
			return nil, template.HTML("Upload rejected: too many rows."), nil
		}
	}

	type rowErr struct{ Email, Role, Reason string }
	var errs []rowErr

	for _, rec := range raw {
		var email, role string
		if len(rec) > 0 {
			email = strings.TrimSpace(rec[0])
		}
		if len(rec) > 1 {
			role = strings.ToLower(strings.TrimSpace(rec[1]))
		}
		if email == "" && role == "" {
			continue
		}

		if !inputval.IsValidEmail(email) {
			errs = append(errs, rowErr{Email: email, Role: role, Reason: "invalid or missing email"})
			continue
		}

		track := models.Track(role)
		if role == "admin" || role == "organization admin" {
			track = models.TrackOrgAdmin
		}
		if !track.Valid() {
			errs = append(errs, rowErr{Email: email, Role: role, Reason: "invalid or missing role"})
			continue
		}

		rows = append(rows, InviteCSVRow{Email: strings.ToLower(email), Role: track})
	}

	if len(errs) > 0 {
		var b strings.Builder
		b.WriteString("Upload rejected: one or more rows are invalid.<br>")
		b.WriteString("Each row must have an Email and a Role.<br>")
		b.WriteString("Allowed roles (case-insensitive): mentor, org_admin.<br>")

		max := 5
		if len(errs) < max {
			max = len(errs)
		}
		if max > 0 {
			b.WriteString("Examples:<br>")
			for i := 0; i < max; i++ {
				e := errs[i]
				email := e.Email
				if email == "" {
					email = "(no email on row)"
				}
				role := e.Role
				if role == "" {
					role = "(missing)"
				}
				b.WriteString("• ")
				b.WriteString(template.HTMLEscapeString(email))
				b.WriteString(" | ")
				b.WriteString(template.HTMLEscapeString(role))
				b.WriteString(" → ")
				b.WriteString(template.HTMLEscapeString(e.Reason))
				b.WriteString("<br>")
			}
		}
		return nil, template.HTML(b.String()), nil
	}

	return rows, "", nil
}
