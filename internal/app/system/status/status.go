// internal/app/system/status/status.go
//
// Package status holds the account/record status vocabulary shared by users,
// profiles, and organizations.
package status

const (
	Active   = "active"
	Disabled = "disabled"
)

// IsValid reports whether s is a known status value.
func IsValid(s string) bool {
	return s == Active || s == Disabled
}
