// internal/app/system/normalize/normalize.go
//
// Package normalize canonicalizes user-supplied identity fields before
// storage or comparison. Store code applies these at every write path so
// lookups never depend on how a value was typed.
package normalize

import "strings"

// Email trims whitespace and lowercases the address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims whitespace. Case is preserved; folded variants live in the
// *_ci fields.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// AuthMethod trims and lowercases an auth method identifier.
func AuthMethod(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status trims and lowercases a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role trims and lowercases a role value.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a free-form query parameter, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// OrgID trims an organization id filter value. The sentinel "all" (any
// case) means no filter and converts to the empty string.
func OrgID(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}
