// Package inputval validates user-supplied form input.
//
// It provides standalone predicate functions (IsValidEmail, IsValidHTTPURL,
// IsValidObjectID) plus a small struct-tag driven Validate helper for form
// structs:
//
//	type newOrgInput struct {
//		Name     string `validate:"required,max=120" label:"Organization name"`
//		Homepage string `validate:"httpurl" label:"Homepage"`
//	}
//
//	result := inputval.Validate(in)
//	if result.HasErrors() {
//		data.SetError(result.First())
//	}
package inputval

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// emailLocalRe matches a dot-atom local part: no leading/trailing dot,
// no consecutive dots, no whitespace.
var emailLocalRe = regexp.MustCompile(`^[A-Za-z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+(\.[A-Za-z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+)*$`)

// emailDomainRe matches one or more dot-separated labels. Single-label
// domains (localhost, mailserver) are allowed for dev and test setups.
var emailDomainRe = regexp.MustCompile(`^[A-Za-z0-9-]+(\.[A-Za-z0-9-]+)*$`)

// IsValidEmail reports whether s looks like a plain email address.
// Display-name forms ("Name <addr>") are rejected.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	local, domain := s[:at], s[at+1:]
	return emailLocalRe.MatchString(local) && emailDomainRe.MatchString(domain)
}

// IsValidHTTPURL reports whether s is an absolute http or https URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// IsValidObjectID reports whether s is a 24-character hex MongoDB ObjectID.
func IsValidObjectID(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 24 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// FieldError describes one validation failure.
type FieldError struct {
	Field   string
	Message string
}

// Result collects validation failures for a form struct.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any field failed validation.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first error message, or "" when there are none.
// Forms usually show one error at a time.
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All returns every error message joined with "; ".
func (r *Result) All() string {
	if len(r.Errors) == 0 {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the string fields of a struct against its `validate` tags.
// Supported rules: required, max=N, email, httpurl, objectid.
// The `label` tag supplies the human-readable field name used in messages.
// Rules other than required are skipped for empty values, so optional fields
// validate only when filled in.
func Validate(in any) *Result {
	result := &Result{}

	v := reflect.ValueOf(in)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return result
	}
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || field.Type.Kind() != reflect.String {
			continue
		}

		label := field.Tag.Get("label")
		if label == "" {
			label = field.Name
		}
		value := strings.TrimSpace(v.Field(i).String())

		for _, rule := range strings.Split(tag, ",") {
			rule = strings.TrimSpace(rule)

			if rule == "required" {
				if value == "" {
					result.add(field.Name, fmt.Sprintf("%s is required.", label))
					break
				}
				continue
			}

			// Remaining rules only apply to non-empty values.
			if value == "" {
				continue
			}

			switch {
			case strings.HasPrefix(rule, "max="):
				n, err := strconv.Atoi(rule[len("max="):])
				if err == nil && len(value) > n {
					result.add(field.Name, fmt.Sprintf("%s must be at most %d characters.", label, n))
				}
			case rule == "email":
				if !IsValidEmail(value) {
					result.add(field.Name, "A valid email address is required.")
				}
			case rule == "httpurl":
				if !IsValidHTTPURL(value) {
					result.add(field.Name, fmt.Sprintf("%s must be a valid http:// or https:// URL.", label))
				}
			case rule == "objectid":
				if !IsValidObjectID(value) {
					result.add(field.Name, fmt.Sprintf("%s must be a valid identifier.", label))
				}
			}

			if len(result.Errors) > 0 && result.Errors[len(result.Errors)-1].Field == field.Name {
				break
			}
		}
	}

	return result
}

func (r *Result) add(field, msg string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: msg})
}
