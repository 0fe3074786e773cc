// Package http provides the web server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request
// data: method guards, form parsing, and filter extraction.

package http

import (
	"net/http"
	"net/url"
	"strings"

	"finboard/internal/core"
)

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}

// filterField maps a request parameter name to a filter field. Unknown
// names return false so handlers can reject them.
func filterField(name string) (core.FilterField, bool) {
	switch name {
	case "search":
		return core.FieldSearch, true
	case "category":
		return core.FieldCategory, true
	case "type":
		return core.FieldType, true
	case "start_date":
		return core.FieldStartDate, true
	case "end_date":
		return core.FieldEndDate, true
	}
	return "", false
}

// parseFilterValues reads filter fields from form or query values.
// Absent parameters leave the corresponding field untouched.
func parseFilterValues(values url.Values) core.Filter {
	var f core.Filter
	f.Search = sanitizeInput(values.Get("search"))
	f.Category = sanitizeInput(values.Get("category"))
	f.Type = core.TransactionType(sanitizeInput(values.Get("type")))
	if v := sanitizeInput(values.Get("start_date")); v != "" {
		f.StartDate = parseDateValue(v)
	}
	if v := sanitizeInput(values.Get("end_date")); v != "" {
		f.EndDate = parseDateValue(v)
	}
	return f
}
