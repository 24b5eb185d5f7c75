// Package jsonapi holds the JSON:API document envelope used by the v1 API.
package jsonapi

import (
	"encoding/json"
	"strconv"
	"time"
)

// MediaType is the JSON:API content type.
const MediaType = "application/vnd.api+json"

// Document is a top-level JSON:API document. Exactly one of Data and Errors
// is set.
type Document struct {
	Data   any     `json:"data,omitempty"`
	Meta   *Meta   `json:"meta,omitempty"`
	Links  *Links  `json:"links,omitempty"`
	Errors []Error `json:"errors,omitempty"`
}

// Meta carries counts and other non-resource information.
type Meta map[string]any

// Links are the pagination links of a list document.
type Links struct {
	Self  string `json:"self,omitempty"`
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
}

// Error is a JSON:API error object. ID holds the request's correlation ID
// and Code the error kind, when known.
type Error struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// NewError creates an error object for an HTTP status.
func NewError(status int, title, detail string) Error {
	return Error{
		Status: strconv.Itoa(status),
		Title:  title,
		Detail: detail,
	}
}

// NewErrorResponse wraps error objects in a document.
func NewErrorResponse(errs ...Error) *Document {
	return &Document{Errors: errs}
}

// DateTime is a timestamp rendered as RFC 3339 in UTC, or null when zero.
type DateTime time.Time

// NewDateTime converts t.
func NewDateTime(t time.Time) DateTime { return DateTime(t) }

// Ptr returns a pointer to a copy of dt.
func (dt DateTime) Ptr() *DateTime { return &dt }

// Time returns the underlying time.
func (dt DateTime) Time() time.Time { return time.Time(dt) }

// MarshalJSON implements json.Marshaler.
func (dt DateTime) MarshalJSON() ([]byte, error) {
	t := time.Time(dt)
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler.
func (dt *DateTime) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*dt = DateTime{}
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return err
	}
	*dt = DateTime(t)
	return nil
}
