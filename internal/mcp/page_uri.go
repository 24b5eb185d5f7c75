package mcp

import "fmt"

// PageURI is the stable reference to a stored page handed to MCP clients.
// Clients pass the ID back to get_page.
type PageURI struct {
	id int64
}

// NewPageURI creates a PageURI for the page with the given ID.
func NewPageURI(id int64) PageURI {
	return PageURI{id: id}
}

// ID returns the page ID.
func (u PageURI) ID() int64 { return u.id }

// String builds the pagevec:// URI string.
func (u PageURI) String() string {
	return fmt.Sprintf("pagevec://pages/%d", u.id)
}
