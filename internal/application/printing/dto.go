package printing

import "time"

// InvoiceDocument is a rendered invoice. Either PDF holds the bytes or, when
// the document was archived, URL points at a presigned download link.
type InvoiceDocument struct {
	Invoice   string     `json:"invoice"`
	Filename  string     `json:"filename"`
	PageCount int        `json:"page_count"`
	URL       string     `json:"url,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	PDF       []byte     `json:"-"`
}

// Archived reports whether the document is served by link
func (d *InvoiceDocument) Archived() bool {
	return d.URL != ""
}
