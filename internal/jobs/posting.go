package jobs

import (
	"strings"
	"time"
)

// Posting is a job posting in the corpus. URL is the identity key.
type Posting struct {
	ID          string    `json:"id,omitempty"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Source      string    `json:"source,omitempty"`
	PostedAt    time.Time `json:"date_posted,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// CanonicalURL trims whitespace only. Dedup is by exact URL match.
func CanonicalURL(url string) string {
	return strings.TrimSpace(url)
}

// Label is a short human readable form used in logs and prompts.
func (p *Posting) Label() string {
	if p == nil {
		return ""
	}
	if p.Company == "" {
		return p.Title
	}
	return p.Title + " at " + p.Company
}
