// Package models contains the rows stored by the storage layer.
package models

import "time"

// Scan is one processed deck scan.
type Scan struct {
	ID          string    `json:"id"`
	Source      string    `json:"source,omitempty"`
	Format      string    `json:"format"` // export format of ExportText
	State       string    `json:"state"`  // completion state: validated, repaired, emergency
	Guaranteed  bool      `json:"guaranteed"`
	Fingerprint string    `json:"fingerprint"`
	MainCount   int       `json:"main_count"`
	SideCount   int       `json:"side_count"`
	ExportText  string    `json:"export_text"`
	Warnings    []string  `json:"warnings"` // stored as JSON
	Errors      []string  `json:"errors"`   // stored as JSON
	CreatedAt   time.Time `json:"created_at"`

	Cards      []*ScanCard       `json:"cards,omitempty"`
	Unresolved []*UnresolvedLine `json:"unresolved,omitempty"`
}

// ScanCard is one card of a scanned deck.
type ScanCard struct {
	ID         int     `json:"id"`
	ScanID     string  `json:"scan_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Board      string  `json:"board"` // "main" or "sideboard"
	Confidence float64 `json:"confidence"`
	Synthetic  bool    `json:"synthetic"` // added by deck completion, not read from the scan
	BasicLand  bool    `json:"basic_land"`
	SetCode    string  `json:"set_code,omitempty"`
	Position   int     `json:"position"` // discovery order
}

// UnresolvedLine is a scanned line no card matched.
type UnresolvedLine struct {
	ID            int      `json:"id"`
	ScanID        string   `json:"scan_id"`
	OriginalText  string   `json:"original_text"`
	CandidateName string   `json:"candidate_name"`
	Quantity      int      `json:"quantity"`
	Board         string   `json:"board"`
	Suggestions   []string `json:"suggestions"` // stored as JSON
	Position      int      `json:"position"`
}

// ScanFilter narrows a scan listing.
type ScanFilter struct {
	Limit       int
	Since       *time.Time
	Guaranteed  *bool
	Fingerprint string
	// IDPrefix matches scans whose ID starts with it, as shown by ShortID.
	IDPrefix string
}
