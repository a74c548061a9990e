package model

import "strings"

// Columns is the fixed export column order. Every sink writes leads in this
// order.
var Columns = []string{"Name", "Type", "Phone", "Email", "Address", "City", "State"}

// SearchTarget is one query to run against the maps surface.
type SearchTarget struct {
	Query    string `json:"query" yaml:"query"`
	Category string `json:"category" yaml:"category"`
	MaxItems int    `json:"max_items" yaml:"max_items"`
}

// RawRecord holds the fields read from a place detail page before validation.
type RawRecord struct {
	Location string `json:"location"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	RawPhone string `json:"raw_phone"`
	Website  string `json:"website,omitempty"`
}

// Lead is a validated, deduplicated business contact ready for export.
type Lead struct {
	Name    string `json:"name"`
	OrgType string `json:"type"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
}

// Key returns the run-scoped identity used for deduplication.
func (l Lead) Key() string {
	return strings.ToLower(l.Name) + "|" + l.Phone + "|" + strings.ToLower(l.Address)
}

// Row renders the lead in Columns order.
func (l Lead) Row() []string {
	return []string{l.Name, l.OrgType, l.Phone, l.Email, l.Address, l.City, l.State}
}
