package models

// Organization is an affiliated company from the external membership list. Read-only here.
type Organization struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	RIF    string `json:"rif,omitempty"`
	Sector string `json:"sector,omitempty"`
}
