package models

// QueryType describes a reconciliation type advertised by the service
type QueryType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CountryQueryType is the only type the service reconciles against
var CountryQueryType = QueryType{
	ID:   "/geo/country",
	Name: "Countries",
}

// ReconciliationQuery is a single entry of an OpenRefine batch.
// Type is a pointer so a missing type can be told apart from an empty one.
type ReconciliationQuery struct {
	Query string  `json:"query"`
	Type  *string `json:"type,omitempty"`
	Limit int     `json:"limit,omitempty"`
}

// HasType reports whether the caller supplied a type
func (q ReconciliationQuery) HasType() bool {
	return q.Type != nil
}

// AllLabels carries auxiliary scores for a result
type AllLabels struct {
	Score    float64 `json:"score"`
	Weighted float64 `json:"weighted"`
}

// ReconciliationResult is one ranked candidate returned to the caller
type ReconciliationResult struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      []string  `json:"type"`
	Score     float64   `json:"score"` // 0-100
	Match     bool      `json:"match"`
	AllLabels AllLabels `json:"all_labels"`
}

// BatchResult wraps the results for one batch key
type BatchResult struct {
	Result []ReconciliationResult `json:"result"`
}

// SuggestResult is a single suggest entry
type SuggestResult struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// SuggestResponse is the suggest/entity envelope
type SuggestResponse struct {
	Code   string          `json:"code"`
	Status string          `json:"status"`
	Prefix string          `json:"prefix"`
	Result []SuggestResult `json:"result"`
}

// FlyoutResponse is the flyout/entity envelope
type FlyoutResponse struct {
	ID   string `json:"id"`
	HTML string `json:"html"`
}

// Country is a canonical country row used by the flyout lookup
type Country struct {
	ID            string `json:"id" db:"id"`
	CanonicalName string `json:"canonical_name" db:"canonical_name"`
}
