package api

import "github.com/google/uuid"

// RedactRequest is the body of POST /redact. A nil category list keeps the
// default set for its group; an empty list disables the group.
type RedactRequest struct {
	Text             string   `json:"text"`
	EntityCategories []string `json:"entity_categories"`
	NumberCategories []string `json:"number_categories"`
	BareSSN          bool     `json:"bare_ssn,omitempty"`
}

// RedactQuery is the query string of GET /redact.
type RedactQuery struct {
	Text    string   `schema:"text"`
	Entity  []string `schema:"entity"`
	Number  []string `schema:"number"`
	BareSSN bool     `schema:"bare_ssn"`
}

type RedactResponse struct {
	RequestId uuid.UUID      `json:"request_id"`
	Text      string         `json:"text"`
	Counts    map[string]int `json:"counts"`
}

type CategoriesResponse struct {
	EntityCategories []string `json:"entity_categories"`
	NumberCategories []string `json:"number_categories"`
	RedactionToken   string   `json:"redaction_token"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	Classifier string `json:"classifier"`
}
