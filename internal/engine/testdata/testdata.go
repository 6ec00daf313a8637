// Package testdata holds labelled queries for end-to-end checks of the
// classifier against the built-in corpus.
package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed queries.json
var queriesJSON []byte

// Query is a name with the label expected to rank first. An empty
// ExpectedTop means no label should survive scoring.
type Query struct {
	Query       string `json:"query"`
	ExpectedTop string `json:"expected_top"`
	Description string `json:"description"`
}

// LoadQueries parses the embedded queries.json.
func LoadQueries() ([]Query, error) {
	var queries []Query
	if err := json.Unmarshal(queriesJSON, &queries); err != nil {
		return nil, fmt.Errorf("parse queries.json: %w", err)
	}
	return queries, nil
}
