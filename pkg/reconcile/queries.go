package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/owid/lc-reconcile/pkg/models"
)

// ParseQueries decodes the queries parameter: a JSON object mapping batch keys to query
// objects. Anything else fails with models.ErrMalformedQueries.
func ParseQueries(raw string) (map[string]models.ReconciliationQuery, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrMalformedQueries, err)
	}
	if entries == nil {
		// the literal null
		return nil, fmt.Errorf("%w: expected an object of queries", models.ErrMalformedQueries)
	}

	queries := make(map[string]models.ReconciliationQuery, len(entries))
	for key, entry := range entries {
		if !isObject(entry) {
			return nil, fmt.Errorf("%w: query %q is not an object", models.ErrMalformedQueries, key)
		}

		var q models.ReconciliationQuery
		if err := json.Unmarshal(entry, &q); err != nil {
			return nil, fmt.Errorf("%w: query %q: %w", models.ErrMalformedQueries, key, err)
		}
		if q.Limit < 0 {
			q.Limit = 0
		}
		queries[key] = q
	}
	return queries, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
