package topicgraph

import (
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/topicgraph/models"
)

func recordInt(record *neo4j.Record, key string) (int64, error) {
	v, ok := record.Get(key)
	if !ok {
		return 0, fmt.Errorf("missing column %q", key)
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("column %q: expected integer, got %T", key, v)
	}
	return n, nil
}

func recordString(record *neo4j.Record, key string) (string, error) {
	v, ok := record.Get(key)
	if !ok {
		return "", fmt.Errorf("missing column %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("column %q: expected string, got %T", key, v)
	}
	return s, nil
}

// searchResults maps rows with `id` and `text` columns. The result is never
// nil so it encodes as an empty JSON array.
func searchResults(records []*neo4j.Record) ([]models.SearchResult, error) {
	out := make([]models.SearchResult, 0, len(records))
	for _, rec := range records {
		id, err := recordInt(rec, "id")
		if err != nil {
			return nil, err
		}
		text, err := recordString(rec, "text")
		if err != nil {
			return nil, err
		}
		out = append(out, models.SearchResult{ID: id, Text: text})
	}
	return out, nil
}
