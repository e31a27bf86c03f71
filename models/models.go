// Package models contains the domain entities and the plain records returned
// by topicgraph queries.
//
// Person and Topic carry `crud` struct tags that tell the persistence layer
// which label they map to and which property is their merge key.
package models

// Person is someone who authors or edits topics.
// The `pk` tag makes name the MERGE key: two people with the same name are the
// same node.
type Person struct {
	Name string `crud:"pk,property:name"`
}

// Topic is a subject area people write about.
type Topic struct {
	Name string `crud:"pk,property:name"`
}

// Relationship is one row of a person/topic relationship lookup.
type Relationship struct {
	PersonName string `json:"person_name"`
	// Type is the relationship type label, e.g. "CREATED" or "EDITED_BY".
	Type      string `json:"type"`
	TopicName string `json:"topic_name"`
}

// SearchResult is one autocomplete suggestion. ID is the store's internal
// node id and is only meaningful against the same database.
type SearchResult struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// Stats summarises the size of the graph.
type Stats struct {
	Persons       int64 `json:"persons"`
	Topics        int64 `json:"topics"`
	Relationships int64 `json:"relationships"`
}
