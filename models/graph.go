package models

// GraphNode is a node of a neighbourhood graph, ready for JSON encoding.
type GraphNode struct {
	// ID is the internal node id, the same id used by the search endpoints.
	ID int64 `json:"id"`

	// ElementID is the driver's string element id.
	ElementID string `json:"element_id"`

	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// Edge is a relationship of a neighbourhood graph. Source and Target hold
// internal node ids.
type Edge struct {
	ID         int64          `json:"id"`
	Source     int64          `json:"source"`
	Target     int64          `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// GraphResult is the node/edge list format most graph front ends consume.
type GraphResult struct {
	Nodes []*GraphNode `json:"nodes"`
	Edges []*Edge      `json:"edges"`
}
