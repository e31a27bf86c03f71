package topicgraph

import (
	"fmt"

	"github.com/saulfrancisco-ruizacevedo/topicgraph/config"
)

// Kind is the role a person plays towards a topic.
type Kind int

const (
	// Author marks the person who created the topic.
	Author Kind = iota
	// Editor marks a person who edited the topic.
	Editor
)

func (k Kind) String() string {
	switch k {
	case Author:
		return "author"
	case Editor:
		return "editor"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Relation resolves relationship kinds to concrete relationship types and
// directions for one orientation.
type Relation struct {
	orientation config.Orientation
}

// NewRelation returns the Relation for o. Unknown orientations are rejected.
func NewRelation(o config.Orientation) (Relation, error) {
	if !o.Valid() {
		return Relation{}, fmt.Errorf("unknown orientation %q", o)
	}
	return Relation{orientation: o}, nil
}

// Orientation returns the orientation r was built for.
func (r Relation) Orientation() config.Orientation {
	return r.orientation
}

// Type returns the relationship type label for k.
//
//	person-to-topic: CREATED, EDITED
//	topic-to-person: CREATED_BY, EDITED_BY
func (r Relation) Type(k Kind) string {
	var base string
	switch k {
	case Author:
		base = "CREATED"
	case Editor:
		base = "EDITED"
	default:
		panic(fmt.Sprintf("topicgraph: unknown relation kind %d", int(k)))
	}
	if r.orientation == config.TopicToPerson {
		return base + "_BY"
	}
	return base
}

// Endpoints orders a person and a topic as (start, end) of the relationship.
func (r Relation) Endpoints(person, topic any) (from, to any) {
	if r.orientation == config.TopicToPerson {
		return topic, person
	}
	return person, topic
}
