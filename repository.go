package topicgraph

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"
	"github.com/saulfrancisco-ruizacevedo/topicgraph/models"
)

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// Repository provides node-level operations for entity type T. It relies on
// the `crud` struct tags of T to find the label and merge key.
//
// A Repository is bound to the runner it was created with; build one per
// session.
type Repository[T any] struct {
	runner DBRunner
	meta   *entityMetadata
}

// NewRepository creates a repository for T on runner.
//
// Returns an error if the struct tags of T are invalid.
func NewRepository[T any](runner DBRunner) (*Repository[T], error) {
	meta, err := parseTags[T]()
	if err != nil {
		return nil, err
	}
	return &Repository[T]{runner: runner, meta: meta}, nil
}

// Label returns the node label T maps to.
func (r *Repository[T]) Label() string {
	return r.meta.Label
}

// Save merges entity on its key property and sets every other tagged field.
// Saving the same key twice leaves a single node.
func (r *Repository[T]) Save(ctx context.Context, entity *T) error {
	val := reflect.ValueOf(entity).Elem()
	mergeProps := map[string]interface{}{r.meta.KeyProp: val.FieldByName(r.meta.KeyField).Interface()}

	setProps := make(map[string]interface{})
	for fieldName, propName := range r.meta.Mappings {
		if fieldName != r.meta.KeyField {
			setProps["n."+propName] = val.FieldByName(fieldName).Interface()
		}
	}

	qb := gocypher.NewQueryBuilder().
		Merge(gocypher.N("n", r.meta.Label).WithProperties(mergeProps))
	if len(setProps) > 0 {
		qb = qb.Set(setProps)
	}

	query, params, err := qb.Return("n").Build()
	if err != nil {
		return fmt.Errorf("could not build merge for %s: %w", r.meta.Label, err)
	}
	_, err = r.runner.Write(ctx, query, params)
	return err
}

// FindByID loads the node with internal id id.
//
// Parameters:
//   - ctx: The context for the query execution.
//   - id: The store's internal node id, as returned by Search.
//
// Returns:
//
//	A pointer to the entity, ErrNotFound if no node of this label has that id,
//	or another error if the query or mapping fails.
func (r *Repository[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	query := fmt.Sprintf("MATCH (n:%s) WHERE id(n) = $id RETURN n", r.meta.Label)

	res, err := r.runner.Read(ctx, query, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, ErrNotFound
	}

	nodeValue, ok := res.Records[0].Get("n")
	if !ok {
		return nil, fmt.Errorf("could not find return value 'n' in query result")
	}
	node, ok := nodeValue.(neo4j.Node)
	if !ok {
		return nil, fmt.Errorf("return value 'n' is not a node")
	}

	entity := new(T)
	if err := mapNodeToStruct(node, entity, r.meta); err != nil {
		return nil, err
	}
	return entity, nil
}

// Search returns the nodes whose key contains q, ignoring case, ordered by
// key. An empty q matches every node.
func (r *Repository[T]) Search(ctx context.Context, q string) ([]models.SearchResult, error) {
	query := fmt.Sprintf(
		"MATCH (n:%[1]s) "+
			"WHERE toLower(n.%[2]s) CONTAINS toLower($qs) "+
			"RETURN id(n) AS id, n.%[2]s AS text "+
			"ORDER BY n.%[2]s",
		r.meta.Label, r.meta.KeyProp)

	res, err := r.runner.Read(ctx, query, map[string]any{"qs": q})
	if err != nil {
		return nil, err
	}
	return searchResults(res.Records)
}

// Count returns the number of nodes with T's label.
func (r *Repository[T]) Count(ctx context.Context) (int64, error) {
	query := fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS count", r.meta.Label)

	res, err := r.runner.Read(ctx, query, nil)
	if err != nil {
		return 0, err
	}
	if len(res.Records) == 0 {
		return 0, nil
	}
	return recordInt(res.Records[0], "count")
}

// mapNodeToStruct copies node properties into the tagged fields of entity.
// Missing or null properties are skipped; a property whose type cannot be
// assigned to its field is an error.
func mapNodeToStruct(node neo4j.Node, entity any, meta *entityMetadata) error {
	val := reflect.ValueOf(entity).Elem()

	for fieldName, propName := range meta.Mappings {
		field := val.FieldByName(fieldName)
		if !field.IsValid() || !field.CanSet() {
			continue
		}
		propValue, ok := node.Props[propName]
		if !ok || propValue == nil {
			continue
		}
		pv := reflect.ValueOf(propValue)
		if !pv.Type().AssignableTo(field.Type()) {
			return fmt.Errorf("property %s of type %T cannot be stored in field %s", propName, propValue, fieldName)
		}
		field.Set(pv)
	}
	return nil
}
