package topicgraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"
	"github.com/saulfrancisco-ruizacevedo/topicgraph/models"
)

// PersistenceManager runs the cross-entity operations of the service:
// merging relationships, relationship lookups and graph traversal.
// It is bound to one runner, normally the session of the current request.
type PersistenceManager struct {
	runner DBRunner
}

// NewPersistenceManager returns a manager that executes through runner.
func NewPersistenceManager(runner DBRunner) *PersistenceManager {
	return &PersistenceManager{runner: runner}
}

// RepositoryFor returns a Repository for T sharing the manager's runner.
func RepositoryFor[T any](pm *PersistenceManager) (*Repository[T], error) {
	return NewRepository[T](pm.runner)
}

// MergeRelation makes sure both entities and a relType relationship from
// fromEntity to toEntity exist, creating whatever is missing. Entities are
// matched on their `pk` property, so repeated calls are idempotent.
//
// Parameters:
//   - ctx: The context for the query execution.
//   - fromEntity, toEntity: Non-nil pointers to `crud` tagged structs.
//   - relType: The relationship type, e.g. "CREATED".
//
// Returns:
//
//	An error if the entities are not tagged pointers, relType is not a plain
//	identifier, or the write fails.
func (pm *PersistenceManager) MergeRelation(ctx context.Context, fromEntity, toEntity any, relType string) error {
	if !identifier.MatchString(relType) {
		return fmt.Errorf("invalid relationship type %q", relType)
	}
	fromMeta, fromKey, err := keyOf(fromEntity)
	if err != nil {
		return err
	}
	toMeta, toKey, err := keyOf(toEntity)
	if err != nil {
		return err
	}

	qb := gocypher.NewQueryBuilder().
		Merge(gocypher.N("a", fromMeta.Label).WithProperties(map[string]interface{}{fromMeta.KeyProp: fromKey})).
		Merge(gocypher.N("b", toMeta.Label).WithProperties(map[string]interface{}{toMeta.KeyProp: toKey})).
		Merge(
			gocypher.N("a", ""),
			gocypher.R("r", relType).To(),
			gocypher.N("b", ""),
		)

	query, params, err := qb.Build()
	if err != nil {
		return fmt.Errorf("could not build relation merge: %w", err)
	}

	_, err = pm.runner.Write(ctx, query, params)
	return err
}

// RelationsBetween returns every relationship directly connecting the person
// with internal id personID and the topic with internal id topicID, in either
// direction, ordered by person name, relationship type and topic name.
func (pm *PersistenceManager) RelationsBetween(ctx context.Context, personID, topicID int64) ([]models.Relationship, error) {
	query := "MATCH (p:Person)-[r]-(t:Topic) " +
		"WHERE id(p) = $person AND id(t) = $topic " +
		"RETURN p.name AS person_name, type(r) AS type, t.name AS topic_name " +
		"ORDER BY p.name, type(r), t.name"

	res, err := pm.runner.Read(ctx, query, map[string]any{"person": personID, "topic": topicID})
	if err != nil {
		return nil, err
	}

	rows := make([]models.Relationship, 0, len(res.Records))
	for _, rec := range res.Records {
		var row models.Relationship
		if row.PersonName, err = recordString(rec, "person_name"); err != nil {
			return nil, err
		}
		if row.Type, err = recordString(rec, "type"); err != nil {
			return nil, err
		}
		if row.TopicName, err = recordString(rec, "topic_name"); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// PersonsOnTopic returns the people connected to topicID by any relationship
// whose name contains q, ignoring case. Each person appears once.
func (pm *PersistenceManager) PersonsOnTopic(ctx context.Context, topicID int64, q string) ([]models.SearchResult, error) {
	query := "MATCH (p:Person)-[]-(t:Topic) " +
		"WHERE id(t) = $topic AND toLower(p.name) CONTAINS toLower($qs) " +
		"RETURN DISTINCT id(p) AS id, p.name AS text " +
		"ORDER BY p.name"

	res, err := pm.runner.Read(ctx, query, map[string]any{"topic": topicID, "qs": q})
	if err != nil {
		return nil, err
	}
	return searchResults(res.Records)
}

// Neighbourhood returns the node with internal id nodeID, its direct
// neighbours and the relationships between them.
//
// Returns ErrNotFound when the node has no relationships.
func (pm *PersistenceManager) Neighbourhood(ctx context.Context, nodeID int64) (*models.GraphResult, error) {
	return pm.FindGraph(ctx,
		"MATCH (n)-[r]-(m) WHERE id(n) = $id RETURN n, r, m ORDER BY id(r)",
		map[string]any{"id": nodeID})
}

// FindGraph executes query and collects every node and relationship it
// returns into a GraphResult. Elements returned by several rows appear once.
//
// Returns ErrNotFound if the query returns no rows.
func (pm *PersistenceManager) FindGraph(ctx context.Context, query string, params map[string]any) (*models.GraphResult, error) {
	res, err := pm.runner.Read(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, ErrNotFound
	}

	graph := &models.GraphResult{
		Nodes: make([]*models.GraphNode, 0),
		Edges: make([]*models.Edge, 0),
	}
	seenNodes := make(map[string]bool)
	seenEdges := make(map[string]bool)

	for _, record := range res.Records {
		for _, value := range record.Values {
			switch v := value.(type) {
			case neo4j.Node:
				if !seenNodes[v.ElementId] {
					graph.Nodes = append(graph.Nodes, &models.GraphNode{
						ID:         v.Id, //nolint:staticcheck // numeric ids are the public identifiers
						ElementID:  v.ElementId,
						Labels:     v.Labels,
						Properties: v.Props,
					})
					seenNodes[v.ElementId] = true
				}
			case neo4j.Relationship:
				if !seenEdges[v.ElementId] {
					graph.Edges = append(graph.Edges, &models.Edge{
						ID:         v.Id,      //nolint:staticcheck
						Source:     v.StartId, //nolint:staticcheck
						Target:     v.EndId,   //nolint:staticcheck
						Type:       v.Type,
						Properties: v.Props,
					})
					seenEdges[v.ElementId] = true
				}
			}
		}
	}

	return graph, nil
}

// Stats counts people, topics and relationships between them.
func (pm *PersistenceManager) Stats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats

	persons, err := RepositoryFor[models.Person](pm)
	if err != nil {
		return stats, err
	}
	topics, err := RepositoryFor[models.Topic](pm)
	if err != nil {
		return stats, err
	}

	if stats.Persons, err = persons.Count(ctx); err != nil {
		return stats, err
	}
	if stats.Topics, err = topics.Count(ctx); err != nil {
		return stats, err
	}
	if stats.Relationships, err = pm.RelationshipCount(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}

// RelationshipCount returns the number of relationships between Person and
// Topic nodes, whatever their direction.
func (pm *PersistenceManager) RelationshipCount(ctx context.Context) (int64, error) {
	res, err := pm.runner.Read(ctx, "MATCH (:Person)-[r]-(:Topic) RETURN count(DISTINCT r) AS count", nil)
	if err != nil {
		return 0, err
	}
	if len(res.Records) == 0 {
		return 0, nil
	}
	return recordInt(res.Records[0], "count")
}
