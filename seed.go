package topicgraph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saulfrancisco-ruizacevedo/topicgraph/models"
)

// Fact states that Person relates to Topic as Kind.
type Fact struct {
	Kind   Kind
	Person string
	Topic  string
}

// AuthorPairs are the built-in (person, topic) authorship facts.
var AuthorPairs = [][2]string{
	{"Andy", "JavaScript Development"},
	{"Andy", "Python Development"},
	{"Michael", "Ruby Development"},
}

// EditorPairs are the built-in (person, topic) editorship facts.
var EditorPairs = [][2]string{
	{"Andy", "JavaScript Development"},
	{"Michael", "JavaScript Development"},
	{"Jennifer", "JavaScript Development"},
	{"Andy", "Python Development"},
	{"Jennifer", "Python Development"},
}

// DefaultFacts returns the built-in facts, authors first.
func DefaultFacts() []Fact {
	facts := make([]Fact, 0, len(AuthorPairs)+len(EditorPairs))
	for _, p := range AuthorPairs {
		facts = append(facts, Fact{Kind: Author, Person: p[0], Topic: p[1]})
	}
	for _, p := range EditorPairs {
		facts = append(facts, Fact{Kind: Editor, Person: p[0], Topic: p[1]})
	}
	return facts
}

// Seeder merges facts into the graph.
type Seeder struct {
	relation Relation
	logger   *slog.Logger
	// onFact, when set, is called after each fact is committed.
	onFact func(Fact)
}

// NewSeeder returns a Seeder writing relationships in rel's orientation.
func NewSeeder(rel Relation, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{relation: rel, logger: logger}
}

// OnFact registers fn to be called after every committed fact.
func (s *Seeder) OnFact(fn func(Fact)) {
	s.onFact = fn
}

// Seed merges every fact through runner, one write transaction per fact.
// It stops at the first failure; facts committed before it stay committed.
func (s *Seeder) Seed(ctx context.Context, runner DBRunner, facts []Fact) error {
	pm := NewPersistenceManager(runner)

	for i, f := range facts {
		person := &models.Person{Name: f.Person}
		topic := &models.Topic{Name: f.Topic}
		from, to := s.relation.Endpoints(person, topic)
		relType := s.relation.Type(f.Kind)

		if err := pm.MergeRelation(ctx, from, to, relType); err != nil {
			return fmt.Errorf("seed fact %d (%s %q -> %q): %w", i, f.Kind, f.Person, f.Topic, err)
		}
		s.logger.Debug("merged fact",
			"kind", f.Kind.String(),
			"person", f.Person,
			"topic", f.Topic,
			"type", relType)
		if s.onFact != nil {
			s.onFact(f)
		}
	}

	s.logger.Info("seed complete",
		"facts", len(facts),
		"orientation", string(s.relation.Orientation()))
	return nil
}
