package topicgraph

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/saulfrancisco-ruizacevedo/topicgraph/config"
	"github.com/saulfrancisco-ruizacevedo/topicgraph/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcneo4j "github.com/testcontainers/testcontainers-go/modules/neo4j"
)

// neo4jConfig returns connection settings for an external server given by
// NEO4J_URL, or for a throwaway container.
func neo4jConfig(t *testing.T) config.Neo4j {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Neo4j integration test in short mode")
	}

	cfg := config.Default().Neo4j
	cfg.Database = ""

	if uri := os.Getenv("NEO4J_URL"); uri != "" {
		cfg.URI = uri
		if u := os.Getenv("NEO4J_USERNAME"); u != "" {
			cfg.Username = u
		}
		if p := os.Getenv("NEO4J_PASSWORD"); p != "" {
			cfg.Password = p
		}
		return cfg
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcneo4j.Run(ctx, "neo4j:5.15.0", tcneo4j.WithAdminPassword("testpassword"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Neo4j container: %v", err)
		}
	})

	cfg.URI, err = container.BoltUrl(ctx)
	require.NoError(t, err)
	cfg.Username = "neo4j"
	cfg.Password = "testpassword"
	return cfg
}

func openTestSession(t *testing.T) DBSession {
	t.Helper()
	ctx := context.Background()

	store, err := NewStore(neo4jConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	verifyCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	require.NoError(t, store.Verify(verifyCtx))

	sess := store.OpenSession(ctx)
	t.Cleanup(func() { _ = sess.Close(ctx) })
	return sess
}

func resetGraph(t *testing.T, sess DBSession) {
	t.Helper()
	_, err := sess.Write(context.Background(), "MATCH (n) WHERE n:Person OR n:Topic DETACH DELETE n", nil)
	require.NoError(t, err)
}

func idOf(t *testing.T, results []models.SearchResult, text string) int64 {
	t.Helper()
	for _, r := range results {
		if r.Text == text {
			return r.ID
		}
	}
	t.Fatalf("%q not found in %v", text, results)
	return 0
}

func texts(results []models.SearchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Text)
	}
	return out
}

func TestIntegration_PersonToTopic(t *testing.T) {
	sess := openTestSession(t)
	ctx := context.Background()
	resetGraph(t, sess)

	rel, err := NewRelation(config.PersonToTopic)
	require.NoError(t, err)
	seeder := NewSeeder(rel, quietLogger())
	pm := NewPersistenceManager(sess)

	require.NoError(t, seeder.Seed(ctx, sess, DefaultFacts()))
	first, err := pm.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{Persons: 3, Topics: 3, Relationships: 8}, first)

	t.Run("seed is idempotent", func(t *testing.T) {
		require.NoError(t, seeder.Seed(ctx, sess, DefaultFacts()))
		second, err := pm.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	topics, err := NewRepository[models.Topic](sess)
	require.NoError(t, err)
	all, err := topics.Search(ctx, "")
	require.NoError(t, err)

	t.Run("empty topic query returns all topics in order", func(t *testing.T) {
		assert.Equal(t, []string{"JavaScript Development", "Python Development", "Ruby Development"}, texts(all))
	})

	t.Run("topic search ignores case", func(t *testing.T) {
		got, err := topics.Search(ctx, "script")
		require.NoError(t, err)
		assert.Equal(t, []string{"JavaScript Development"}, texts(got))

		got, err = topics.Search(ctx, "DEVELOPMENT")
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	jsID := idOf(t, all, "JavaScript Development")
	rubyID := idOf(t, all, "Ruby Development")

	t.Run("person search is restricted to the topic and distinct", func(t *testing.T) {
		got, err := pm.PersonsOnTopic(ctx, jsID, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"Andy", "Jennifer", "Michael"}, texts(got))

		got, err = pm.PersonsOnTopic(ctx, rubyID, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"Michael"}, texts(got))

		got, err = pm.PersonsOnTopic(ctx, jsID, "NIF")
		require.NoError(t, err)
		assert.Equal(t, []string{"Jennifer"}, texts(got))
	})

	people, err := pm.PersonsOnTopic(ctx, jsID, "andy")
	require.NoError(t, err)
	andyID := idOf(t, people, "Andy")

	t.Run("lookup returns every relationship sorted", func(t *testing.T) {
		rows, err := pm.RelationsBetween(ctx, andyID, jsID)
		require.NoError(t, err)
		assert.Equal(t, []models.Relationship{
			{PersonName: "Andy", Type: "CREATED", TopicName: "JavaScript Development"},
			{PersonName: "Andy", Type: "EDITED", TopicName: "JavaScript Development"},
		}, rows)

		rows, err = pm.RelationsBetween(ctx, andyID, rubyID)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("find by id", func(t *testing.T) {
		persons, err := NewRepository[models.Person](sess)
		require.NoError(t, err)
		p, err := persons.FindByID(ctx, andyID)
		require.NoError(t, err)
		assert.Equal(t, "Andy", p.Name)
	})

	t.Run("neighbourhood", func(t *testing.T) {
		graph, err := pm.Neighbourhood(ctx, jsID)
		require.NoError(t, err)
		assert.Len(t, graph.Nodes, 4)
		assert.Len(t, graph.Edges, 4)
	})

	t.Run("save merges on name", func(t *testing.T) {
		require.NoError(t, topics.Save(ctx, &models.Topic{Name: "Go Development"}))
		require.NoError(t, topics.Save(ctx, &models.Topic{Name: "Go Development"}))
		n, err := topics.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
	})
}

func TestIntegration_TopicToPerson(t *testing.T) {
	sess := openTestSession(t)
	ctx := context.Background()
	resetGraph(t, sess)

	rel, err := NewRelation(config.TopicToPerson)
	require.NoError(t, err)
	require.NoError(t, NewSeeder(rel, quietLogger()).Seed(ctx, sess, DefaultFacts()))

	pm := NewPersistenceManager(sess)
	stats, err := pm.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{Persons: 3, Topics: 3, Relationships: 8}, stats)

	res, err := sess.Read(ctx,
		"MATCH (:Topic)-[r:CREATED_BY]->(:Person) RETURN count(r) AS count", nil)
	require.NoError(t, err)
	n, err := recordInt(res.Records[0], "count")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	topics, err := NewRepository[models.Topic](sess)
	require.NoError(t, err)
	all, err := topics.Search(ctx, "python")
	require.NoError(t, err)
	pyID := idOf(t, all, "Python Development")

	people, err := pm.PersonsOnTopic(ctx, pyID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Andy", "Jennifer"}, texts(people))

	rows, err := pm.RelationsBetween(ctx, idOf(t, people, "Andy"), pyID)
	require.NoError(t, err)
	assert.Equal(t, []models.Relationship{
		{PersonName: "Andy", Type: "CREATED_BY", TopicName: "Python Development"},
		{PersonName: "Andy", Type: "EDITED_BY", TopicName: "Python Development"},
	}, rows)
}
