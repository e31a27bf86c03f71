package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/saulfrancisco-ruizacevedo/topicgraph"
	"github.com/saulfrancisco-ruizacevedo/topicgraph/models"
)

// searchResponse is the envelope of the autocomplete endpoints.
type searchResponse struct {
	Results []models.SearchResult `json:"results"`
}

// parseID reads a decimal id, falling back to 0 for anything malformed.
func parseID(raw string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// fail records err on the request and answers with a bare 500.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatus(http.StatusInternalServerError)
}

// index renders the lookup page. Only a form submission queries the store.
func (s *Server) index(c *gin.Context) {
	rows := []models.Relationship{}

	if c.Request.Method == http.MethodPost {
		personID := parseID(c.PostForm("person"))
		topicID := parseID(c.PostForm("topic"))

		var err error
		rows, err = topicgraph.NewPersistenceManager(Session(c)).
			RelationsBetween(c.Request.Context(), personID, topicID)
		if err != nil {
			fail(c, err)
			return
		}
	}

	c.HTML(http.StatusOK, "index.html", gin.H{"data": rows})
}

// searchTopics handles GET /topics?q=.
func (s *Server) searchTopics(c *gin.Context) {
	repo, err := topicgraph.NewRepository[models.Topic](Session(c))
	if err != nil {
		fail(c, err)
		return
	}
	results, err := repo.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, searchResponse{Results: results})
}

// searchPersons handles GET /persons?topic=&q=.
func (s *Server) searchPersons(c *gin.Context) {
	topicID := parseID(c.Query("topic"))

	results, err := topicgraph.NewPersistenceManager(Session(c)).
		PersonsOnTopic(c.Request.Context(), topicID, c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, searchResponse{Results: results})
}

// topicGraph handles GET /topics/:id/graph.
func (s *Server) topicGraph(c *gin.Context) {
	graph, err := topicgraph.NewPersistenceManager(Session(c)).
		Neighbourhood(c.Request.Context(), parseID(c.Param("id")))
	if errors.Is(err, topicgraph.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no relationships for node"})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

// stats handles GET /stats.
func (s *Server) stats(c *gin.Context) {
	stats, err := topicgraph.NewPersistenceManager(Session(c)).Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) healthCheck(c *gin.Context) {
	if s.health != nil {
		if err := s.health.Verify(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
