// Package topicgraph records and queries authorship and editorship
// relationships between people and topics stored in Neo4j.
package topicgraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/topicgraph/config"
)

// DBRunner defines the interface for executing Cypher queries.
// Implementations run reads and writes in separate managed transactions and
// return fully buffered results, which keeps them easy to fake in tests.
type DBRunner interface {
	// Read executes query inside a read transaction.
	Read(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error)
	// Write executes query inside a write transaction.
	Write(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error)
}

// DBSession is a DBRunner bound to a single database session.
// Close must be called exactly once when the owner is done with it.
type DBSession interface {
	DBRunner
	Close(ctx context.Context) error
}

// SessionOpener hands out sessions. *Store is the production implementation.
type SessionOpener interface {
	OpenSession(ctx context.Context) DBSession
}

//---

// Store owns the long-lived Neo4j driver and the name of the target database.
// It is safe for concurrent use; every caller gets its own Session.
type Store struct {
	driver neo4j.DriverWithContext
	dbName string
}

// NewStore creates the driver described by cfg. The driver connects lazily;
// call Verify to check connectivity.
//
// Parameters:
//   - cfg: URI, credentials, target database and pool settings. Zero pool
//     settings keep the driver defaults.
//
// Returns:
//
//	A Store owning the driver, or an error if the URI or auth is malformed.
func NewStore(cfg config.Neo4j) (*Store, error) {
	auth := neo4j.BasicAuth(cfg.Username, cfg.Password, "")

	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *neo4j.Config) {
		if cfg.MaxConnectionPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
		}
		if cfg.ConnectionTimeout > 0 {
			c.ConnectionAcquisitionTimeout = cfg.ConnectionTimeout
		}
		if cfg.MaxTransactionRetryTime > 0 {
			c.MaxTransactionRetryTime = cfg.MaxTransactionRetryTime
		}
	})
	if err != nil {
		return nil, fmt.Errorf("could not create Neo4j driver: %w", err)
	}
	return &Store{driver: driver, dbName: cfg.Database}, nil
}

// Verify checks connectivity to the Neo4j server.
func (s *Store) Verify(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// Close releases the driver and every pooled connection.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// OpenSession starts a new session against the configured database.
func (s *Store) OpenSession(ctx context.Context) DBSession {
	return &Session{
		session: s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.dbName}),
	}
}

// Session runs queries through one neo4j session. It is not safe for
// concurrent use, matching the underlying driver session.
type Session struct {
	session neo4j.SessionWithContext
}

// Read executes query in a managed read transaction.
func (s *Session) Read(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	res, err := s.session.ExecuteRead(ctx, collect(ctx, query, params))
	if err != nil {
		return nil, fmt.Errorf("error executing neo4j read: %w", err)
	}
	return res.(*neo4j.EagerResult), nil
}

// Write executes query in a managed write transaction. The transaction is
// committed before Write returns.
func (s *Session) Write(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	res, err := s.session.ExecuteWrite(ctx, collect(ctx, query, params))
	if err != nil {
		return nil, fmt.Errorf("error executing neo4j write: %w", err)
	}
	return res.(*neo4j.EagerResult), nil
}

// Close closes the underlying session.
func (s *Session) Close(ctx context.Context) error {
	return s.session.Close(ctx)
}

// collect returns transaction work that buffers every record of query.
// Managed transactions may be retried by the driver, so the work holds no
// state outside its own scope.
func collect(ctx context.Context, query string, params map[string]any) neo4j.ManagedTransactionWork {
	return func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		keys, err := result.Keys()
		if err != nil {
			return nil, err
		}
		summary, err := result.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return &neo4j.EagerResult{Keys: keys, Records: records, Summary: summary}, nil
	}
}
