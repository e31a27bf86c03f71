package topicgraph

import (
	"context"
	"errors"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var errBoom = errors.New("boom")

type runCall struct {
	write  bool
	query  string
	params map[string]any
}

// scripted answers queries containing match.
type scripted struct {
	match   string
	records []*neo4j.Record
}

// fakeRunner is an in-memory DBRunner. Queries are answered by the first
// scripted entry whose match is a substring of the query.
type fakeRunner struct {
	calls   []runCall
	scripts []scripted
	// failOn makes the call with this 1-based index fail with errBoom.
	failOn int
}

func (f *fakeRunner) Read(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	return f.run(false, query, params)
}

func (f *fakeRunner) Write(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	return f.run(true, query, params)
}

func (f *fakeRunner) run(write bool, query string, params map[string]any) (*neo4j.EagerResult, error) {
	f.calls = append(f.calls, runCall{write: write, query: query, params: params})
	if f.failOn == len(f.calls) {
		return nil, errBoom
	}
	for _, s := range f.scripts {
		if strings.Contains(query, s.match) {
			return &neo4j.EagerResult{Records: s.records}, nil
		}
	}
	return &neo4j.EagerResult{}, nil
}

func (f *fakeRunner) writes() []runCall {
	var out []runCall
	for _, c := range f.calls {
		if c.write {
			out = append(out, c)
		}
	}
	return out
}

func record(keys []string, values ...any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}
