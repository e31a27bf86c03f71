package server

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/saulfrancisco-ruizacevedo/topicgraph"
)

const sessionKey = "topicgraph.session"

// requestSession opens a database session on first use and remembers it for
// the rest of the request.
type requestSession struct {
	opener topicgraph.SessionOpener
	ctx    context.Context
	sess   topicgraph.DBSession
	onOpen func()
}

func (r *requestSession) get() topicgraph.DBSession {
	if r.sess == nil {
		r.sess = r.opener.OpenSession(r.ctx)
		if r.onOpen != nil {
			r.onOpen()
		}
	}
	return r.sess
}

// release closes the session if one was opened. It is safe to call twice.
func (r *requestSession) release(ctx context.Context) error {
	if r.sess == nil {
		return nil
	}
	err := r.sess.Close(ctx)
	r.sess = nil
	return err
}

// sessionScope attaches a lazily opened session to the request and closes it
// once the rest of the chain has returned, including on abort or panic.
func (s *Server) sessionScope(c *gin.Context) {
	rs := &requestSession{
		opener: s.store,
		ctx:    c.Request.Context(),
		onOpen: s.metrics.SessionsOpened.Inc,
	}
	c.Set(sessionKey, rs)

	defer func() {
		// The request context may already be cancelled; closing must still
		// return the connection to the pool.
		if err := rs.release(context.WithoutCancel(c.Request.Context())); err != nil {
			s.logger.Warn("failed to close session", "path", c.Request.URL.Path, "error", err)
		}
	}()

	c.Next()
}

// Session returns the database session of the current request, opening it
// if needed. It panics when the session middleware is not installed.
func Session(c *gin.Context) topicgraph.DBSession {
	v, ok := c.Get(sessionKey)
	if !ok {
		panic("server: session middleware not installed")
	}
	return v.(*requestSession).get()
}
