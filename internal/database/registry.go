package database

import (
	"context"

	"github.com/Malumbo21/askdb/internal/config"
	askerrors "github.com/Malumbo21/askdb/internal/errors"
	"github.com/Malumbo21/askdb/internal/logging"
	"github.com/Malumbo21/askdb/internal/schema"
)

// Registry holds the configured connections in configuration order. It is
// populated at startup and read-only afterwards.
type Registry struct {
	order []string
	conns map[string]Connection
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Connection)}
}

// OpenAll connects every configured database. On any failure, already
// opened connections are closed.
func OpenAll(ctx context.Context, cfgs []config.DatabaseConfig) (*Registry, error) {
	r := NewRegistry()

	for _, cfg := range cfgs {
		conn, err := Open(ctx, cfg.ID, cfg.Driver, cfg.DSN)
		if err != nil {
			_ = r.Close()
			return nil, err
		}

		r.Add(conn)
		logging.WithFields(map[string]any{"database": cfg.ID, "driver": cfg.Driver}).Debug("connected")
	}

	return r, nil
}

// Add registers a connection. Re-adding an identifier replaces the
// connection but keeps its position.
func (r *Registry) Add(conn Connection) {
	if _, exists := r.conns[conn.ID()]; !exists {
		r.order = append(r.order, conn.ID())
	}

	r.conns[conn.ID()] = conn
}

// Get returns the connection for an identifier.
func (r *Registry) Get(id string) (Connection, error) {
	conn, ok := r.conns[id]
	if !ok {
		return nil, askerrors.Newf(askerrors.ErrTypeConnectionNotFound,
			"no connection for database %q", id)
	}

	return conn, nil
}

// IDs returns the identifiers in registration order.
func (r *Registry) IDs() []string {
	return append([]string{}, r.order...)
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	return len(r.order)
}

// FetchSchemas introspects every database into a merged snapshot.
func (r *Registry) FetchSchemas(ctx context.Context) (*schema.Merged, error) {
	merged := schema.NewMerged()

	for _, id := range r.order {
		s, err := r.conns[id].GetSchema(ctx)
		if err != nil {
			return nil, err
		}

		merged.Add(id, s)
	}

	return merged, nil
}

// Close closes every connection, returning the first error.
func (r *Registry) Close() error {
	var first error

	for _, id := range r.order {
		if err := r.conns[id].Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}
