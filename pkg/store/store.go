// Package store persists layout pass records.
//
// A Record is the durable form of one layout run: the scene hash and
// configuration that produced it plus the full pass result. The API
// server stores every computed layout so clients can fetch results by ID
// later; the CLI runs entirely without a store.
//
// Two backends are provided: an in-memory store for tests and
// single-process use, and a MongoDB store for deployments.
package store

import (
	"context"
	"time"

	"github.com/gravitylab/gravita/pkg/config"
	"github.com/gravitylab/gravita/pkg/engine"
)

// Record is one persisted layout pass.
type Record struct {
	// ID is a UUID assigned when the record is stored.
	ID string `json:"id" bson:"_id"`

	// CreatedAt is when the layout pass completed.
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	// SceneHash is the content hash of the scene that was laid out.
	SceneHash string `json:"scene_hash" bson:"scene_hash"`

	// Config is the configuration the pass ran with.
	Config config.Configuration `json:"config" bson:"config"`

	// Result is the full pass outcome.
	Result engine.Result `json:"result" bson:"result"`
}

// Store persists and retrieves layout records.
type Store interface {
	// Put stores a record. The record's ID must be set by the caller.
	Put(ctx context.Context, rec Record) error

	// Get retrieves a record by ID. Missing records return a NOT_FOUND
	// error.
	Get(ctx context.Context, id string) (Record, error)

	// List returns the most recent records, newest first, up to limit.
	List(ctx context.Context, limit int) ([]Record, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
