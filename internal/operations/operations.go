// Package operations composes the metadata store, path filter, selection
// policy and archiver into complete backup and restore runs.
package operations

import (
	"github.com/kebairia/fsbackup/internal/config"
	"github.com/kebairia/fsbackup/internal/logger"
	"github.com/kebairia/fsbackup/internal/metadata"
	"github.com/kebairia/fsbackup/internal/progress"
)

// Operator runs backups and restores according to one loaded configuration.
type Operator struct {
	cfg   config.Config
	store *metadata.Store
	sink  progress.Sink
	log   logger.Logger
}

// Option overrides a default collaborator on the Operator.
type Option func(*Operator)

// WithSink replaces the progress sink.
func WithSink(sink progress.Sink) Option {
	return func(o *Operator) {
		if sink != nil {
			o.sink = sink
		}
	}
}

// WithStore replaces the metadata store.
func WithStore(store *metadata.Store) Option {
	return func(o *Operator) {
		if store != nil {
			o.store = store
		}
	}
}

// NewOperator validates cfg and builds an Operator around it.
func NewOperator(cfg config.Config, opts ...Option) (*Operator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Global()
	op := &Operator{
		cfg:   cfg,
		store: metadata.NewStore(cfg.Metadata.Directory),
		sink:  progress.NewLogSink(log),
		log:   log,
	}
	for _, opt := range opts {
		opt(op)
	}
	return op, nil
}
