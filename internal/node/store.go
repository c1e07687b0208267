package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/fogprov/internal/config"
)

// ErrNotFound is returned by Load and Delete when no record exists.
var ErrNotFound = errors.New("node not found")

// Store persists node records.
type Store interface {
	Load(ctx context.Context, name string) (*Node, error)
	Save(ctx context.Context, n *Node) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
}

// OpenStore builds the store described by cfg.
func OpenStore(ctx context.Context, cfg config.NodeStoreConfig) (Store, error) {
	switch cfg.Type {
	case config.StoreFile, "":
		return NewFileStore(cfg.Path)
	case config.StoreS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported node store type %q", cfg.Type)
	}
}
