package node

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sigs.k8s.io/yaml"
)

const fileExt = ".yaml"

// FileStore keeps one YAML document per node in a directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create node directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

// Load reads the record for name.
func (s *FileStore) Load(_ context.Context, name string) (*Node, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read node %s: %w", name, err)
	}

	var n Node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to parse node %s: %w", name, err)
	}
	if n.Name == "" {
		n.Name = name
	}
	if n.Name != name {
		return nil, fmt.Errorf("node file %s holds record for %q", s.path(name), n.Name)
	}
	return &n, nil
}

// Save writes the record, replacing any previous version atomically.
func (s *FileStore) Save(_ context.Context, n *Node) error {
	if err := ValidateName(n.Name); err != nil {
		return err
	}

	data, err := yaml.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode node %s: %w", n.Name, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+n.Name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write node %s: %w", n.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write node %s: %w", n.Name, err)
	}
	if err := os.Rename(tmpName, s.path(n.Name)); err != nil {
		return fmt.Errorf("failed to save node %s: %w", n.Name, err)
	}
	return nil
}

// Delete removes the record for name.
func (s *FileStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("failed to delete node %s: %w", name, err)
	}
	return nil
}

// List returns the names of all stored records, sorted.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read node directory %s: %w", s.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), fileExt))
	}
	sort.Strings(names)
	return names, nil
}
