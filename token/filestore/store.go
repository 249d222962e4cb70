// Package filestore persists the token pair as a JSON file in the user's
// working or config directory.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/DiegoxdGarcia2/smart-condominium/token"
)

var _ token.Store = (*Store)(nil)

const fileMode = 0o600

// Store writes the pair to a single file. Writes go to a temp file in the same
// directory and are renamed over the target so a reader never sees half a pair.
type Store struct {
	path string
	lock sync.Mutex
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("[filestore.New] path is required")
	}
	return &Store{path: path}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(_ context.Context) (token.Pair, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.read()
}

func (s *Store) Save(_ context.Context, pair token.Pair) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	return s.write(current.Merge(pair))
}

func (s *Store) Clear(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("[filestore.Clear] %w", err)
	}
	return nil
}

func (s *Store) read() (token.Pair, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return token.Pair{}, nil
	}
	if err != nil {
		return token.Pair{}, fmt.Errorf("[filestore.Load] %w", err)
	}
	if len(data) == 0 {
		return token.Pair{}, nil
	}

	var pair token.Pair
	if err := json.Unmarshal(data, &pair); err != nil {
		return token.Pair{}, fmt.Errorf("[filestore.Load] decode %s: %w", s.path, err)
	}
	return pair, nil
}

func (s *Store) write(pair token.Pair) error {
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("[filestore.Save] encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("[filestore.Save] %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*")
	if err != nil {
		return fmt.Errorf("[filestore.Save] %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[filestore.Save] %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("[filestore.Save] %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[filestore.Save] %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("[filestore.Save] %w", err)
	}
	return nil
}
