package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
)

// StoreFile holds every entry of the repo
const StoreFile = "tokens.json"

var errCorrupted = errors.New("token file is corrupted")

// TokenRepo keeps all entries in one JSON file inside Dir.
// Good enough for a single user running the dashboard locally.
type TokenRepo struct {
	Dir string

	// Swaps the written temp file in, os.Rename when nil
	replace func(oldpath string, newpath string) error
}

func NewTokenRepo(dir string) *TokenRepo {
	return &TokenRepo{Dir: dir}
}

func (r *TokenRepo) Get(_ context.Context, keys ...string) (map[string]string, error) {
	stored, err := r.read()
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if value, ok := stored[key]; ok {
			result[key] = value
		}
	}

	return result, nil
}

// Set merges entries into the stored ones and replaces the file with a single rename,
// so readers see either the old entries or the new ones.
// Corrupted file is overwritten, otherwise re-authentication could never fix it.
func (r *TokenRepo) Set(_ context.Context, entries map[string]string) error {
	stored, err := r.read()
	switch {
	case errors.Is(err, errCorrupted):
		stored = make(map[string]string, len(entries))
	case err != nil:
		return err
	}
	maps.Copy(stored, entries)

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}

	if err := os.MkdirAll(r.Dir, 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	f, err := os.CreateTemp(r.Dir, "."+StoreFile+"-*")
	if err != nil {
		return fmt.Errorf("write tokens: %w", err)
	}
	tmp := f.Name()

	_, err = f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write tokens: %w", err)
	}

	replace := r.replace
	if replace == nil {
		replace = os.Rename
	}
	if err := replace(tmp, r.path()); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace tokens: %w", err)
	}

	return nil
}

// read returns stored entries, empty when nothing was written yet
func (r *TokenRepo) read() (map[string]string, error) {
	stored := make(map[string]string)

	data, err := os.ReadFile(r.path())
	switch {
	case errors.Is(err, os.ErrNotExist):
		return stored, nil
	case err != nil:
		return nil, fmt.Errorf("read tokens: %w", err)
	}

	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode tokens: %w: %v", errCorrupted, err)
	}
	if stored == nil {
		stored = make(map[string]string)
	}

	return stored, nil
}

func (r *TokenRepo) path() string {
	return filepath.Join(r.Dir, StoreFile)
}
