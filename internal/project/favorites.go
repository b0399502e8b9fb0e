package project

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

const favoritesDir = ".favorites"

type favoriteRecord struct {
	User  string   `json:"user"`
	Slugs []string `json:"slugs"`
}

func (s *FileStore) favoritesPath(user string) string {
	return filepath.Join(s.dir, favoritesDir, hex.EncodeToString([]byte(user))+".json")
}

// ToggleFavorite adds slug to user's favorites, or removes it if present.
// The project must exist.
func (s *FileStore) ToggleFavorite(ctx context.Context, user, slug string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if user == "" {
		return false, errors.New("favorites: user is required")
	}
	dir, err := s.path(slug)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(filepath.Join(dir, documentFile)); errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.readFavorites(user)
	if err != nil {
		return false, err
	}

	added := false
	if i := slices.Index(rec.Slugs, slug); i >= 0 {
		rec.Slugs = slices.Delete(rec.Slugs, i, i+1)
	} else {
		rec.Slugs = append(rec.Slugs, slug)
		added = true
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("encode favorites: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(s.dir, favoritesDir), 0o755); err != nil {
		return false, fmt.Errorf("create favorites dir: %w", err)
	}
	if err := writeFile(s.favoritesPath(user), data); err != nil {
		return false, err
	}
	return added, nil
}

// Favorites returns the slugs user has favorited, oldest first.
func (s *FileStore) Favorites(ctx context.Context, user string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.readFavorites(user)
	if err != nil {
		return nil, err
	}
	return rec.Slugs, nil
}

func (s *FileStore) readFavorites(user string) (favoriteRecord, error) {
	rec := favoriteRecord{User: user, Slugs: []string{}}
	data, err := os.ReadFile(s.favoritesPath(user))
	if errors.Is(err, os.ErrNotExist) {
		return rec, nil
	}
	if err != nil {
		return rec, fmt.Errorf("read favorites: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode favorites: %w", err)
	}
	if rec.Slugs == nil {
		rec.Slugs = []string{}
	}
	return rec, nil
}
