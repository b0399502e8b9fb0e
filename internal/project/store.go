package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("project not found")
	ErrInvalidSlug = errors.New("invalid project slug")
	ErrSlugTaken   = errors.New("project slug already taken")
)

const (
	documentFile    = "project.json"
	characterFile   = "character.png"
	environmentFile = "environment.png"
)

// Store persists projects and per-user favorites.
type Store interface {
	// Save may change p.Slug when the derived slug belongs to another project.
	Save(ctx context.Context, p *Project) error
	Load(ctx context.Context, slug string) (*Project, error)
	// List returns matching projects newest first, without image payloads.
	List(ctx context.Context, f Filter) ([]*Project, error)
	// ToggleFavorite flips slug in user's favorites and reports the new state.
	ToggleFavorite(ctx context.Context, user, slug string) (bool, error)
	Favorites(ctx context.Context, user string) ([]string, error)
}

// FileStore writes each project to <dir>/<slug>/ and favorites to
// <dir>/.favorites/.
type FileStore struct {
	dir string

	// guards favorites files
	mu sync.Mutex
}

// NewFileStore creates the root directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(slug string) (string, error) {
	if slug == "" || strings.ContainsAny(slug, `/\`) || strings.HasPrefix(slug, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return filepath.Join(s.dir, slug), nil
}

// Save writes the document and any image payloads. Files are written to a
// temporary name first and renamed into place. A slug directory held by a
// different project is never written to: Save retries once with a suffix
// taken from p.ID and fails with ErrSlugTaken after that.
func (s *FileStore) Save(ctx context.Context, p *Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := s.claim(p)
	if err != nil {
		return err
	}

	doc, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{characterFile, p.CharacterPNG},
		{environmentFile, p.EnvironmentPNG},
		{documentFile, doc},
	}
	for _, f := range files {
		if len(f.data) == 0 {
			continue
		}
		if err := writeFile(filepath.Join(dir, f.name), f.data); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a project and its images.
func (s *FileStore) Load(ctx context.Context, slug string) (*Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.path(slug)
	if err != nil {
		return nil, err
	}

	doc, err := os.ReadFile(filepath.Join(dir, documentFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}

	var p Project
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("decode project %s: %w", slug, err)
	}

	if p.CharacterPNG, err = readOptional(filepath.Join(dir, characterFile)); err != nil {
		return nil, err
	}
	if p.EnvironmentPNG, err = readOptional(filepath.Join(dir, environmentFile)); err != nil {
		return nil, err
	}
	return &p, nil
}

// claim creates the project directory, or accepts an existing one that
// already holds p. It sets p.Slug to the slug it claimed.
func (s *FileStore) claim(p *Project) (string, error) {
	candidates := []string{p.Slug, p.Slug + "-" + shortID(p.ID)}
	for _, slug := range candidates {
		dir, err := s.path(slug)
		if err != nil {
			return "", err
		}
		err = os.Mkdir(dir, 0o755)
		if errors.Is(err, fs.ErrExist) {
			var owned bool
			if owned, err = ownedBy(dir, p.ID); err != nil {
				return "", err
			}
			if !owned {
				continue
			}
		} else if err != nil {
			return "", fmt.Errorf("create project dir: %w", err)
		}
		p.Slug = slug
		return dir, nil
	}
	return "", fmt.Errorf("%w: %s", ErrSlugTaken, p.Slug)
}

// ownedBy reports whether the document in dir belongs to id. A directory
// without a document is being claimed by a concurrent Save.
func ownedBy(dir string, id uuid.UUID) (bool, error) {
	doc, err := os.ReadFile(filepath.Join(dir, documentFile))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read project: %w", err)
	}
	var existing struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(doc, &existing); err != nil {
		return false, nil
	}
	return existing.ID == id, nil
}

func shortID(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}

// List scans every project document. Unreadable entries fail the listing.
func (s *FileStore) List(ctx context.Context, f Filter) ([]*Project, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	var out []*Project
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := os.ReadFile(filepath.Join(s.dir, entry.Name(), documentFile))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read project %s: %w", entry.Name(), err)
		}
		var p Project
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, fmt.Errorf("decode project %s: %w", entry.Name(), err)
		}
		if f.Match(&p) {
			out = append(out, &p)
		}
	}

	sortNewestFirst(out)
	return f.page(out), nil
}

func sortNewestFirst(projects []*Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		if !projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].CreatedAt.After(projects[j].CreatedAt)
		}
		return projects[i].Slug < projects[j].Slug
	})
}

func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return data, nil
}
