package project

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yates-Labs/gamebible/internal/game"
)

var createdAt = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func sampleProject() *Project {
	p := New("alice", game.Request{Title: "Échos d'Orion", Genre: "RPG", Mood: "onirique"}, true, createdAt)
	p.Game = game.Fallback()
	p.Generation = GenerationMetadata{Source: game.SourceFallback}
	p.CharacterPNG = []byte("\x89PNGchar")
	p.EnvironmentPNG = []byte("\x89PNGenv")
	return p
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello World", "hello-world"},
		{"Échos d'Orion", "echos-dorion"},
		{"  Neon -- Abyss  ", "neon-abyss"},
		{"Forêt des Anciens!", "foret-des-anciens"},
		{"日本", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestSlugTruncatesAndAppendsTime(t *testing.T) {
	long := strings.Repeat("a", 300)
	slug := Slug(long, createdAt)

	assert.True(t, strings.HasPrefix(slug, strings.Repeat("a", 150)+"-"))
	assert.Equal(t, "echos-dorion-1777629600", Slug("Échos d'Orion", createdAt))
}

func TestNewProject(t *testing.T) {
	p := sampleProject()
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, SchemaVersion, p.Version)
	assert.True(t, p.VisibleTo(""))

	p.Public = false
	assert.True(t, p.VisibleTo("alice"))
	assert.False(t, p.VisibleTo("bob"))
	assert.False(t, p.VisibleTo(""))
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	p := sampleProject()
	require.NoError(t, store.Save(context.Background(), p))

	got, err := store.Load(context.Background(), p.Slug)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Request, got.Request)
	assert.Equal(t, p.Game, got.Game)
	assert.Equal(t, p.CharacterPNG, got.CharacterPNG)
	assert.Equal(t, p.EnvironmentPNG, got.EnvironmentPNG)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
}

func TestFileStoreErrors(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "missing-1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Load(context.Background(), "../etc")
	assert.ErrorIs(t, err, ErrInvalidSlug)

	p := sampleProject()
	p.Slug = ".."
	assert.ErrorIs(t, store.Save(context.Background(), p), ErrInvalidSlug)
}

func TestFileStoreSlugCollision(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	at := time.Unix(1700000000, 0)
	alice := New("alice", game.Request{Title: "Proto-1234", Genre: "RPG"}, false, at)
	alice.Game = game.Game{"universe": "alice"}
	bob := New("bob", game.Request{Title: "Proto 1234!", Genre: "RPG"}, true, at)
	bob.Game = game.Game{"universe": "bob"}
	require.Equal(t, alice.Slug, bob.Slug)
	base := alice.Slug

	require.NoError(t, store.Save(ctx, alice))
	require.NoError(t, store.Save(ctx, bob))
	assert.Equal(t, base, alice.Slug)
	assert.NotEqual(t, base, bob.Slug)
	assert.True(t, strings.HasPrefix(bob.Slug, base+"-"))

	got, err := store.Load(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Owner)
	assert.False(t, got.Public)
	assert.Equal(t, "alice", got.Game["universe"])

	got, err = store.Load(ctx, bob.Slug)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Owner)
	assert.Equal(t, "bob", got.Game["universe"])

	// saving the same project again keeps its slug
	alice.Public = true
	require.NoError(t, store.Save(ctx, alice))
	assert.Equal(t, base, alice.Slug)

	carol := New("carol", game.Request{Title: "Proto-1234", Genre: "RPG"}, false, at)
	require.NoError(t, os.Mkdir(filepath.Join(dir, base+"-"+shortID(carol.ID)), 0o755))
	assert.ErrorIs(t, store.Save(ctx, carol), ErrSlugTaken)
}

func seedProjects(t *testing.T, store *FileStore) {
	t.Helper()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	projects := []struct {
		owner  string
		req    game.Request
		public bool
	}{
		{"alice", game.Request{Title: "Neon Abyss", Genre: "Rogue-lite", Mood: "cyberpunk"}, true},
		{"alice", game.Request{Title: "Forêt des Anciens", Genre: "RPG", Keywords: "druides, VENGEANCE"}, false},
		{"bob", game.Request{Title: "Cendres", Genre: "Metroidvania", Mood: "post-apo"}, true},
		{"bob", game.Request{Title: "Orbite", Genre: "Puzzle", Keywords: "gravité, vengeance"}, true},
	}
	for i, tt := range projects {
		p := New(tt.owner, tt.req, tt.public, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, store.Save(context.Background(), p))
	}
}

func titles(projects []*Project) []string {
	out := make([]string, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.Request.Title)
	}
	return out
}

func TestFileStoreList(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	seedProjects(t, store)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"public newest first", Filter{PublicOnly: true}, []string{"Orbite", "Cendres", "Neon Abyss"}},
		{"owner dashboard", Filter{Owner: "alice"}, []string{"Forêt des Anciens", "Neon Abyss"}},
		{"search keywords ignores case", Filter{PublicOnly: true, Query: "Vengeance"}, []string{"Orbite"}},
		{"search mood", Filter{Query: "post-APO"}, []string{"Cendres"}},
		{"search genre", Filter{Query: "rpg"}, []string{"Forêt des Anciens"}},
		{"viewer sees own private", Filter{Viewer: "alice", Query: "vengeance"}, []string{"Orbite", "Forêt des Anciens"}},
		{"slugs", Filter{Slugs: []string{}}, []string{}},
		{"page past end", Filter{PublicOnly: true, Page: 2}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestFilterPage(t *testing.T) {
	projects := make([]*Project, PageSize+3)
	for i := range projects {
		projects[i] = &Project{}
	}
	assert.Len(t, Filter{Page: 1}.page(projects), PageSize)
	assert.Len(t, Filter{Page: 2}.page(projects), 3)
	assert.Len(t, Filter{}.page(projects), PageSize+3)
}

func TestFileStoreFavorites(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	p := sampleProject()
	require.NoError(t, store.Save(ctx, p))

	favs, err := store.Favorites(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, favs)

	added, err := store.ToggleFavorite(ctx, "bob", p.Slug)
	require.NoError(t, err)
	assert.True(t, added)

	favs, err = store.Favorites(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{p.Slug}, favs)

	favs, err = store.Favorites(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, favs)

	added, err = store.ToggleFavorite(ctx, "bob", p.Slug)
	require.NoError(t, err)
	assert.False(t, added)
	favs, err = store.Favorites(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, favs)

	_, err = store.ToggleFavorite(ctx, "bob", "missing-1")
	assert.ErrorIs(t, err, ErrNotFound)

	// the favorites directory is not listed as a project
	_, err = store.ToggleFavorite(ctx, "bob", p.Slug)
	require.NoError(t, err)
	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(sampleProject(), FormatJSON, &buf))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "Échos d'Orion", out["title"])
	assert.Equal(t, "fallback", out["source"])
	assert.Equal(t, map[string]any{"character": "character.png", "environment": "environment.png"}, out["images"])
	assert.Contains(t, out["game"], "universe")
}

func TestExportMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(sampleProject(), FormatMarkdown, &buf))
	md := buf.String()

	assert.True(t, strings.HasPrefix(md, "# Échos d'Orion\n"))
	assert.Contains(t, md, "*RPG* · onirique")
	assert.Contains(t, md, "## Personnages")
	assert.Contains(t, md, "### Aelryn")
	assert.Contains(t, md, "- **Cité Céleste** : ")
	assert.Contains(t, md, "**Acte 3.** Résolution finale")
	assert.Contains(t, md, "![Environnement](environment.png)")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]ExportFormat{"": FormatJSON, "JSON": FormatJSON, "md": FormatMarkdown, "markdown": FormatMarkdown} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}
