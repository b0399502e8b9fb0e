package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Yates-Labs/gamebible/internal/game"
	"github.com/Yates-Labs/gamebible/internal/orchestrator"
	"github.com/Yates-Labs/gamebible/internal/project"
)

type fakeService struct {
	projects    map[string]*project.Project
	favorites   map[string][]string
	listErr     error
	lastPage    int
	generateErr error
	lastUser    string
	lastReq     game.Request
	lastPublic  bool
	deadline    bool
}

func newFakeService() *fakeService {
	return &fakeService{projects: map[string]*project.Project{}, favorites: map[string][]string{}}
}

func (f *fakeService) Generate(ctx context.Context, user string, req game.Request, public bool) (*project.Project, error) {
	f.lastUser, f.lastReq, f.lastPublic = user, req, public
	_, f.deadline = ctx.Deadline()
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := project.New(user, req, public, time.Unix(1700000000, 0))
	p.Game = game.Fallback()
	p.Generation.Source = game.SourceFallback
	p.CharacterPNG = []byte("\x89PNG-char")
	f.projects[p.Slug] = p
	return p, nil
}

func (f *fakeService) Explore(ctx context.Context, user string) (*project.Project, error) {
	return f.Generate(ctx, user, f.Seed(), false)
}

func (f *fakeService) Seed() game.Request {
	return game.Request{Title: "Proto-1234", Genre: "RPG", Mood: "onirique", Keywords: "IA rebelle, vengeance", References: "Hades"}
}

func (f *fakeService) Load(ctx context.Context, slug string) (*project.Project, error) {
	if p, ok := f.projects[slug]; ok {
		return p, nil
	}
	return nil, project.ErrNotFound
}

func (f *fakeService) list(filter project.Filter) ([]*project.Project, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []*project.Project{}
	for _, p := range f.projects {
		if filter.Match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeService) Browse(ctx context.Context, query string, page int) ([]*project.Project, error) {
	f.lastPage = page
	return f.list(project.Filter{PublicOnly: true, Query: query})
}

func (f *fakeService) Dashboard(ctx context.Context, user string) ([]*project.Project, error) {
	return f.list(project.Filter{Owner: user})
}

func (f *fakeService) ToggleFavorite(ctx context.Context, user, slug string) (bool, error) {
	if i := slices.Index(f.favorites[user], slug); i >= 0 {
		f.favorites[user] = slices.Delete(f.favorites[user], i, i+1)
		return false, nil
	}
	f.favorites[user] = append(f.favorites[user], slug)
	return true, nil
}

func (f *fakeService) Favorites(ctx context.Context, user string) ([]*project.Project, error) {
	return f.list(project.Filter{Viewer: user, Slugs: append([]string{}, f.favorites[user]...)})
}

func (f *fakeService) add(owner, title, mood string, public bool, at time.Time) *project.Project {
	p := project.New(owner, game.Request{Title: title, Genre: "RPG", Mood: mood}, public, at)
	f.projects[p.Slug] = p
	return p
}

func slugsOf(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var out ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	slugs := make([]string, 0, len(out.Projects))
	for _, p := range out.Projects {
		slugs = append(slugs, p.Slug)
	}
	return slugs
}

func newTestServer(t *testing.T, svc Service) http.Handler {
	t.Helper()
	return New(Config{GenerationDeadline: time.Minute}, svc, zaptest.NewLogger(t)).Handler()
}

func do(t *testing.T, h http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestGenerateEndpoint(t *testing.T) {
	svc := newFakeService()
	h := newTestServer(t, svc)

	w := do(t, h, http.MethodPost, "/api/generate", "alice",
		`{"title":"Neon Abyss","genre":"Rogue-lite","mood":"cyberpunk","public":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out := decode(t, w)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "fallback", out["source"])
	assert.Equal(t, "/api/projects/"+out["slug"].(string), out["project_url"])
	assert.Contains(t, out["game"], "pitch")

	assert.Equal(t, "alice", svc.lastUser)
	assert.Equal(t, "cyberpunk", svc.lastReq.Mood)
	assert.True(t, svc.lastPublic)
	assert.True(t, svc.deadline, "generation runs under a deadline")
}

func TestGenerateEndpointErrors(t *testing.T) {
	tests := []struct {
		name       string
		user       string
		body       string
		serviceErr error
		wantStatus int
		wantError  string
	}{
		{"no user", "", `{"title":"X","genre":"RPG"}`, nil, http.StatusUnauthorized, "Authentification requise."},
		{"bad json", "alice", `{"title":`, nil, http.StatusBadRequest, "Payload JSON invalide"},
		{"missing title", "alice", `{"genre":"RPG"}`, nil, http.StatusBadRequest, "title is required"},
		{"quota", "alice", `{"title":"X","genre":"RPG"}`,
			&orchestrator.QuotaError{Message: "Limite quotidienne atteinte (10). Réessaie demain."},
			http.StatusTooManyRequests, "Limite quotidienne atteinte (10). Réessaie demain."},
		{"storage", "alice", `{"title":"X","genre":"RPG"}`, errors.New("disk full"), http.StatusInternalServerError, "Erreur interne"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()
			svc.generateErr = tt.serviceErr
			w := do(t, newTestServer(t, svc), http.MethodPost, "/api/generate", tt.user, tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, decode(t, w)["error"], tt.wantError)
		})
	}
}

func TestExploreEndpoint(t *testing.T) {
	svc := newFakeService()
	h := newTestServer(t, svc)

	w := do(t, h, http.MethodPost, "/api/explore", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodPost, "/api/explore", "bob", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Proto-1234", svc.lastReq.Title)
	assert.False(t, svc.lastPublic)
}

func TestSeedEndpoint(t *testing.T) {
	w := do(t, newTestServer(t, newFakeService()), http.MethodGet, "/api/seed", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "Proto-1234", out["title"])
	assert.Equal(t, "IA rebelle, vengeance", out["keywords"])
}

func TestProjectVisibility(t *testing.T) {
	svc := newFakeService()
	h := newTestServer(t, svc)

	w := do(t, h, http.MethodPost, "/api/explore", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	slug := decode(t, w)["slug"].(string)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/projects/"+slug, "alice", "").Code)

	w = do(t, h, http.MethodGet, "/api/projects/"+slug, "bob", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Accès refusé", decode(t, w)["error"])

	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodGet, "/api/projects/"+slug+"/export", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/projects/missing-1", "alice", "").Code)
}

func TestExportEndpoint(t *testing.T) {
	svc := newFakeService()
	h := newTestServer(t, svc)

	w := do(t, h, http.MethodPost, "/api/generate", "alice", `{"title":"Neon Abyss","genre":"RPG","public":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	slug := decode(t, w)["slug"].(string)

	w = do(t, h, http.MethodGet, "/api/projects/"+slug+"/export?format=markdown", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), slug+".md")
	assert.True(t, strings.HasPrefix(w.Body.String(), "# Neon Abyss"))

	w = do(t, h, http.MethodGet, "/api/projects/"+slug+"/export", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Neon Abyss", decode(t, w)["title"])

	w = do(t, h, http.MethodGet, "/api/projects/"+slug+"/export?format=pdf", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImageEndpoint(t *testing.T) {
	svc := newFakeService()
	h := newTestServer(t, svc)

	w := do(t, h, http.MethodPost, "/api/generate", "alice", `{"title":"X","genre":"RPG","public":true}`)
	slug := decode(t, w)["slug"].(string)

	w = do(t, h, http.MethodGet, "/api/projects/"+slug+"/images/character", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG-char", w.Body.String())

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/projects/"+slug+"/images/environment", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/projects/"+slug+"/images/boss", "", "").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t, newFakeService())

	w := do(t, h, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])

	w = do(t, h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestBrowseEndpoint(t *testing.T) {
	svc := newFakeService()
	base := time.Unix(1700000000, 0)
	neon := svc.add("alice", "Neon Abyss", "cyberpunk", true, base)
	svc.add("alice", "Secret", "cyberpunk", false, base.Add(time.Hour))
	cendres := svc.add("bob", "Cendres", "post-apo", true, base.Add(2*time.Hour))
	h := newTestServer(t, svc)

	w := do(t, h, http.MethodGet, "/api/projects", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{cendres.Slug, neon.Slug}, slugsOf(t, w))
	assert.Equal(t, 1, svc.lastPage)

	w = do(t, h, http.MethodGet, "/api/projects?q=CYBER&page=2", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{neon.Slug}, slugsOf(t, w))
	assert.Equal(t, 2, svc.lastPage)
	out := decode(t, w)
	assert.Equal(t, "CYBER", out["query"])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/projects?page=zero", "", "").Code)

	svc.listErr = errors.New("disk gone")
	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodGet, "/api/projects", "", "").Code)
}

func TestDashboardEndpoint(t *testing.T) {
	svc := newFakeService()
	base := time.Unix(1700000000, 0)
	neon := svc.add("alice", "Neon Abyss", "", true, base)
	secret := svc.add("alice", "Secret", "", false, base.Add(time.Hour))
	svc.add("bob", "Cendres", "", true, base.Add(2*time.Hour))
	h := newTestServer(t, svc)

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/me/projects", "", "").Code)

	w := do(t, h, http.MethodGet, "/api/me/projects", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{secret.Slug, neon.Slug}, slugsOf(t, w))
}

func TestFavoriteEndpoints(t *testing.T) {
	svc := newFakeService()
	base := time.Unix(1700000000, 0)
	neon := svc.add("alice", "Neon Abyss", "", true, base)
	secret := svc.add("alice", "Secret", "", false, base.Add(time.Hour))
	h := newTestServer(t, svc)

	path := "/api/projects/" + neon.Slug + "/favorite"
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, path, "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/me/favorites", "", "").Code)

	w := do(t, h, http.MethodPost, path, "bob", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["favorite"])

	w = do(t, h, http.MethodGet, "/api/me/favorites", "bob", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{neon.Slug}, slugsOf(t, w))

	w = do(t, h, http.MethodPost, path, "bob", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["favorite"])
	assert.Empty(t, slugsOf(t, do(t, h, http.MethodGet, "/api/me/favorites", "bob", "")))

	w = do(t, h, http.MethodPost, "/api/projects/"+secret.Slug+"/favorite", "bob", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/projects/missing-1/favorite", "bob", "").Code)
}
