package services_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/faculty-league/metrics"
	"github.com/Dosada05/faculty-league/models"
	"github.com/Dosada05/faculty-league/repositories"
	"github.com/Dosada05/faculty-league/services"
	"github.com/Dosada05/faculty-league/standings"
	"github.com/Dosada05/faculty-league/storage"
)

var (
	admin  = models.Identity{UserID: 1, Role: models.RoleAdmin}
	viewer = models.Identity{UserID: 2, Role: models.RoleViewer}
	anon   = models.Identity{}
)

type published struct {
	Type    string
	MatchID int
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []published
}

func (b *recordingBroadcaster) Publish(eventType string, matchID int, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, published{Type: eventType, MatchID: matchID})
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	ctx      context.Context
	repos    *repositories.Repositories
	live     *recordingBroadcaster
	uploader *storage.MemoryUploader
	stats    services.StatsService
	activity services.ActivityService
	matches  services.MatchService
	facs     services.FacultyService
	seasons  services.SeasonService
	portal   services.PortalService
}

func newTestEnv(t *testing.T, mode standings.ReversalMode) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repos := repositories.NewMemoryRepositories()
	live := &recordingBroadcaster{}
	m := metrics.NewManager()
	uploader, err := storage.NewMemoryUploader("http://cdn.test/")
	if err != nil {
		t.Fatal(err)
	}

	env := &testEnv{ctx: context.Background(), repos: repos, live: live, uploader: uploader}
	env.stats = services.NewStatsService(repos.Tx, repos.Faculties, mode, m, logger)
	env.activity = services.NewActivityService(repos.Activity, m, logger)
	env.matches = services.NewMatchService(repos, env.stats, env.activity, live, uploader, m, logger)
	env.facs = services.NewFacultyService(repos.Faculties, repos.Matches, repos.Seasons, env.activity, uploader, logger)
	env.seasons = services.NewSeasonService(repos, env.activity, live, logger)
	env.portal = services.NewPortalService(repos, uploader, m, logger)
	return env
}

func (e *testEnv) faculty(t *testing.T, name, abbr string) *models.Faculty {
	t.Helper()
	f, err := e.facs.CreateFaculty(e.ctx, admin, services.FacultyInput{Name: name, Abbreviation: abbr})
	if err != nil {
		t.Fatalf("create faculty %s: %v", abbr, err)
	}
	return f
}

func (e *testEnv) stored(t *testing.T, id int) models.FacultyStats {
	t.Helper()
	f, err := e.repos.Faculties.GetByID(e.ctx, id)
	if err != nil {
		t.Fatalf("load faculty %d: %v", id, err)
	}
	return f.FacultyStats
}

func importance(i models.MatchImportance) *models.MatchImportance {
	return &i
}

func (e *testEnv) fixture(t *testing.T, home, away int, imp *models.MatchImportance, at time.Time) *models.Match {
	t.Helper()
	m, err := e.matches.CreateMatch(e.ctx, admin, services.CreateMatchInput{
		HomeFacultyID: home,
		AwayFacultyID: away,
		Category:      models.CategoryMen,
		Importance:    imp,
		MatchDate:     at,
	})
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	return m
}

func (e *testEnv) finish(t *testing.T, id, home, away int) *services.ScoreUpdate {
	t.Helper()
	res, err := e.matches.UpdateScore(e.ctx, admin, id, services.UpdateScoreInput{
		Status:    models.MatchStatusFinished,
		ScoreHome: home,
		ScoreAway: away,
	})
	if err != nil {
		t.Fatalf("finish match %d: %v", id, err)
	}
	return res
}
