package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/faculty-league/models"
)

// memoryStore backs every repository when the portal runs without a
// database. txMu is held by a running transaction and by every write made
// outside one, so a rollback never discards another caller's write; mu
// guards the maps.
type memoryStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	faculties map[int]models.Faculty
	matches   map[int]models.Match
	seasons   map[int]models.Season
	standings []models.SeasonStanding
	users     map[int]models.User
	activity  []models.ActivityLog
	lastID    int
}

type memorySnapshot struct {
	faculties map[int]models.Faculty
	matches   map[int]models.Match
	seasons   map[int]models.Season
	standings []models.SeasonStanding
	lastID    int
}

// NewMemoryRepositories returns repositories sharing one in-process store.
func NewMemoryRepositories() *Repositories {
	s := &memoryStore{
		faculties: make(map[int]models.Faculty),
		matches:   make(map[int]models.Match),
		seasons:   make(map[int]models.Season),
		users:     make(map[int]models.User),
	}
	return &Repositories{
		Tx:        &memoryTransactor{s: s},
		Faculties: &memoryFacultyRepository{s: s},
		Matches:   &memoryMatchRepository{s: s},
		Seasons:   &memorySeasonRepository{s: s},
		Users:     &memoryUserRepository{s: s},
		Activity:  &memoryActivityRepository{s: s},
	}
}

func (s *memoryStore) nextID() int {
	s.lastID++
	return s.lastID
}

func (s *memoryStore) snapshot() memorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := memorySnapshot{
		faculties: make(map[int]models.Faculty, len(s.faculties)),
		matches:   make(map[int]models.Match, len(s.matches)),
		seasons:   make(map[int]models.Season, len(s.seasons)),
		standings: append([]models.SeasonStanding(nil), s.standings...),
		lastID:    s.lastID,
	}
	for id, f := range s.faculties {
		snap.faculties[id] = f
	}
	for id, m := range s.matches {
		snap.matches[id] = m
	}
	for id, season := range s.seasons {
		snap.seasons[id] = season
	}
	return snap
}

func (s *memoryStore) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faculties = snap.faculties
	s.matches = snap.matches
	s.seasons = snap.seasons
	s.standings = snap.standings
	s.lastID = snap.lastID
}

// memoryTx is the executor handed to a memory transaction. Writes made
// through it already hold txMu.
type memoryTx struct{}

var errMemoryExecutor = errors.New("memory transaction does not run SQL")

func (memoryTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, errMemoryExecutor
}

func (memoryTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errMemoryExecutor
}

func (memoryTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

// lockWrite takes the locks a write needs and returns the matching unlock.
func (s *memoryStore) lockWrite(exec SQLExecutor) func() {
	if _, ok := exec.(memoryTx); ok {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

type memoryTransactor struct {
	s *memoryStore
}

// WithinTx snapshots the store and restores it when fn fails. Writers
// outside the transaction wait on txMu, so the snapshot only ever covers
// this transaction's own changes.
func (t *memoryTransactor) WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) (err error) {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snap := t.s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			t.s.restore(snap)
			panic(p)
		}
		if err != nil {
			t.s.restore(snap)
		}
	}()
	err = fn(memoryTx{})
	return err
}

type memoryFacultyRepository struct {
	s *memoryStore
}

func (r *memoryFacultyRepository) nameTaken(name string, exceptID int) bool {
	for id, f := range r.s.faculties {
		if id != exceptID && f.Name == name {
			return true
		}
	}
	return false
}

func (r *memoryFacultyRepository) Create(ctx context.Context, faculty *models.Faculty) error {
	defer r.s.lockWrite(nil)()
	if r.nameTaken(faculty.Name, 0) {
		return ErrFacultyNameConflict
	}
	now := time.Now().UTC()
	faculty.ID = r.s.nextID()
	faculty.CreatedAt, faculty.UpdatedAt = now, now
	r.s.faculties[faculty.ID] = *faculty
	return nil
}

func (r *memoryFacultyRepository) GetByID(ctx context.Context, id int) (*models.Faculty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.faculties[id]
	if !ok {
		return nil, ErrFacultyNotFound
	}
	return &f, nil
}

func (r *memoryFacultyRepository) List(ctx context.Context) ([]*models.Faculty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	faculties := make([]*models.Faculty, 0, len(r.s.faculties))
	for _, f := range r.s.faculties {
		f := f
		faculties = append(faculties, &f)
	}
	sort.Slice(faculties, func(i, j int) bool { return faculties[i].Name < faculties[j].Name })
	return faculties, nil
}

func (r *memoryFacultyRepository) UpdateDetails(ctx context.Context, faculty *models.Faculty) error {
	defer r.s.lockWrite(nil)()
	current, ok := r.s.faculties[faculty.ID]
	if !ok {
		return ErrFacultyNotFound
	}
	if r.nameTaken(faculty.Name, faculty.ID) {
		return ErrFacultyNameConflict
	}
	current.Name = faculty.Name
	current.Abbreviation = faculty.Abbreviation
	current.ColorPrimary = faculty.ColorPrimary
	current.ColorSecondary = faculty.ColorSecondary
	current.UpdatedAt = time.Now().UTC()
	faculty.UpdatedAt = current.UpdatedAt
	r.s.faculties[faculty.ID] = current
	return nil
}

func (r *memoryFacultyRepository) UpdateCrestKey(ctx context.Context, id int, crestKey *string) error {
	defer r.s.lockWrite(nil)()
	f, ok := r.s.faculties[id]
	if !ok {
		return ErrFacultyNotFound
	}
	f.CrestKey = crestKey
	f.UpdatedAt = time.Now().UTC()
	r.s.faculties[id] = f
	return nil
}

func (r *memoryFacultyRepository) LockForUpdate(ctx context.Context, exec SQLExecutor, ids ...int) (map[int]*models.Faculty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	locked := make(map[int]*models.Faculty, len(ids))
	for _, id := range dedupeIDs(ids) {
		f, ok := r.s.faculties[id]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrFacultyNotFound, id)
		}
		locked[id] = &f
	}
	return locked, nil
}

func (r *memoryFacultyRepository) UpdateStats(ctx context.Context, exec SQLExecutor, id int, stats models.FacultyStats) error {
	defer r.s.lockWrite(exec)()
	f, ok := r.s.faculties[id]
	if !ok {
		return ErrFacultyNotFound
	}
	// mirrors the CHECK constraints of the faculties table
	if stats.Played < 0 || stats.Won < 0 || stats.Drawn < 0 || stats.Lost < 0 || stats.GoalsFor < 0 || stats.GoalsAgainst < 0 {
		return fmt.Errorf("failed to update stats of faculty %d: negative counter", id)
	}
	f.FacultyStats = stats
	f.UpdatedAt = time.Now().UTC()
	r.s.faculties[id] = f
	return nil
}

func (r *memoryFacultyRepository) ResetStats(ctx context.Context, exec SQLExecutor) error {
	defer r.s.lockWrite(exec)()
	now := time.Now().UTC()
	for id, f := range r.s.faculties {
		f.FacultyStats = models.FacultyStats{}
		f.UpdatedAt = now
		r.s.faculties[id] = f
	}
	return nil
}

func (r *memoryFacultyRepository) AddHonours(ctx context.Context, exec SQLExecutor, id int, honours Honours) error {
	defer r.s.lockWrite(exec)()
	f, ok := r.s.faculties[id]
	if !ok {
		return ErrFacultyNotFound
	}
	f.ChampionshipsWon += honours.Championships
	f.RunnerUpCount += honours.RunnerUp
	f.ThirdPlaceCount += honours.ThirdPlace
	r.s.faculties[id] = f
	return nil
}

type memoryMatchRepository struct {
	s *memoryStore
}

func (r *memoryMatchRepository) checkRefs(m *models.Match) error {
	if _, ok := r.s.faculties[m.HomeFacultyID]; !ok {
		return ErrMatchFacultyInvalid
	}
	if _, ok := r.s.faculties[m.AwayFacultyID]; !ok {
		return ErrMatchFacultyInvalid
	}
	if m.SeasonID != nil {
		if _, ok := r.s.seasons[*m.SeasonID]; !ok {
			return ErrMatchFacultyInvalid
		}
	}
	return nil
}

func storedMatch(m *models.Match) models.Match {
	stored := *m
	stored.HomeFaculty, stored.AwayFaculty = nil, nil
	return stored
}

func (r *memoryMatchRepository) Create(ctx context.Context, match *models.Match) error {
	defer r.s.lockWrite(nil)()
	if err := r.checkRefs(match); err != nil {
		return err
	}
	now := time.Now().UTC()
	match.ID = r.s.nextID()
	match.CreatedAt, match.UpdatedAt = now, now
	r.s.matches[match.ID] = storedMatch(match)
	return nil
}

func (r *memoryMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return &m, nil
}

func (r *memoryMatchRepository) LockForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	defer r.s.lockWrite(exec)()
	current, ok := r.s.matches[match.ID]
	if !ok {
		return ErrMatchNotFound
	}
	if err := r.checkRefs(match); err != nil {
		return err
	}
	match.UpdatedAt = time.Now().UTC()
	match.CreatedAt = current.CreatedAt
	match.IsArchived = current.IsArchived
	r.s.matches[match.ID] = storedMatch(match)
	return nil
}

func (r *memoryMatchRepository) SetArchived(ctx context.Context, id int, archived bool) error {
	defer r.s.lockWrite(nil)()
	m, ok := r.s.matches[id]
	if !ok {
		return ErrMatchNotFound
	}
	m.IsArchived = archived
	m.UpdatedAt = time.Now().UTC()
	r.s.matches[id] = m
	return nil
}

func matchesFilter(m models.Match, filter models.MatchFilter) bool {
	switch {
	case filter.Status != nil && m.Status != *filter.Status:
		return false
	case filter.Category != nil && m.Category != *filter.Category:
		return false
	case filter.SeasonID != nil && (m.SeasonID == nil || *m.SeasonID != *filter.SeasonID):
		return false
	case filter.Importance != nil && (m.Importance == nil || *m.Importance != *filter.Importance):
		return false
	case filter.FacultyID != nil && !m.Involves(*filter.FacultyID):
		return false
	case filter.Archived != nil && m.IsArchived != *filter.Archived:
		return false
	case filter.From != nil && m.MatchDate.Before(*filter.From):
		return false
	case filter.To != nil && !m.MatchDate.Before(*filter.To):
		return false
	}
	return true
}

func (r *memoryMatchRepository) List(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matches := make([]*models.Match, 0)
	for _, m := range r.s.matches {
		if matchesFilter(m, filter) {
			m := m
			matches = append(matches, &m)
		}
	}
	asc := filter.Order == models.OrderDateAsc
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.MatchDate.Equal(b.MatchDate) {
			return a.MatchDate.Before(b.MatchDate) == asc
		}
		return (a.ID < b.ID) == asc
	})
	if filter.Limit > 0 && len(matches) > filter.Limit {
		matches = matches[:filter.Limit]
	}
	return matches, nil
}

func (r *memoryMatchRepository) Count(ctx context.Context, filter models.MatchFilter) (int, error) {
	filter.Limit = 0
	matches, err := r.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

type memorySeasonRepository struct {
	s *memoryStore
}

func (r *memorySeasonRepository) Create(ctx context.Context, exec SQLExecutor, season *models.Season) error {
	defer r.s.lockWrite(exec)()
	if season.Status == models.SeasonStatusActive {
		for _, existing := range r.s.seasons {
			if existing.Status == models.SeasonStatusActive {
				return ErrSeasonActiveExists
			}
		}
	}
	if season.StartedAt.IsZero() {
		season.StartedAt = time.Now().UTC()
	}
	season.ID = r.s.nextID()
	r.s.seasons[season.ID] = *season
	return nil
}

func (r *memorySeasonRepository) GetByID(ctx context.Context, id int) (*models.Season, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	season, ok := r.s.seasons[id]
	if !ok {
		return nil, ErrSeasonNotFound
	}
	return &season, nil
}

func (r *memorySeasonRepository) GetActive(ctx context.Context, exec SQLExecutor) (*models.Season, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, season := range r.s.seasons {
		if season.Status == models.SeasonStatusActive {
			return &season, nil
		}
	}
	return nil, ErrSeasonNotFound
}

func (r *memorySeasonRepository) List(ctx context.Context) ([]*models.Season, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seasons := make([]*models.Season, 0, len(r.s.seasons))
	for _, season := range r.s.seasons {
		season := season
		seasons = append(seasons, &season)
	}
	sort.Slice(seasons, func(i, j int) bool {
		if !seasons[i].StartedAt.Equal(seasons[j].StartedAt) {
			return seasons[i].StartedAt.After(seasons[j].StartedAt)
		}
		return seasons[i].ID > seasons[j].ID
	})
	return seasons, nil
}

func (r *memorySeasonRepository) Complete(ctx context.Context, exec SQLExecutor, id int, endedAt time.Time) error {
	defer r.s.lockWrite(exec)()
	season, ok := r.s.seasons[id]
	if !ok || season.Status != models.SeasonStatusActive {
		return ErrSeasonNotFound
	}
	season.Status = models.SeasonStatusCompleted
	season.EndedAt = &endedAt
	r.s.seasons[id] = season
	return nil
}

func (r *memorySeasonRepository) SaveStandings(ctx context.Context, exec SQLExecutor, standings []*models.SeasonStanding) error {
	defer r.s.lockWrite(exec)()
	for _, s := range standings {
		for _, existing := range r.s.standings {
			if existing.SeasonID == s.SeasonID && existing.Category == s.Category && existing.FacultyID == s.FacultyID {
				return ErrSeasonStandingExist
			}
		}
		s.ID = r.s.nextID()
		s.CreatedAt = time.Now().UTC()
		stored := *s
		stored.Faculty = nil
		r.s.standings = append(r.s.standings, stored)
	}
	return nil
}

func (r *memorySeasonRepository) ListStandings(ctx context.Context, seasonID int, category *models.MatchCategory) ([]*models.SeasonStanding, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	standings := make([]*models.SeasonStanding, 0)
	for _, s := range r.s.standings {
		if s.SeasonID != seasonID || (category != nil && s.Category != *category) {
			continue
		}
		s := s
		if f, ok := r.s.faculties[s.FacultyID]; ok {
			s.Faculty = &models.Faculty{
				ID:             f.ID,
				Name:           f.Name,
				Abbreviation:   f.Abbreviation,
				ColorPrimary:   f.ColorPrimary,
				ColorSecondary: f.ColorSecondary,
			}
		}
		standings = append(standings, &s)
	}
	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Category != standings[j].Category {
			return standings[i].Category < standings[j].Category
		}
		return standings[i].Position < standings[j].Position
	})
	return standings, nil
}

type memoryUserRepository struct {
	s *memoryStore
}

func (r *memoryUserRepository) Create(ctx context.Context, user *models.User) error {
	defer r.s.lockWrite(nil)()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrUserEmailConflict
		}
	}
	user.ID = r.s.nextID()
	user.CreatedAt = time.Now().UTC()
	r.s.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryUserRepository) UpdateLogin(ctx context.Context, user *models.User) error {
	defer r.s.lockWrite(nil)()
	current, ok := r.s.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	now := time.Now().UTC()
	current.Name = user.Name
	current.Role = user.Role
	if user.GoogleSubject != nil {
		current.GoogleSubject = user.GoogleSubject
	}
	if user.AvatarURL != nil {
		current.AvatarURL = user.AvatarURL
	}
	current.LastLoginAt = &now
	user.LastLoginAt = &now
	r.s.users[user.ID] = current
	return nil
}

type memoryActivityRepository struct {
	s *memoryStore
}

func (r *memoryActivityRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	defer r.s.lockWrite(nil)()
	entry.ID = r.s.nextID()
	entry.CreatedAt = time.Now().UTC()
	r.s.activity = append(r.s.activity, *entry)
	return nil
}

func (r *memoryActivityRepository) ListRecent(ctx context.Context, limit int) ([]*models.ActivityLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	entries := make([]*models.ActivityLog, 0, limit)
	for i := len(r.s.activity) - 1; i >= 0 && len(entries) < limit; i-- {
		entry := r.s.activity[i]
		entries = append(entries, &entry)
	}
	return entries, nil
}
