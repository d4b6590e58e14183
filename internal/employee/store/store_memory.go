package store

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"personnel/internal/employee/models"
	"personnel/pkg/platform/sentinel"
)

var createIndexPattern = regexp.MustCompile(`(?is)^\s*CREATE\s+INDEX\s+(IF\s+NOT\s+EXISTS\s+)?([A-Za-z_][A-Za-z0-9_]*)\s+ON\s+`)

// InMemoryStore mirrors PostgresStore semantics without a server. Index DDL
// is tracked by name only; it has no effect on reads.
type InMemoryStore struct {
	mu          sync.RWMutex
	records     []models.Employee
	nextID      int64
	indexes     map[string]string
	migrated    bool
	maintenance int
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{nextID: 1, indexes: make(map[string]string)}
}

func (s *InMemoryStore) Migrate(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.migrated {
		return nil, nil
	}
	s.migrated = true
	migrations, err := Migrations()
	if err != nil {
		return nil, err
	}
	versions := make([]string, len(migrations))
	for i, m := range migrations {
		versions[i] = m.Version
	}
	return versions, nil
}

func (s *InMemoryStore) Insert(_ context.Context, e models.Employee) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(e), nil
}

func (s *InMemoryStore) InsertBatch(_ context.Context, records []models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.appendLocked(r)
	}
	return nil
}

func (s *InMemoryStore) appendLocked(e models.Employee) int64 {
	e.ID = s.nextID
	e.DateOfBirth = models.Date(e.DateOfBirth)
	s.nextID++
	s.records = append(s.records, e)
	return e.ID
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Employee{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindUnique(_ context.Context, limit int) ([]models.Employee, error) {
	s.mu.RLock()
	sorted := append([]models.Employee{}, s.records...)
	s.mu.RUnlock()

	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.FullName != b.FullName {
			return a.FullName < b.FullName
		}
		if !a.DateOfBirth.Equal(b.DateOfBirth) {
			return a.DateOfBirth.Before(b.DateOfBirth)
		}
		return a.ID < b.ID
	})

	if limit <= 0 {
		return nil, nil
	}
	out := make([]models.Employee, 0, min(limit, len(sorted)))
	for i, r := range sorted {
		if len(out) == limit {
			break
		}
		if i > 0 && sameKey(sorted[i-1], r) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *InMemoryStore) FindByGenderAndNamePrefix(_ context.Context, f models.Filter) ([]models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Employee
	for _, r := range s.records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// Exec understands CREATE INDEX statements only.
func (s *InMemoryStore) Exec(_ context.Context, statement string) error {
	m := createIndexPattern.FindStringSubmatch(statement)
	if m == nil {
		return fmt.Errorf("exec statement %q: %w", firstLine(statement), sentinel.ErrUnsupported)
	}
	ifNotExists, name := m[1] != "", m[2]

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[name]; ok {
		if ifNotExists {
			return nil
		}
		return fmt.Errorf("exec statement: relation %q already exists", name)
	}
	s.indexes[name] = statement
	return nil
}

func (s *InMemoryStore) Maintain(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maintenance++
	return nil
}

func (s *InMemoryStore) ListIndexes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.indexes))
	for name := range s.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// MaintenanceRuns reports how many times Maintain was called.
func (s *InMemoryStore) MaintenanceRuns() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maintenance
}

func sameKey(a, b models.Employee) bool {
	return a.FullName == b.FullName && a.DateOfBirth.Equal(b.DateOfBirth)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
