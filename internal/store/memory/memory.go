package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
	"github.com/MrSnakeDoc/rollcall/internal/store"
)

// Store keeps every collection in process memory behind one RWMutex.
// It backs tests and single-instance deployments without a database.
type Store struct {
	mu sync.RWMutex

	students    map[string]domain.Student // ID -> Student
	studentIDs  []string                  // insertion order
	byRollNo    map[string]string         // RollNo -> ID
	domains     map[string]domain.Domain  // Name -> Domain
	domainNames []string                  // insertion order
	schedule    []domain.ScheduleItem
}

// New creates an empty memory store
func New() *Store {
	return &Store{
		students: make(map[string]domain.Student),
		byRollNo: make(map[string]string),
		domains:  make(map[string]domain.Domain),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Kind() store.Kind               { return store.KindMemory }
func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }

// ─────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────

func (s *Store) GetStudentByRollNo(ctx context.Context, rollNo string) (*domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byRollNo[rollNo]
	if !ok {
		return nil, nil
	}
	st := cloneStudent(s.students[id])
	return &st, nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (*domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.students[id]
	if !ok {
		return nil, nil
	}
	st = cloneStudent(st)
	return &st, nil
}

func (s *Store) GetScheduleByRollNo(ctx context.Context, rollNo string) (*domain.ScheduleItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.schedule {
		if item.RollNo == rollNo {
			out := cloneItem(item)
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) ListStudents(ctx context.Context) ([]domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Student, 0, len(s.studentIDs))
	for _, id := range s.studentIDs {
		out = append(out, cloneStudent(s.students[id]))
	}
	return out, nil
}

func (s *Store) ListDomains(ctx context.Context) ([]domain.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Domain, 0, len(s.domainNames))
	for _, name := range s.domainNames {
		out = append(out, s.domains[name])
	}
	return out, nil
}

func (s *Store) ListSchedule(ctx context.Context) ([]domain.ScheduleItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ScheduleItem, 0, len(s.schedule))
	for _, item := range s.schedule {
		out = append(out, cloneItem(item))
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────
// Single-record writes
// ─────────────────────────────────────────────────────────────────

func (s *Store) SaveStudent(ctx context.Context, st domain.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.byRollNo[st.RollNo]; ok && owner != st.ID {
		return domain.ErrConflict
	}
	s.putStudentLocked(cloneStudent(st))
	return nil
}

func (s *Store) DeleteStudent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.students[id]
	if !ok {
		return domain.ErrStudentNotFound
	}
	delete(s.students, id)
	if s.byRollNo[st.RollNo] == id {
		delete(s.byRollNo, st.RollNo)
	}
	s.studentIDs = slices.DeleteFunc(s.studentIDs, func(v string) bool { return v == id })
	return nil
}

func (s *Store) UpdateMeetLink(ctx context.Context, name, meetLink string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.domains[name]
	if !ok {
		return domain.ErrDomainNotFound
	}
	d.MeetLink = meetLink
	s.domains[name] = d
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Bulk writes (each runs under a single write lock)
// ─────────────────────────────────────────────────────────────────

// UpsertStudents merges by roll number. Nothing is written when a row reuses
// the ID of a student held under another roll number.
func (s *Store) UpsertStudents(ctx context.Context, students []domain.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idByRoll := make(map[string]string, len(students))
	rollByID := make(map[string]string, len(students))
	resolved := make([]domain.Student, 0, len(students))
	for _, st := range students {
		st = cloneStudent(st)
		if id, ok := idByRoll[st.RollNo]; ok {
			st.ID = id
		} else if id, ok := s.byRollNo[st.RollNo]; ok {
			st.ID = id
		} else {
			roll, held := rollByID[st.ID]
			if !held {
				var prev domain.Student
				prev, held = s.students[st.ID]
				roll = prev.RollNo
			}
			if held && roll != st.RollNo {
				return domain.ErrConflict
			}
		}
		idByRoll[st.RollNo] = st.ID
		rollByID[st.ID] = st.RollNo
		resolved = append(resolved, st)
	}

	for _, st := range resolved {
		s.putStudentLocked(st)
	}
	return nil
}

func (s *Store) UpsertDomains(ctx context.Context, domains []domain.Domain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range domains {
		if _, ok := s.domains[d.Name]; !ok {
			s.domainNames = append(s.domainNames, d.Name)
		}
		s.domains[d.Name] = d
	}
	return nil
}

func (s *Store) SaveSchedule(ctx context.Context, items []domain.ScheduleItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// one row per roll number, last one wins
	pos := make(map[string]int, len(items))
	next := make([]domain.ScheduleItem, 0, len(items))
	for _, item := range items {
		item = cloneItem(item)
		if i, ok := pos[item.RollNo]; ok {
			next[i] = item
			continue
		}
		pos[item.RollNo] = len(next)
		next = append(next, item)
	}
	s.schedule = next
	return nil
}

func (s *Store) DeleteDomains(ctx context.Context, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range names {
		delete(s.domains, name)
	}
	s.domainNames = slices.DeleteFunc(s.domainNames, func(v string) bool {
		return slices.Contains(names, v)
	})
	return nil
}

func (s *Store) DeleteSchedule(ctx context.Context, rollNos []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schedule = slices.DeleteFunc(s.schedule, func(item domain.ScheduleItem) bool {
		return slices.Contains(rollNos, item.RollNo)
	})
	return nil
}

// putStudentLocked inserts or replaces st, keeping the roll number index in sync.
// Caller must hold the write lock.
func (s *Store) putStudentLocked(st domain.Student) {
	if prev, ok := s.students[st.ID]; ok {
		if prev.RollNo != st.RollNo && s.byRollNo[prev.RollNo] == st.ID {
			delete(s.byRollNo, prev.RollNo)
		}
	} else {
		s.studentIDs = append(s.studentIDs, st.ID)
	}
	s.students[st.ID] = st
	s.byRollNo[st.RollNo] = st.ID
}

func cloneStudent(st domain.Student) domain.Student {
	st.Domains = slices.Clone(st.Domains)
	if st.Domains == nil {
		st.Domains = []string{}
	}
	return st
}

func cloneItem(item domain.ScheduleItem) domain.ScheduleItem {
	item.Times = slices.Clone(item.Times)
	if item.Times == nil {
		item.Times = []string{}
	}
	return item
}
