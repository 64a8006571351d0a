// Package service holds the roster use cases shared by the HTTP server,
// the background jobs and the admin CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
	"github.com/MrSnakeDoc/rollcall/internal/logger"
	"github.com/MrSnakeDoc/rollcall/internal/metrics"
	"github.com/MrSnakeDoc/rollcall/internal/store"
)

// Lookup is the resolved schedule of one student.
type Lookup struct {
	Student     domain.Student
	Assignments []domain.ResolvedAssignment
}

// Roster wires the record store to the resolver, the admin paths and
// authentication.
type Roster struct {
	store      store.Store
	superAdmin string
	logger     logger.Logger
	metrics    *metrics.Metrics

	newID func() string
}

// NewRoster builds a Roster. m may be nil, in which case a private
// registry is used.
func NewRoster(st store.Store, superAdminSecret string, log logger.Logger, m *metrics.Metrics) *Roster {
	if m == nil {
		m = metrics.New()
	}
	return &Roster{
		store:      st,
		superAdmin: superAdminSecret,
		logger:     log.Named("roster"),
		metrics:    m,
		newID:      uuid.NewString,
	}
}

// Store exposes the underlying record store (readiness checks, CLI).
func (r *Roster) Store() store.Store { return r.store }

// ─────────────────────────────────────────────────────────────────
// Public lookup
// ─────────────────────────────────────────────────────────────────

// Resolve returns the display-ready schedule for rollNo.
//
// The student, its schedule row and the domain list are read concurrently;
// pairing only starts once all three are in. A missing student yields
// domain.ErrNotFound. A missing schedule row, domain or link is not an error.
func (r *Roster) Resolve(ctx context.Context, rollNo string) (*Lookup, error) {
	start := time.Now()
	defer func() { r.metrics.LookupDuration.Observe(time.Since(start).Seconds()) }()

	var (
		student  *domain.Student
		schedule *domain.ScheduleItem
		domains  []domain.Domain
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		student, err = r.store.GetStudentByRollNo(gctx, rollNo)
		return err
	})
	g.Go(func() error {
		var err error
		schedule, err = r.store.GetScheduleByRollNo(gctx, rollNo)
		return err
	})
	g.Go(func() error {
		var err error
		domains, err = r.store.ListDomains(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		r.metrics.Lookups.WithLabelValues(metrics.ResultError).Inc()
		return nil, r.storeFailure("resolve", err, logger.String("roll_no", rollNo))
	}

	if student == nil {
		r.metrics.Lookups.WithLabelValues(metrics.ResultNotFound).Inc()
		return nil, domain.ErrNotFound
	}

	r.metrics.Lookups.WithLabelValues(metrics.ResultFound).Inc()
	return &Lookup{
		Student:     *student,
		Assignments: domain.Resolve(*student, schedule, domains),
	}, nil
}

// ListDomainViews returns every domain without its password.
func (r *Roster) ListDomainViews(ctx context.Context) ([]domain.DomainView, error) {
	domains, err := r.store.ListDomains(ctx)
	if err != nil {
		return nil, r.storeFailure("list_domains", err)
	}
	out := make([]domain.DomainView, 0, len(domains))
	for _, d := range domains {
		out = append(out, d.View())
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────
// Authentication
// ─────────────────────────────────────────────────────────────────

// Authenticate resolves password to a Principal or domain.ErrRejected.
// The super admin secret is checked before the store is touched.
func (r *Roster) Authenticate(ctx context.Context, password string) (domain.Principal, error) {
	if p, err := domain.Authenticate(password, r.superAdmin, nil); err == nil {
		r.metrics.Logins.WithLabelValues(string(p.Role)).Inc()
		return p, nil
	}
	if password == "" {
		r.metrics.Logins.WithLabelValues("rejected").Inc()
		return domain.Principal{}, domain.ErrRejected
	}

	domains, err := r.store.ListDomains(ctx)
	if err != nil {
		return domain.Principal{}, r.storeFailure("authenticate", err)
	}

	p, err := domain.Authenticate(password, "", domains)
	if err != nil {
		r.metrics.Logins.WithLabelValues("rejected").Inc()
		return domain.Principal{}, err
	}
	r.metrics.Logins.WithLabelValues(string(p.Role)).Inc()
	return p, nil
}

// ─────────────────────────────────────────────────────────────────
// Single-record admin writes
// ─────────────────────────────────────────────────────────────────

// ListStudents returns every student.
func (r *Roster) ListStudents(ctx context.Context) ([]domain.Student, error) {
	students, err := r.store.ListStudents(ctx)
	if err != nil {
		return nil, r.storeFailure("list_students", err)
	}
	return students, nil
}

// UpsertStudent merges patch into the student with patch.ID, or creates a
// new student when the id is empty or unknown. New students without an id
// get a generated one.
func (r *Roster) UpsertStudent(ctx context.Context, patch domain.StudentPatch) (domain.Student, error) {
	base := domain.Student{ID: patch.ID}

	if patch.ID != "" {
		existing, err := r.store.GetStudent(ctx, patch.ID)
		if err != nil {
			return domain.Student{}, r.storeFailure("upsert_student", err)
		}
		if existing != nil {
			base = *existing
		}
	}
	if base.ID == "" {
		base.ID = r.newID()
	}

	s := patch.Apply(base)
	err := r.store.SaveStudent(ctx, s)
	r.countWrite("upsert_student", err)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.Student{}, fmt.Errorf("roll number %q: %w", s.RollNo, err)
		}
		return domain.Student{}, r.storeFailure("upsert_student", err, logger.String("id", s.ID))
	}

	r.logger.Info("student saved", logger.String("id", s.ID), logger.String("roll_no", s.RollNo))
	return s, nil
}

// DeleteStudent removes a student. Its schedule row is left in place.
func (r *Roster) DeleteStudent(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("id required: %w", domain.ErrInvalidInput)
	}

	err := r.store.DeleteStudent(ctx, id)
	r.countWrite("delete_student", err)
	if err != nil {
		if errors.Is(err, domain.ErrStudentNotFound) {
			return err
		}
		return r.storeFailure("delete_student", err, logger.String("id", id))
	}

	r.logger.Info("student deleted", logger.String("id", id))
	return nil
}

// UpsertDomain sets the meet link of an existing domain on behalf of p.
// Only the meet link changes; an unknown name yields domain.ErrDomainNotFound.
func (r *Roster) UpsertDomain(ctx context.Context, p domain.Principal, name, meetLink string) error {
	if name == "" {
		return fmt.Errorf("name required: %w", domain.ErrInvalidInput)
	}
	if !p.CanManageDomain(name) {
		return domain.ErrForbidden
	}

	err := r.store.UpdateMeetLink(ctx, name, meetLink)
	r.countWrite("upsert_domain", err)
	if err != nil {
		if errors.Is(err, domain.ErrDomainNotFound) {
			return err
		}
		return r.storeFailure("upsert_domain", err, logger.String("domain", name))
	}

	r.logger.Info("meet link updated",
		logger.String("domain", name),
		logger.String("role", string(p.Role)))
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Bulk writes
// ─────────────────────────────────────────────────────────────────

// UpsertStudents merges students by roll number in one atomic step.
// Rows without an id get a generated one; the store keeps existing ids,
// so repeating the call leaves the same state.
func (r *Roster) UpsertStudents(ctx context.Context, students []domain.Student) error {
	list := make([]domain.Student, 0, len(students))
	for i, s := range students {
		if s.RollNo == "" {
			return fmt.Errorf("student %d: rollNo required: %w", i, domain.ErrInvalidInput)
		}
		if s.ID == "" {
			s.ID = r.newID()
		}
		if s.Domains == nil {
			s.Domains = []string{}
		}
		list = append(list, s)
	}

	err := r.store.UpsertStudents(ctx, list)
	r.countWrite("upsert_students", err)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return err
		}
		return r.storeFailure("upsert_students", err, logger.Int("count", len(list)))
	}

	r.logger.Info("students upserted", logger.Int("count", len(list)))
	return nil
}

// UpsertDomains merges domains by name in one atomic step.
func (r *Roster) UpsertDomains(ctx context.Context, domains []domain.Domain) error {
	for i, d := range domains {
		if d.Name == "" {
			return fmt.Errorf("domain %d: name required: %w", i, domain.ErrInvalidInput)
		}
	}

	err := r.store.UpsertDomains(ctx, domains)
	r.countWrite("upsert_domains", err)
	if err != nil {
		return r.storeFailure("upsert_domains", err, logger.Int("count", len(domains)))
	}

	r.logger.Info("domains upserted", logger.Int("count", len(domains)))
	return nil
}

// SaveSchedule replaces the schedule collection in one atomic step.
func (r *Roster) SaveSchedule(ctx context.Context, items []domain.ScheduleItem) error {
	for i, item := range items {
		if item.RollNo == "" {
			return fmt.Errorf("schedule row %d: rollNo required: %w", i, domain.ErrInvalidInput)
		}
	}

	err := r.store.SaveSchedule(ctx, items)
	r.countWrite("save_schedule", err)
	if err != nil {
		return r.storeFailure("save_schedule", err, logger.Int("count", len(items)))
	}

	r.metrics.ScheduleRows.Set(float64(len(items)))
	r.logger.Info("schedule saved", logger.Int("count", len(items)))
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Maintenance
// ─────────────────────────────────────────────────────────────────

// MigrateDomains folds the domains named in from into to on every student,
// then deletes the retired domains. It returns how many students changed.
func (r *Roster) MigrateDomains(ctx context.Context, from []string, to string) (int, error) {
	if len(from) == 0 || to == "" {
		return 0, fmt.Errorf("from and to required: %w", domain.ErrInvalidInput)
	}

	students, err := r.store.ListStudents(ctx)
	if err != nil {
		return 0, r.storeFailure("migrate_domains", err)
	}

	changed := make([]domain.Student, 0)
	for _, s := range students {
		if next, ok := domain.RenameDomains(s, from, to); ok {
			changed = append(changed, next)
		}
	}

	if len(changed) > 0 {
		if err := r.UpsertStudents(ctx, changed); err != nil {
			return 0, err
		}
	}

	retired := slices.DeleteFunc(slices.Clone(from), func(name string) bool { return name == to })
	if err := r.store.DeleteDomains(ctx, retired); err != nil {
		return len(changed), r.storeFailure("migrate_domains", err)
	}

	r.logger.Info("domains migrated",
		logger.Strings("from", from),
		logger.String("to", to),
		logger.Int("students_updated", len(changed)))
	return len(changed), nil
}

// Orphans returns schedule rows whose roll number has no student.
func (r *Roster) Orphans(ctx context.Context) ([]domain.ScheduleItem, error) {
	var (
		students []domain.Student
		items    []domain.ScheduleItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		students, err = r.store.ListStudents(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = r.store.ListSchedule(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, r.storeFailure("orphans", err)
	}

	known := make(map[string]struct{}, len(students))
	for _, s := range students {
		known[s.RollNo] = struct{}{}
	}

	var orphans []domain.ScheduleItem
	for _, item := range items {
		if _, ok := known[item.RollNo]; !ok {
			orphans = append(orphans, item)
		}
	}
	return orphans, nil
}

// PruneOrphans deletes the given schedule rows.
func (r *Roster) PruneOrphans(ctx context.Context, orphans []domain.ScheduleItem) error {
	if len(orphans) == 0 {
		return nil
	}
	rollNos := make([]string, 0, len(orphans))
	for _, o := range orphans {
		rollNos = append(rollNos, o.RollNo)
	}

	err := r.store.DeleteSchedule(ctx, rollNos)
	r.countWrite("prune_orphans", err)
	if err != nil {
		return r.storeFailure("prune_orphans", err, logger.Int("count", len(rollNos)))
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────

func (r *Roster) countWrite(op string, err error) {
	r.metrics.AdminWrites.WithLabelValues(op, metrics.Outcome(err)).Inc()
}

// storeFailure logs a persistence error once and makes sure it carries
// domain.ErrStoreUnavailable.
func (r *Roster) storeFailure(op string, err error, fields ...logger.Field) error {
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		err = fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	r.logger.Error("store operation failed",
		append([]logger.Field{logger.String("op", op), logger.Error(err)}, fields...)...)
	return err
}
