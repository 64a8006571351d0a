package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
	"github.com/MrSnakeDoc/rollcall/internal/store"
)

// uniqueViolation is the postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

type studentRow struct {
	ID      string         `db:"id"`
	Name    string         `db:"name"`
	RollNo  string         `db:"roll_no"`
	Email   string         `db:"email"`
	Domains pq.StringArray `db:"domains"`
}

func (r studentRow) toDomain() domain.Student {
	domains := []string(r.Domains)
	if domains == nil {
		domains = []string{}
	}
	return domain.Student{ID: r.ID, Name: r.Name, RollNo: r.RollNo, Email: r.Email, Domains: domains}
}

type domainRow struct {
	Name     string `db:"name"`
	Password string `db:"password"`
	MeetLink string `db:"meet_link"`
}

type scheduleRow struct {
	RollNo  string         `db:"roll_no"`
	Name    string         `db:"name"`
	RawLine string         `db:"raw_line"`
	Times   pq.StringArray `db:"times"`
}

func (r scheduleRow) toDomain() domain.ScheduleItem {
	times := []string(r.Times)
	if times == nil {
		times = []string{}
	}
	return domain.ScheduleItem{RollNo: r.RollNo, Name: r.Name, RawLine: r.RawLine, Times: times}
}

// Store is the postgres-backed record store.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open sqlx handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Kind() store.Kind { return store.KindPostgres }

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return unavailable("create schema", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetStudentByRollNo(ctx context.Context, rollNo string) (*domain.Student, error) {
	return s.getStudent(ctx, selectStudent+` WHERE roll_no = $1`, rollNo)
}

func (s *Store) GetStudent(ctx context.Context, id string) (*domain.Student, error) {
	return s.getStudent(ctx, selectStudent+` WHERE id = $1`, id)
}

func (s *Store) getStudent(ctx context.Context, query, arg string) (*domain.Student, error) {
	var row studentRow
	if err := s.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, unavailable("get student", err)
	}
	st := row.toDomain()
	return &st, nil
}

func (s *Store) GetScheduleByRollNo(ctx context.Context, rollNo string) (*domain.ScheduleItem, error) {
	var row scheduleRow
	if err := s.db.GetContext(ctx, &row, selectSchedule+` WHERE roll_no = $1`, rollNo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, unavailable("get schedule", err)
	}
	item := row.toDomain()
	return &item, nil
}

func (s *Store) ListStudents(ctx context.Context) ([]domain.Student, error) {
	var rows []studentRow
	if err := s.db.SelectContext(ctx, &rows, selectStudent+` ORDER BY roll_no`); err != nil {
		return nil, unavailable("list students", err)
	}
	out := make([]domain.Student, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) ListDomains(ctx context.Context) ([]domain.Domain, error) {
	var rows []domainRow
	if err := s.db.SelectContext(ctx, &rows, selectDomain+` ORDER BY name`); err != nil {
		return nil, unavailable("list domains", err)
	}
	out := make([]domain.Domain, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Domain(r))
	}
	return out, nil
}

func (s *Store) ListSchedule(ctx context.Context) ([]domain.ScheduleItem, error) {
	var rows []scheduleRow
	if err := s.db.SelectContext(ctx, &rows, selectSchedule+` ORDER BY roll_no`); err != nil {
		return nil, unavailable("list schedule", err)
	}
	out := make([]domain.ScheduleItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) SaveStudent(ctx context.Context, st domain.Student) error {
	_, err := s.db.ExecContext(ctx, saveStudentSQL,
		st.ID, st.Name, st.RollNo, st.Email, pq.Array(nonNil(st.Domains)))
	if err != nil {
		return writeError("save student", err)
	}
	return nil
}

func (s *Store) DeleteStudent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return unavailable("delete student", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrStudentNotFound
	}
	return nil
}

func (s *Store) UpdateMeetLink(ctx context.Context, name, meetLink string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE domains SET meet_link = $2 WHERE name = $1`, name, meetLink)
	if err != nil {
		return unavailable("update meet link", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrDomainNotFound
	}
	return nil
}

func (s *Store) UpsertStudents(ctx context.Context, students []domain.Student) error {
	return s.withTx(ctx, "upsert students", func(tx *sqlx.Tx) error {
		for _, st := range students {
			if _, err := tx.ExecContext(ctx, upsertStudentByRollSQL,
				st.ID, st.Name, st.RollNo, st.Email, pq.Array(nonNil(st.Domains))); err != nil {
				return fmt.Errorf("student %s: %w", st.RollNo, err)
			}
		}
		return nil
	})
}

func (s *Store) UpsertDomains(ctx context.Context, domains []domain.Domain) error {
	return s.withTx(ctx, "upsert domains", func(tx *sqlx.Tx) error {
		for _, d := range domains {
			if _, err := tx.ExecContext(ctx, upsertDomainSQL, d.Name, d.Password, d.MeetLink); err != nil {
				return fmt.Errorf("domain %s: %w", d.Name, err)
			}
		}
		return nil
	})
}

func (s *Store) SaveSchedule(ctx context.Context, items []domain.ScheduleItem) error {
	return s.withTx(ctx, "save schedule", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM schedules`); err != nil {
			return err
		}
		for _, item := range items {
			if _, err := tx.ExecContext(ctx, upsertScheduleSQL,
				item.RollNo, item.Name, item.RawLine, pq.Array(nonNil(item.Times))); err != nil {
				return fmt.Errorf("schedule %s: %w", item.RollNo, err)
			}
		}
		return nil
	})
}

func (s *Store) DeleteDomains(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM domains WHERE name = ANY($1)`, pq.Array(names)); err != nil {
		return unavailable("delete domains", err)
	}
	return nil
}

func (s *Store) DeleteSchedule(ctx context.Context, rollNos []string) error {
	if len(rollNos) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE roll_no = ANY($1)`, pq.Array(rollNos)); err != nil {
		return unavailable("delete schedule", err)
	}
	return nil
}

// withTx runs fn in a transaction and commits only if fn succeeds.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return unavailable(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return writeError(op, err)
	}
	if err := tx.Commit(); err != nil {
		return unavailable(op, err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

// writeError maps unique violations to domain.ErrConflict.
func writeError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	return unavailable(op, err)
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
