// Package store defines the record store contract shared by the postgres,
// redis and memory backends.
package store

import (
	"context"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
)

// Kind names a store backend.
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindRedis    Kind = "redis"
	KindMemory   Kind = "memory"
)

// Reader is what the schedule resolver needs.
// Missing records are reported as (nil, nil), never as an error.
type Reader interface {
	GetStudentByRollNo(ctx context.Context, rollNo string) (*domain.Student, error)
	GetScheduleByRollNo(ctx context.Context, rollNo string) (*domain.ScheduleItem, error)
	ListDomains(ctx context.Context) ([]domain.Domain, error)
}

// Store is the full record store used by the admin paths, importers and CLI.
//
// Bulk operations are all-or-nothing: a reader never observes a partially
// applied list. Every backend error wraps domain.ErrStoreUnavailable.
type Store interface {
	Reader

	ListStudents(ctx context.Context) ([]domain.Student, error)
	ListSchedule(ctx context.Context) ([]domain.ScheduleItem, error)

	// GetStudent returns (nil, nil) when id is unknown.
	GetStudent(ctx context.Context, id string) (*domain.Student, error)
	// SaveStudent inserts or fully replaces the student with s.ID.
	// It returns domain.ErrConflict when s.RollNo belongs to another student.
	SaveStudent(ctx context.Context, s domain.Student) error
	// DeleteStudent returns domain.ErrStudentNotFound when id is unknown.
	// The student's schedule row is left in place.
	DeleteStudent(ctx context.Context, id string) error

	// UpdateMeetLink returns domain.ErrDomainNotFound when name is unknown.
	UpdateMeetLink(ctx context.Context, name, meetLink string) error

	// UpsertStudents merges students by roll number. Existing rows keep
	// their id, and a roll number repeated in the batch keeps the first one.
	// Rows with an empty ID must have been assigned one by the caller.
	// A row whose ID is held under another roll number fails the batch with
	// domain.ErrConflict.
	UpsertStudents(ctx context.Context, students []domain.Student) error
	// UpsertDomains merges domains by name.
	UpsertDomains(ctx context.Context, domains []domain.Domain) error
	// SaveSchedule replaces the whole schedule collection.
	SaveSchedule(ctx context.Context, items []domain.ScheduleItem) error
	// DeleteDomains removes the named domains. Unknown names are ignored.
	DeleteDomains(ctx context.Context, names []string) error
	// DeleteSchedule removes schedule rows by roll number.
	DeleteSchedule(ctx context.Context, rollNos []string) error

	Ping(ctx context.Context) error
	Kind() Kind
	Close() error
}
