package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
	"github.com/MrSnakeDoc/rollcall/internal/store"
)

// maxWatchRetries bounds optimistic transaction retries on concurrent writes.
const maxWatchRetries = 5

// Store keeps records as JSON values with one index set per collection.
// Every multi-key write runs inside MULTI/EXEC so readers never see half of it.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Kind() store.Kind { return store.KindRedis }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────

func (s *Store) GetStudentByRollNo(ctx context.Context, rollNo string) (*domain.Student, error) {
	id, err := s.client.HGet(ctx, KeyStudentsByRoll, rollNo).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, unavailable("lookup roll number", err)
	}
	return s.GetStudent(ctx, id)
}

func (s *Store) GetStudent(ctx context.Context, id string) (*domain.Student, error) {
	var st domain.Student
	found, err := getJSON(ctx, s.client, StudentKey(id), &st)
	if err != nil || !found {
		return nil, err
	}
	return &st, nil
}

func (s *Store) GetScheduleByRollNo(ctx context.Context, rollNo string) (*domain.ScheduleItem, error) {
	var item domain.ScheduleItem
	found, err := getJSON(ctx, s.client, ScheduleKey(rollNo), &item)
	if err != nil || !found {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListStudents(ctx context.Context) ([]domain.Student, error) {
	out, err := listJSON[domain.Student](ctx, s.client, KeyAllStudents, KeyPrefixStudent)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RollNo < out[j].RollNo })
	return out, nil
}

func (s *Store) ListDomains(ctx context.Context) ([]domain.Domain, error) {
	out, err := listJSON[domain.Domain](ctx, s.client, KeyAllDomains, KeyPrefixDomain)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) ListSchedule(ctx context.Context) ([]domain.ScheduleItem, error) {
	out, err := listJSON[domain.ScheduleItem](ctx, s.client, KeyAllSchedule, KeyPrefixSchedule)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RollNo < out[j].RollNo })
	return out, nil
}

// ─────────────────────────────────────────────────────────────────
// Single-record writes
// ─────────────────────────────────────────────────────────────────

// SaveStudent stores a student, refusing a roll number owned by another ID
func (s *Store) SaveStudent(ctx context.Context, st domain.Student) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal student: %w", err)
	}

	return s.watch(ctx, "save student", func(tx *redis.Tx) error {
		owner, err := tx.HGet(ctx, KeyStudentsByRoll, st.RollNo).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if owner != "" && owner != st.ID {
			return domain.ErrConflict
		}

		var prev domain.Student
		hadPrev, err := getJSON(ctx, tx, StudentKey(st.ID), &prev)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if hadPrev && prev.RollNo != st.RollNo {
				pipe.HDel(ctx, KeyStudentsByRoll, prev.RollNo)
			}
			pipe.Set(ctx, StudentKey(st.ID), data, 0)
			pipe.SAdd(ctx, KeyAllStudents, st.ID)
			pipe.HSet(ctx, KeyStudentsByRoll, st.RollNo, st.ID)
			return nil
		})
		return err
	}, KeyStudentsByRoll, StudentKey(st.ID))
}

// DeleteStudent removes a student and its roll number mapping.
// The schedule row is kept.
func (s *Store) DeleteStudent(ctx context.Context, id string) error {
	return s.watch(ctx, "delete student", func(tx *redis.Tx) error {
		var prev domain.Student
		found, err := getJSON(ctx, tx, StudentKey(id), &prev)
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrStudentNotFound
		}
		owner, err := tx.HGet(ctx, KeyStudentsByRoll, prev.RollNo).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, StudentKey(id))
			pipe.SRem(ctx, KeyAllStudents, id)
			if owner == id {
				pipe.HDel(ctx, KeyStudentsByRoll, prev.RollNo)
			}
			return nil
		})
		return err
	}, KeyStudentsByRoll, StudentKey(id))
}

// UpdateMeetLink changes the link of an existing domain
func (s *Store) UpdateMeetLink(ctx context.Context, name, meetLink string) error {
	key := DomainKey(name)
	return s.watch(ctx, "update meet link", func(tx *redis.Tx) error {
		var d domain.Domain
		found, err := getJSON(ctx, tx, key, &d)
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrDomainNotFound
		}
		d.MeetLink = meetLink
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to marshal domain: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key)
}

// ─────────────────────────────────────────────────────────────────
// Bulk writes
// ─────────────────────────────────────────────────────────────────

// UpsertStudents merges students by roll number in one transaction.
// A roll number repeated in the batch keeps the first ID it resolved to.
// An ID already held under another roll number fails the whole batch with
// domain.ErrConflict.
func (s *Store) UpsertStudents(ctx context.Context, students []domain.Student) error {
	if len(students) == 0 {
		return nil
	}
	rollNos := make([]string, len(students))
	watched := []string{KeyStudentsByRoll}
	for i, st := range students {
		rollNos[i] = st.RollNo
		watched = append(watched, StudentKey(st.ID))
	}

	return s.watch(ctx, "upsert students", func(tx *redis.Tx) error {
		existing, err := tx.HMGet(ctx, KeyStudentsByRoll, rollNos...).Result()
		if err != nil {
			return err
		}

		idByRoll := make(map[string]string, len(students))
		rollByID := make(map[string]string, len(students))
		resolved := make([]domain.Student, 0, len(students))
		for i, st := range students {
			if id, ok := idByRoll[st.RollNo]; ok {
				st.ID = id
			} else if id, ok := existing[i].(string); ok && id != "" {
				st.ID = id
			} else {
				roll, held := rollByID[st.ID]
				if !held {
					var prev domain.Student
					if held, err = getJSON(ctx, tx, StudentKey(st.ID), &prev); err != nil {
						return err
					}
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

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, st := range resolved {
				data, err := json.Marshal(st)
				if err != nil {
					return fmt.Errorf("failed to marshal student %s: %w", st.RollNo, err)
				}
				pipe.Set(ctx, StudentKey(st.ID), data, 0)
				pipe.SAdd(ctx, KeyAllStudents, st.ID)
				pipe.HSet(ctx, KeyStudentsByRoll, st.RollNo, st.ID)
			}
			return nil
		})
		return err
	}, watched...)
}

// UpsertDomains stores multiple domains in one transaction
func (s *Store) UpsertDomains(ctx context.Context, domains []domain.Domain) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, d := range domains {
			data, err := json.Marshal(d)
			if err != nil {
				return fmt.Errorf("failed to marshal domain %s: %w", d.Name, err)
			}
			pipe.Set(ctx, DomainKey(d.Name), data, 0)
			pipe.SAdd(ctx, KeyAllDomains, d.Name)
		}
		return nil
	})
	if err != nil {
		return unavailable("upsert domains", err)
	}
	return nil
}

// SaveSchedule replaces every schedule row in one transaction
func (s *Store) SaveSchedule(ctx context.Context, items []domain.ScheduleItem) error {
	return s.watch(ctx, "save schedule", func(tx *redis.Tx) error {
		old, err := tx.SMembers(ctx, KeyAllSchedule).Result()
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(old) > 0 {
				pipe.Del(ctx, keys(KeyPrefixSchedule, old)...)
			}
			pipe.Del(ctx, KeyAllSchedule)
			for _, item := range items {
				data, err := json.Marshal(item)
				if err != nil {
					return fmt.Errorf("failed to marshal schedule %s: %w", item.RollNo, err)
				}
				pipe.Set(ctx, ScheduleKey(item.RollNo), data, 0)
				pipe.SAdd(ctx, KeyAllSchedule, item.RollNo)
			}
			return nil
		})
		return err
	}, KeyAllSchedule)
}

func (s *Store) DeleteDomains(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys(KeyPrefixDomain, names)...)
		pipe.SRem(ctx, KeyAllDomains, toAny(names)...)
		return nil
	})
	if err != nil {
		return unavailable("delete domains", err)
	}
	return nil
}

func (s *Store) DeleteSchedule(ctx context.Context, rollNos []string) error {
	if len(rollNos) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys(KeyPrefixSchedule, rollNos)...)
		pipe.SRem(ctx, KeyAllSchedule, toAny(rollNos)...)
		return nil
	})
	if err != nil {
		return unavailable("delete schedule", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────

// watch runs fn under WATCH on keys and retries when another client
// modified a watched key before EXEC.
func (s *Store) watch(ctx context.Context, op string, fn func(tx *redis.Tx) error, watched ...string) error {
	var err error
	for i := 0; i < maxWatchRetries; i++ {
		err = s.client.Watch(ctx, fn, watched...)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrStudentNotFound),
		errors.Is(err, domain.ErrDomainNotFound):
		return err
	default:
		return unavailable(op, err)
	}
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// getJSON loads key into v and reports whether it existed.
func getJSON(ctx context.Context, c getter, key string, v any) (bool, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, unavailable("get "+key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

// listJSON loads every member of the index set. Members whose value has
// vanished are skipped.
func listJSON[T any](ctx context.Context, c *redis.Client, setKey, prefix string) ([]T, error) {
	ids, err := c.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, unavailable("list "+setKey, err)
	}
	if len(ids) == 0 {
		return []T{}, nil
	}

	values, err := c.MGet(ctx, keys(prefix, ids)...).Result()
	if err != nil {
		return nil, unavailable("load "+setKey, err)
	}

	out := make([]T, 0, len(values))
	for _, raw := range values {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(str), &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s member: %w", setKey, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func toAny(v []string) []any {
	out := make([]any, len(v))
	for i, s := range v {
		out[i] = s
	}
	return out
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
