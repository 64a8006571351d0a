package memory

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
)

func TestNewStoreIsEmpty(t *testing.T) {
	s := New()
	students, _ := s.ListStudents(context.Background())
	if len(students) != 0 {
		t.Errorf("New() should start with no students, got %d", len(students))
	}
}

func TestSaveStudentAndLookup(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.SaveStudent(ctx, domain.Student{ID: "a", RollNo: "100", Domains: []string{"Music"}}); err != nil {
		t.Fatalf("SaveStudent() error = %v", err)
	}

	got, err := s.GetStudentByRollNo(ctx, "100")
	if err != nil || got == nil {
		t.Fatalf("GetStudentByRollNo() = %v, %v", got, err)
	}
	if got.ID != "a" {
		t.Errorf("ID = %q, want %q", got.ID, "a")
	}

	missing, err := s.GetStudentByRollNo(ctx, "999")
	if err != nil || missing != nil {
		t.Errorf("unknown roll number should be (nil, nil), got (%v, %v)", missing, err)
	}
}

func TestSaveStudentRollNoConflict(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.SaveStudent(ctx, domain.Student{ID: "a", RollNo: "100"})

	err := s.SaveStudent(ctx, domain.Student{ID: "b", RollNo: "100"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("SaveStudent() error = %v, want ErrConflict", err)
	}
}

func TestSaveStudentChangesRollNo(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.SaveStudent(ctx, domain.Student{ID: "a", RollNo: "100"})
	_ = s.SaveStudent(ctx, domain.Student{ID: "a", RollNo: "200"})

	if got, _ := s.GetStudentByRollNo(ctx, "100"); got != nil {
		t.Error("old roll number should no longer resolve")
	}
	if got, _ := s.GetStudentByRollNo(ctx, "200"); got == nil {
		t.Error("new roll number should resolve")
	}
}

func TestDeleteStudentLeavesSchedule(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.SaveStudent(ctx, domain.Student{ID: "a", RollNo: "100"})
	_ = s.SaveSchedule(ctx, []domain.ScheduleItem{{RollNo: "100", Times: []string{"9am"}}})

	if err := s.DeleteStudent(ctx, "a"); err != nil {
		t.Fatalf("DeleteStudent() error = %v", err)
	}
	if err := s.DeleteStudent(ctx, "a"); !errors.Is(err, domain.ErrStudentNotFound) {
		t.Errorf("second DeleteStudent() error = %v, want ErrStudentNotFound", err)
	}

	item, _ := s.GetScheduleByRollNo(ctx, "100")
	if item == nil {
		t.Error("schedule row should remain after student deletion")
	}
}

func TestUpdateMeetLink(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.UpsertDomains(ctx, []domain.Domain{{Name: "Music", Password: "p"}})

	if err := s.UpdateMeetLink(ctx, "Music", "https://meet/m"); err != nil {
		t.Fatalf("UpdateMeetLink() error = %v", err)
	}
	if err := s.UpdateMeetLink(ctx, "Ghost", "x"); !errors.Is(err, domain.ErrDomainNotFound) {
		t.Errorf("UpdateMeetLink() error = %v, want ErrDomainNotFound", err)
	}

	domains, _ := s.ListDomains(ctx)
	if domains[0].MeetLink != "https://meet/m" || domains[0].Password != "p" {
		t.Errorf("domain = %+v", domains[0])
	}
}

func TestUpsertStudentsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	list := []domain.Student{
		{ID: "a", RollNo: "100", Name: "Asha", Domains: []string{"Music"}},
		{ID: "b", RollNo: "200", Name: "Ravi", Domains: []string{"AI/ML", "Music"}},
	}

	_ = s.UpsertStudents(ctx, list)
	first, _ := s.ListStudents(ctx)
	_ = s.UpsertStudents(ctx, list)
	second, _ := s.ListStudents(ctx)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("UpsertStudents() not idempotent:\nfirst=%+v\nsecond=%+v", first, second)
	}
}

func TestUpsertStudentsKeepsExistingID(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.SaveStudent(ctx, domain.Student{ID: "orig", RollNo: "100", Name: "Old"})

	_ = s.UpsertStudents(ctx, []domain.Student{{ID: "fresh", RollNo: "100", Name: "New"}})

	got, _ := s.GetStudentByRollNo(ctx, "100")
	if got.ID != "orig" || got.Name != "New" {
		t.Errorf("student = %+v, want id orig with name New", got)
	}
	all, _ := s.ListStudents(ctx)
	if len(all) != 1 {
		t.Errorf("expected 1 student, got %d", len(all))
	}
}

func TestUpsertStudentsDuplicateRollInBatch(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.UpsertStudents(ctx, []domain.Student{
		{ID: "a", RollNo: "100", Name: "Asha"},
		{ID: "b", RollNo: "100", Name: "Asha K"},
	}); err != nil {
		t.Fatalf("UpsertStudents() error = %v", err)
	}

	all, _ := s.ListStudents(ctx)
	if len(all) != 1 || all[0].ID != "a" || all[0].Name != "Asha K" {
		t.Errorf("students = %+v, want one with id a and name Asha K", all)
	}
}

func TestUpsertStudentsRejectsIDUnderNewRoll(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.SaveStudent(ctx, domain.Student{ID: "a", RollNo: "100", Name: "Alice"})

	err := s.UpsertStudents(ctx, []domain.Student{
		{ID: "c", RollNo: "300", Name: "Chitra"},
		{ID: "a", RollNo: "200", Name: "Bob"},
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("UpsertStudents() error = %v, want ErrConflict", err)
	}

	got, _ := s.GetStudentByRollNo(ctx, "100")
	if got == nil || got.Name != "Alice" {
		t.Errorf("student 100 = %+v, want Alice", got)
	}
	for _, roll := range []string{"200", "300"} {
		if st, _ := s.GetStudentByRollNo(ctx, roll); st != nil {
			t.Errorf("roll %s = %+v, want nothing written", roll, st)
		}
	}
}

func TestSaveScheduleReplaces(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.SaveSchedule(ctx, []domain.ScheduleItem{{RollNo: "1"}, {RollNo: "2"}})
	_ = s.SaveSchedule(ctx, []domain.ScheduleItem{{RollNo: "3", Times: []string{"a"}}, {RollNo: "3", Times: []string{"b"}}})

	items, _ := s.ListSchedule(ctx)
	if len(items) != 1 {
		t.Fatalf("expected 1 schedule row, got %d", len(items))
	}
	if items[0].Times[0] != "b" {
		t.Errorf("last duplicate should win, got %v", items[0].Times)
	}
}

func TestDeleteDomainsAndSchedule(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.UpsertDomains(ctx, []domain.Domain{{Name: "A"}, {Name: "B"}, {Name: "C"}})
	_ = s.SaveSchedule(ctx, []domain.ScheduleItem{{RollNo: "1"}, {RollNo: "2"}})

	_ = s.DeleteDomains(ctx, []string{"A", "C", "missing"})
	_ = s.DeleteSchedule(ctx, []string{"2"})

	domains, _ := s.ListDomains(ctx)
	if len(domains) != 1 || domains[0].Name != "B" {
		t.Errorf("domains = %+v, want only B", domains)
	}
	items, _ := s.ListSchedule(ctx)
	if len(items) != 1 || items[0].RollNo != "1" {
		t.Errorf("schedule = %+v, want only roll 1", items)
	}
}

func TestReturnedSlicesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.SaveStudent(ctx, domain.Student{ID: "a", RollNo: "1", Domains: []string{"Music"}})

	got, _ := s.GetStudent(ctx, "a")
	got.Domains[0] = "mutated"

	again, _ := s.GetStudent(ctx, "a")
	if again.Domains[0] != "Music" {
		t.Error("store state leaked through returned slice")
	}
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.UpsertDomains(ctx, []domain.Domain{{Name: "Music"}})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.UpdateMeetLink(ctx, "Music", "https://meet/m")
		}()
		go func() {
			defer wg.Done()
			_, _ = s.ListDomains(ctx)
		}()
	}
	wg.Wait()
}
