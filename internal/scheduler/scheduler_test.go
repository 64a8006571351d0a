package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/xuri/excelize/v2"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
	"github.com/MrSnakeDoc/rollcall/internal/logger"
	"github.com/MrSnakeDoc/rollcall/internal/metrics"
	"github.com/MrSnakeDoc/rollcall/internal/service"
	"github.com/MrSnakeDoc/rollcall/internal/store/memory"
)

type fixture struct {
	store   *memory.Store
	roster  *service.Roster
	status  *Status
	metrics *metrics.Metrics
	log     logger.Logger
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	log := logger.New("error", false)
	m := metrics.New()
	st := memory.New()
	return fixture{
		store:   st,
		roster:  service.NewRoster(st, "secret", log, m),
		status:  NewStatus(),
		metrics: m,
		log:     log,
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func TestScheduleReloader_Reload(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "schedule.json", `[{"rollNo":"1","times":["9am"]},{"rollNo":"2","times":[]}]`)

	// stale row must be replaced
	if err := f.store.SaveSchedule(context.Background(), []domain.ScheduleItem{{RollNo: "old"}}); err != nil {
		t.Fatal(err)
	}

	sr := NewScheduleReloader(path, f.roster, f.status, f.metrics, f.log, time.Hour, make(chan struct{}, 1))
	if err := sr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	items, _ := f.store.ListSchedule(context.Background())
	if len(items) != 2 {
		t.Fatalf("Expected 2 schedule rows, got %d", len(items))
	}
	for _, item := range items {
		if item.RollNo == "old" {
			t.Error("stale schedule row survived reload")
		}
	}

	snap := f.status.Snapshot()
	if snap.ReloadRows != 2 || snap.LastReload.IsZero() || snap.ReloadError != "" {
		t.Errorf("unexpected status after reload: %+v", snap)
	}
	if got := testutil.ToFloat64(f.metrics.ScheduleReloads.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok reloads = %v, want 1", got)
	}
}

func TestScheduleReloader_ReloadFailureKeepsSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.SaveSchedule(ctx, []domain.ScheduleItem{{RollNo: "keep"}}); err != nil {
		t.Fatal(err)
	}

	sr := NewScheduleReloader(filepath.Join(t.TempDir(), "missing.json"),
		f.roster, f.status, f.metrics, f.log, time.Hour, make(chan struct{}, 1))

	if err := sr.Reload(ctx); err == nil {
		t.Fatal("Reload with missing file should fail")
	}

	items, _ := f.store.ListSchedule(ctx)
	if len(items) != 1 || items[0].RollNo != "keep" {
		t.Errorf("schedule changed after failed reload: %+v", items)
	}
	if f.status.Snapshot().ReloadError == "" {
		t.Error("status should record the reload error")
	}
}

func writeXLSX(t *testing.T, dir string, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(dir, "schedule.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to create test workbook: %v", err)
	}
	return path
}

func TestScheduleReloader_UnusableSheetKeepsSchedule(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
	}{
		{"header without roll column", [][]string{{"ID", "Student", "Slot 1"}, {"100", "Asha", "9am"}}},
		{"every row missing a roll number", [][]string{{"Roll No", "Name", "Slot 1"}, {"", "Asha", "9am"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			if err := f.store.SaveSchedule(ctx, []domain.ScheduleItem{{RollNo: "keep"}}); err != nil {
				t.Fatal(err)
			}

			path := writeXLSX(t, t.TempDir(), tt.rows)
			sr := NewScheduleReloader(path, f.roster, f.status, f.metrics, f.log, time.Hour, make(chan struct{}, 1))

			if err := sr.Reload(ctx); err == nil {
				t.Fatal("Reload of an unusable sheet should fail")
			}

			items, _ := f.store.ListSchedule(ctx)
			if len(items) != 1 || items[0].RollNo != "keep" {
				t.Errorf("schedule changed after rejected reload: %+v", items)
			}
			if f.status.Snapshot().ReloadError == "" {
				t.Error("status should record the reload error")
			}
			if got := testutil.ToFloat64(f.metrics.ScheduleReloads.WithLabelValues("error")); got != 1 {
				t.Errorf("error reloads = %v, want 1", got)
			}
			if got := testutil.ToFloat64(f.metrics.ScheduleReloads.WithLabelValues("ok")); got != 0 {
				t.Errorf("ok reloads = %v, want 0", got)
			}
		})
	}
}

func TestScheduleReloader_ManualTrigger(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "schedule.yaml", "- rollNo: \"1\"\n")

	trigger := make(chan struct{}, 1)
	sr := NewScheduleReloader(path, f.roster, f.status, f.metrics, f.log, time.Hour, trigger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := sr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sr.Stop()

	writeFile(t, dir, "schedule.yaml", "- rollNo: \"1\"\n- rollNo: \"2\"\n")
	trigger <- struct{}{}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.status.Snapshot().ReloadRows == 2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("manual trigger did not reload, status = %+v", f.status.Snapshot())
}

func TestOrphanSweeper_Sweep(t *testing.T) {
	tests := []struct {
		name          string
		prune         bool
		wantRemaining int
	}{
		{"report only", false, 2},
		{"prune", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			if err := f.store.SaveStudent(ctx, domain.Student{ID: "a", RollNo: "1"}); err != nil {
				t.Fatal(err)
			}
			if err := f.store.SaveSchedule(ctx, []domain.ScheduleItem{{RollNo: "1"}, {RollNo: "ghost"}}); err != nil {
				t.Fatal(err)
			}

			sw := NewOrphanSweeper(f.roster, f.status, f.metrics, f.log, time.Hour, tt.prune)
			found, err := sw.Sweep(ctx)
			if err != nil {
				t.Fatalf("Sweep failed: %v", err)
			}
			if found != 1 {
				t.Errorf("Sweep found %d orphans, want 1", found)
			}

			items, _ := f.store.ListSchedule(ctx)
			if len(items) != tt.wantRemaining {
				t.Errorf("Expected %d schedule rows after sweep, got %d", tt.wantRemaining, len(items))
			}

			snap := f.status.Snapshot()
			if snap.Orphans != 1 {
				t.Errorf("status orphans = %d, want 1", snap.Orphans)
			}
			wantGauge := 1.0
			if tt.prune {
				wantGauge = 0
			}
			if got := testutil.ToFloat64(f.metrics.OrphanedSchedules); got != wantGauge {
				t.Errorf("orphan gauge = %v, want %v", got, wantGauge)
			}
		})
	}
}

func TestSeeder_Seed(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	writeFile(t, dir, "domains.json", `[{"name":"Music","password":"p","meetLink":"https://meet/m"}]`)
	writeFile(t, dir, "students.json", `[{"rollNo":"1","name":"A","email":"","domains":["Music"]}]`)
	writeFile(t, dir, "schedule.json", `[{"rollNo":"1","name":"A","rawLine":"1 A 9am","times":["9am"]}]`)

	s := NewSeeder(f.roster, f.log)
	ctx := context.Background()

	res, err := s.Seed(ctx, dir)
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if res != (SeedResult{Domains: 1, Students: 1, Schedule: 1}) {
		t.Errorf("unexpected seed result: %+v", res)
	}

	// second run leaves the same state
	if _, err := s.Seed(ctx, dir); err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}
	students, _ := f.store.ListStudents(ctx)
	if len(students) != 1 {
		t.Errorf("Expected 1 student after reseed, got %d", len(students))
	}

	got, err := f.roster.Resolve(ctx, "1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Assignments[0].TimeSlot != "9am" || got.Assignments[0].MeetLink != "https://meet/m" {
		t.Errorf("unexpected assignment: %+v", got.Assignments[0])
	}
}
