package roster

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
)

// Mapper converts raw seed and spreadsheet data into domain records.
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// column layout detected from a spreadsheet header
type columns struct {
	roll  int
	name  int
	times []int
}

// MapScheduleRows converts spreadsheet rows into schedule items.
//
// The first row is a header. The column whose header mentions "roll" holds
// the roll number, the one mentioning "name" the student name, and every
// other column is a time slot in left-to-right order. Rows without a roll
// number are skipped and reported. Empty time cells are dropped, as the
// sheet lists only the slots a student actually has.
//
// A sheet with no rows or without a roll number column is an error, not a
// skipped row: the caller must not replace the stored schedule with it.
func (m *Mapper) MapScheduleRows(rows [][]string) ([]domain.ScheduleItem, []ImportError, error) {
	if len(rows) == 0 {
		return nil, nil, ErrEmptySheet
	}

	cols, err := detectColumns(rows[0])
	if err != nil {
		return nil, nil, err
	}

	items := make([]domain.ScheduleItem, 0, len(rows)-1)
	var errs []ImportError

	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after header

		if blank(row) {
			continue
		}

		roll := cell(row, cols.roll)
		if roll == "" {
			errs = append(errs, ImportError{Row: rowNum, Error: "roll number is required"})
			continue
		}

		times := make([]string, 0, len(cols.times))
		for _, c := range cols.times {
			if v := cell(row, c); v != "" {
				times = append(times, v)
			}
		}

		items = append(items, domain.ScheduleItem{
			RollNo:  roll,
			Name:    cell(row, cols.name),
			RawLine: rawLine(row),
			Times:   times,
		})
	}

	return items, errs, nil
}

// NormalizeSchedule trims keys and time slots. Empty slots are kept so
// positions still line up with the student's domains.
func (m *Mapper) NormalizeSchedule(items []domain.ScheduleItem) []domain.ScheduleItem {
	if items == nil {
		return nil
	}
	out := make([]domain.ScheduleItem, 0, len(items))
	for _, item := range items {
		item.RollNo = strings.TrimSpace(item.RollNo)
		item.Name = strings.TrimSpace(item.Name)
		times := make([]string, len(item.Times))
		for i, t := range item.Times {
			times[i] = strings.TrimSpace(t)
		}
		item.Times = times
		out = append(out, item)
	}
	return out
}

// NormalizeStudents trims keys and guarantees a non-nil domain list.
func (m *Mapper) NormalizeStudents(students []domain.Student) []domain.Student {
	if students == nil {
		return nil
	}
	out := make([]domain.Student, 0, len(students))
	for _, s := range students {
		s.RollNo = strings.TrimSpace(s.RollNo)
		s.Name = strings.TrimSpace(s.Name)
		s.Email = strings.TrimSpace(s.Email)
		s.Domains = compact(s.Domains)
		out = append(out, s)
	}
	return out
}

func detectColumns(header []string) (columns, error) {
	cols := columns{roll: -1, name: -1}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case cols.roll < 0 && strings.Contains(h, "roll"):
			cols.roll = i
		case cols.name < 0 && strings.Contains(h, "name"):
			cols.name = i
		default:
			cols.times = append(cols.times, i)
		}
	}
	if cols.roll < 0 {
		return columns{}, fmt.Errorf("%w: header %q", ErrNoRollColumn, header)
	}
	return cols, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func rawLine(row []string) string {
	parts := make([]string, 0, len(row))
	for _, v := range row {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
