package roster

import (
	"errors"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
)

// Seed file base names looked up in a seed directory.
const (
	DomainsFile  = "domains"
	StudentsFile = "students"
	ScheduleFile = "schedule"
)

// Extensions tried for each seed file, in order.
var seedExtensions = []string{".json", ".yaml", ".yml"}

// Seed is the content of a seed directory.
// A collection whose file is absent is nil and must not be written.
type Seed struct {
	Domains  []domain.Domain
	Students []domain.Student
	Schedule []domain.ScheduleItem
}

// Empty reports whether no seed file was found.
func (s Seed) Empty() bool {
	return s.Domains == nil && s.Students == nil && s.Schedule == nil
}

var (
	// ErrEmptySheet means the spreadsheet has no rows at all.
	ErrEmptySheet = errors.New("spreadsheet has no rows")
	// ErrNoRollColumn means no header cell mentions "roll".
	ErrNoRollColumn = errors.New("no roll number column")
	// ErrNoUsableRows means every data row was skipped.
	ErrNoUsableRows = errors.New("no usable schedule rows")
)

// ImportError reports a spreadsheet row that was skipped.
type ImportError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}
