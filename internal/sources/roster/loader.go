package roster

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
)

// Loader reads a schedule file. The format follows the extension:
// .xlsx is a spreadsheet, .json/.yaml/.yml a list of schedule items.
type Loader struct {
	filePath string
	mapper   *Mapper
}

// NewLoader creates a new schedule loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
		mapper:   NewMapper(),
	}
}

// Path returns the file this loader reads.
func (l *Loader) Path() string { return l.filePath }

// Load reads the schedule file. Skipped spreadsheet rows are returned as
// ImportErrors alongside the items that did parse.
func (l *Loader) Load() ([]domain.ScheduleItem, []ImportError, error) {
	switch strings.ToLower(filepath.Ext(l.filePath)) {
	case ".xlsx":
		rows, err := readXLSX(l.filePath)
		if err != nil {
			return nil, nil, err
		}
		items, rowErrs, err := l.mapper.MapScheduleRows(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", l.filePath, err)
		}
		if len(items) == 0 && len(rowErrs) > 0 {
			return nil, rowErrs, fmt.Errorf("%s: %w (%d skipped)", l.filePath, ErrNoUsableRows, len(rowErrs))
		}
		return items, rowErrs, nil

	case ".json", ".yaml", ".yml":
		items, err := loadList[domain.ScheduleItem](l.filePath)
		if err != nil {
			return nil, nil, err
		}
		return l.mapper.NormalizeSchedule(items), nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported schedule file %q (want .xlsx, .json or .yaml)", l.filePath)
	}
}

// LoadSeedDir reads domains, students and schedule seed files from dir.
// Each file is optional, but at least one must exist.
func LoadSeedDir(dir string) (Seed, error) {
	var (
		seed Seed
		err  error
	)

	if seed.Domains, err = loadSeedFile[domain.Domain](dir, DomainsFile); err != nil {
		return Seed{}, err
	}
	if seed.Students, err = loadSeedFile[domain.Student](dir, StudentsFile); err != nil {
		return Seed{}, err
	}
	if seed.Schedule, err = loadSeedFile[domain.ScheduleItem](dir, ScheduleFile); err != nil {
		return Seed{}, err
	}

	if seed.Empty() {
		return Seed{}, fmt.Errorf("no seed files found in %s", dir)
	}

	mapper := NewMapper()
	seed.Students = mapper.NormalizeStudents(seed.Students)
	seed.Schedule = mapper.NormalizeSchedule(seed.Schedule)
	return seed, nil
}

// loadSeedFile returns nil, nil when no file with base name exists.
func loadSeedFile[T any](dir, base string) ([]T, error) {
	for _, ext := range seedExtensions {
		path := filepath.Join(dir, base+ext)
		out, err := loadList[T](path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = []T{}
		}
		return out, nil
	}
	return nil, nil
}

// loadList decodes a YAML (or JSON, which is valid YAML) list.
func loadList[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var out []T
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return out, nil
}
