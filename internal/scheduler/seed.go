package scheduler

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/rollcall/internal/logger"
	"github.com/MrSnakeDoc/rollcall/internal/service"
	"github.com/MrSnakeDoc/rollcall/internal/sources/roster"
)

// SeedResult counts what a seed run wrote.
type SeedResult struct {
	Domains  int
	Students int
	Schedule int
}

// Seeder loads a seed directory into the store on startup
type Seeder struct {
	roster *service.Roster
	logger logger.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(r *service.Roster, log logger.Logger) *Seeder {
	return &Seeder{
		roster: r,
		logger: log.Named("seeder"),
	}
}

// Seed applies the domains, students and schedule found in dir, in that
// order. Each collection is written atomically. Files that are absent
// leave the stored collection untouched.
func (s *Seeder) Seed(ctx context.Context, dir string) (SeedResult, error) {
	s.logger.Info("seeding from directory", logger.String("dir", dir))

	seed, err := roster.LoadSeedDir(dir)
	if err != nil {
		return SeedResult{}, err
	}

	var res SeedResult

	if seed.Domains != nil {
		if err := s.roster.UpsertDomains(ctx, seed.Domains); err != nil {
			return res, fmt.Errorf("seed domains: %w", err)
		}
		res.Domains = len(seed.Domains)
	}

	if seed.Students != nil {
		if err := s.roster.UpsertStudents(ctx, seed.Students); err != nil {
			return res, fmt.Errorf("seed students: %w", err)
		}
		res.Students = len(seed.Students)
	}

	if seed.Schedule != nil {
		if err := s.roster.SaveSchedule(ctx, seed.Schedule); err != nil {
			return res, fmt.Errorf("seed schedule: %w", err)
		}
		res.Schedule = len(seed.Schedule)
	}

	s.logger.Info("seed applied",
		logger.Int("domains", res.Domains),
		logger.Int("students", res.Students),
		logger.Int("schedule", res.Schedule))

	return res, nil
}
