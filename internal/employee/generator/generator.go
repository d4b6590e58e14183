// Package generator builds synthetic personnel corpora. A corpus is a run of
// regular records followed by a "needle" subset whose size is known up front,
// so filtered-read correctness can be checked against it after loading.
package generator

import (
	"math/rand/v2"
	"time"

	"personnel/internal/employee/models"
	dErrors "personnel/pkg/domain-errors"
)

// ProgressFunc receives the number of regular records generated so far.
type ProgressFunc func(generated int)

// Generator draws every field from a single injected random source. It is
// not safe for concurrent use because *rand.Rand is not.
type Generator struct {
	rng           *rand.Rand
	progressEvery int
	progress      ProgressFunc
	birthDays     int
}

type Option func(g *Generator)

// WithProgress reports every n regular records.
func WithProgress(every int, fn ProgressFunc) Option {
	return func(g *Generator) {
		if every > 0 && fn != nil {
			g.progressEvery = every
			g.progress = fn
		}
	}
}

// New returns a generator drawing from rng.
func New(rng *rand.Rand, opts ...Option) *Generator {
	g := &Generator{
		rng:       rng,
		birthDays: int(BirthDateTo.Sub(BirthDateFrom) / (24 * time.Hour)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewSeeded returns a deterministic generator.
func NewSeeded(seed uint64, opts ...Option) *Generator {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), opts...)
}

// Generate returns total records. The first total-specific are regular; the
// last specific take surnames from NeedleSurnames and NeedleGender.
func (g *Generator) Generate(total, specific int) ([]models.Employee, error) {
	if total < 0 || specific < 0 {
		return nil, dErrors.Newf(dErrors.CodeValidation, "total and specific must be non-negative (got %d, %d)", total, specific)
	}
	if specific > total {
		return nil, dErrors.Newf(dErrors.CodeValidation, "specific (%d) exceeds total (%d)", specific, total)
	}

	records := make([]models.Employee, 0, total)
	regular := total - specific

	for i := 0; i < regular; i++ {
		records = append(records, models.Employee{
			FullName:    g.fullName(Surnames),
			DateOfBirth: g.birthDate(),
			Gender:      pick(g.rng, Genders),
		})
		if g.progress != nil && (i+1)%g.progressEvery == 0 {
			g.progress(i + 1)
		}
	}

	for i := 0; i < specific; i++ {
		records = append(records, models.Employee{
			FullName:    g.fullName(NeedleSurnames),
			DateOfBirth: g.birthDate(),
			Gender:      NeedleGender,
		})
	}

	return records, nil
}

func (g *Generator) fullName(surnames []string) string {
	return pick(g.rng, surnames) + " " + pick(g.rng, FirstNames) + " " + pick(g.rng, Patronymics)
}

func (g *Generator) birthDate() time.Time {
	return BirthDateFrom.AddDate(0, 0, g.rng.IntN(g.birthDays+1))
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.IntN(len(pool))]
}
