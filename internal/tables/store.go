package tables

import (
	"errors"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Sources names where each table is loaded from. Empty entries leave the
// corresponding table empty.
type Sources struct {
	Assumptions        string
	MentorParams       string
	AverageBenefit     string
	SeedAverageBenefit bool
	SeedBase           float64
	FetchTimeout       time.Duration
}

const (
	seedYears  = 10
	seedGrowth = 0.03

	DefaultSeedBase = 3500.0
)

// Store publishes the current Snapshot. Readers call Current without locking;
// Reload builds a complete snapshot and swaps it in atomically.
type Store struct {
	sources Sources
	logger  *zap.Logger
	now     func() time.Time

	current atomic.Pointer[Snapshot]
	mu      sync.Mutex
}

func NewStore(sources Sources, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{sources: sources, logger: logger, now: time.Now}
	s.current.Store(Empty())
	return s
}

// NewStaticStore returns a store serving snap. Reload on it keeps snap.
func NewStaticStore(snap *Snapshot) *Store {
	s := &Store{logger: zap.NewNop(), now: time.Now}
	s.current.Store(snap)
	return s
}

// SetClock overrides the clock used for seeding and load timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Reload loads every table, publishes the result and returns the previous
// and new snapshots.
func (s *Store) Reload() (prev, next *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sources == (Sources{}) {
		cur := s.current.Load()
		return cur, cur
	}
	next = s.Load()
	prev = s.current.Swap(next)
	s.logger.Info("tables reloaded",
		zap.String("op", "tables.Reload"),
		zap.Int("assumptions", next.Assumptions.Len()),
		zap.Int("mentor_rows", len(next.Mentor)),
		zap.Int("average_benefit_rows", len(next.AverageBenefit.Values)),
		zap.Bool("average_benefit_synthetic", next.AverageBenefit.Synthetic),
	)
	return prev, next
}

// Load builds a fresh snapshot from the configured sources without
// publishing it. Failures are logged and leave the table empty.
func (s *Store) Load() *Snapshot {
	snap := Empty()
	snap.LoadedAt = s.now().UTC()

	if src := s.sources.Assumptions; src != "" {
		data, err := readSource(src, s.sources.FetchTimeout)
		if err != nil {
			s.warn("assumptions", src, err)
		} else {
			t, err := ParseAssumptions(data, sourceExt(src))
			var skipped *InvalidKeysError
			switch {
			case errors.As(err, &skipped):
				sort.Strings(skipped.Keys)
				s.logger.Warn("assumptions loaded with invalid keys skipped",
					zap.String("op", "tables.Load"),
					zap.String("source", src),
					zap.Strings("keys", skipped.Keys),
				)
			case err != nil:
				s.warn("assumptions", src, err)
			}
			snap.Assumptions = t
		}
	}

	if src := s.sources.MentorParams; src != "" {
		if rows, err := s.rows(src); err != nil {
			s.warn("mentor_params", src, err)
		} else if m, err := ParseMentorParams(rows); err != nil {
			s.warn("mentor_params", src, err)
		} else {
			snap.Mentor = m
		}
	}

	if src := s.sources.AverageBenefit; src != "" {
		if rows, err := s.rows(src); err != nil {
			s.warn("average_benefit", src, err)
		} else {
			snap.AverageBenefit.Values = ParseAverageBenefit(rows)
		}
	}

	// Seeding only stands in when neither the sheet nor the assumptions
	// document carries average benefits.
	if len(snap.AverageBenefit.Values) == 0 && len(snap.Assumptions.AverageBenefit) == 0 && s.sources.SeedAverageBenefit {
		snap.AverageBenefit = Seed(s.now().Year(), s.sources.SeedBase)
		s.logger.Warn("average benefit table seeded with synthetic values",
			zap.String("op", "tables.Load"),
			zap.Float64("base", s.sources.SeedBase),
		)
	}
	return snap
}

func (s *Store) rows(src string) ([][]string, error) {
	data, err := readSource(src, s.sources.FetchTimeout)
	if err != nil {
		return nil, err
	}
	return readRows(data, sourceExt(src))
}

func (s *Store) warn(table, src string, err error) {
	s.logger.Warn("table source unavailable, falling back",
		zap.String("op", "tables.Load"),
		zap.String("table", table),
		zap.String("source", src),
		zap.Error(err),
	)
}

// Seed produces ten synthetic years starting at fromYear, growing base by 3%
// a year, rounded to cents.
func Seed(fromYear int, base float64) AverageBenefitTable {
	if base <= 0 {
		base = DefaultSeedBase
	}
	values := make(map[int]float64, seedYears)
	for i := 0; i < seedYears; i++ {
		v := base * math.Pow(1+seedGrowth, float64(i))
		values[fromYear+i] = math.Round(v*100) / 100
	}
	return AverageBenefitTable{Values: values, Synthetic: true}
}
