package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/term-dates/internal/logger"
	"github.com/pfrederiksen/term-dates/internal/metrics"
	"github.com/pfrederiksen/term-dates/internal/scraper"
	"github.com/pfrederiksen/term-dates/internal/term"
)

// YearScraper fetches one year of term data
type YearScraper interface {
	ScrapeYear(ctx context.Context, year int) (term.YearData, error)
}

// Store is the part of the cache store a run needs
type Store interface {
	GetYear(year int) (term.YearData, bool)
	SetYear(year int, data term.YearData) error
	SetRefreshStatus(ok bool) error
	Years() []int
}

// fingerprinter is implemented by scrapers that can identify the page they fetched
type fingerprinter interface {
	LastFingerprint() uint64
}

// State is the phase of the current or last run
type State int32

const (
	StateIdle State = iota
	StateScrapingCurrent
	StateScrapingNext
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScrapingCurrent:
		return "scraping_current"
	case StateScrapingNext:
		return "scraping_next"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

const (
	slotCurrent = "current"
	slotNext    = "next"
)

// Refresher runs refresh passes against a scraper and a store
type Refresher struct {
	scraper YearScraper
	store   Store
	metrics *metrics.Pipeline
	log     *logger.Logger
	loc     *time.Location
	now     func() time.Time

	state           atomic.Int32
	lastFingerprint uint64
}

// Option configures a Refresher
type Option func(*Refresher)

// WithLocation sets the time zone used to decide which year is "current"
func WithLocation(loc *time.Location) Option {
	return func(r *Refresher) { r.loc = loc }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(r *Refresher) { r.now = now }
}

// WithMetrics records run and scrape outcomes
func WithMetrics(m *metrics.Pipeline) Option {
	return func(r *Refresher) { r.metrics = m }
}

// WithLogger replaces the default logger
func WithLogger(l *logger.Logger) Option {
	return func(r *Refresher) { r.log = l }
}

// New creates a Refresher
func New(s YearScraper, store Store, opts ...Option) *Refresher {
	r := &Refresher{
		scraper: s,
		store:   store,
		log:     logger.Default(),
		loc:     time.Local,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the phase of the run in progress, or StateDone after a run
func (r *Refresher) State() State {
	return State(r.state.Load())
}

func (r *Refresher) setState(s State) {
	r.state.Store(int32(s))
}

// Run performs one refresh pass over the current and next year. It does not return
// errors; the outcome is recorded with Store.SetRefreshStatus.
func (r *Refresher) Run(ctx context.Context) {
	log := r.log.With(logger.Fields{"run_id": uuid.NewString()})
	start := r.now()
	ok := false

	defer func() {
		if p := recover(); p != nil {
			log.Error("Refresh run panicked", logger.Fields{"panic": fmt.Sprint(p)}, nil)
			ok = false
		}
		if ctx.Err() != nil {
			// An interrupted run leaves the last committed status in place.
			r.setState(StateDone)
			log.Warn("Refresh run cancelled", logger.Fields{"duration_ms": r.now().Sub(start).Milliseconds()})
			return
		}
		if err := r.store.SetRefreshStatus(ok); err != nil {
			log.Error("Recording refresh status", logger.Fields{"ok": ok}, err)
		}
		finished := r.now()
		r.metrics.ObserveRun(ok, finished.Sub(start), finished)
		r.metrics.SetCachedYears(len(r.store.Years()))
		r.setState(StateDone)
		log.Info("Refresh run finished", logger.Fields{
			"ok":          ok,
			"duration_ms": finished.Sub(start).Milliseconds(),
		})
	}()

	current := start.In(r.loc).Year()
	next := current + 1
	log.Info("Refresh run started", logger.Fields{"current_year": current, "next_year": next})

	r.setState(StateScrapingCurrent)
	currentOK := r.refreshCurrent(ctx, log, current)

	r.setState(StateScrapingNext)
	nextOK := r.refreshNext(ctx, log, next)

	ok = currentOK && nextOK
}

// refreshCurrent handles the current year: any failure fails the run
func (r *Refresher) refreshCurrent(ctx context.Context, log *logger.Logger, year int) bool {
	outcome, err := r.refreshYear(ctx, log, year)
	r.metrics.ObserveScrape(slotCurrent, outcome)
	if err != nil {
		log.Error("Refreshing current year failed", logger.Fields{"year": year, "outcome": outcome}, err)
		return false
	}
	return true
}

// refreshNext handles the next year: a failure only counts when the year was cached
// before, or when the scraped data could not be persisted
func (r *Refresher) refreshNext(ctx context.Context, log *logger.Logger, year int) bool {
	_, wasCached := r.store.GetYear(year)

	outcome, err := r.refreshYear(ctx, log, year)
	r.metrics.ObserveScrape(slotNext, outcome)
	switch {
	case err == nil:
		return true
	case outcome == outcomeFlush:
		log.Error("Storing next year failed", logger.Fields{"year": year}, err)
		return false
	case wasCached:
		log.Error("Refreshing next year failed after it was cached", logger.Fields{"year": year, "outcome": outcome}, err)
		return false
	case errors.Is(err, scraper.ErrNotFound):
		log.Info("Next year not published yet", logger.Fields{"year": year})
		return true
	default:
		log.Warn("Refreshing next year failed", logger.Fields{
			"year":    year,
			"outcome": outcome,
			"error":   err.Error(),
		})
		return true
	}
}

const (
	outcomeOK      = "ok"
	outcomeInvalid = "invalid"
	outcomeFlush   = "flush"
)

// refreshYear scrapes, validates and stores one year. The outcome label is "ok",
// a scraper.Kind, "invalid" or "flush".
func (r *Refresher) refreshYear(ctx context.Context, log *logger.Logger, year int) (string, error) {
	data, err := r.scraper.ScrapeYear(ctx, year)
	if err != nil {
		return scraper.Kind(err), fmt.Errorf("scraping %d: %w", year, err)
	}
	r.noteFingerprint(log)

	if err := term.ValidateYear(data); err != nil {
		return outcomeInvalid, fmt.Errorf("validating %d: %w", year, err)
	}

	previous, cached := r.store.GetYear(year)

	if err := r.store.SetYear(year, data); err != nil {
		return outcomeFlush, fmt.Errorf("storing %d: %w", year, err)
	}

	if cached {
		for _, c := range term.DetectChanges(previous, data) {
			log.Info("Term dates changed", logger.Fields{
				"year":        year,
				"term":        string(c.Term),
				"session":     c.Session,
				"change_type": c.ChangeType,
				"old":         c.OldValue,
				"new":         c.NewValue,
			})
		}
	}
	log.Info("Stored term dates", logger.Fields{"year": year, "previously_cached": cached})
	return outcomeOK, nil
}

// noteFingerprint logs when the source page differs from the last one fetched
func (r *Refresher) noteFingerprint(log *logger.Logger) {
	fp, ok := r.scraper.(fingerprinter)
	if !ok {
		return
	}
	current := fp.LastFingerprint()
	if current == r.lastFingerprint {
		return
	}
	if r.lastFingerprint != 0 {
		log.Info("Source page changed", logger.Fields{
			"previous": fmt.Sprintf("%016x", r.lastFingerprint),
			"current":  fmt.Sprintf("%016x", current),
		})
	}
	r.lastFingerprint = current
}
