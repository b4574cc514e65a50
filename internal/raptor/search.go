package raptor

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"planner.onebusaway.org/internal/timetable"
)

// Query input errors. They are returned wrapped in a *QueryError.
var (
	ErrUnknownEntryPoint   = errors.New("unknown entry point")
	ErrNoStartInstants     = errors.New("at least one start instant is required")
	ErrInvalidMaxTransfers = errors.New("max transfers must be positive")
	ErrStartOutsidePeriod  = errors.New("start instant outside the production period")
)

// QueryError reports a request the search cannot run. It is distinct from a
// search finding no itinerary, which returns no journey and no error.
type QueryError struct {
	Field string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// StopAccess is a stop reachable from an entry point with a fixed duration, as
// computed by the street network.
type StopAccess struct {
	Stop     string
	Duration int32
}

// EntryPoint is an origin or a destination. When Access is empty, URI names a
// stop reached with no access duration. Stops no journey pattern serves are
// skipped; an entry point left with no served stop is rejected with
// ErrUnknownEntryPoint.
type EntryPoint struct {
	URI    string
	Access []StopAccess
}

// StopEntryPoint returns the entry point of a single stop.
func StopEntryPoint(uri string) EntryPoint {
	return EntryPoint{URI: uri}
}

// AccessibilityParams restricts the vehicles and stops a journey may use.
type AccessibilityParams struct {
	Wheelchair bool
}

// Request is one search over a batch of start instants. Instants are
// departures when Clockwise is set and arrivals otherwise. MaxTransfers bounds
// the number of rounds, that is the number of vehicles boarded. Forbidden
// holds vehicle journey or line uris that may not be boarded; unknown uris
// are ignored.
type Request struct {
	Origin        EntryPoint
	Destination   EntryPoint
	StartInstants []timetable.DateTime
	Clockwise     bool
	MaxTransfers  int
	Accessibility AccessibilityParams
	Forbidden     []string
}

// Engine runs searches against one timetable. It is safe for concurrent use.
type Engine struct {
	tt          *timetable.Timetable
	parallelism int
	logger      *slog.Logger
	scanners    sync.Pool
}

// Option configures an Engine.
type Option func(*Engine)

// WithParallelism bounds the number of start instants scanned at once.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// WithLogger sets the logger used for search diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine returns an engine searching tt.
func NewEngine(tt *timetable.Timetable, opts ...Option) *Engine {
	e := &Engine{
		tt:          tt,
		parallelism: runtime.GOMAXPROCS(0),
		logger:      slog.Default().With(slog.String("component", "raptor")),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.scanners.New = func() any { return newScanner(tt) }
	return e
}

// Timetable returns the timetable the engine searches.
func (e *Engine) Timetable() *timetable.Timetable { return e.tt }

// Search scans every start instant of req independently and returns their
// journeys grouped by instant, in request order. An empty result with a nil
// error means no itinerary exists.
func (e *Engine) Search(ctx context.Context, req Request) ([]Journey, error) {
	q, err := e.prepare(req)
	if err != nil {
		return nil, err
	}

	results := make([][]Journey, len(req.StartInstants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, start := range req.StartInstants {
		g.Go(func() error {
			var err error
			if q.clockwise {
				results[i], err = searchInstant(gctx, &e.scanners, Forward{}, q, start)
			} else {
				results[i], err = searchInstant(gctx, &e.scanners, Backward{}, q, start)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var journeys []Journey
	for _, js := range results {
		journeys = append(journeys, js...)
	}
	e.logger.Debug("search done",
		slog.Bool("clockwise", req.Clockwise),
		slog.Int("instants", len(req.StartInstants)),
		slog.Int("journeys", len(journeys)))
	return journeys, nil
}

// Search is a one-off search of tt.
func Search(ctx context.Context, tt *timetable.Timetable, req Request) ([]Journey, error) {
	return NewEngine(tt).Search(ctx, req)
}

func searchInstant[V Visitor](ctx context.Context, pool *sync.Pool, v V, q *query, start timetable.DateTime) ([]Journey, error) {
	s := pool.Get().(*scanner)
	defer pool.Put(s)
	if err := scan(ctx, s, v, q, start); err != nil {
		return nil, err
	}
	return extract(s, v, q, start), nil
}

func (e *Engine) prepare(req Request) (*query, error) {
	if req.MaxTransfers <= 0 {
		return nil, &QueryError{Field: "maxTransfers", Err: ErrInvalidMaxTransfers}
	}
	if len(req.StartInstants) == 0 {
		return nil, &QueryError{Field: "datetimes", Err: ErrNoStartInstants}
	}
	period := e.tt.Period()
	for _, dt := range req.StartInstants {
		if !period.Contains(dt) {
			return nil, &QueryError{Field: "datetimes", Err: fmt.Errorf("%s: %w", dt, ErrStartOutsidePeriod)}
		}
	}
	origin, err := e.resolve(req.Origin)
	if err != nil {
		return nil, &QueryError{Field: "origin", Err: err}
	}
	destination, err := e.resolve(req.Destination)
	if err != nil {
		return nil, &QueryError{Field: "destination", Err: err}
	}

	q := &query{
		clockwise: req.Clockwise,
		rounds:    req.MaxTransfers,
		filter:    newFilter(e.tt, req.Clockwise, req.Accessibility, req.Forbidden),
	}
	if req.Clockwise {
		q.origins, q.targets = origin, destination
	} else {
		q.origins, q.targets = destination, origin
	}
	q.targets = dedupe(q.targets)
	return q, nil
}

// resolve expands an entry point into the pattern points of its stops.
func (e *Engine) resolve(ep EntryPoint) ([]access, error) {
	stops := ep.Access
	if len(stops) == 0 {
		if ep.URI == "" {
			return nil, ErrUnknownEntryPoint
		}
		stops = []StopAccess{{Stop: ep.URI}}
	}
	var points []access
	for _, sa := range stops {
		stop, ok := e.tt.StopByURI(sa.Stop)
		if !ok {
			return nil, fmt.Errorf("%q: %w", sa.Stop, ErrUnknownEntryPoint)
		}
		if sa.Duration < 0 {
			return nil, fmt.Errorf("%q: negative access duration %d", sa.Stop, sa.Duration)
		}
		for _, jpp := range e.tt.JppsAtStop(stop.Idx) {
			points = append(points, access{jpp: jpp, duration: sa.Duration})
		}
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no journey pattern serves the entry point: %w", ErrUnknownEntryPoint)
	}
	return points, nil
}

// dedupe keeps the shortest duration per point and sorts by point.
func dedupe(points []access) []access {
	slices.SortFunc(points, func(a, b access) int {
		if c := cmp.Compare(a.jpp, b.jpp); c != 0 {
			return c
		}
		return cmp.Compare(a.duration, b.duration)
	})
	return slices.CompactFunc(points, func(a, b access) bool { return a.jpp == b.jpp })
}
