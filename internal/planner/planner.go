// Package planner answers journey planning requests against the live
// timetable and turns the journeys found into response models.
package planner

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"planner.onebusaway.org/internal/logging"
	"planner.onebusaway.org/internal/models"
	"planner.onebusaway.org/internal/raptor"
	"planner.onebusaway.org/internal/timetable"
)

// ErrNoTimetable is returned while no timetable has been loaded yet.
var ErrNoTimetable = errors.New("no timetable loaded")

// EngineSource hands out the engine of the timetable currently published.
// The engine may change between two calls; one request uses one engine.
type EngineSource interface {
	Engine() *raptor.Engine
}

// Query is a plan-journeys request as received from a client. DateTimes use
// the YYYYMMDDTHHMMSS layout in the timezone of the dataset.
type Query struct {
	From         string
	To           string
	FromAccess   []raptor.StopAccess
	ToAccess     []raptor.StopAccess
	DateTimes    []string
	Clockwise    bool
	MaxTransfers int
	Wheelchair   bool
	Forbidden    []string
}

// Result holds the journeys found and the lines and stops they reference.
type Result struct {
	Journeys   []models.Journey
	References models.ReferencesModel
}

type Planner struct {
	source EngineSource
	logger *slog.Logger
}

func New(source EngineSource, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		source: source,
		logger: logger.With(slog.String("component", "planner")),
	}
}

// PlanJourneys runs q. Input errors are returned as *raptor.QueryError; a
// query with no itinerary returns an empty result and a nil error.
func (p *Planner) PlanJourneys(ctx context.Context, q Query) (*Result, error) {
	engine := p.source.Engine()
	if engine == nil {
		return nil, ErrNoTimetable
	}
	tt := engine.Timetable()

	instants, err := parseInstants(tt.Period(), q.DateTimes)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	journeys, err := engine.Search(ctx, raptor.Request{
		Origin:        raptor.EntryPoint{URI: q.From, Access: q.FromAccess},
		Destination:   raptor.EntryPoint{URI: q.To, Access: q.ToAccess},
		StartInstants: instants,
		Clockwise:     q.Clockwise,
		MaxTransfers:  q.MaxTransfers,
		Accessibility: raptor.AccessibilityParams{Wheelchair: q.Wheelchair},
		Forbidden:     q.Forbidden,
	})
	if err != nil {
		var queryErr *raptor.QueryError
		if !errors.As(err, &queryErr) && !errors.Is(err, context.Canceled) {
			logging.LogError(p.logger, "journey search failed", err)
		}
		return nil, err
	}

	sortJourneys(journeys, q.Clockwise)
	result := assemble(tt, journeys)

	logging.LogOperation(p.logger, "journeys_planned",
		slog.String("from", q.From),
		slog.String("to", q.To),
		slog.Int("instants", len(instants)),
		slog.Int("journeys", len(result.Journeys)),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

func parseInstants(period timetable.Period, values []string) ([]timetable.DateTime, error) {
	if len(values) == 0 {
		return nil, &raptor.QueryError{Field: "datetimes", Err: raptor.ErrNoStartInstants}
	}
	instants := make([]timetable.DateTime, 0, len(values))
	for _, v := range values {
		dt, err := period.Parse(v)
		if err != nil {
			return nil, &raptor.QueryError{Field: "datetimes", Err: err}
		}
		instants = append(instants, dt)
	}
	return instants, nil
}

// sortJourneys orders journeys by requested instant, then by arrival for a
// departure-after query or by departure for an arrival-before query.
func sortJourneys(journeys []raptor.Journey, clockwise bool) {
	slices.SortStableFunc(journeys, func(a, b raptor.Journey) int {
		if c := cmp.Compare(a.RequestedInstant, b.RequestedInstant); c != 0 {
			return c
		}
		if clockwise {
			return cmp.Compare(a.Arrival, b.Arrival)
		}
		return cmp.Compare(a.Departure, b.Departure)
	})
}
