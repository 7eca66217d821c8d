// Package enrich runs background lookups that enrich plans without blocking
// the conversation: destination images, flight and hotel cost research, and
// Indian Railways fare estimates. Lookups start as soon as their inputs are
// known and are collected later with a bounded wait. Failures degrade to
// empty results; the conversation never fails because a lookup did.
package enrich

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/trip-planner/pkg/websearch"
)

// Kind identifies a background lookup.
type Kind string

const (
	KindImage  Kind = "image"
	KindFlight Kind = "flight"
	KindHotel  Kind = "hotel"
	KindTrain  Kind = "train"
)

// RoutePredicate decides whether a route qualifies for rail search.
type RoutePredicate func(origin, destination string) bool

// Config holds per-kind lookup deadlines.
type Config struct {
	ImageTimeout  time.Duration
	FlightTimeout time.Duration
	HotelTimeout  time.Duration
	TrainTimeout  time.Duration
	MaxResults    int

	// BudgetTolerance is the fraction of the trip budget a rail fare may
	// consume before the estimate is flagged as over budget.
	BudgetTolerance float64
}

// DefaultConfig returns lookup deadlines matching interactive use.
func DefaultConfig() Config {
	return Config{
		ImageTimeout:    8 * time.Second,
		FlightTimeout:   12 * time.Second,
		HotelTimeout:    12 * time.Second,
		TrainTimeout:    12 * time.Second,
		MaxResults:      4,
		BudgetTolerance: 0.4,
	}
}

// Scheduler owns the background lookups for one conversation.
type Scheduler struct {
	search  websearch.Client
	cfg     Config
	routeOK RoutePredicate

	mu   sync.Mutex
	jobs map[Kind]*job
}

type job struct {
	done   chan struct{}
	result any
	err    error
}

// NewScheduler creates a scheduler. A nil routeOK uses IsIndianRoute.
func NewScheduler(search websearch.Client, cfg Config, routeOK RoutePredicate) *Scheduler {
	if cfg.ImageTimeout <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.BudgetTolerance <= 0 {
		cfg.BudgetTolerance = DefaultConfig().BudgetTolerance
	}
	if routeOK == nil {
		routeOK = IsIndianRoute
	}
	return &Scheduler{
		search:  search,
		cfg:     cfg,
		routeOK: routeOK,
		jobs:    make(map[Kind]*job),
	}
}

// start launches the lookup once; repeat calls for the same kind are no-ops.
func (s *Scheduler) start(kind Kind, timeout time.Duration, fn func(ctx context.Context) (any, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.jobs[kind]; running {
		return
	}

	j := &job{done: make(chan struct{})}
	s.jobs[kind] = j

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		j.result, j.err = fn(ctx)
		close(j.done)
	}()
}

// wait blocks until the lookup finishes or the wait budget elapses.
// A lookup that was never started returns (nil, false) immediately.
func (s *Scheduler) wait(ctx context.Context, kind Kind, budget time.Duration) (any, bool) {
	s.mu.Lock()
	j := s.jobs[kind]
	s.mu.Unlock()
	if j == nil {
		return nil, false
	}

	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case <-j.done:
		if j.err != nil {
			zap.L().Warn("background lookup failed",
				zap.String("kind", string(kind)),
				zap.Error(j.err),
			)
			return nil, false
		}
		return j.result, true
	case <-timer.C:
		zap.L().Warn("background lookup wait timed out", zap.String("kind", string(kind)))
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

// StartImageSearch kicks off the destination image lookup.
func (s *Scheduler) StartImageSearch(destination string) {
	if destination == "" {
		return
	}
	zap.L().Info("starting background image search", zap.String("destination", destination))
	s.start(KindImage, s.cfg.ImageTimeout, func(ctx context.Context) (any, error) {
		return searchDestinationImages(ctx, s.search, destination, 6)
	})
}

// Images returns destination images, waiting up to the image budget if the
// lookup is still running. Returns nil when nothing is available.
func (s *Scheduler) Images(ctx context.Context) []Image {
	result, ok := s.wait(ctx, KindImage, s.cfg.ImageTimeout)
	if !ok {
		return nil
	}
	images, _ := result.([]Image)
	return images
}

// StartFlightSearch kicks off the flight cost lookup.
func (s *Scheduler) StartFlightSearch(origin, destination, dateContext string) {
	if origin == "" || destination == "" {
		return
	}
	zap.L().Info("starting background flight search",
		zap.String("origin", origin),
		zap.String("destination", destination),
	)
	s.start(KindFlight, s.cfg.FlightTimeout, func(ctx context.Context) (any, error) {
		return searchFlightCosts(ctx, s.search, origin, destination, dateContext, s.cfg.MaxResults)
	})
}

// FlightCosts returns the flight cost research summary, or "" when none.
func (s *Scheduler) FlightCosts(ctx context.Context) string {
	result, ok := s.wait(ctx, KindFlight, s.cfg.FlightTimeout)
	if !ok {
		return ""
	}
	summary, _ := result.(string)
	return summary
}

// StartHotelSearch kicks off the hotel cost lookup.
func (s *Scheduler) StartHotelSearch(destination, dateContext, budget, preferences string) {
	if destination == "" {
		return
	}
	zap.L().Info("starting background hotel search", zap.String("destination", destination))
	s.start(KindHotel, s.cfg.HotelTimeout, func(ctx context.Context) (any, error) {
		return searchHotelCosts(ctx, s.search, destination, dateContext, budget, preferences, s.cfg.MaxResults+1)
	})
}

// HotelCosts returns the hotel cost research summary, or "" when none.
func (s *Scheduler) HotelCosts(ctx context.Context) string {
	result, ok := s.wait(ctx, KindHotel, s.cfg.HotelTimeout)
	if !ok {
		return ""
	}
	summary, _ := result.(string)
	return summary
}

// StartTrainSearch kicks off the rail fare lookup for qualifying routes.
func (s *Scheduler) StartTrainSearch(origin, destination, dateContext, budget, trainClass string) {
	if !s.routeOK(origin, destination) {
		zap.L().Info("route does not qualify for rail search",
			zap.String("origin", origin),
			zap.String("destination", destination),
		)
		return
	}
	zap.L().Info("starting background train search",
		zap.String("origin", origin),
		zap.String("destination", destination),
	)
	s.start(KindTrain, s.cfg.TrainTimeout, func(ctx context.Context) (any, error) {
		return searchTrainCosts(ctx, s.search, trainQuery{
			Origin:      origin,
			Destination: destination,
			DateContext: dateContext,
			Budget:      budget,
			Class:       trainClass,
			Tolerance:   s.cfg.BudgetTolerance,
		})
	})
}

// TrainEstimate returns the rail fare estimate, or nil when unavailable.
func (s *Scheduler) TrainEstimate(ctx context.Context) *TrainEstimate {
	result, ok := s.wait(ctx, KindTrain, s.cfg.TrainTimeout)
	if !ok {
		return nil
	}
	estimate, _ := result.(*TrainEstimate)
	return estimate
}
