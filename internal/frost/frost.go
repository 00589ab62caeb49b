// Package frost estimates the last frost date for a ZIP code.
//
// Estimation is a two-layer affair: a Source performs the fallible lookup
// (a weather forecast, for example) and the Estimator turns any failure
// into the fixed default date so callers always get an answer.
package frost

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Default last frost date used whenever no source can answer (March 15)
const (
	DefaultMonth = time.March
	DefaultDay   = 15
)

var (
	ErrNoAPIKey        = errors.New("weather API key not configured")
	ErrNoQualifyingDay = errors.New("no frost-free day in forecast")
)

// Source looks up the date after which frost is unlikely at a location
type Source interface {
	LastFrost(ctx context.Context, zip string) (time.Time, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context, zip string) (time.Time, error)

func (f SourceFunc) LastFrost(ctx context.Context, zip string) (time.Time, error) {
	return f(ctx, zip)
}

// DefaultDate returns March 15 of now's year at midnight UTC
func DefaultDate(now time.Time) time.Time {
	return time.Date(now.Year(), DefaultMonth, DefaultDay, 0, 0, 0, 0, time.UTC)
}

// Estimator wraps a Source with the fixed-date fallback.
// A nil source always yields the default date.
type Estimator struct {
	source Source
	now    func() time.Time
	log    zerolog.Logger
}

// Option configures an Estimator
type Option func(*Estimator)

// WithClock overrides the clock used for the fallback year
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) { e.now = now }
}

// WithLogger sets the logger used to report absorbed lookup failures
func WithLogger(log zerolog.Logger) Option {
	return func(e *Estimator) { e.log = log }
}

// NewEstimator creates an Estimator over source
func NewEstimator(source Source, opts ...Option) *Estimator {
	e := &Estimator{
		source: source,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate returns the estimated last frost date for zip. It never fails.
func (e *Estimator) Estimate(ctx context.Context, zip string) time.Time {
	fallback := DefaultDate(e.now())
	if e.source == nil {
		return fallback
	}

	date, err := e.source.LastFrost(ctx, zip)
	if err != nil {
		e.log.Debug().Err(err).Str("zip", zip).Time("fallback", fallback).Msg("frost lookup failed, using default date")
		return fallback
	}
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
}
