package usl

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Span is a stretch of work: Count units completed between Start
// (inclusive) and Stop (exclusive) while occupying Load workers.
type Span struct {
	Start time.Time
	Stop  time.Time
	Count float64
	Load  int
}

// Recorder accumulates spans from concurrent workers and turns them into
// throughput-at-load measurements.
//
// Each span contributes a rate Count/(Stop-Start) and its Load from Start
// until Stop. Sweeping the start and stop events in time order yields the
// total rate and load of every interval; intervals are then averaged per
// load level, weighted by their duration. Time with zero load counts toward
// nothing, so the observation window only matters for utilization.
type Recorder struct {
	mu    sync.Mutex
	spans []Span
	first time.Time
	last  time.Time
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Add records count units of work done by one worker between start and stop.
func (r *Recorder) Add(start, stop time.Time, count float64) error {
	return r.AddSpan(Span{Start: start, Stop: stop, Count: count, Load: 1})
}

// AddSpan records s. Spans with Stop ≤ Start are rejected.
func (r *Recorder) AddSpan(s Span) error {
	if !s.Stop.After(s.Start) {
		return fmt.Errorf("%w: start=%s stop=%s", ErrEmptySpan, s.Start, s.Stop)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.spans = append(r.spans, s)
	r.observe(s.Start)
	r.observe(s.Stop)
	return nil
}

// Observe widens the observation window without adding load.
func (r *Recorder) Observe(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observe(at)
}

func (r *Recorder) observe(at time.Time) {
	if r.first.IsZero() || at.Before(r.first) {
		r.first = at
	}
	if r.last.IsZero() || at.After(r.last) {
		r.last = at
	}
}

// Len returns the number of recorded spans.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spans)
}

// Utilization returns the fraction of the observation window with load > 0.
func (r *Recorder) Utilization() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	window := r.last.Sub(r.first)
	if window <= 0 {
		return 0
	}

	var busy time.Duration
	for _, iv := range r.sweep() {
		if iv.load > 0 {
			busy += iv.duration
		}
	}
	return float64(busy) / float64(window)
}

// ThroughputByLoad returns the duration-weighted average throughput (units
// per second) at every load level observed, sorted by load.
func (r *Recorder) ThroughputByLoad() []Measurement {
	r.mu.Lock()
	defer r.mu.Unlock()

	type acc struct {
		weighted float64
		weight   float64
	}
	byLoad := make(map[int]*acc)
	for _, iv := range r.sweep() {
		if iv.load <= 0 || iv.duration <= 0 {
			continue
		}
		a, ok := byLoad[iv.load]
		if !ok {
			a = &acc{}
			byLoad[iv.load] = a
		}
		w := iv.duration.Seconds()
		a.weighted += iv.rate * w
		a.weight += w
	}

	loads := make([]int, 0, len(byLoad))
	for n := range byLoad {
		loads = append(loads, n)
	}
	sort.Ints(loads)

	ms := make([]Measurement, 0, len(loads))
	for _, n := range loads {
		a := byLoad[n]
		ms = append(ms, Measurement{Load: float64(n), Throughput: a.weighted / a.weight})
	}
	return ms
}

type interval struct {
	duration time.Duration
	load     int
	rate     float64
}

// sweep must be called with r.mu held.
func (r *Recorder) sweep() []interval {
	type event struct {
		at        time.Time
		rateDelta float64
		loadDelta int
	}

	events := make([]event, 0, 2*len(r.spans))
	for _, s := range r.spans {
		rate := s.Count / s.Stop.Sub(s.Start).Seconds()
		events = append(events,
			event{at: s.Start, rateDelta: rate, loadDelta: s.Load},
			event{at: s.Stop, rateDelta: -rate, loadDelta: -s.Load},
		)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].at.Before(events[j].at)
	})

	intervals := make([]interval, 0, len(events))
	var (
		rate float64
		load int
	)
	for i := 0; i < len(events); i++ {
		rate += events[i].rateDelta
		load += events[i].loadDelta
		// Apply every event at the same instant before closing the interval.
		if i+1 < len(events) && events[i+1].at.Equal(events[i].at) {
			continue
		}
		if i+1 < len(events) {
			intervals = append(intervals, interval{
				duration: events[i+1].at.Sub(events[i].at),
				load:     load,
				rate:     rate,
			})
		}
	}
	return intervals
}
