// Package session keeps caller-side telemetry history for a running agent
// session and turns it into assessment inputs.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/alexcarney460-hue/skynet/pkg/skynet"
)

const (
	// DefaultHistorySize bounds each history series.
	DefaultHistorySize = 30
	// DefaultOutputWindow bounds the recent output lengths sent for verbosity.
	DefaultOutputWindow = 10
)

// Sample is one telemetry reading from the agent.
type Sample struct {
	MemoryUsedPercent      int     `json:"memory_used_percent"`
	TokenBurnRatePerMin    float64 `json:"token_burn_rate_per_min"`
	ContextDriftPercent    int     `json:"context_drift_percent"`
	SessionAgeSeconds      int     `json:"session_age_seconds"`
	TokenBudgetTotal       int     `json:"token_budget_total,omitempty"`
	TokenBudgetUsed        int     `json:"token_budget_used"`
	ContextWindowMaxBytes  int     `json:"context_window_max_bytes,omitempty"`
	ContextWindowUsedBytes int     `json:"context_window_used_bytes"`
	// OutputLengths are token counts of outputs produced since the previous sample.
	OutputLengths        []int  `json:"output_lengths,omitempty"`
	BaselineOutputLength int    `json:"baseline_output_length,omitempty"`
	// Errors is the number of new errors since the previous sample.
	Errors     int    `json:"errors,omitempty"`
	SystemMode string `json:"system_mode,omitempty"`
}

// Validate rejects readings that cannot describe a session.
func (s Sample) Validate() error {
	if s.SessionAgeSeconds < 0 {
		return fmt.Errorf("session_age_seconds must be non-negative, got %d", s.SessionAgeSeconds)
	}
	if s.Errors < 0 {
		return fmt.Errorf("errors must be non-negative, got %d", s.Errors)
	}
	return nil
}

// Config bounds a Tracker.
type Config struct {
	HistorySize  int
	OutputWindow int
	// SystemMode is used when a sample carries none.
	SystemMode string
}

// Inputs are the three assessment inputs built from one sample.
type Inputs struct {
	Pressure  skynet.PressureInput
	Verbosity skynet.VerbosityInput
	HalfLife  skynet.HalfLifeInput
}

// Report is the combined result for one sample.
type Report struct {
	Sequence  int                        `json:"sequence"`
	Time      time.Time                  `json:"time"`
	Pressure  skynet.PressureAssessment  `json:"pressure"`
	Verbosity skynet.VerbosityAssessment `json:"verbosity"`
	HalfLife  skynet.HalfLifeAssessment  `json:"half_life"`
	// Fallbacks names the operations whose result is the fallback record.
	Fallbacks []string `json:"fallbacks,omitempty"`
}

// FellBack reports whether op's result in r is a fallback.
func (r Report) FellBack(op string) bool {
	for _, f := range r.Fallbacks {
		if f == op {
			return true
		}
	}
	return false
}

// Transition is a change in the service-reported pressure level. From is
// empty for the first level seen.
type Transition struct {
	From skynet.PressureLevel `json:"from"`
	To   skynet.PressureLevel `json:"to"`
}

// Status is a point-in-time copy of a Tracker.
type Status struct {
	Samples               int                  `json:"samples"`
	ErrorCount            int                  `json:"error_count"`
	Level                 skynet.PressureLevel `json:"level,omitempty"`
	MemoryPressureHistory []int                `json:"memory_pressure_history"`
	ContextDriftHistory   []int                `json:"context_drift_history"`
	TokenBurnRateHistory  []float64            `json:"token_burn_rate_history"`
	Last                  *Report              `json:"last,omitempty"`
}

// Tracker accumulates samples. Histories are oldest-first and hold at most
// HistorySize entries. Safe for concurrent use.
type Tracker struct {
	mu  sync.Mutex
	cfg Config

	memory  []int
	drift   []int
	burn    []float64
	outputs []int
	errors  int
	samples int

	level skynet.PressureLevel
	last  *Report
}

// NewTracker returns an empty tracker. Non-positive bounds use the defaults.
func NewTracker(cfg Config) *Tracker {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}
	if cfg.OutputWindow <= 0 {
		cfg.OutputWindow = DefaultOutputWindow
	}
	if cfg.SystemMode == "" {
		cfg.SystemMode = skynet.DefaultSystemMode
	}
	return &Tracker{cfg: cfg}
}

// appendBounded appends v and drops the oldest entries beyond limit.
func appendBounded[T any](history []T, limit int, v ...T) []T {
	history = append(history, v...)
	if over := len(history) - limit; over > 0 {
		history = append(history[:0:0], history[over:]...)
	}
	return history
}

// Observe records s and returns the inputs for it.
func (t *Tracker) Observe(s Sample) (Inputs, error) {
	if err := s.Validate(); err != nil {
		return Inputs{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples++
	t.errors += s.Errors
	t.memory = appendBounded(t.memory, t.cfg.HistorySize, s.MemoryUsedPercent)
	t.drift = appendBounded(t.drift, t.cfg.HistorySize, s.ContextDriftPercent)
	t.burn = appendBounded(t.burn, t.cfg.HistorySize, s.TokenBurnRatePerMin)
	if len(s.OutputLengths) > 0 {
		t.outputs = appendBounded(t.outputs, t.cfg.OutputWindow, s.OutputLengths...)
	}

	mode := s.SystemMode
	if mode == "" {
		mode = t.cfg.SystemMode
	}

	p := skynet.NewPressureInput(s.MemoryUsedPercent, s.TokenBurnRatePerMin, s.ContextDriftPercent, s.SessionAgeSeconds)
	p.TokenBudgetUsed = s.TokenBudgetUsed
	p.ContextWindowUsedBytes = s.ContextWindowUsedBytes
	if s.TokenBudgetTotal > 0 {
		p.TokenBudgetTotal = s.TokenBudgetTotal
	}
	if s.ContextWindowMaxBytes > 0 {
		p.ContextWindowMaxBytes = s.ContextWindowMaxBytes
	}
	p.SystemMode = mode

	v := skynet.NewVerbosityInput(t.outputs)
	v.TokenBudgetTotal = p.TokenBudgetTotal
	v.TokenBudgetUsed = s.TokenBudgetUsed
	if s.BaselineOutputLength > 0 {
		v.BaselineOutputLength = s.BaselineOutputLength
	}
	v.SystemMode = mode

	h := skynet.NewHalfLifeInput(s.SessionAgeSeconds/60, t.memory, t.drift, t.burn)
	h.ErrorCountThisSession = t.errors
	h.SystemMode = mode

	return Inputs{Pressure: p, Verbosity: v, HalfLife: h}, nil
}

// Record stores r as the latest report. When the pressure result came from
// the service and its level differs from the last one seen, the change is
// returned. Fallback pressure never counts as a change.
func (t *Tracker) Record(r Report) (Transition, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rc := r
	rc.Fallbacks = append([]string(nil), r.Fallbacks...)
	if r.Verbosity.TruncateOutputAt != nil {
		at := *r.Verbosity.TruncateOutputAt
		rc.Verbosity.TruncateOutputAt = &at
	}
	t.last = &rc

	if r.FellBack(skynet.OpPressure) || r.Pressure.Level == t.level {
		return Transition{}, false
	}
	tr := Transition{From: t.level, To: r.Pressure.Level}
	t.level = r.Pressure.Level
	return tr, true
}

// Samples returns the number of samples observed.
func (t *Tracker) Samples() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.samples
}

// Status returns a copy of the tracker state.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := Status{
		Samples:               t.samples,
		ErrorCount:            t.errors,
		Level:                 t.level,
		MemoryPressureHistory: append([]int{}, t.memory...),
		ContextDriftHistory:   append([]int{}, t.drift...),
		TokenBurnRateHistory:  append([]float64{}, t.burn...),
	}
	if t.last != nil {
		last := *t.last
		st.Last = &last
	}
	return st
}
