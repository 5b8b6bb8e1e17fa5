package skynet

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Endpoint paths relative to the configured base URL.
const (
	pathPressure  = "/pressure"
	pathVerbosity = "/verbosity"
	pathHalfLife  = "/half-life"
)

// PressureRequest is the JSON body for POST {endpoint}/pressure.
type PressureRequest struct {
	MemoryUsedPercent      int     `json:"memoryUsedPercent"`
	TokenBurnRatePerMin    float64 `json:"tokenBurnRatePerMin"`
	ContextDriftPercent    int     `json:"contextDriftPercent"`
	SessionAgeSeconds      int     `json:"sessionAgeSeconds"`
	TokenBudgetTotal       int     `json:"tokenBudgetTotal"`
	TokenBudgetUsed        int     `json:"tokenBudgetUsed"`
	ContextWindowMaxBytes  int     `json:"contextWindowMaxBytes"`
	ContextWindowUsedBytes int     `json:"contextWindowUsedBytes"`
	SystemMode             string  `json:"systemMode"`
}

// VerbosityRequest is the JSON body for POST {endpoint}/verbosity.
type VerbosityRequest struct {
	RecentOutputLengthsTokens       []int  `json:"recentOutputLengthsTokens"`
	ExpectedBaselineTokensPerOutput int    `json:"expectedBaselineTokensPerOutput"`
	TokenBudgetTotal                int    `json:"tokenBudgetTotal"`
	TokenBudgetUsed                 int    `json:"tokenBudgetUsed"`
	SystemMode                      string `json:"systemMode"`
}

// HalfLifeRequest is the JSON body for POST {endpoint}/half-life.
type HalfLifeRequest struct {
	SessionAgeMinutes     int       `json:"sessionAgeMinutes"`
	MemoryPressureHistory []int     `json:"memoryPressureHistory"`
	ContextDriftHistory   []int     `json:"contextDriftHistory"`
	TokenBurnRateHistory  []float64 `json:"tokenBurnRateHistory"`
	ErrorCountThisSession int       `json:"errorCountThisSession"`
	SystemMode            string    `json:"systemMode"`
}

func (in PressureInput) request() PressureRequest {
	return PressureRequest{
		MemoryUsedPercent:      in.MemoryUsedPercent,
		TokenBurnRatePerMin:    in.TokenBurnRatePerMin,
		ContextDriftPercent:    in.ContextDriftPercent,
		SessionAgeSeconds:      in.SessionAgeSeconds,
		TokenBudgetTotal:       in.TokenBudgetTotal,
		TokenBudgetUsed:        in.TokenBudgetUsed,
		ContextWindowMaxBytes:  in.ContextWindowMaxBytes,
		ContextWindowUsedBytes: in.ContextWindowUsedBytes,
		SystemMode:             in.SystemMode,
	}
}

func (in VerbosityInput) request() VerbosityRequest {
	return VerbosityRequest{
		RecentOutputLengthsTokens:       nonNil(in.RecentOutputLengths),
		ExpectedBaselineTokensPerOutput: in.BaselineOutputLength,
		TokenBudgetTotal:                in.TokenBudgetTotal,
		TokenBudgetUsed:                 in.TokenBudgetUsed,
		SystemMode:                      in.SystemMode,
	}
}

func (in HalfLifeInput) request() HalfLifeRequest {
	return HalfLifeRequest{
		SessionAgeMinutes:     in.SessionAgeMinutes,
		MemoryPressureHistory: nonNil(in.MemoryPressureHistory),
		ContextDriftHistory:   nonNil(in.ContextDriftHistory),
		TokenBurnRateHistory:  nonNil(in.TokenBurnRateHistory),
		ErrorCountThisSession: in.ErrorCountThisSession,
		SystemMode:            in.SystemMode,
	}
}

// nonNil makes nil slices encode as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// wireInt is a JSON number that must be integral. 40 and 40.0 decode;
// 40.5 and "40" do not.
type wireInt int

// UnmarshalJSON implements json.Unmarshaler.
func (n *wireInt) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return fmt.Errorf("expected integer, got %s", data)
	}
	*n = wireInt(f)
	return nil
}

// fields collects the names of required fields that were absent.
type fields struct {
	missing []string
}

func need[T any](f *fields, name string, v *T) T {
	if v == nil {
		f.missing = append(f.missing, name)
		var zero T
		return zero
	}
	return *v
}

func needInt(f *fields, name string, v *wireInt) int {
	return int(need(f, name, v))
}

func (f *fields) err() error {
	if len(f.missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(f.missing, ", "))
}

type pressureEnvelope struct {
	Pressure *struct {
		Level            *PressureLevel `json:"level"`
		SessionViability *wireInt       `json:"sessionViability"`
		MemoryPressure   *wireInt       `json:"memoryPressure"`
		TokenBurnRate    *float64       `json:"tokenBurnRate"`
		ContextDrift     *wireInt       `json:"contextDrift"`
		Recommendations  *struct {
			ShouldCompress  *bool `json:"shouldCompress"`
			ShouldOptimize  *bool `json:"shouldOptimize"`
			ShouldTerminate *bool `json:"shouldTerminate"`
		} `json:"recommendations"`
	} `json:"pressure"`
}

func (e *pressureEnvelope) assessment() (PressureAssessment, error) {
	p := e.Pressure
	if p == nil {
		return PressureAssessment{}, fmt.Errorf("%w: pressure", ErrMissingField)
	}
	if p.Recommendations == nil {
		return PressureAssessment{}, fmt.Errorf("%w: pressure.recommendations", ErrMissingField)
	}
	var f fields
	r := p.Recommendations
	a := PressureAssessment{
		Level:            need(&f, "level", p.Level),
		SessionViability: needInt(&f, "sessionViability", p.SessionViability),
		MemoryPressure:   needInt(&f, "memoryPressure", p.MemoryPressure),
		TokenBurnRate:    need(&f, "tokenBurnRate", p.TokenBurnRate),
		ContextDrift:     needInt(&f, "contextDrift", p.ContextDrift),
		ShouldCompress:   need(&f, "recommendations.shouldCompress", r.ShouldCompress),
		ShouldOptimize:   need(&f, "recommendations.shouldOptimize", r.ShouldOptimize),
		ShouldTerminate:  need(&f, "recommendations.shouldTerminate", r.ShouldTerminate),
	}
	if err := f.err(); err != nil {
		return PressureAssessment{}, err
	}
	return a, nil
}

type verbosityEnvelope struct {
	Assessment *struct {
		VerbosityState             *VerbosityState `json:"verbosityState"`
		TokenImpact                *string         `json:"tokenImpact"`
		AvgOutputLengthTokens      *wireInt        `json:"avgOutputLengthTokens"`
		BaselineOutputLengthTokens *wireInt        `json:"baselineOutputLengthTokens"`
		DriftPercentage            *wireInt        `json:"driftPercentage"`
		Recommendations            *struct {
			TruncateOutputAt   *wireInt `json:"truncateOutputAt"`
			ReduceDetailLevel  *bool    `json:"reduceDetailLevel"`
			SkipMetaCommentary *bool    `json:"skipMetaCommentary"`
		} `json:"recommendations"`
	} `json:"assessment"`
}

func (e *verbosityEnvelope) assessment() (VerbosityAssessment, error) {
	v := e.Assessment
	if v == nil {
		return VerbosityAssessment{}, fmt.Errorf("%w: assessment", ErrMissingField)
	}
	if v.Recommendations == nil {
		return VerbosityAssessment{}, fmt.Errorf("%w: assessment.recommendations", ErrMissingField)
	}
	var f fields
	r := v.Recommendations
	a := VerbosityAssessment{
		State:                need(&f, "verbosityState", v.VerbosityState),
		TokenImpact:          need(&f, "tokenImpact", v.TokenImpact),
		AvgOutputLength:      needInt(&f, "avgOutputLengthTokens", v.AvgOutputLengthTokens),
		BaselineOutputLength: needInt(&f, "baselineOutputLengthTokens", v.BaselineOutputLengthTokens),
		DriftPercentage:      needInt(&f, "driftPercentage", v.DriftPercentage),
		ReduceDetailLevel:    need(&f, "recommendations.reduceDetailLevel", r.ReduceDetailLevel),
		SkipMetaCommentary:   need(&f, "recommendations.skipMetaCommentary", r.SkipMetaCommentary),
	}
	if r.TruncateOutputAt != nil {
		at := int(*r.TruncateOutputAt)
		a.TruncateOutputAt = &at
	}
	if err := f.err(); err != nil {
		return VerbosityAssessment{}, err
	}
	return a, nil
}

type halfLifeEnvelope struct {
	HalfLife *struct {
		EstimatedStability            *StabilityState `json:"estimatedStability"`
		CurrentStabilityScore         *wireInt        `json:"currentStabilityScore"`
		EstimatedHalfLifeMinutes      *wireInt        `json:"estimatedHalfLifeMinutes"`
		EstimatedRemainingLifeMinutes *wireInt        `json:"estimatedRemainingLifeMinutes"`
		Recommendations               *struct {
			ShouldSaveCheckpoint        *bool    `json:"shouldSaveCheckpoint"`
			ShouldCompress              *bool    `json:"shouldCompress"`
			ShouldTerminate             *bool    `json:"shouldTerminate"`
			EstimatedTimeBeforeCritical *wireInt `json:"estimatedTimeBeforeCritical"`
		} `json:"recommendations"`
	} `json:"halfLife"`
}

func (e *halfLifeEnvelope) assessment() (HalfLifeAssessment, error) {
	h := e.HalfLife
	if h == nil {
		return HalfLifeAssessment{}, fmt.Errorf("%w: halfLife", ErrMissingField)
	}
	if h.Recommendations == nil {
		return HalfLifeAssessment{}, fmt.Errorf("%w: halfLife.recommendations", ErrMissingField)
	}
	var f fields
	r := h.Recommendations
	a := HalfLifeAssessment{
		Stability:                  need(&f, "estimatedStability", h.EstimatedStability),
		StabilityScore:             needInt(&f, "currentStabilityScore", h.CurrentStabilityScore),
		HalfLifeMinutes:            needInt(&f, "estimatedHalfLifeMinutes", h.EstimatedHalfLifeMinutes),
		RemainingUsefulLifeMinutes: needInt(&f, "estimatedRemainingLifeMinutes", h.EstimatedRemainingLifeMinutes),
		ShouldCheckpoint:           need(&f, "recommendations.shouldSaveCheckpoint", r.ShouldSaveCheckpoint),
		ShouldCompress:             need(&f, "recommendations.shouldCompress", r.ShouldCompress),
		ShouldTerminate:            need(&f, "recommendations.shouldTerminate", r.ShouldTerminate),
		MinutesToCritical:          needInt(&f, "recommendations.estimatedTimeBeforeCritical", r.EstimatedTimeBeforeCritical),
	}
	if err := f.err(); err != nil {
		return HalfLifeAssessment{}, err
	}
	return a, nil
}
