package skynet

// PressureAssessment is the result of a pressure evaluation.
type PressureAssessment struct {
	Level            PressureLevel `json:"level"`
	SessionViability int           `json:"session_viability"` // 0-100
	MemoryPressure   int           `json:"memory_pressure"`   // 0-100
	TokenBurnRate    float64       `json:"token_burn_rate"`   // tokens per minute
	ContextDrift     int           `json:"context_drift"`     // 0-100

	ShouldCompress  bool `json:"should_compress"`
	ShouldOptimize  bool `json:"should_optimize"`
	ShouldTerminate bool `json:"should_terminate"`
}

// VerbosityAssessment is the result of an output verbosity assessment.
type VerbosityAssessment struct {
	State VerbosityState `json:"state"`
	// TokenImpact is an open label (LOW, MODERATE, HIGH seen so far).
	TokenImpact          string `json:"token_impact"`
	AvgOutputLength      int    `json:"avg_output_length"`
	BaselineOutputLength int    `json:"baseline_output_length"`
	DriftPercentage      int    `json:"drift_percentage"`

	// TruncateOutputAt is nil when the service recommends no truncation.
	TruncateOutputAt   *int `json:"truncate_output_at,omitempty"`
	ReduceDetailLevel  bool `json:"reduce_detail_level"`
	SkipMetaCommentary bool `json:"skip_meta_commentary"`
}

// TruncateAt returns the recommended truncation point and whether one was given.
func (v VerbosityAssessment) TruncateAt() (int, bool) {
	if v.TruncateOutputAt == nil {
		return 0, false
	}
	return *v.TruncateOutputAt, true
}

// HalfLifeAssessment is the result of a session half-life estimate.
type HalfLifeAssessment struct {
	Stability                  StabilityState `json:"stability"`
	StabilityScore             int            `json:"stability_score"` // 0-100
	HalfLifeMinutes            int            `json:"half_life_minutes"`
	RemainingUsefulLifeMinutes int            `json:"remaining_useful_life_minutes"`

	ShouldCheckpoint bool `json:"should_checkpoint"`
	ShouldCompress   bool `json:"should_compress"`
	ShouldTerminate  bool `json:"should_terminate"`
	// MinutesToCritical is unspecified when ShouldTerminate is already set.
	MinutesToCritical int `json:"minutes_to_critical"`
}

// FallbackPressure is returned when pressure cannot be assessed:
// keep going, but watch closely.
func FallbackPressure() PressureAssessment {
	return PressureAssessment{
		Level:            PressureModerate,
		SessionViability: 50,
		MemoryPressure:   50,
		TokenBurnRate:    35,
		ContextDrift:     25,
		ShouldCompress:   false,
		ShouldOptimize:   true,
		ShouldTerminate:  false,
	}
}

// FallbackVerbosity is returned when verbosity cannot be assessed:
// assume no corrective action is needed.
func FallbackVerbosity() VerbosityAssessment {
	return VerbosityAssessment{
		State:                VerbosityOptimal,
		TokenImpact:          "LOW",
		AvgOutputLength:      150,
		BaselineOutputLength: 150,
		DriftPercentage:      0,
	}
}

// FallbackHalfLife is returned when stability cannot be assessed: assume healthy.
func FallbackHalfLife() HalfLifeAssessment {
	return HalfLifeAssessment{
		Stability:                  StabilityStable,
		StabilityScore:             85,
		HalfLifeMinutes:            120,
		RemainingUsefulLifeMinutes: 240,
		ShouldCheckpoint:           false,
		ShouldCompress:             false,
		ShouldTerminate:            false,
		MinutesToCritical:          180,
	}
}
