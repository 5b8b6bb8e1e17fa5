package skynet

// Input defaults applied by the New*Input constructors.
const (
	DefaultTokenBudgetTotal      = 100000
	DefaultContextWindowMaxBytes = 200000
	DefaultBaselineOutputLength  = 150
	DefaultSystemMode            = "production"
)

// PressureInput is the caller's telemetry for a pressure evaluation.
// Values are sent as given; nothing is clamped.
type PressureInput struct {
	MemoryUsedPercent      int
	TokenBurnRatePerMin    float64
	ContextDriftPercent    int
	SessionAgeSeconds      int
	TokenBudgetTotal       int
	TokenBudgetUsed        int
	ContextWindowMaxBytes  int
	ContextWindowUsedBytes int
	// SystemMode is an opaque tag passed through unchanged.
	SystemMode string
}

// NewPressureInput returns a PressureInput with the optional budget and
// window fields at their defaults.
func NewPressureInput(memoryUsedPercent int, tokenBurnRatePerMin float64, contextDriftPercent, sessionAgeSeconds int) PressureInput {
	return PressureInput{
		MemoryUsedPercent:      memoryUsedPercent,
		TokenBurnRatePerMin:    tokenBurnRatePerMin,
		ContextDriftPercent:    contextDriftPercent,
		SessionAgeSeconds:      sessionAgeSeconds,
		TokenBudgetTotal:       DefaultTokenBudgetTotal,
		TokenBudgetUsed:        0,
		ContextWindowMaxBytes:  DefaultContextWindowMaxBytes,
		ContextWindowUsedBytes: 0,
		SystemMode:             DefaultSystemMode,
	}
}

// VerbosityInput is the caller's output-length telemetry.
type VerbosityInput struct {
	// RecentOutputLengths are token counts of recent outputs.
	RecentOutputLengths  []int
	BaselineOutputLength int
	TokenBudgetTotal     int
	TokenBudgetUsed      int
	SystemMode           string
}

// NewVerbosityInput returns a VerbosityInput with defaults for everything but
// the recent lengths. The slice is copied.
func NewVerbosityInput(recentOutputLengths []int) VerbosityInput {
	return VerbosityInput{
		RecentOutputLengths:  append([]int(nil), recentOutputLengths...),
		BaselineOutputLength: DefaultBaselineOutputLength,
		TokenBudgetTotal:     DefaultTokenBudgetTotal,
		TokenBudgetUsed:      0,
		SystemMode:           DefaultSystemMode,
	}
}

// HalfLifeInput is the caller's session history. Histories are oldest-first.
type HalfLifeInput struct {
	SessionAgeMinutes     int
	MemoryPressureHistory []int
	ContextDriftHistory   []int
	TokenBurnRateHistory  []float64
	ErrorCountThisSession int
	SystemMode            string
}

// NewHalfLifeInput returns a HalfLifeInput with a zero error count and the
// default system mode. The history slices are copied.
func NewHalfLifeInput(sessionAgeMinutes int, memoryPressureHistory, contextDriftHistory []int, tokenBurnRateHistory []float64) HalfLifeInput {
	return HalfLifeInput{
		SessionAgeMinutes:     sessionAgeMinutes,
		MemoryPressureHistory: append([]int(nil), memoryPressureHistory...),
		ContextDriftHistory:   append([]int(nil), contextDriftHistory...),
		TokenBurnRateHistory:  append([]float64(nil), tokenBurnRateHistory...),
		ErrorCountThisSession: 0,
		SystemMode:            DefaultSystemMode,
	}
}
