package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexcarney460-hue/skynet/pkg/skynet"
)

func TestNewTracker_Defaults(t *testing.T) {
	tr := NewTracker(Config{})
	assert.Equal(t, DefaultHistorySize, tr.cfg.HistorySize)
	assert.Equal(t, DefaultOutputWindow, tr.cfg.OutputWindow)
	assert.Equal(t, skynet.DefaultSystemMode, tr.cfg.SystemMode)
}

func TestTracker_Observe_BuildsInputs(t *testing.T) {
	tr := NewTracker(Config{})

	in, err := tr.Observe(Sample{
		MemoryUsedPercent:      72,
		TokenBurnRatePerMin:    48.5,
		ContextDriftPercent:    12,
		SessionAgeSeconds:      1830,
		TokenBudgetTotal:       50000,
		TokenBudgetUsed:        21000,
		ContextWindowUsedBytes: 90000,
		OutputLengths:          []int{140, 160},
		Errors:                 2,
		SystemMode:             "staging",
	})
	require.NoError(t, err)

	assert.Equal(t, skynet.PressureInput{
		MemoryUsedPercent:      72,
		TokenBurnRatePerMin:    48.5,
		ContextDriftPercent:    12,
		SessionAgeSeconds:      1830,
		TokenBudgetTotal:       50000,
		TokenBudgetUsed:        21000,
		ContextWindowMaxBytes:  skynet.DefaultContextWindowMaxBytes,
		ContextWindowUsedBytes: 90000,
		SystemMode:             "staging",
	}, in.Pressure)

	assert.Equal(t, []int{140, 160}, in.Verbosity.RecentOutputLengths)
	assert.Equal(t, skynet.DefaultBaselineOutputLength, in.Verbosity.BaselineOutputLength)
	assert.Equal(t, 50000, in.Verbosity.TokenBudgetTotal)
	assert.Equal(t, 21000, in.Verbosity.TokenBudgetUsed)

	assert.Equal(t, 30, in.HalfLife.SessionAgeMinutes)
	assert.Equal(t, []int{72}, in.HalfLife.MemoryPressureHistory)
	assert.Equal(t, []int{12}, in.HalfLife.ContextDriftHistory)
	assert.Equal(t, []float64{48.5}, in.HalfLife.TokenBurnRateHistory)
	assert.Equal(t, 2, in.HalfLife.ErrorCountThisSession)
	assert.Equal(t, "staging", in.HalfLife.SystemMode)
}

func TestTracker_HistoriesBoundedOldestFirst(t *testing.T) {
	tr := NewTracker(Config{HistorySize: 3, OutputWindow: 4})

	var in Inputs
	var err error
	for i := 1; i <= 5; i++ {
		in, err = tr.Observe(Sample{
			MemoryUsedPercent:   i * 10,
			ContextDriftPercent: i,
			TokenBurnRatePerMin: float64(i),
			OutputLengths:       []int{i, i * 100},
			Errors:              1,
		})
		require.NoError(t, err)
	}

	assert.Equal(t, []int{30, 40, 50}, in.HalfLife.MemoryPressureHistory)
	assert.Equal(t, []int{3, 4, 5}, in.HalfLife.ContextDriftHistory)
	assert.Equal(t, []float64{3, 4, 5}, in.HalfLife.TokenBurnRateHistory)
	assert.Equal(t, []int{4, 400, 5, 500}, in.Verbosity.RecentOutputLengths)
	assert.Equal(t, 5, in.HalfLife.ErrorCountThisSession)
	assert.Equal(t, 5, tr.Samples())
}

func TestTracker_InputsDoNotAlias(t *testing.T) {
	tr := NewTracker(Config{HistorySize: 2})
	first, err := tr.Observe(Sample{MemoryUsedPercent: 1})
	require.NoError(t, err)
	_, err = tr.Observe(Sample{MemoryUsedPercent: 2})
	require.NoError(t, err)
	_, err = tr.Observe(Sample{MemoryUsedPercent: 3})
	require.NoError(t, err)

	assert.Equal(t, []int{1}, first.HalfLife.MemoryPressureHistory)
	assert.Equal(t, []int{2, 3}, tr.Status().MemoryPressureHistory)
}

func TestTracker_Observe_Invalid(t *testing.T) {
	tr := NewTracker(Config{})
	_, err := tr.Observe(Sample{SessionAgeSeconds: -1})
	assert.Error(t, err)
	_, err = tr.Observe(Sample{Errors: -3})
	assert.Error(t, err)
	assert.Zero(t, tr.Samples())
}

func TestTracker_Record_Transitions(t *testing.T) {
	tr := NewTracker(Config{})
	report := func(level skynet.PressureLevel, fallbacks ...string) Report {
		return Report{Pressure: skynet.PressureAssessment{Level: level}, Fallbacks: fallbacks}
	}

	tests := []struct {
		name    string
		report  Report
		want    Transition
		changed bool
	}{
		{"first level", report(skynet.PressureLow), Transition{From: "", To: skynet.PressureLow}, true},
		{"same level", report(skynet.PressureLow), Transition{}, false},
		{"rise", report(skynet.PressureHigh), Transition{From: skynet.PressureLow, To: skynet.PressureHigh}, true},
		{"fallback ignored", report(skynet.PressureModerate, skynet.OpPressure), Transition{}, false},
		{"other fallback counts", report(skynet.PressureCritical, skynet.OpVerbosity), Transition{From: skynet.PressureHigh, To: skynet.PressureCritical}, true},
	}
	for _, tt := range tests {
		got, changed := tr.Record(tt.report)
		assert.Equal(t, tt.changed, changed, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
	assert.Equal(t, skynet.PressureCritical, tr.Status().Level)
}

func TestTracker_Status(t *testing.T) {
	tr := NewTracker(Config{})
	st := tr.Status()
	assert.Nil(t, st.Last)
	assert.NotNil(t, st.MemoryPressureHistory)

	_, err := tr.Observe(Sample{MemoryUsedPercent: 55, Errors: 1})
	require.NoError(t, err)
	at := 180
	tr.Record(Report{Sequence: 1, Verbosity: skynet.VerbosityAssessment{TruncateOutputAt: &at}})
	at = 999

	st = tr.Status()
	assert.Equal(t, 1, st.Samples)
	assert.Equal(t, 1, st.ErrorCount)
	assert.Equal(t, []int{55}, st.MemoryPressureHistory)
	require.NotNil(t, st.Last)
	assert.Equal(t, 1, st.Last.Sequence)
	assert.Equal(t, 180, *st.Last.Verbosity.TruncateOutputAt)

	st.MemoryPressureHistory[0] = 0
	assert.Equal(t, []int{55}, tr.Status().MemoryPressureHistory)
}

func TestReport_FellBack(t *testing.T) {
	r := Report{Fallbacks: []string{skynet.OpHalfLife}}
	assert.True(t, r.FellBack(skynet.OpHalfLife))
	assert.False(t, r.FellBack(skynet.OpPressure))
}
