package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexcarney460-hue/skynet/internal/monitor"
	"github.com/alexcarney460-hue/skynet/pkg/skynet"
)

// pressureFlags are the inputs of the pressure command. Defaults describe a
// typical production session.
var pressureFlags struct {
	memory      int
	burnRate    float64
	drift       int
	age         int
	budgetTotal int
	budgetUsed  int
	windowMax   int
	windowUsed  int
	mode        string
}

var verbosityFlags struct {
	lengths     []int
	baseline    int
	budgetTotal int
	budgetUsed  int
	mode        string
}

var halfLifeFlags struct {
	ageMinutes    int
	memoryHistory []int
	driftHistory  []int
	burnHistory   []float64
	errors        int
	mode          string
}

func init() {
	rootCmd.AddCommand(pressureCmd)
	rootCmd.AddCommand(verbosityCmd)
	rootCmd.AddCommand(halfLifeCmd)

	pf := pressureCmd.Flags()
	pf.IntVar(&pressureFlags.memory, "memory", 55, "memory used (%)")
	pf.Float64Var(&pressureFlags.burnRate, "burn-rate", 38, "token burn rate (tokens/min)")
	pf.IntVar(&pressureFlags.drift, "drift", 25, "context drift (%)")
	pf.IntVar(&pressureFlags.age, "age", 900, "session age (seconds)")
	pf.IntVar(&pressureFlags.budgetTotal, "budget-total", skynet.DefaultTokenBudgetTotal, "token budget total")
	pf.IntVar(&pressureFlags.budgetUsed, "budget-used", 42500, "token budget used")
	pf.IntVar(&pressureFlags.windowMax, "window-max", skynet.DefaultContextWindowMaxBytes, "context window size (bytes)")
	pf.IntVar(&pressureFlags.windowUsed, "window-used", 110000, "context window used (bytes)")
	pf.StringVar(&pressureFlags.mode, "mode", "", "system mode (default from config)")

	vf := verbosityCmd.Flags()
	vf.IntSliceVar(&verbosityFlags.lengths, "lengths", []int{155, 168, 175, 182, 190}, "recent output lengths (tokens), oldest first")
	vf.IntVar(&verbosityFlags.baseline, "baseline", skynet.DefaultBaselineOutputLength, "expected tokens per output")
	vf.IntVar(&verbosityFlags.budgetTotal, "budget-total", skynet.DefaultTokenBudgetTotal, "token budget total")
	vf.IntVar(&verbosityFlags.budgetUsed, "budget-used", 50000, "token budget used")
	vf.StringVar(&verbosityFlags.mode, "mode", "", "system mode (default from config)")

	hf := halfLifeCmd.Flags()
	hf.IntVar(&halfLifeFlags.ageMinutes, "age", 30, "session age (minutes)")
	hf.IntSliceVar(&halfLifeFlags.memoryHistory, "memory-history", []int{40, 42, 44, 46, 48}, "memory pressure history (%), oldest first")
	hf.IntSliceVar(&halfLifeFlags.driftHistory, "drift-history", []int{20, 21, 23, 25, 26}, "context drift history (%), oldest first")
	hf.Float64SliceVar(&halfLifeFlags.burnHistory, "burn-history", []float64{30, 32, 34, 35, 36}, "token burn rate history (tokens/min), oldest first")
	hf.IntVar(&halfLifeFlags.errors, "errors", 1, "errors this session")
	hf.StringVar(&halfLifeFlags.mode, "mode", "", "system mode (default from config)")
}

var pressureCmd = &cobra.Command{
	Use:   "pressure",
	Short: "Evaluate cognitive pressure",
	Long: `Evaluate the cognitive pressure of a session from its resource telemetry.

Examples:
  # Evaluate the default scenario
  skynet pressure

  # A session close to its memory limit
  skynet pressure --memory 92 --burn-rate 80 --drift 40 --age 3600

  # Machine-readable output
  skynet pressure -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			in := skynet.NewPressureInput(pressureFlags.memory, pressureFlags.burnRate, pressureFlags.drift, pressureFlags.age)
			in.TokenBudgetTotal = pressureFlags.budgetTotal
			in.TokenBudgetUsed = pressureFlags.budgetUsed
			in.ContextWindowMaxBytes = pressureFlags.windowMax
			in.ContextWindowUsedBytes = pressureFlags.windowUsed
			in.SystemMode = a.systemMode(pressureFlags.mode)

			return printOutcome(cmd, skynet.OpPressure, a.client.EvaluatePressureOutcome(ctx, in), monitor.RenderPressure)
		})
	},
}

var verbosityCmd = &cobra.Command{
	Use:   "verbosity",
	Short: "Assess output verbosity drift",
	Long: `Assess whether recent outputs are drifting longer than the expected baseline.

Examples:
  skynet verbosity
  skynet verbosity --lengths 150,210,260,320 --baseline 150`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			in := skynet.NewVerbosityInput(verbosityFlags.lengths)
			in.BaselineOutputLength = verbosityFlags.baseline
			in.TokenBudgetTotal = verbosityFlags.budgetTotal
			in.TokenBudgetUsed = verbosityFlags.budgetUsed
			in.SystemMode = a.systemMode(verbosityFlags.mode)

			return printOutcome(cmd, skynet.OpVerbosity, a.client.AssessVerbosityOutcome(ctx, in), monitor.RenderVerbosity)
		})
	},
}

var halfLifeCmd = &cobra.Command{
	Use:   "half-life",
	Short: "Estimate session half-life",
	Long: `Estimate how long the session stays useful from its telemetry history.

Examples:
  skynet half-life
  skynet half-life --age 90 --memory-history 50,60,72,85 --errors 4`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			in := skynet.NewHalfLifeInput(halfLifeFlags.ageMinutes, halfLifeFlags.memoryHistory, halfLifeFlags.driftHistory, halfLifeFlags.burnHistory)
			in.ErrorCountThisSession = halfLifeFlags.errors
			in.SystemMode = a.systemMode(halfLifeFlags.mode)

			return printOutcome(cmd, skynet.OpHalfLife, a.client.EstimateHalfLifeOutcome(ctx, in), monitor.RenderHalfLife)
		})
	},
}

// withApp builds the shared dependencies, runs fn and tears them down.
func withApp(cmd *cobra.Command, fn func(context.Context, *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))
	return fn(ctx, a)
}

// assessmentResult is the JSON shape of a single assessment command.
type assessmentResult[T any] struct {
	Operation   string `json:"operation"`
	Fallback    bool   `json:"fallback"`
	FailureKind string `json:"failure_kind,omitempty"`
	Assessment  T      `json:"assessment"`
}

// printOutcome writes o in the selected output format. A fallback is not an
// error; the caller still gets a usable assessment.
func printOutcome[T any](cmd *cobra.Command, op string, o skynet.Outcome[T], render func(T, bool) string) error {
	out := cmd.OutOrStdout()
	if outputFormat == outputJSON {
		res := assessmentResult[T]{
			Operation:  op,
			Fallback:   o.Fallback,
			Assessment: o.Value,
		}
		if o.Err != nil {
			res.FailureKind = string(skynet.KindOf(o.Err))
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err := fmt.Fprintln(out, render(o.Value, o.Fallback))
	return err
}
