package session

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alexcarney460-hue/skynet/internal/logging"
	"github.com/alexcarney460-hue/skynet/pkg/skynet"
)

const maxLineBytes = 1 << 20

// Assessor is the subset of *skynet.Client the watch loop needs.
type Assessor interface {
	EvaluatePressureOutcome(ctx context.Context, in skynet.PressureInput) skynet.Outcome[skynet.PressureAssessment]
	AssessVerbosityOutcome(ctx context.Context, in skynet.VerbosityInput) skynet.Outcome[skynet.VerbosityAssessment]
	EstimateHalfLifeOutcome(ctx context.Context, in skynet.HalfLifeInput) skynet.Outcome[skynet.HalfLifeAssessment]
}

// Watcher assesses a stream of samples, one JSON object per line.
type Watcher struct {
	client  Assessor
	tracker *Tracker
	logger  *logging.Logger
	now     func() time.Time

	// OnReport, if set, is called after each report is recorded.
	OnReport func(Report)
}

// NewWatcher returns a Watcher feeding tracker. A nil logger discards output.
func NewWatcher(client Assessor, tracker *Tracker, logger *logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Watcher{
		client:  client,
		tracker: tracker,
		logger:  logger,
		now:     time.Now,
	}
}

// Step assesses one sample and records the result.
func (w *Watcher) Step(ctx context.Context, s Sample) (Report, error) {
	in, err := w.tracker.Observe(s)
	if err != nil {
		return Report{}, err
	}

	p := w.client.EvaluatePressureOutcome(ctx, in.Pressure)
	v := w.client.AssessVerbosityOutcome(ctx, in.Verbosity)
	h := w.client.EstimateHalfLifeOutcome(ctx, in.HalfLife)

	r := Report{
		Sequence:  w.tracker.Samples(),
		Time:      w.now().UTC(),
		Pressure:  p.Value,
		Verbosity: v.Value,
		HalfLife:  h.Value,
	}
	if p.Fallback {
		r.Fallbacks = append(r.Fallbacks, skynet.OpPressure)
	}
	if v.Fallback {
		r.Fallbacks = append(r.Fallbacks, skynet.OpVerbosity)
	}
	if h.Fallback {
		r.Fallbacks = append(r.Fallbacks, skynet.OpHalfLife)
	}

	if tr, changed := w.tracker.Record(r); changed {
		w.logger.Info(ctx, "pressure level changed",
			zap.String("from", string(tr.From)),
			zap.String("to", string(tr.To)),
			zap.Int("sequence", r.Sequence),
		)
	}
	if w.OnReport != nil {
		w.OnReport(r)
	}
	return r, nil
}

// Run reads samples from r until EOF or ctx is done and writes one JSON
// report per sample to out. Malformed lines are logged and skipped.
func (w *Watcher) Run(ctx context.Context, r io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	enc := json.NewEncoder(out)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var s Sample
		dec := json.NewDecoder(strings.NewReader(text))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			w.logger.Warn(ctx, "skipping malformed sample", zap.Int("line", line), zap.Error(err))
			continue
		}

		report, err := w.Step(ctx, s)
		if err != nil {
			w.logger.Warn(ctx, "skipping invalid sample", zap.Int("line", line), zap.Error(err))
			continue
		}
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("read samples: %w", err)
	}
	return nil
}
