// Package logging wraps zap for skynet.
//
// Loggers carry a custom Trace level below Debug, write to stderr and
// optionally to an OpenTelemetry log provider, mask secrets at the encoder,
// and sample repeated entries below Error.
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRequestID(ctx, id)
//	logger.Info(ctx, "assessment complete", zap.String("operation", "pressure"))
//
// Every context-aware method appends trace_id and span_id from the active
// span, plus session.id and request.id when present.
//
// Tests use NewTestLogger and its Assert helpers:
//
//	tl := logging.NewTestLogger()
//	client := skynet.New(skynet.WithLogger(tl.Underlying()))
//	tl.AssertLogged(t, zapcore.InfoLevel, "using fallback")
package logging
