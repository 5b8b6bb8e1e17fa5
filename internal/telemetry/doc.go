// Package telemetry wires OpenTelemetry tracing and metrics for skynet.
//
// New builds OTLP exporters (gRPC by default, HTTP/protobuf on request),
// installs the providers globally and sets W3C trace-context propagation.
// Exporter setup failures leave the instance degraded rather than failing
// the command.
//
//	tel, err := telemetry.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//	client := skynet.New(skynet.WithTracerProvider(tel.TracerProvider()))
//
// Configuration lives under the "telemetry" key:
//
//	telemetry:
//	  enabled: true
//	  endpoint: localhost:4317
//	  protocol: grpc
//	  sample_rate: 1.0
//	  export_interval: 15s
//
// Tests use NewTestTelemetry, which records spans in memory.
package telemetry
