package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RPCMetrics holds instruments for Connect RPC calls.
type RPCMetrics struct {
	Calls    metric.Int64Counter
	Duration metric.Float64Histogram
	Errors   metric.Int64Counter
}

// NewRPCMetrics creates the RPC instruments on mp, or on the global meter
// provider when mp is nil.
func NewRPCMetrics(mp metric.MeterProvider) (*RPCMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter("agencyapi/rpc")

	calls, err := meter.Int64Counter(
		"rpc.server.call.count",
		metric.WithDescription("Total number of RPC calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"rpc.server.duration",
		metric.WithDescription("RPC handling duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter(
		"rpc.server.error.count",
		metric.WithDescription("Total number of RPC calls that returned an error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &RPCMetrics{Calls: calls, Duration: duration, Errors: errs}, nil
}

// RecordCall records one finished call. code is empty on success.
func (m *RPCMetrics) RecordCall(ctx context.Context, procedure, code string, durationMs float64) {
	status := code
	if status == "" {
		status = "ok"
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrProcedure, procedure),
		attribute.String(AttrRPCCode, status),
	)
	m.Calls.Add(ctx, 1, attrs)
	m.Duration.Record(ctx, durationMs, attrs)
	if code != "" {
		m.Errors.Add(ctx, 1, attrs)
	}
}

// LoginMetrics counts password login outcomes.
type LoginMetrics struct {
	Attempts  metric.Int64Counter
	Failures  metric.Int64Counter
	Throttled metric.Int64Counter
}

// NewLoginMetrics creates the login instruments on mp, or on the global
// meter provider when mp is nil.
func NewLoginMetrics(mp metric.MeterProvider) (*LoginMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter("agencyapi/auth")

	attempts, err := meter.Int64Counter("auth.login.attempt.count",
		metric.WithDescription("Total number of password login attempts"),
		metric.WithUnit("{attempt}"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("auth.login.failure.count",
		metric.WithDescription("Total number of rejected password logins"),
		metric.WithUnit("{failure}"))
	if err != nil {
		return nil, err
	}
	throttled, err := meter.Int64Counter("auth.login.throttled.count",
		metric.WithDescription("Login attempts refused by the rate limiter"),
		metric.WithUnit("{attempt}"))
	if err != nil {
		return nil, err
	}
	return &LoginMetrics{Attempts: attempts, Failures: failures, Throttled: throttled}, nil
}
