package server

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel/attribute"

	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/telemetry"
)

// NewTelemetryInterceptor opens a span per RPC and records call metrics.
// Install it first so the span covers authentication and authorization.
func NewTelemetryInterceptor(metrics *telemetry.RPCMetrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure
			ctx, span := telemetry.StartSpan(ctx, telemetry.TracerServer, procedure,
				attribute.String(telemetry.AttrProcedure, procedure),
			)
			defer span.End()

			start := time.Now()
			resp, err := next(ctx, req)

			code := ""
			if err != nil {
				code = connect.CodeOf(err).String()
				span.SetAttributes(attribute.String(telemetry.AttrRPCCode, code))
				telemetry.RecordError(span, err)
			}
			if metrics != nil {
				metrics.RecordCall(ctx, procedure, code, float64(time.Since(start).Microseconds())/1000)
			}
			return resp, err
		}
	}
}
