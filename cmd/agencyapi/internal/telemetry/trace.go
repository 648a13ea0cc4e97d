package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan starts a span on the named tracer of the global provider.
//
//	ctx, span := telemetry.StartSpan(ctx, TracerAgency, "agency.SubmitInquiry")
//	defer span.End()
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// RecordError marks span as failed when err is non-nil.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// AddEvent adds a named event to the span.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

const (
	TracerAgency = "agencyapi/services/agency"
	TracerServer = "agencyapi/server"
)

// Attribute keys shared by spans and metrics.
const (
	AttrPrincipalID  = "principal.id"
	AttrRole         = "principal.role"
	AttrInquiryID    = "inquiry.id"
	AttrProfileOwner = "profile.owner"

	AttrProcedure = "rpc.procedure"
	AttrRPCCode   = "rpc.code"

	AttrPolicyObject  = "policy.object"
	AttrPolicyAction  = "policy.action"
	AttrPolicyAllowed = "policy.allowed"
)
