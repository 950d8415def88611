// Dashboard-specific instrumentation helpers.
package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TrueOrigin semantic convention attributes.
var (
	// Canister call attributes
	AttrCallMethod = attribute.Key("trueorigin.call.method")
	AttrCallKind   = attribute.Key("trueorigin.call.kind")
	AttrRequestID  = attribute.Key("trueorigin.call.request_id")

	// Cache attributes
	AttrCacheKey     = attribute.Key("trueorigin.cache.key")
	AttrCacheOutcome = attribute.Key("trueorigin.cache.outcome")

	// Mutation attributes
	AttrMutationName     = attribute.Key("trueorigin.mutation.name")
	AttrMutationReplayed = attribute.Key("trueorigin.mutation.replayed")

	// Session attributes
	AttrPrincipal = attribute.Key("trueorigin.session.principal")
	AttrUserRole  = attribute.Key("trueorigin.session.role")

	// Verification attributes
	AttrProductID    = attribute.Key("trueorigin.verify.product_id")
	AttrVerifyResult = attribute.Key("trueorigin.verify.result")
)

// CallOperation creates attributes for a canister call.
func CallOperation(method, kind, requestID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrCallMethod.String(method),
		AttrCallKind.String(kind),
		AttrRequestID.String(requestID),
	}
}

// CacheOperation creates attributes for a cache access. outcome is one of
// "hit", "miss", "stale", or "shared".
func CacheOperation(key, outcome string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrCacheKey.String(key),
		AttrCacheOutcome.String(outcome),
	}
}

// MutationOperation creates attributes for a mutation execution.
func MutationOperation(name string, replayed bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrMutationName.String(name),
		AttrMutationReplayed.Bool(replayed),
	}
}

// SessionOperation creates attributes for a session boundary.
func SessionOperation(principal, role string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrPrincipal.String(principal),
		AttrUserRole.String(role),
	}
}

// VerifyOperation creates attributes for a product verification.
func VerifyOperation(productID, result string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrProductID.String(productID),
		AttrVerifyResult.String(result),
	}
}

// SpanFromContext extracts the span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddSpanEvent adds an event to the current span.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetSpanStatus records err on the current span when non-nil.
func SetSpanStatus(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
	}
}
