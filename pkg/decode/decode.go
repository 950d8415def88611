package decode

import (
	"fmt"
	"log/slog"

	"github.com/Masterminds/semver/v3"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/api"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
)

// defaultSupported accepts every 1.x envelope version.
var defaultSupported = semver.MustParse("2.0.0")

// Decoder carries the logging collaborator and the envelope version gate.
// The zero value and nil are usable and log through slog.Default.
type Decoder struct {
	log *slog.Logger

	// maxVersion is the first envelope version the client does not
	// understand. Newer metadata only produces a warning; decoding is
	// attempted regardless so a version bump never bricks the dashboard.
	maxVersion *semver.Version
}

// New builds a Decoder logging through log.
func New(log *slog.Logger) *Decoder {
	return &Decoder{log: log}
}

// WithMaxVersion replaces the envelope version ceiling.
func (d *Decoder) WithMaxVersion(v *semver.Version) *Decoder {
	d.maxVersion = v
	return d
}

func (d *Decoder) logger() *slog.Logger {
	if d == nil || d.log == nil {
		return slog.Default()
	}
	return d.log
}

func (d *Decoder) ceiling() *semver.Version {
	if d == nil || d.maxVersion == nil {
		return defaultSupported
	}
	return d.maxVersion
}

// checkVersion warns when the envelope metadata announces a version at or
// beyond the ceiling, or one that does not parse at all.
func (d *Decoder) checkVersion(method string, meta api.ResponseMetadata) {
	v, err := semver.NewVersion(meta.Version)
	if err != nil {
		d.logger().Warn("unparseable envelope version",
			"method", method,
			"version", meta.Version)
		return
	}
	if !v.LessThan(d.ceiling()) {
		d.logger().Warn("envelope version newer than client supports",
			"method", method,
			"version", meta.Version,
			"supported_below", d.ceiling().String())
	}
}

// envelopeError applies the error-wins rule: a present error arm shadows any
// data that arrived alongside it.
func envelopeError[T any](d *Decoder, method string, env api.Response[T]) (*Failure, bool) {
	wireErr, present := candid.Unwrap(env.Error)
	if !present {
		return nil, false
	}
	if env.Data.IsSome() {
		d.logger().Warn("envelope carried both data and error, error wins",
			"method", method,
			"kind", wireErr.Kind.String())
	}
	f := failureFromWire(method, wireErr, env.Metadata)
	d.logger().Debug("operation failed",
		"method", method,
		"kind", f.Kind.String(),
		"request_id", f.RequestID)
	return f, true
}

// Value decodes an envelope whose payload is required. The transform maps
// the raw record onto its view model; a transform error is reported as
// malformed data.
func Value[T, V any](d *Decoder, method string, env api.Response[T], transform func(T) (V, error)) (V, error) {
	var zero V
	d.checkVersion(method, env.Metadata)

	if f, failed := envelopeError(d, method, env); failed {
		return zero, f
	}

	raw, present := candid.Unwrap(env.Data)
	if !present {
		return zero, emptyResult(method, env.Metadata)
	}

	v, err := transform(raw)
	if err != nil {
		return zero, NewMalformedFailure(method, candid.UnwrapOr(env.Metadata.RequestID, ""), err)
	}
	return v, nil
}

// Optional decodes an envelope whose payload may legitimately be absent.
// Absence returns (nil, nil), never an empty-result failure.
func Optional[T, V any](d *Decoder, method string, env api.Response[T], transform func(T) (V, error)) (*V, error) {
	d.checkVersion(method, env.Metadata)

	if f, failed := envelopeError(d, method, env); failed {
		return nil, f
	}

	raw, present := candid.Unwrap(env.Data)
	if !present {
		return nil, nil
	}

	v, err := transform(raw)
	if err != nil {
		return nil, NewMalformedFailure(method, candid.UnwrapOr(env.Metadata.RequestID, ""), err)
	}
	return &v, nil
}

// Collection decodes an envelope whose payload is a sequence, applying each
// to every element. A missing payload decodes as an empty, non-nil slice so
// callers can range without a nil check.
func Collection[T, V any](d *Decoder, method string, env api.Response[[]T], each func(T) (V, error)) ([]V, error) {
	d.checkVersion(method, env.Metadata)

	if f, failed := envelopeError(d, method, env); failed {
		return nil, f
	}

	raw, present := candid.Unwrap(env.Data)
	if !present {
		return []V{}, nil
	}

	out := make([]V, 0, len(raw))
	for i, item := range raw {
		v, err := each(item)
		if err != nil {
			return nil, NewMalformedFailure(method, candid.UnwrapOr(env.Metadata.RequestID, ""),
				fmt.Errorf("element %d: %w", i, err))
		}
		out = append(out, v)
	}
	return out, nil
}

// Empty decodes an envelope where only the failure channel matters. Present
// data is ignored.
func Empty[T any](d *Decoder, method string, env api.Response[T]) error {
	d.checkVersion(method, env.Metadata)
	if f, failed := envelopeError(d, method, env); failed {
		return f
	}
	return nil
}

// BareVariant is the accessor pair shared by the legacy result types.
type BareVariant[V any] interface {
	Value() (V, bool)
	Err() (api.GenericError, bool)
}

// Bare decodes a legacy single-tag result. The "none" arm returns (nil, nil)
// to match the optional semantics of the lookups that still use this shape;
// the error arm carries only a message, which is surfaced as an internal
// error since the legacy payload has no kind.
func Bare[V, W any](d *Decoder, method string, result BareVariant[V], transform func(V) (W, error)) (*W, error) {
	if legacyErr, failed := result.Err(); failed {
		msg := legacyErr.Message
		if msg == "" {
			msg = genericMessage
		}
		d.logger().Debug("legacy operation failed", "method", method)
		return nil, &Failure{
			Kind:    api.KindInternalError,
			Message: msg,
			Method:  method,
			Details: legacyErr.Details,
		}
	}

	raw, present := result.Value()
	if !present {
		return nil, nil
	}

	v, err := transform(raw)
	if err != nil {
		return nil, NewMalformedFailure(method, "", err)
	}
	return &v, nil
}

// BareCollection decodes the operations that still return a naked sequence
// with no envelope at all. nil decodes as an empty, non-nil slice.
func BareCollection[T, V any](d *Decoder, method string, items []T, each func(T) (V, error)) ([]V, error) {
	out := make([]V, 0, len(items))
	for i, item := range items {
		v, err := each(item)
		if err != nil {
			return nil, NewMalformedFailure(method, "", fmt.Errorf("element %d: %w", i, err))
		}
		out = append(out, v)
	}
	return out, nil
}

// KindedVariant is the accessor pair of the pre-envelope results whose error
// arm already carries the kinded taxonomy (the serial-number operations).
type KindedVariant[V any] interface {
	Value() (V, bool)
	Err() (api.Error, bool)
}

// Kinded decodes a single-tag result with a kinded error arm. These shapes
// have no "none" arm, so a payload carrying neither arm is malformed.
func Kinded[V, W any](d *Decoder, method string, result KindedVariant[V], transform func(V) (W, error)) (W, error) {
	var zero W

	if kerr, failed := result.Err(); failed {
		msg := kerr.Message
		if msg == "" {
			msg = genericMessage
		}
		d.logger().Debug("operation failed", "method", method, "kind", kerr.Kind.String())
		return zero, &Failure{
			Kind:    kerr.Kind,
			Message: msg,
			Method:  method,
			Details: kerr.Details,
		}
	}

	raw, present := result.Value()
	if !present {
		return zero, NewMalformedFailure(method, "", fmt.Errorf("result carries neither arm"))
	}

	v, err := transform(raw)
	if err != nil {
		return zero, NewMalformedFailure(method, "", err)
	}
	return v, nil
}
