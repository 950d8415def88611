package query

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

type effectKind int

const (
	effectSet effectKind = iota
	effectInvalidate
	effectInvalidatePrefix
	effectRemove
	effectClearAll
)

// Effect is one declarative cache consequence of a successful mutation.
type Effect struct {
	kind    effectKind
	key     Key
	payload []byte
	err     error
}

// SetValue writes value under key. The written entry becomes the latest
// authority for the key, superseding any fetch still in flight.
func SetValue(key Key, value any) Effect {
	payload, err := json.Marshal(value)
	if err != nil {
		return Effect{kind: effectSet, key: key, err: fmt.Errorf("encode effect payload for %s: %w", key, err)}
	}
	return Effect{kind: effectSet, key: key, payload: payload}
}

// Invalidate marks key stale so its next read refetches.
func Invalidate(key Key) Effect {
	return Effect{kind: effectInvalidate, key: key}
}

// InvalidatePrefix marks every key starting with prefix stale.
func InvalidatePrefix(prefix Key) Effect {
	return Effect{kind: effectInvalidatePrefix, key: prefix}
}

// Remove drops the entry for key entirely.
func Remove(key Key) Effect {
	return Effect{kind: effectRemove, key: key}
}

// ClearAll drops every entry and supersedes all in-flight fetches.
func ClearAll() Effect {
	return Effect{kind: effectClearAll}
}

// Apply runs effects in order. Malformed effects are rejected up front
// and apply nothing. Each touched key's authority moves before the store
// is updated, so fetches in flight during Apply cannot write back over
// the result.
func (c *Client) Apply(ctx context.Context, effects ...Effect) error {
	for _, eff := range effects {
		if eff.err != nil {
			return eff.err
		}
	}

	c.mu.Lock()
	for _, eff := range effects {
		switch eff.kind {
		case effectSet, effectInvalidate, effectRemove:
			c.stateFor(eff.key).seq++
		case effectInvalidatePrefix:
			for _, st := range c.states {
				if st.key.HasPrefix(eff.key) {
					st.seq++
				}
			}
		case effectClearAll:
			c.generation.Add(1)
		}
	}
	c.mu.Unlock()

	for _, eff := range effects {
		var err error
		switch eff.kind {
		case effectSet:
			err = c.store.Set(ctx, eff.key, Entry{Payload: eff.payload, FetchedAt: c.now()})
		case effectInvalidate:
			err = c.store.Invalidate(ctx, eff.key)
		case effectInvalidatePrefix:
			err = c.store.InvalidatePrefix(ctx, eff.key)
		case effectRemove:
			err = c.store.Delete(ctx, eff.key)
		case effectClearAll:
			err = c.store.Clear(ctx)
		}
		if err != nil {
			return fmt.Errorf("apply cache effect: %w", err)
		}
	}
	return nil
}

// Mutation describes one side-effecting operation and its declarative
// cache consequences.
type Mutation[In any, Out any] struct {
	// Name labels the operation in logs and telemetry.
	Name string
	// Run invokes the remote operation.
	Run func(ctx context.Context, in In) (Out, error)
	// OnSuccess declares the cache effects of a successful outcome.
	// A failed Run applies none of them.
	OnSuccess func(in In, out Out) []Effect
	// Idempotent records the outcome so that re-executing the same input
	// within the idempotency window replays it instead of calling again.
	Idempotent bool
}

// Exec runs m with in, applying its effects on success. A failure leaves
// the cache untouched and propagates unchanged. Idempotent replay skips
// both the remote call and the effects; the first execution already
// applied them.
func Exec[In, Out any](ctx context.Context, c *Client, m Mutation[In, Out], in In) (Out, error) {
	var zero Out
	ctx, finish := c.trackOp(ctx, "mutation "+m.Name)

	var idemKey string
	if m.Idempotent && c.idem != nil {
		idemKey = idempotencyKey(m.Name, in)
		payload, seen, err := c.idem.Check(ctx, idemKey)
		if err != nil {
			c.log.Warn("idempotency check failed", "mutation", m.Name, "error", err)
		} else if seen {
			var out Out
			if uerr := json.Unmarshal(payload, &out); uerr == nil {
				c.log.Debug("mutation outcome replayed", "mutation", m.Name)
				finish(nil)
				return out, nil
			}
			c.log.Warn("recorded outcome undecodable", "mutation", m.Name)
		}
	}

	out, err := m.Run(ctx, in)
	if err != nil {
		finish(err)
		return zero, err
	}

	if idemKey != "" {
		if payload, merr := json.Marshal(out); merr == nil {
			if rerr := c.idem.Record(ctx, idemKey, payload); rerr != nil {
				c.log.Warn("idempotency record failed", "mutation", m.Name, "error", rerr)
			}
		}
	}

	if m.OnSuccess != nil {
		if aerr := c.Apply(ctx, m.OnSuccess(in, out)...); aerr != nil {
			finish(aerr)
			return out, aerr
		}
	}
	finish(nil)
	return out, nil
}

// idempotencyKey fingerprints an invocation from the mutation name and
// the RFC 8785 canonical form of its input.
func idempotencyKey(name string, in any) string {
	raw, err := json.Marshal(in)
	if err != nil {
		return name
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		canon = raw
	}
	sum := sha256.Sum256(append([]byte(name+"\x00"), canon...))
	return hex.EncodeToString(sum[:])
}
