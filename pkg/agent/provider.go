package agent

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
)

// session pairs an identity with the actor built for it. Both are swapped
// together so no caller ever sees a mismatched pair.
type session struct {
	identity *Identity
	actor    Actor
}

// SwapHook observes identity boundaries. Hooks run synchronously after
// the new session is visible.
type SwapHook func(previous, next *Identity)

// Provider hands out the current actor and replaces it at login and
// logout. Reads are lock free; a swap installs a fully built session in
// one atomic store.
type Provider struct {
	build func(*Identity) Actor
	log   *slog.Logger

	current atomic.Pointer[session]

	mu    sync.Mutex
	hooks []SwapHook
}

// NewProvider builds a provider that constructs actors through build.
// The provider starts with an anonymous session.
func NewProvider(build func(*Identity) Actor, log *slog.Logger) *Provider {
	if log == nil {
		log = slog.Default()
	}
	p := &Provider{build: build, log: log}
	anon := AnonymousIdentity()
	p.current.Store(&session{identity: anon, actor: build(anon)})
	return p
}

// Use returns the actor for the current session.
func (p *Provider) Use() Actor {
	return p.current.Load().actor
}

// Identity returns the identity of the current session.
func (p *Provider) Identity() *Identity {
	return p.current.Load().identity
}

// Principal returns the principal of the current session.
func (p *Provider) Principal() candid.Principal {
	return p.current.Load().identity.Principal()
}

// Authenticated reports whether the current session has a signing
// identity.
func (p *Provider) Authenticated() bool {
	return !p.current.Load().identity.Anonymous()
}

// OnSwap registers a hook to run after every identity swap.
func (p *Provider) OnSwap(hook SwapHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, hook)
}

// Swap installs id as the current session. A nil id swaps to anonymous.
func (p *Provider) Swap(id *Identity) {
	if id == nil {
		id = AnonymousIdentity()
	}
	next := &session{identity: id, actor: p.build(id)}
	prev := p.current.Swap(next)

	p.log.Info("session swapped",
		"previous", prev.identity.Principal().String(),
		"next", id.Principal().String())

	p.mu.Lock()
	hooks := make([]SwapHook, len(p.hooks))
	copy(hooks, p.hooks)
	p.mu.Unlock()
	for _, hook := range hooks {
		hook(prev.identity, id)
	}
}

// Logout swaps back to the anonymous session.
func (p *Provider) Logout() {
	p.Swap(AnonymousIdentity())
}
