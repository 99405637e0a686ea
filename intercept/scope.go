package intercept

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Scope activates interception for a bounded region of client
// construction. Clients created through an open scope are bound to its
// dispatcher for life; after Exit, the scope only hands out unbound
// clients. Scopes never share state: nested or sequential scopes each own
// an independent dispatcher and configuration.
type Scope struct {
	id         string
	dispatcher *Dispatcher
	logger     *zap.Logger

	mu     sync.Mutex
	closed bool
}

// Enter opens a scope with the given options. Callers are responsible for
// Exit; prefer With, which guarantees it on every path.
func Enter(opts Options) (*Scope, error) {
	d, err := NewDispatcher(opts)
	if err != nil {
		return nil, err
	}

	s := &Scope{
		id:         uuid.NewString(),
		dispatcher: d,
		logger:     d.logger,
	}
	s.logger.Debug("interception scope entered",
		zap.String("scope_id", s.id),
		zap.Strings("match_rules", d.policy.Rules()),
		zap.Duration("ttl", d.policy.TTL()),
	)
	return s, nil
}

// With runs fn inside a scope and exits it on every path out of fn,
// including panics.
func With(opts Options, fn func(*Scope) error) error {
	s, err := Enter(opts)
	if err != nil {
		return err
	}
	defer s.Exit()
	return fn(s)
}

// NewClient creates a client for the given service. While the scope is
// open the client is bound to the scope's dispatcher; after Exit this
// becomes an ordinary unbound constructor.
func (s *Scope) NewClient(serviceID string, transport Transport) *Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewClient(serviceID, transport)
	}
	return &Client{
		serviceID:  serviceID,
		transport:  transport,
		dispatcher: s.dispatcher,
	}
}

// Exit deactivates interception for clients created afterwards. Clients
// already bound keep their dispatcher, and its cache, for their remaining
// lifetime. Idempotent.
func (s *Scope) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.logger.Debug("interception scope exited", zap.String("scope_id", s.id))
}

// ID returns the scope's unique identifier, as used in its log lines.
func (s *Scope) ID() string {
	return s.id
}

// Active reports whether the scope still binds newly created clients.
func (s *Scope) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Dispatcher returns the scope's dispatcher, for callers that wire clients
// by hand.
func (s *Scope) Dispatcher() *Dispatcher {
	return s.dispatcher
}
