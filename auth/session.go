// Package auth implements Beam's authentication adapter (spec §4.9,
// component C10): a servlet wrapper that gates every inner request
// behind a session handshake, plus the client-side counterpart that
// performs it.
//
// Net-new relative to the teacher repo — mini-rpc had no notion of a
// session — built in the teacher's idiom: a context-carried value type
// (session.go) the way net/http carries request-scoped state, a
// pre-hook installed through service.Slots (service/slots.go), and a
// Servlet that composes with servletcontainer.Container the same way
// the teacher's handlers composed with its Server.
package auth

import (
	"context"
	"sync"

	"beam/serialization"
)

// Session is the per-connection authentication state the adapter
// tracks: unset until a successful SendSessionIdService handshake
// resolves it to an account (spec §4.9 "session.logged_in").
type Session struct {
	mu        sync.RWMutex
	accountID int64
	loggedIn  bool
	sessionID string
}

// NewSession returns a fresh, unauthenticated Session.
func NewSession() *Session {
	return &Session{accountID: -1}
}

// LoggedIn reports whether the session has an associated account.
func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

// AccountID returns the authenticated account id, or -1 if none.
func (s *Session) AccountID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountID
}

// SetAccount marks the session as logged in as accountID.
func (s *Session) SetAccount(accountID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountID = accountID
	s.loggedIn = true
}

// SetSessionID records the underlying service-locator session id this
// connection authenticated as, so a close hook can pass it back to
// Locator.ReleaseEndpoint.
func (s *Session) SetSessionID(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = sessionID
}

// SessionID returns the session id SetSessionID last recorded, or ""
// if the handshake never completed.
func (s *Session) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

type sessionKey struct{}

// WithSession returns a context carrying session, retrievable via
// SessionFromContext. servletcontainer.Container.SetConnContext is the
// usual place to call this, once per accepted connection.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext retrieves the Session installed by WithSession,
// if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*Session)
	return session, ok
}

// ConnContext is a ready-made servletcontainer.Container.SetConnContext
// callback that attaches a fresh Session to every accepted connection.
// It ignores the push function; servlets that also need push delivery
// (e.g. servicelocator) compose their own hook around this one.
func ConnContext(ctx context.Context, _ func(context.Context, serialization.Value) error) context.Context {
	return WithSession(ctx, NewSession())
}
