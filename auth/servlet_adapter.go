package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"beam/beamerr"
	"beam/message"
	"beam/service"
)

// InnerServlet is anything that can register its own request slots —
// the minimal surface this adapter needs from the servlet it wraps
// (servletcontainer.Servlet satisfies it without either package
// importing the other).
type InnerServlet interface {
	RegisterSlots(slots *service.Slots)
}

// ServletAdapter wraps an InnerServlet with the handshake gate
// described in spec §4.9: it adds a SendSessionIdService slot, and
// installs a pre-hook on every one of the inner servlet's slots that
// rejects requests until that handshake succeeds.
type ServletAdapter struct {
	locator LocatorAuthenticator
	inner   InnerServlet
}

// NewServletAdapter builds a ServletAdapter. locator resolves the
// handshake's (encodedSessionID, key) pair to an account id, typically
// a servicelocator.Client connected to the central service locator.
func NewServletAdapter(locator LocatorAuthenticator, inner InnerServlet) *ServletAdapter {
	return &ServletAdapter{locator: locator, inner: inner}
}

// RegisterSlots implements servletcontainer.Servlet.
func (a *ServletAdapter) RegisterSlots(slots *service.Slots) {
	slots.Register(SendSessionIdMethod, a.handleSendSessionId)

	inner := service.NewSlots()
	a.inner.RegisterSlots(inner)
	inner.AddPreHook(a.requireLoggedIn)

	slots.Merge(inner)
}

// handleSendSessionId is the SendSessionIdService handler (spec §4.9
// "the first successful call sets the session account via the
// service-locator and marks the session as logged in").
func (a *ServletAdapter) handleSendSessionId(ctx context.Context, params []byte) ([]byte, error) {
	var req sendSessionIdParams
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, beamerr.Wrap("auth: invalid handshake params", err)
	}

	accountID, sessionID, err := a.locator.AuthenticateSession(ctx, req.EncodedSessionID, req.Key)
	if err != nil {
		return nil, err
	}

	session, ok := SessionFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("auth: no session attached to connection")
	}
	session.SetAccount(accountID)
	session.SetSessionID(sessionID)
	return nil, nil
}

// requireLoggedIn is the pre-hook installed on every inner-servlet
// slot (spec §4.9 "if !session.logged_in, the pre-hook throws").
func (a *ServletAdapter) requireLoggedIn(ctx context.Context, req *message.Request) error {
	session, ok := SessionFromContext(ctx)
	if !ok || !session.LoggedIn() {
		return beamerr.ErrNotLoggedIn()
	}
	return nil
}

// HandleAccept implements servletcontainer.AcceptHandler by forwarding
// to the inner servlet, if it cares about accept events.
func (a *ServletAdapter) HandleAccept(ctx context.Context) {
	if h, ok := a.inner.(interface{ HandleAccept(context.Context) }); ok {
		h.HandleAccept(ctx)
	}
}

// HandleClose implements servletcontainer.CloseHandler by forwarding
// to the inner servlet, if it cares about close events — e.g.
// servicelocator.Servlet releasing the connection's login and
// subscriptions once the handshake's Session is gone for good.
func (a *ServletAdapter) HandleClose(ctx context.Context) {
	if h, ok := a.inner.(interface{ HandleClose(context.Context) }); ok {
		h.HandleClose(ctx)
	}
}
