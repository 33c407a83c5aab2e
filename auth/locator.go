package auth

import "context"

// SessionSource is satisfied by a service-locator client: it already
// holds an authenticated session id (from a prior Login) and can
// compute the encoded form SendSessionIdService expects, without this
// package needing to import servicelocator directly.
type SessionSource interface {
	EncodeSessionID(key uint32) string
}

// LocatorAuthenticator is the server-side counterpart: it resolves an
// (encodedSessionID, key) pair against the central service locator's
// SessionAuthentication service (spec §4.10), returning the
// authenticated account id and the underlying session id, which the
// adapter stashes on the connection's Session so a close hook can later
// tell the locator which session to release.
type LocatorAuthenticator interface {
	AuthenticateSession(ctx context.Context, encodedSessionID string, key uint32) (accountID int64, sessionID string, err error)
}
