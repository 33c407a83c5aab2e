package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"beam/beamerr"
	"beam/service"
)

// SendSessionIdMethod is the RPC method the ServletAdapter registers
// and the Authenticator calls (spec §6 "SendSessionIdService").
const SendSessionIdMethod = "Beam.Auth.SendSessionIdService"

// sendSessionIdParams is the wire shape of a SendSessionIdService
// request, JSON-encoded the way service.RegisterReflect encodes every
// other method's arguments.
type sendSessionIdParams struct {
	Key              uint32
	EncodedSessionID string
}

// Authenticator performs the client side of the session handshake
// (spec §4.9): it mints a random key, asks source to encode the
// client's session id under that key, and sends both to the server so
// it can resolve them back to an account via LocatorAuthenticator.
type Authenticator struct {
	source SessionSource
}

// NewAuthenticator builds an Authenticator backed by source, typically
// a servicelocator.Client that has already completed a Login.
func NewAuthenticator(source SessionSource) *Authenticator {
	return &Authenticator{source: source}
}

// Authenticate performs the handshake over client, blocking until the
// server confirms or rejects the session.
func (a *Authenticator) Authenticate(ctx context.Context, client *service.ProtocolClient) error {
	key, err := GenerateKey()
	if err != nil {
		return err
	}
	params, err := json.Marshal(sendSessionIdParams{
		Key:              key,
		EncodedSessionID: a.source.EncodeSessionID(key),
	})
	if err != nil {
		return beamerr.Wrap("auth: encode handshake params", err)
	}

	resp, err := client.SendRequest(ctx, SendSessionIdMethod, params)
	if err != nil {
		return err
	}
	if resp.IsException {
		return fmt.Errorf("auth: handshake rejected: %s", resp.ExceptionMsg)
	}
	return nil
}
