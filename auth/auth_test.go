package auth

import (
	"context"
	"strings"
	"testing"

	"beam/bio"
	"beam/codec"
	"beam/message"
	"beam/protocol"
	"beam/serialization"
	"beam/service"
)

func noopPush(ctx context.Context, v serialization.Value) error { return nil }

func TestGenerateSessionIDShapeAndUniqueness(t *testing.T) {
	a, err := GenerateSessionID()
	if err != nil {
		t.Fatalf("GenerateSessionID failed: %v", err)
	}
	if len(a) != SessionIDLength {
		t.Fatalf("expected length %d, got %d", SessionIDLength, len(a))
	}
	for _, c := range a {
		if c < 'a' || c > 'z' {
			t.Fatalf("session id contains non-lowercase-letter byte: %q", a)
		}
	}
	b, err := GenerateSessionID()
	if err != nil {
		t.Fatalf("GenerateSessionID failed: %v", err)
	}
	if a == b {
		t.Fatalf("two generated session ids collided: %q", a)
	}
}

func TestEncodeSessionIDIsUppercaseHexAndDeterministic(t *testing.T) {
	got := EncodeSessionID(42, "abcdefghijklmnopqrstuvwxyzabcdef")
	if got != strings.ToUpper(got) {
		t.Fatalf("expected uppercase hex, got %q", got)
	}
	if len(got) != 40 {
		t.Fatalf("expected a 40-char SHA1 hex digest, got %d chars", len(got))
	}
	again := EncodeSessionID(42, "abcdefghijklmnopqrstuvwxyzabcdef")
	if got != again {
		t.Fatalf("EncodeSessionID should be deterministic for the same inputs")
	}
	diff := EncodeSessionID(43, "abcdefghijklmnopqrstuvwxyzabcdef")
	if got == diff {
		t.Fatalf("different keys should not hash to the same digest")
	}
}

func TestSessionContext(t *testing.T) {
	ctx := ConnContext(context.Background(), noopPush)
	session, ok := SessionFromContext(ctx)
	if !ok {
		t.Fatalf("expected a session to be attached")
	}
	if session.LoggedIn() {
		t.Fatalf("a fresh session should not be logged in")
	}
	session.SetAccount(7)
	if !session.LoggedIn() || session.AccountID() != 7 {
		t.Fatalf("SetAccount did not take effect")
	}
}

// stubLocator resolves any encoded session id matching its configured
// session against a fixed account.
type stubLocator struct {
	sessionID string
	accountID int64
}

func (l *stubLocator) AuthenticateSession(ctx context.Context, encodedSessionID string, key uint32) (int64, string, error) {
	if encodedSessionID != EncodeSessionID(key, l.sessionID) {
		return 0, "", errSessionNotFound
	}
	return l.accountID, l.sessionID, nil
}

var errSessionNotFound = &sessionNotFoundErr{}

type sessionNotFoundErr struct{}

func (*sessionNotFoundErr) Error() string { return "Session not found." }

// stubSource is the client-side SessionSource: it already knows its
// own session id from a prior Login.
type stubSource struct {
	sessionID string
}

func (s stubSource) EncodeSessionID(key uint32) string {
	return EncodeSessionID(key, s.sessionID)
}

type noopInner struct{ called bool }

func (n *noopInner) RegisterSlots(slots *service.Slots) {
	slots.Register("Inner.Echo", func(ctx context.Context, params []byte) ([]byte, error) {
		n.called = true
		return params, nil
	})
}

func newRegistry() *serialization.TypeRegistry {
	reg := serialization.NewTypeRegistry()
	message.RegisterAll(reg)
	return reg
}

func runServlet(proto *protocol.MessageProtocol, slots *service.Slots, ctx context.Context) {
	for {
		v, err := proto.Receive(ctx)
		if err != nil {
			return
		}
		req, ok := v.(*message.Request)
		if !ok {
			continue
		}
		resp := slots.Dispatch(ctx, req)
		_ = proto.Send(ctx, resp)
	}
}

func TestServletAdapterGatesUntilHandshake(t *testing.T) {
	sessionID := "abcdefghijklmnopqrstuvwxyzabcdef"
	locator := &stubLocator{sessionID: sessionID, accountID: 99}
	inner := &noopInner{}
	adapter := NewServletAdapter(locator, inner)

	slots := service.NewSlots()
	adapter.RegisterSlots(slots)

	clientReader, servletWriter := bio.NewPipe()
	servletReader, clientWriter := bio.NewPipe()

	clientProto := protocol.New(clientReader, clientWriter, codec.NewNullCodec(), newRegistry())
	servletProto := protocol.New(servletReader, servletWriter, codec.NewNullCodec(), newRegistry())

	connCtx := ConnContext(context.Background(), noopPush)
	go runServlet(servletProto, slots, connCtx)

	client := service.NewProtocolClient(clientProto, 0)
	ctx := context.Background()

	resp, err := client.SendRequest(ctx, "Inner.Echo", []byte("hi"))
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}
	if !resp.IsException {
		t.Fatalf("expected inner method to be gated before handshake")
	}
	if inner.called {
		t.Fatalf("inner handler should not have run before the handshake")
	}

	authenticator := NewAuthenticator(stubSource{sessionID: sessionID})
	if err := authenticator.Authenticate(ctx, client); err != nil {
		t.Fatalf("handshake failed: %v", err)
	}

	resp, err = client.SendRequest(ctx, "Inner.Echo", []byte("hi"))
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}
	if resp.IsException {
		t.Fatalf("unexpected exception after handshake: %s", resp.ExceptionMsg)
	}
	if !inner.called {
		t.Fatalf("inner handler should have run after the handshake")
	}
}

func TestServletAdapterRejectsWrongSession(t *testing.T) {
	locator := &stubLocator{sessionID: "abcdefghijklmnopqrstuvwxyzabcdef", accountID: 1}
	adapter := NewServletAdapter(locator, &noopInner{})

	slots := service.NewSlots()
	adapter.RegisterSlots(slots)

	clientReader, servletWriter := bio.NewPipe()
	servletReader, clientWriter := bio.NewPipe()
	clientProto := protocol.New(clientReader, clientWriter, codec.NewNullCodec(), newRegistry())
	servletProto := protocol.New(servletReader, servletWriter, codec.NewNullCodec(), newRegistry())

	connCtx := ConnContext(context.Background(), noopPush)
	go runServlet(servletProto, slots, connCtx)

	client := service.NewProtocolClient(clientProto, 0)
	ctx := context.Background()

	authenticator := NewAuthenticator(stubSource{sessionID: "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"})
	if err := authenticator.Authenticate(ctx, client); err == nil {
		t.Fatalf("expected the handshake to fail for a session the locator doesn't recognize")
	}
}
