package service

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"beam/beamerr"
	"beam/message"
	"beam/serialization"
)

// Handler answers one RPC method by name, given the raw request
// parameters and returning raw reply bytes — the synchronous
// "add_slot" shape (spec §4.7): the wrapper auto-responds from its
// own return value.
type Handler func(ctx context.Context, params []byte) ([]byte, error)

// ResponseToken lets a request-token handler complete its Response
// asynchronously, from any goroutine, instead of returning the result
// directly — the "add_request_slot" shape (spec §4.7
// "handler(token, args...)... token.set_result(v)/set_exception(e)
// asynchronously"). SetResult/SetException are idempotent: only the
// first call of either takes effect.
type ResponseToken struct {
	requestID uint64
	once      sync.Once
	respond   func(*message.Response)
}

// SetResult completes the token's Response successfully with payload.
func (t *ResponseToken) SetResult(payload []byte) {
	t.once.Do(func() {
		t.respond(&message.Response{RequestID: t.requestID, Payload: payload})
	})
}

// SetException completes the token's Response with err's exception
// branch.
func (t *ResponseToken) SetException(err error) {
	t.once.Do(func() {
		t.respond(exceptionResponse(t.requestID, err))
	})
}

// AsyncHandler is the request-token slot shape: it receives a token to
// complete later instead of returning a result directly.
type AsyncHandler func(ctx context.Context, token *ResponseToken, params []byte)

// MessageHandler answers a one-way message — the "add_message_slot"
// shape (spec §4.7): no response is produced, so a handler error is
// reported to the caller of DispatchMessage to log rather than turned
// into a Response, since there is no requester waiting on one.
type MessageHandler func(ctx context.Context, msg serialization.Value) error

// PreHook runs before every dispatched Request, in registration
// order. A PreHook that returns an error aborts dispatch entirely —
// the request never reaches its Handler — which is how the
// authentication adapter (spec §4.9) gates access without every
// Handler re-implementing the check (spec
// §4.8 "pre-hooks, ordered, throwing aborts dispatch"). Message-slot
// dispatch runs the same hooks with a nil Request, since none of this
// module's pre-hooks inspect the Request itself — only ctx.
type PreHook func(ctx context.Context, req *message.Request) error

// Slots is the per-servlet table mapping a method name to its
// Handler or AsyncHandler, and a message type UID to its
// MessageHandler, plus the ordered list of pre-hooks every dispatch
// passes through first (spec §4.8, component C8). It generalizes the
// teacher's reflection-based service map: registration can come from
// RegisterReflect (scanning a Go struct's exported methods, same
// signature convention the teacher used) or from a hand-written
// Handler for services that don't want reflection's overhead.
type Slots struct {
	handlers        map[string]Handler
	asyncHandlers   map[string]AsyncHandler
	messageHandlers map[string]MessageHandler
	preHooks        []PreHook
	subSlots        []*Slots
}

// NewSlots constructs an empty Slots table.
func NewSlots() *Slots {
	return &Slots{
		handlers:        make(map[string]Handler),
		asyncHandlers:   make(map[string]AsyncHandler),
		messageHandlers: make(map[string]MessageHandler),
	}
}

// Register binds method to handler.
func (s *Slots) Register(method string, handler Handler) {
	s.handlers[method] = handler
}

// RegisterAsync binds method to an AsyncHandler, the request-token
// slot shape (spec §4.7).
func (s *Slots) RegisterAsync(method string, handler AsyncHandler) {
	s.asyncHandlers[method] = handler
}

// RegisterMessage binds typeUID — a registered serialization.Value's
// TypeUID() — to a one-way MessageHandler (spec §4.7
// "add_message_slot").
func (s *Slots) RegisterMessage(typeUID string, handler MessageHandler) {
	s.messageHandlers[typeUID] = handler
}

// AddPreHook appends hook to the dispatch chain.
func (s *Slots) AddPreHook(hook PreHook) {
	s.preHooks = append(s.preHooks, hook)
}

// Merge folds other's methods into s as a sub-table: a request whose
// method isn't one of s's own runs through other's own pre-hooks (not
// s's) before reaching other's handler. The authentication adapter
// uses this to gate an inner servlet's slots behind a login pre-hook
// without also gating the handshake slot it registers directly on s.
func (s *Slots) Merge(other *Slots) {
	s.subSlots = append(s.subSlots, other)
}

// Dispatch runs req to completion and returns its Response, blocking
// until one is ready — including one completed later, from another
// goroutine, by a request-token handler's ResponseToken. Most callers
// (the servlet container, tests) want this synchronous convenience;
// DispatchAsync is the non-blocking primitive it's built on.
func (s *Slots) Dispatch(ctx context.Context, req *message.Request) *message.Response {
	respCh := make(chan *message.Response, 1)
	s.DispatchAsync(ctx, req, func(resp *message.Response) { respCh <- resp })
	return <-respCh
}

// DispatchAsync runs req through every pre-hook and then its handler,
// invoking respond exactly once with the result. For a synchronous
// (add_slot) handler, or a pre-hook failure, respond is called before
// DispatchAsync returns. For an async (request-token) handler,
// respond may instead be called later, from any goroutine, once the
// handler completes the ResponseToken it was given — turning any
// failure into the Response's exception branch rather than
// propagating a Go error up to the transport loop (spec §7 "handler
// errors become Response exceptions, never connection failures").
func (s *Slots) DispatchAsync(ctx context.Context, req *message.Request, respond func(*message.Response)) {
	if handler, ok := s.handlers[req.Method]; ok {
		dispatchOne(ctx, req, s.preHooks, handler, respond)
		return
	}
	if handler, ok := s.asyncHandlers[req.Method]; ok {
		dispatchAsyncOne(ctx, req, s.preHooks, handler, respond)
		return
	}
	for _, sub := range s.subSlots {
		if handler, ok := sub.handlers[req.Method]; ok {
			dispatchOne(ctx, req, sub.preHooks, handler, respond)
			return
		}
		if handler, ok := sub.asyncHandlers[req.Method]; ok {
			dispatchAsyncOne(ctx, req, sub.preHooks, handler, respond)
			return
		}
	}
	respond(exceptionResponse(req.RequestID, fmt.Errorf("unknown method: %s", req.Method)))
}

// DispatchMessage runs an unsolicited one-way value through the
// message-slot table keyed by its TypeUID (spec §4.7
// "add_message_slot<M>(handler(client, args...))"). Unlike Dispatch,
// a pre-hook failure or handler error is returned to the caller to
// log rather than turned into a Response, since no requester is
// waiting on one.
func (s *Slots) DispatchMessage(ctx context.Context, msg serialization.Value) error {
	uid := msg.TypeUID()
	if handler, ok := s.messageHandlers[uid]; ok {
		return dispatchMessage(ctx, msg, s.preHooks, handler)
	}
	for _, sub := range s.subSlots {
		if handler, ok := sub.messageHandlers[uid]; ok {
			return dispatchMessage(ctx, msg, sub.preHooks, handler)
		}
	}
	return fmt.Errorf("service: no message slot for %s", uid)
}

func dispatchOne(ctx context.Context, req *message.Request, preHooks []PreHook, handler Handler, respond func(*message.Response)) {
	for _, hook := range preHooks {
		if err := hook(ctx, req); err != nil {
			respond(exceptionResponse(req.RequestID, err))
			return
		}
	}
	payload, err := handler(ctx, req.Params)
	if err != nil {
		respond(exceptionResponse(req.RequestID, err))
		return
	}
	respond(&message.Response{RequestID: req.RequestID, Payload: payload})
}

func dispatchAsyncOne(ctx context.Context, req *message.Request, preHooks []PreHook, handler AsyncHandler, respond func(*message.Response)) {
	for _, hook := range preHooks {
		if err := hook(ctx, req); err != nil {
			respond(exceptionResponse(req.RequestID, err))
			return
		}
	}
	handler(ctx, &ResponseToken{requestID: req.RequestID, respond: respond}, req.Params)
}

func dispatchMessage(ctx context.Context, msg serialization.Value, preHooks []PreHook, handler MessageHandler) error {
	for _, hook := range preHooks {
		if err := hook(ctx, nil); err != nil {
			return err
		}
	}
	return handler(ctx, msg)
}

func exceptionResponse(requestID uint64, err error) *message.Response {
	return &message.Response{
		RequestID:      requestID,
		IsException:    true,
		ExceptionMsg:   err.Error(),
		ExceptionValue: message.NewServiceRequestException(err),
	}
}

// methodType stores the reflection metadata for one RPC-compatible
// method, carried over from the teacher's service.go almost verbatim —
// the signature convention (pointer receiver, *Args, *Reply, error) is
// exactly the shape Go's own net/rpc and the teacher both settled on.
type methodType struct {
	method    reflect.Method
	ArgType   reflect.Type
	ReplyType reflect.Type
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// RegisterReflect scans rcvr's exported methods matching
//
//	func (receiver) MethodName(args *ArgsType, reply *ReplyType) error
//
// and registers one Slots Handler per method, JSON-decoding params
// into ArgsType and JSON-encoding the populated ReplyType as the
// response payload. Methods that don't match the convention are
// silently skipped, same as the teacher's RegisterMethods.
func RegisterReflect(slots *Slots, rcvr any) error {
	typ := reflect.TypeOf(rcvr)
	if typ.Kind() != reflect.Ptr {
		return fmt.Errorf("service: rcvr must be a pointer, got %s", typ.Kind())
	}
	if typ.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("service: rcvr must point to a struct, got %s", typ.Elem().Kind())
	}

	name := typ.Elem().Name()
	val := reflect.ValueOf(rcvr)

	for i := 0; i < typ.NumMethod(); i++ {
		m := typ.Method(i)
		if m.Type.NumIn() != 3 || m.Type.NumOut() != 1 {
			continue
		}
		if m.Type.Out(0) != errorType {
			continue
		}
		if m.Type.In(1).Kind() != reflect.Ptr || m.Type.In(2).Kind() != reflect.Ptr {
			continue
		}

		mt := &methodType{
			method:    m,
			ArgType:   m.Type.In(1).Elem(),
			ReplyType: m.Type.In(2).Elem(),
		}
		method := fmt.Sprintf("%s.%s", name, m.Name)
		slots.Register(method, reflectHandler(val, mt))
	}
	return nil
}

func reflectHandler(rcvr reflect.Value, mt *methodType) Handler {
	return func(ctx context.Context, params []byte) ([]byte, error) {
		argv := reflect.New(mt.ArgType)
		if len(params) > 0 {
			if err := json.Unmarshal(params, argv.Interface()); err != nil {
				return nil, beamerr.Wrap("invalid request parameters", err)
			}
		}
		replyv := reflect.New(mt.ReplyType)

		results := mt.method.Func.Call([]reflect.Value{rcvr, argv, replyv})
		if !results[0].IsNil() {
			return nil, results[0].Interface().(error)
		}
		return json.Marshal(replyv.Interface())
	}
}
