package servicelocator

import (
	"context"
	"encoding/json"
	"fmt"

	"beam/auth"
	"beam/beamerr"
	"beam/service"
)

// AuthServlet exposes the three service-locator calls a connection
// must be able to reach before its own handshake succeeds (spec §4.9
// "Accept/close events are forwarded to the inner servlet only after
// a successful handshake"): Login mints the session id a client then
// proves ownership of via SendSessionIdService, AuthenticateAccount
// validates credentials without a session, and SessionAuthentication
// is the wire form of AuthenticateSession other processes' auth
// adapters call when they hold a servicelocator.Client rather than a
// same-process *Locator.
type AuthServlet struct {
	Locator *Locator
}

// RegisterSlots implements servletcontainer.Servlet.
func (s *AuthServlet) RegisterSlots(slots *service.Slots) {
	slots.Register(LoginMethod, s.handleLogin)
	slots.Register(AuthenticateAccountMethod, s.handleAuthenticateAccount)
	slots.Register(SessionAuthenticationMethod, s.handleSessionAuthentication)
}

func (s *AuthServlet) handleLogin(ctx context.Context, params []byte) ([]byte, error) {
	var args LoginArgs
	if err := json.Unmarshal(params, &args); err != nil {
		return nil, beamerr.Wrap("servicelocator: invalid LoginService request", err)
	}
	endpointID := args.EndpointID
	if endpointID == "" {
		if id, ok := EndpointIDFromContext(ctx); ok {
			endpointID = id
		}
	}
	account, sessionID, err := s.Locator.Login(ctx, endpointID, args.Username, args.Password)
	if err != nil {
		return nil, err
	}
	return json.Marshal(LoginReply{Account: account, SessionID: sessionID})
}

func (s *AuthServlet) handleAuthenticateAccount(ctx context.Context, params []byte) ([]byte, error) {
	var args AuthenticateAccountArgs
	if err := json.Unmarshal(params, &args); err != nil {
		return nil, beamerr.Wrap("servicelocator: invalid AuthenticateAccountService request", err)
	}
	account, err := s.Locator.AuthenticateAccount(ctx, args.Username, args.Password)
	if err != nil {
		return nil, err
	}
	return json.Marshal(AuthenticateAccountReply{Account: account})
}

func (s *AuthServlet) handleSessionAuthentication(ctx context.Context, params []byte) ([]byte, error) {
	var args SessionAuthenticationArgs
	if err := json.Unmarshal(params, &args); err != nil {
		return nil, beamerr.Wrap("servicelocator: invalid SessionAuthenticationService request", err)
	}
	accountID, sessionID, err := s.Locator.AuthenticateSession(ctx, args.EncodedSessionID, args.Key)
	if err != nil {
		return nil, err
	}
	return json.Marshal(SessionAuthenticationReply{AccountID: accountID, SessionID: sessionID})
}

// Servlet exposes every service-locator call that requires an
// authenticated session (spec §4.10's directory, account, permission,
// and service-registration operations). It is meant to be wrapped by
// auth.NewServletAdapter, which gates every slot registered here
// behind a successful SendSessionIdService handshake and supplies the
// caller's account id via the connection's auth.Session.
type Servlet struct {
	Locator *Locator
}

// RegisterSlots implements auth.InnerServlet (and, through that,
// servletcontainer.Servlet once wrapped in a ServletAdapter).
func (s *Servlet) RegisterSlots(slots *service.Slots) {
	slots.Register(LocateMethod, s.handleLocate)
	slots.Register(RegisterMethod, s.handleRegister)
	slots.Register(UnregisterMethod, s.handleUnregister)
	slots.Register(SubscribeAvailabilityMethod, s.handleSubscribeAvailability)
	slots.Register(UnsubscribeAvailabilityMethod, s.handleUnsubscribeAvailability)
	slots.Register(MonitorDirectoryEntryMethod, s.handleMonitorDirectoryEntry)
	slots.Register(MonitorAccountsMethod, s.handleMonitorAccounts)
	slots.Register(UnmonitorAccountsMethod, s.handleUnmonitorAccounts)
	slots.Register(LoadDirectoryEntryMethod, s.handleLoadDirectoryEntry)
	slots.Register(LoadPathMethod, s.handleLoadPath)
	slots.Register(LoadParentsMethod, s.handleLoadParents)
	slots.Register(LoadChildrenMethod, s.handleLoadChildren)
	slots.Register(LoadAllAccountsMethod, s.handleLoadAllAccounts)
	slots.Register(FindAccountMethod, s.handleFindAccount)
	slots.Register(MakeAccountMethod, s.handleMakeAccount)
	slots.Register(MakeDirectoryMethod, s.handleMakeDirectory)
	slots.Register(DeleteDirectoryEntryMethod, s.handleDeleteDirectoryEntry)
	slots.Register(AssociateMethod, s.handleAssociate)
	slots.Register(DetachMethod, s.handleDetach)
	slots.Register(StorePasswordMethod, s.handleStorePassword)
	slots.Register(HasPermissionsMethod, s.handleHasPermissions)
	slots.Register(StorePermissionsMethod, s.handleStorePermissions)
	slots.Register(LoadRegistrationTimeMethod, s.handleLoadRegistrationTime)
	slots.Register(LoadLastLoginTimeMethod, s.handleLoadLastLoginTime)
	slots.Register(RenameMethod, s.handleRename)
}

// HandleClose implements servletcontainer.CloseHandler, reached through
// auth.ServletAdapter's forwarding: once a client endpoint's connection
// closes, its login and every subscription it created while connected
// are released (spec §4.8 "on close, call servlet.handle_close(endpoint)").
func (s *Servlet) HandleClose(ctx context.Context) {
	endpointID, _ := EndpointIDFromContext(ctx)
	var sessionID string
	if session, ok := auth.SessionFromContext(ctx); ok {
		sessionID = session.SessionID()
	}
	s.Locator.ReleaseEndpoint(endpointID, sessionID)
}

// caller resolves the connection's authenticated account id, set by
// the ServletAdapter's handshake (spec §4.9 "the first successful
// call sets the session account").
func caller(ctx context.Context) (int64, error) {
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		return 0, fmt.Errorf("servicelocator: no session attached to connection")
	}
	return session.AccountID(), nil
}

func connPush(ctx context.Context) (pushFunc, error) {
	push, ok := pushFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("servicelocator: no push channel attached to connection")
	}
	return push, nil
}

func decode(params []byte, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return beamerr.Wrap("servicelocator: invalid request parameters", err)
	}
	return nil
}

func (s *Servlet) handleLocate(ctx context.Context, params []byte) ([]byte, error) {
	var args LocateArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.Locator.Locate(ctx, callerID, args.Name)
	if err != nil {
		return nil, err
	}
	return json.Marshal(LocateReply{Entries: entries})
}

func (s *Servlet) handleRegister(ctx context.Context, params []byte) ([]byte, error) {
	var args RegisterArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := s.Locator.Register(ctx, callerID, args.Account, args.Name, args.Properties)
	if err != nil {
		return nil, err
	}
	return json.Marshal(RegisterReply{Entry: entry})
}

func (s *Servlet) handleUnregister(ctx context.Context, params []byte) ([]byte, error) {
	var args UnregisterArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Locator.Unregister(ctx, callerID, args.ServiceID); err != nil {
		return nil, err
	}
	return json.Marshal(UnregisterReply{})
}

func (s *Servlet) handleSubscribeAvailability(ctx context.Context, params []byte) ([]byte, error) {
	var args SubscribeAvailabilityArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	push, err := connPush(ctx)
	if err != nil {
		return nil, err
	}
	id := s.Locator.SubscribeAvailability(ctx, args.Name, push)
	return json.Marshal(SubscribeAvailabilityReply{SubscriptionID: id})
}

func (s *Servlet) handleUnsubscribeAvailability(ctx context.Context, params []byte) ([]byte, error) {
	var args UnsubscribeAvailabilityArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	s.Locator.Unsubscribe(args.SubscriptionID)
	return json.Marshal(UnsubscribeAvailabilityReply{})
}

func (s *Servlet) handleMonitorDirectoryEntry(ctx context.Context, params []byte) ([]byte, error) {
	var args MonitorDirectoryEntryArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	push, err := connPush(ctx)
	if err != nil {
		return nil, err
	}
	id, err := s.Locator.MonitorDirectoryEntry(ctx, callerID, args.EntryID, push)
	if err != nil {
		return nil, err
	}
	return json.Marshal(MonitorDirectoryEntryReply{SubscriptionID: id})
}

func (s *Servlet) handleMonitorAccounts(ctx context.Context, params []byte) ([]byte, error) {
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	push, err := connPush(ctx)
	if err != nil {
		return nil, err
	}
	id := s.Locator.MonitorAccounts(ctx, callerID, push)
	return json.Marshal(MonitorAccountsReply{SubscriptionID: id})
}

func (s *Servlet) handleUnmonitorAccounts(ctx context.Context, params []byte) ([]byte, error) {
	var args UnmonitorAccountsArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	s.Locator.UnmonitorAccounts(args.SubscriptionID)
	return json.Marshal(UnmonitorAccountsReply{})
}

func (s *Servlet) handleLoadDirectoryEntry(ctx context.Context, params []byte) ([]byte, error) {
	var args LoadDirectoryEntryArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := s.Locator.LoadDirectoryEntry(ctx, callerID, args.ID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(LoadDirectoryEntryReply{Entry: entry})
}

func (s *Servlet) handleLoadPath(ctx context.Context, params []byte) ([]byte, error) {
	var args LoadPathArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := s.Locator.LoadPath(ctx, callerID, args.Root, args.Path)
	if err != nil {
		return nil, err
	}
	return json.Marshal(LoadPathReply{Entry: entry})
}

func (s *Servlet) handleLoadParents(ctx context.Context, params []byte) ([]byte, error) {
	var args LoadParentsArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.Locator.LoadParents(ctx, callerID, args.ID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(LoadParentsReply{Entries: entries})
}

func (s *Servlet) handleLoadChildren(ctx context.Context, params []byte) ([]byte, error) {
	var args LoadChildrenArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.Locator.LoadChildren(ctx, callerID, args.ID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(LoadChildrenReply{Entries: entries})
}

func (s *Servlet) handleLoadAllAccounts(ctx context.Context, params []byte) ([]byte, error) {
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := s.Locator.LoadAllAccounts(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(LoadAllAccountsReply{Accounts: accounts})
}

func (s *Servlet) handleFindAccount(ctx context.Context, params []byte) ([]byte, error) {
	var args FindAccountArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	account, err := s.Locator.FindAccount(ctx, callerID, args.Name)
	if err != nil {
		return nil, err
	}
	return json.Marshal(FindAccountReply{Account: account})
}

func (s *Servlet) handleMakeAccount(ctx context.Context, params []byte) ([]byte, error) {
	var args MakeAccountArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	account, err := s.Locator.MakeAccount(ctx, callerID, args.Name, args.Password, args.Parent)
	if err != nil {
		return nil, err
	}
	return json.Marshal(MakeAccountReply{Account: account})
}

func (s *Servlet) handleMakeDirectory(ctx context.Context, params []byte) ([]byte, error) {
	var args MakeDirectoryArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := s.Locator.MakeDirectory(ctx, callerID, args.Name, args.Parent)
	if err != nil {
		return nil, err
	}
	return json.Marshal(MakeDirectoryReply{Entry: entry})
}

func (s *Servlet) handleDeleteDirectoryEntry(ctx context.Context, params []byte) ([]byte, error) {
	var args DeleteDirectoryEntryArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Locator.DeleteDirectoryEntry(ctx, callerID, args.ID); err != nil {
		return nil, err
	}
	return json.Marshal(DeleteDirectoryEntryReply{})
}

func (s *Servlet) handleAssociate(ctx context.Context, params []byte) ([]byte, error) {
	var args AssociateArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Locator.Associate(ctx, callerID, args.EntryID, args.ParentID); err != nil {
		return nil, err
	}
	return json.Marshal(AssociateReply{})
}

func (s *Servlet) handleDetach(ctx context.Context, params []byte) ([]byte, error) {
	var args DetachArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Locator.Detach(ctx, callerID, args.EntryID, args.ParentID); err != nil {
		return nil, err
	}
	return json.Marshal(DetachReply{})
}

func (s *Servlet) handleStorePassword(ctx context.Context, params []byte) ([]byte, error) {
	var args StorePasswordArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Locator.StorePassword(ctx, callerID, args.Account, args.Password); err != nil {
		return nil, err
	}
	return json.Marshal(StorePasswordReply{})
}

func (s *Servlet) handleHasPermissions(ctx context.Context, params []byte) ([]byte, error) {
	var args HasPermissionsArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	ok, err := s.Locator.HasPermissions(ctx, args.Source, args.Target, args.Mask)
	if err != nil {
		return nil, err
	}
	return json.Marshal(HasPermissionsReply{OK: ok})
}

func (s *Servlet) handleStorePermissions(ctx context.Context, params []byte) ([]byte, error) {
	var args StorePermissionsArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Locator.StorePermissions(ctx, callerID, args.Source, args.Target, args.Mask); err != nil {
		return nil, err
	}
	return json.Marshal(StorePermissionsReply{})
}

func (s *Servlet) handleLoadRegistrationTime(ctx context.Context, params []byte) ([]byte, error) {
	var args LoadRegistrationTimeArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	t, err := s.Locator.LoadRegistrationTime(ctx, callerID, args.Account)
	if err != nil {
		return nil, err
	}
	return json.Marshal(LoadRegistrationTimeReply{Time: t})
}

func (s *Servlet) handleLoadLastLoginTime(ctx context.Context, params []byte) ([]byte, error) {
	var args LoadLastLoginTimeArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	t, err := s.Locator.LoadLastLoginTime(ctx, callerID, args.Account)
	if err != nil {
		return nil, err
	}
	return json.Marshal(LoadLastLoginTimeReply{Time: t})
}

func (s *Servlet) handleRename(ctx context.Context, params []byte) ([]byte, error) {
	var args RenameArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Locator.Rename(ctx, callerID, args.ID, args.Name); err != nil {
		return nil, err
	}
	return json.Marshal(RenameReply{})
}
