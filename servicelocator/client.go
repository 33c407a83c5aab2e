package servicelocator

import (
	"context"
	"encoding/json"
	"sync"

	"beam/auth"
	"beam/beamerr"
	"beam/serialization"
	"beam/service"
)

// Client is the service-locator RPC stub (spec §4.10's client side):
// every exported method marshals its arguments, calls the matching
// "Beam.ServiceLocator.*Service" method over the current
// service.ProtocolClient, and unmarshals the reply. current is a
// resolver rather than a fixed client so a Client built over a
// client.ReconnectHandler keeps working across reconnects — pass
// handler.Client directly as current.
type Client struct {
	current func() *service.ProtocolClient

	mu         sync.RWMutex
	sessionID  string
	endpointID string
}

// NewClient builds a Client that resolves its connection through
// current on every call.
func NewClient(current func() *service.ProtocolClient) *Client {
	return &Client{current: current}
}

// EncodeSessionID implements auth.SessionSource: the encoded form
// SendSessionIdService expects, computed from the session id a prior
// Login call obtained (spec §6 "UPPER(SHA1(str(key)||session_id))").
func (c *Client) EncodeSessionID(key uint32) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return auth.EncodeSessionID(key, c.sessionID)
}

// SessionID returns the session id from the most recent successful
// Login, or "" if none has completed yet.
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// Notifications returns the channel the connection's push messages
// (DirectoryEntryAssociatedMessage, DirectoryEntryDetachedMessage,
// ServiceAvailabilityMessage, AccountUpdateMessage) arrive on. Callers
// that sit behind a reconnecting handler should re-fetch this after
// every OnConnect, since it's bound to whichever ProtocolClient is
// live when called.
func (c *Client) Notifications() <-chan serialization.Value {
	return c.current().Pushes()
}

func (c *Client) call(ctx context.Context, method string, args, reply any) error {
	params, err := json.Marshal(args)
	if err != nil {
		return beamerr.Wrap("servicelocator: encode request", err)
	}
	pc := c.current()
	if pc == nil {
		return beamerr.NewServiceException("servicelocator: not connected")
	}
	resp, err := pc.SendRequest(ctx, method, params)
	if err != nil {
		return err
	}
	if resp.IsException {
		return resp.Exception()
	}
	if reply == nil || len(resp.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Payload, reply); err != nil {
		return beamerr.Wrap("servicelocator: decode response", err)
	}
	return nil
}

// Login authenticates username/password and remembers the returned
// session id for subsequent EncodeSessionID calls.
func (c *Client) Login(ctx context.Context, endpointID, username, password string) (DirectoryEntry, error) {
	var reply LoginReply
	err := c.call(ctx, LoginMethod, LoginArgs{EndpointID: endpointID, Username: username, Password: password}, &reply)
	if err != nil {
		return DirectoryEntry{}, err
	}
	c.mu.Lock()
	c.sessionID = reply.SessionID
	c.endpointID = endpointID
	c.mu.Unlock()
	return reply.Account, nil
}

func (c *Client) AuthenticateAccount(ctx context.Context, username, password string) (DirectoryEntry, error) {
	var reply AuthenticateAccountReply
	err := c.call(ctx, AuthenticateAccountMethod, AuthenticateAccountArgs{Username: username, Password: password}, &reply)
	return reply.Account, err
}

// AuthenticateSession implements auth.LocatorAuthenticator by calling
// out to the central locator's SessionAuthenticationService, the path
// a remote servlet's ServletAdapter takes when it doesn't share a
// process with the Locator itself.
func (c *Client) AuthenticateSession(ctx context.Context, encodedSessionID string, key uint32) (int64, string, error) {
	var reply SessionAuthenticationReply
	err := c.call(ctx, SessionAuthenticationMethod, SessionAuthenticationArgs{EncodedSessionID: encodedSessionID, Key: key}, &reply)
	return reply.AccountID, reply.SessionID, err
}

func (c *Client) Locate(ctx context.Context, name string) ([]ServiceEntry, error) {
	var reply LocateReply
	err := c.call(ctx, LocateMethod, LocateArgs{Name: name}, &reply)
	return reply.Entries, err
}

func (c *Client) Register(ctx context.Context, account int64, name string, properties []byte) (ServiceEntry, error) {
	var reply RegisterReply
	err := c.call(ctx, RegisterMethod, RegisterArgs{Account: account, Name: name, Properties: properties}, &reply)
	return reply.Entry, err
}

func (c *Client) Unregister(ctx context.Context, serviceID int64) error {
	return c.call(ctx, UnregisterMethod, UnregisterArgs{ServiceID: serviceID}, &UnregisterReply{})
}

func (c *Client) SubscribeAvailability(ctx context.Context, name string) (uint64, error) {
	var reply SubscribeAvailabilityReply
	err := c.call(ctx, SubscribeAvailabilityMethod, SubscribeAvailabilityArgs{Name: name}, &reply)
	return reply.SubscriptionID, err
}

func (c *Client) UnsubscribeAvailability(ctx context.Context, subscriptionID uint64) error {
	return c.call(ctx, UnsubscribeAvailabilityMethod, UnsubscribeAvailabilityArgs{SubscriptionID: subscriptionID}, &UnsubscribeAvailabilityReply{})
}

func (c *Client) MonitorDirectoryEntry(ctx context.Context, entryID int64) (uint64, error) {
	var reply MonitorDirectoryEntryReply
	err := c.call(ctx, MonitorDirectoryEntryMethod, MonitorDirectoryEntryArgs{EntryID: entryID}, &reply)
	return reply.SubscriptionID, err
}

func (c *Client) MonitorAccounts(ctx context.Context) (uint64, error) {
	var reply MonitorAccountsReply
	err := c.call(ctx, MonitorAccountsMethod, MonitorAccountsArgs{}, &reply)
	return reply.SubscriptionID, err
}

func (c *Client) UnmonitorAccounts(ctx context.Context, subscriptionID uint64) error {
	return c.call(ctx, UnmonitorAccountsMethod, UnmonitorAccountsArgs{SubscriptionID: subscriptionID}, &UnmonitorAccountsReply{})
}

func (c *Client) LoadDirectoryEntry(ctx context.Context, id int64) (DirectoryEntry, error) {
	var reply LoadDirectoryEntryReply
	err := c.call(ctx, LoadDirectoryEntryMethod, LoadDirectoryEntryArgs{ID: id}, &reply)
	return reply.Entry, err
}

func (c *Client) LoadPath(ctx context.Context, root int64, path string) (DirectoryEntry, error) {
	var reply LoadPathReply
	err := c.call(ctx, LoadPathMethod, LoadPathArgs{Root: root, Path: path}, &reply)
	return reply.Entry, err
}

func (c *Client) LoadParents(ctx context.Context, id int64) ([]DirectoryEntry, error) {
	var reply LoadParentsReply
	err := c.call(ctx, LoadParentsMethod, LoadParentsArgs{ID: id}, &reply)
	return reply.Entries, err
}

func (c *Client) LoadChildren(ctx context.Context, id int64) ([]DirectoryEntry, error) {
	var reply LoadChildrenReply
	err := c.call(ctx, LoadChildrenMethod, LoadChildrenArgs{ID: id}, &reply)
	return reply.Entries, err
}

func (c *Client) LoadAllAccounts(ctx context.Context) ([]DirectoryEntry, error) {
	var reply LoadAllAccountsReply
	err := c.call(ctx, LoadAllAccountsMethod, LoadAllAccountsArgs{}, &reply)
	return reply.Accounts, err
}

func (c *Client) FindAccount(ctx context.Context, name string) (DirectoryEntry, error) {
	var reply FindAccountReply
	err := c.call(ctx, FindAccountMethod, FindAccountArgs{Name: name}, &reply)
	return reply.Account, err
}

func (c *Client) MakeAccount(ctx context.Context, name, password string, parent int64) (DirectoryEntry, error) {
	var reply MakeAccountReply
	err := c.call(ctx, MakeAccountMethod, MakeAccountArgs{Name: name, Password: password, Parent: parent}, &reply)
	return reply.Account, err
}

func (c *Client) MakeDirectory(ctx context.Context, name string, parent int64) (DirectoryEntry, error) {
	var reply MakeDirectoryReply
	err := c.call(ctx, MakeDirectoryMethod, MakeDirectoryArgs{Name: name, Parent: parent}, &reply)
	return reply.Entry, err
}

func (c *Client) DeleteDirectoryEntry(ctx context.Context, id int64) error {
	return c.call(ctx, DeleteDirectoryEntryMethod, DeleteDirectoryEntryArgs{ID: id}, &DeleteDirectoryEntryReply{})
}

func (c *Client) Associate(ctx context.Context, entryID, parentID int64) error {
	return c.call(ctx, AssociateMethod, AssociateArgs{EntryID: entryID, ParentID: parentID}, &AssociateReply{})
}

func (c *Client) Detach(ctx context.Context, entryID, parentID int64) error {
	return c.call(ctx, DetachMethod, DetachArgs{EntryID: entryID, ParentID: parentID}, &DetachReply{})
}

func (c *Client) StorePassword(ctx context.Context, account int64, password string) error {
	return c.call(ctx, StorePasswordMethod, StorePasswordArgs{Account: account, Password: password}, &StorePasswordReply{})
}

func (c *Client) HasPermissions(ctx context.Context, source, target int64, mask Permission) (bool, error) {
	var reply HasPermissionsReply
	err := c.call(ctx, HasPermissionsMethod, HasPermissionsArgs{Source: source, Target: target, Mask: mask}, &reply)
	return reply.OK, err
}

func (c *Client) StorePermissions(ctx context.Context, source, target int64, mask Permissions) error {
	return c.call(ctx, StorePermissionsMethod, StorePermissionsArgs{Source: source, Target: target, Mask: mask}, &StorePermissionsReply{})
}

func (c *Client) LoadRegistrationTime(ctx context.Context, account int64) (LoadRegistrationTimeReply, error) {
	var reply LoadRegistrationTimeReply
	err := c.call(ctx, LoadRegistrationTimeMethod, LoadRegistrationTimeArgs{Account: account}, &reply)
	return reply, err
}

func (c *Client) LoadLastLoginTime(ctx context.Context, account int64) (LoadLastLoginTimeReply, error) {
	var reply LoadLastLoginTimeReply
	err := c.call(ctx, LoadLastLoginTimeMethod, LoadLastLoginTimeArgs{Account: account}, &reply)
	return reply, err
}

func (c *Client) Rename(ctx context.Context, id int64, name string) error {
	return c.call(ctx, RenameMethod, RenameArgs{ID: id, Name: name}, &RenameReply{})
}
