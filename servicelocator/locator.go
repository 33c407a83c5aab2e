package servicelocator

import (
	"context"
	"sync"
	"time"

	"beam/auth"
	"beam/beamerr"
	"beam/serialization"
	"beam/servicelocator/store"

	registry "beam/discovery"
)

// Locator is the service-locator core (spec §4.10): the directory DAG,
// accounts, permissions, and registered services live in its
// DataStore; sessions and subscriptions are purely in-memory, the way
// the original treats them as live-connection bookkeeping rather than
// persisted state (spec §6 "Persistent state" never lists sessions).
type Locator struct {
	store store.DataStore

	mu               sync.Mutex
	sessions         map[string]int64 // session id -> account id
	endpointLoggedIn map[string]bool  // endpoint id -> has an active session

	nextSubID     uint64
	serviceSubs   map[string]map[uint64]pushFunc
	directorySubs map[int64]map[uint64]pushFunc
	accountSubs   map[uint64]accountSub

	// subEndpointOwner/endpointSubs index every live subscription by the
	// endpoint id that created it (spec §4.8 "on close, release every
	// subscription the endpoint holds"), so ReleaseEndpoint can cancel
	// them all without the caller having to remember its own ids.
	subEndpointOwner map[uint64]string
	endpointSubs     map[string]map[uint64]bool

	// mirror, when set, receives a Register/Deregister call alongside
	// every DataStore-backed Register/Unregister (spec_full.md's
	// enrichment of §4.10's bare {name -> properties} registry with an
	// etcd-backed store a reconnecting client can Discover through).
	mirror registry.Registry
}

// WithDiscoveryMirror installs r as the Locator's discovery mirror:
// every Register call additionally publishes the first address found
// in the service's "addresses" JSON property to r, and every
// Unregister issues the matching Deregister. A nil mirror disables
// mirroring, and a mirror registration failure never fails the
// underlying RPC — the DataStore remains the source of truth (spec
// §4.10); the mirror is best-effort fan-out for reconnecting clients
// that Discover through it.
func (l *Locator) WithDiscoveryMirror(r registry.Registry) *Locator {
	l.mirror = r
	return l
}

type pushFunc func(ctx context.Context, v serialization.Value) error

type accountSub struct {
	push   pushFunc
	caller int64
}

// NewLocator constructs a Locator persisting through s.
func NewLocator(s store.DataStore) *Locator {
	return &Locator{
		store:            s,
		sessions:         make(map[string]int64),
		endpointLoggedIn: make(map[string]bool),
		serviceSubs:      make(map[string]map[uint64]pushFunc),
		directorySubs:    make(map[int64]map[uint64]pushFunc),
		accountSubs:      make(map[uint64]accountSub),
		subEndpointOwner: make(map[uint64]string),
		endpointSubs:     make(map[string]map[uint64]bool),
	}
}

// Bootstrap ensures a "root" account exists with every permission bit
// set over the star directory, the way the original servlet's
// constructor seeds a root account the first time its data store has
// no entry 0 beyond the bare directory MemStore/BoltStore pre-create
// (original_source's ServiceLocatorServlet constructor: "make_account
// 'root', '' ... set_permissions root_account star_directory ~0").
// Idempotent: a second call against an already-bootstrapped store is a
// no-op.
func (l *Locator) Bootstrap(ctx context.Context) error {
	return l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if _, _, err := tx.LoadAccountByName("root"); err == nil {
			return nil
		} else if err != store.ErrNotFound {
			return err
		}
		hash, err := hashPassword("")
		if err != nil {
			return err
		}
		id, err := tx.NextEntryID()
		if err != nil {
			return err
		}
		entry := store.Entry{Type: store.EntryAccount, ID: id, Name: "root"}
		if err := tx.StoreAccount(entry, store.Account{EntryID: id, PasswordHash: hash, RegistrationTime: currentTime()}); err != nil {
			return err
		}
		if err := tx.Associate(StarDirectoryID, id); err != nil {
			return err
		}
		return tx.StorePermissions(store.PermissionKey{Source: id, Target: StarDirectoryID}, uint32(^Permissions(0)))
	})
}

// hasPermission implements spec §4.10's permission check: DFS from the
// target entry up through its parent links, looking for an explicit
// (source, ancestor) grant carrying perm; self is READ-allowed without
// any stored grant.
func (l *Locator) hasPermission(tx store.Transaction, sourceID, targetID int64, perm Permission) (bool, error) {
	if sourceID == targetID && perm == PermissionRead {
		return true, nil
	}
	visited := make(map[int64]bool)
	var dfs func(id int64) (bool, error)
	dfs = func(id int64) (bool, error) {
		if visited[id] {
			return false, nil
		}
		visited[id] = true
		mask, err := tx.LoadPermissions(store.PermissionKey{Source: sourceID, Target: id})
		if err != nil {
			return false, err
		}
		if Permissions(mask).Has(perm) {
			return true, nil
		}
		parents, err := tx.LoadParents(id)
		if err != nil {
			return false, err
		}
		for _, p := range parents {
			ok, err := dfs(p)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	return dfs(targetID)
}

func (l *Locator) requirePermission(tx store.Transaction, sourceID, targetID int64, perm Permission) error {
	ok, err := l.hasPermission(tx, sourceID, targetID, perm)
	if err != nil {
		return err
	}
	if !ok {
		return beamerr.ErrInsufficientPermissions()
	}
	return nil
}

func toEntry(e store.Entry) DirectoryEntry {
	return DirectoryEntry{Type: EntryType(e.Type), ID: e.ID, Name: e.Name}
}

func fromEntry(e DirectoryEntry) store.Entry {
	return store.Entry{Type: store.EntryType(e.Type), ID: e.ID, Name: e.Name}
}

// Login validates username/password, marks the account as logged in
// on endpointID (one endpoint may only be logged in once — spec
// §4.10's "duplicate login on the same endpoint fails"), stamps
// last-login, and issues a fresh session id.
func (l *Locator) Login(ctx context.Context, endpointID, username, password string) (DirectoryEntry, string, error) {
	var account DirectoryEntry
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		entry, stored, err := tx.LoadAccountByName(username)
		if err == store.ErrNotFound {
			return beamerr.NewServiceException("Invalid username or password.")
		}
		if err != nil {
			return err
		}
		if !verifyPassword(stored.PasswordHash, password) {
			return beamerr.NewServiceException("Invalid username or password.")
		}
		stored.LastLoginTime = currentTime()
		if err := tx.StoreAccount(entry, stored); err != nil {
			return err
		}
		account = toEntry(entry)
		return nil
	})
	if err != nil {
		return DirectoryEntry{}, "", err
	}

	l.mu.Lock()
	if l.endpointLoggedIn[endpointID] {
		l.mu.Unlock()
		return DirectoryEntry{}, "", beamerr.NewServiceException("Account is already logged in")
	}
	sessionID, err := auth.GenerateSessionID()
	if err != nil {
		l.mu.Unlock()
		return DirectoryEntry{}, "", err
	}
	l.endpointLoggedIn[endpointID] = true
	l.sessions[sessionID] = account.ID
	l.mu.Unlock()

	return account, sessionID, nil
}

// Logout releases endpointID's login and drops its session id,
// called when a client endpoint closes (spec §5 "closing a client
// endpoint ... fails every pending promise").
func (l *Locator) Logout(endpointID, sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.endpointLoggedIn, endpointID)
	delete(l.sessions, sessionID)
}

// ReleaseEndpoint tears down every piece of state a closing client
// endpoint leaves behind: its login/session (Logout) and every
// subscription it created via SubscribeAvailability, MonitorDirectoryEntry,
// or MonitorAccounts (spec §4.8 "on close, release the endpoint's
// subscriptions and log it out").
func (l *Locator) ReleaseEndpoint(endpointID, sessionID string) {
	l.Logout(endpointID, sessionID)

	l.mu.Lock()
	ids := make([]uint64, 0, len(l.endpointSubs[endpointID]))
	for id := range l.endpointSubs[endpointID] {
		ids = append(ids, id)
	}
	delete(l.endpointSubs, endpointID)
	l.mu.Unlock()

	for _, id := range ids {
		l.Unsubscribe(id)
	}
}

func currentTime() time.Time { return time.Now().UTC() }

// AuthenticateSession implements auth.LocatorAuthenticator: it
// resolves the handshake's (encodedSessionID, key) pair back to an
// account id and the session id itself (spec §6 "Server rejects with
// ServiceRequestException('Session not found.')").
func (l *Locator) AuthenticateSession(ctx context.Context, encodedSessionID string, key uint32) (int64, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for sessionID, accountID := range l.sessions {
		if auth.EncodeSessionID(key, sessionID) == encodedSessionID {
			return accountID, sessionID, nil
		}
	}
	return 0, "", beamerr.ErrSessionNotFound()
}

// AuthenticateAccount validates credentials without creating a
// session (spec §6 "AuthenticateAccountService").
func (l *Locator) AuthenticateAccount(ctx context.Context, username, password string) (DirectoryEntry, error) {
	var account DirectoryEntry
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		entry, stored, err := tx.LoadAccountByName(username)
		if err == store.ErrNotFound {
			return beamerr.NewServiceException("Invalid username or password.")
		}
		if err != nil {
			return err
		}
		if !verifyPassword(stored.PasswordHash, password) {
			return beamerr.NewServiceException("Invalid username or password.")
		}
		account = toEntry(entry)
		return nil
	})
	return account, err
}
