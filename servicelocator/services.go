package servicelocator

import (
	"context"
	"encoding/json"

	"beam/beamerr"
	"beam/serialization"
	"beam/servicelocator/store"

	registry "beam/discovery"
)

func toServiceEntry(svc store.Service, account DirectoryEntry) ServiceEntry {
	return ServiceEntry{Name: svc.Name, Properties: svc.Properties, ID: svc.ID, Account: account}
}

// mirrorProperties is the "addresses" shape §6 requires clients parse
// out of a service's JSON properties blob.
type mirrorProperties struct {
	Addresses []string `json:"addresses"`
}

// firstAddress returns the first address named in properties, or ""
// if properties carries none — services published without a reachable
// address (pure metadata registrations) simply don't mirror.
func firstAddress(properties []byte) string {
	var p mirrorProperties
	if err := json.Unmarshal(properties, &p); err != nil || len(p.Addresses) == 0 {
		return ""
	}
	return p.Addresses[0]
}

// Register publishes a new service instance under name, owned by
// account, gated by READ on account: the caller may register on its
// own behalf or on behalf of any account it can READ.
func (l *Locator) Register(ctx context.Context, caller, account int64, name string, properties []byte) (ServiceEntry, error) {
	var entry ServiceEntry
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, account, PermissionRead); err != nil {
			return err
		}
		id, err := tx.NextServiceID()
		if err != nil {
			return err
		}
		svc := store.Service{ID: id, Name: name, Properties: properties, AccountID: account}
		if err := tx.StoreService(svc); err != nil {
			return err
		}
		accEntry, err := tx.LoadEntry(account)
		if err != nil {
			return mapNotFound(err)
		}
		entry = toServiceEntry(svc, toEntry(accEntry))
		return nil
	})
	if err != nil {
		return ServiceEntry{}, err
	}
	if l.mirror != nil {
		if addr := firstAddress(properties); addr != "" {
			_ = l.mirror.Register(name, registry.ServiceInstance{Addr: addr}, int64(mirrorLeaseSeconds))
		}
	}
	l.broadcastServiceAvailability(ctx, name, entry, true)
	return entry, nil
}

// mirrorLeaseSeconds is the TTL handed to an etcd-backed discovery
// mirror; it only bounds how long a stale registration lingers after a
// servlet crashes without calling Unregister, not the DataStore entry,
// which Unregister always removes explicitly.
const mirrorLeaseSeconds = 30

// Unregister withdraws a previously registered service instance, gated
// by READ on the owning account.
func (l *Locator) Unregister(ctx context.Context, caller, serviceID int64) error {
	var entry ServiceEntry
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		svc, err := tx.LoadService(serviceID)
		if err != nil {
			return mapNotFound(err)
		}
		if err := l.requirePermission(tx, caller, svc.AccountID, PermissionRead); err != nil {
			return err
		}
		accEntry, err := tx.LoadEntry(svc.AccountID)
		if err != nil {
			return mapNotFound(err)
		}
		entry = toServiceEntry(svc, toEntry(accEntry))
		return tx.DeleteService(serviceID)
	})
	if err != nil {
		return err
	}
	if l.mirror != nil {
		if addr := firstAddress(entry.Properties); addr != "" {
			_ = l.mirror.Deregister(entry.Name, addr)
		}
	}
	l.broadcastServiceAvailability(ctx, entry.Name, entry, false)
	return nil
}

// Locate returns every registered ServiceEntry for name, gated by READ
// on each entry's owning account (entries the caller cannot see are
// silently dropped, not errored, matching a directory listing's
// filter semantics).
func (l *Locator) Locate(ctx context.Context, caller int64, name string) ([]ServiceEntry, error) {
	var out []ServiceEntry
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		svcs, err := tx.LoadServicesByName(name)
		if err != nil {
			return err
		}
		for _, svc := range svcs {
			ok, err := l.hasPermission(tx, caller, svc.AccountID, PermissionRead)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			accEntry, err := tx.LoadEntry(svc.AccountID)
			if err != nil {
				return err
			}
			out = append(out, toServiceEntry(svc, toEntry(accEntry)))
		}
		return nil
	})
	return out, err
}

// SubscribeAvailability registers push to be called whenever a service
// under name is registered or unregistered (spec §4.10
// "SubscribeAvailabilityService"). It returns a subscription id for
// Unsubscribe. ctx's endpoint id, if any, is recorded so ReleaseEndpoint
// can cancel the subscription if the connection closes first.
func (l *Locator) SubscribeAvailability(ctx context.Context, name string, push pushFunc) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSubID
	l.nextSubID++
	if l.serviceSubs[name] == nil {
		l.serviceSubs[name] = make(map[uint64]pushFunc)
	}
	l.serviceSubs[name][id] = push
	l.trackSubLocked(ctx, id)
	return id
}

// trackSubLocked records that subscription id belongs to ctx's endpoint,
// if it has one, so ReleaseEndpoint can find and cancel it later. l.mu
// must already be held.
func (l *Locator) trackSubLocked(ctx context.Context, id uint64) {
	endpointID, ok := EndpointIDFromContext(ctx)
	if !ok {
		return
	}
	l.subEndpointOwner[id] = endpointID
	if l.endpointSubs[endpointID] == nil {
		l.endpointSubs[endpointID] = make(map[uint64]bool)
	}
	l.endpointSubs[endpointID][id] = true
}

// Unsubscribe cancels a subscription previously returned by
// SubscribeAvailability, MonitorDirectoryEntry, or MonitorAccounts.
func (l *Locator) Unsubscribe(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unsubscribeLocked(id)
}

func (l *Locator) unsubscribeLocked(id uint64) {
	for _, subs := range l.serviceSubs {
		delete(subs, id)
	}
	for _, subs := range l.directorySubs {
		delete(subs, id)
	}
	delete(l.accountSubs, id)
	if endpointID, ok := l.subEndpointOwner[id]; ok {
		delete(l.subEndpointOwner, id)
		delete(l.endpointSubs[endpointID], id)
	}
}

// MonitorDirectoryEntry registers push to be called whenever entryID's
// children change, gated by READ on entryID at subscribe time.
func (l *Locator) MonitorDirectoryEntry(ctx context.Context, caller, entryID int64, push pushFunc) (uint64, error) {
	var ok bool
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		var err error
		ok, err = l.hasPermission(tx, caller, entryID, PermissionRead)
		return err
	})
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, beamerr.ErrInsufficientPermissions()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSubID
	l.nextSubID++
	if l.directorySubs[entryID] == nil {
		l.directorySubs[entryID] = make(map[uint64]pushFunc)
	}
	l.directorySubs[entryID][id] = push
	l.trackSubLocked(ctx, id)
	return id, nil
}

// MonitorAccounts registers push to be called whenever a new account
// is created anywhere the caller can READ.
func (l *Locator) MonitorAccounts(ctx context.Context, caller int64, push pushFunc) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSubID
	l.nextSubID++
	l.accountSubs[id] = accountSub{push: push, caller: caller}
	l.trackSubLocked(ctx, id)
	return id
}

// UnmonitorAccounts cancels a MonitorAccounts subscription.
func (l *Locator) UnmonitorAccounts(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unsubscribeLocked(id)
}

func (l *Locator) broadcastServiceAvailability(ctx context.Context, name string, entry ServiceEntry, available bool) {
	l.mu.Lock()
	subs := make([]pushFunc, 0, len(l.serviceSubs[name]))
	for _, push := range l.serviceSubs[name] {
		subs = append(subs, push)
	}
	l.mu.Unlock()
	msg := &ServiceAvailabilityMessage{Entry: entry, Available: available}
	for _, push := range subs {
		_ = push(ctx, msg)
	}
}

func (l *Locator) broadcastAssociated(ctx context.Context, parent, entry DirectoryEntry) {
	l.broadcastDirectoryChange(ctx, parent, &DirectoryEntryAssociatedMessage{Parent: parent, Entry: entry})
}

func (l *Locator) broadcastDetached(ctx context.Context, parent, entry DirectoryEntry) {
	l.broadcastDirectoryChange(ctx, parent, &DirectoryEntryDetachedMessage{Parent: parent, Entry: entry})
}

func (l *Locator) broadcastDirectoryChange(ctx context.Context, parent DirectoryEntry, msg serialization.Value) {
	l.mu.Lock()
	subs := make([]pushFunc, 0, len(l.directorySubs[parent.ID]))
	for _, push := range l.directorySubs[parent.ID] {
		subs = append(subs, push)
	}
	l.mu.Unlock()
	for _, push := range subs {
		_ = push(ctx, msg)
	}
}

func (l *Locator) broadcastAccountCreated(ctx context.Context, tx store.Transaction, account DirectoryEntry) {
	l.mu.Lock()
	subs := make([]accountSub, 0, len(l.accountSubs))
	for _, sub := range l.accountSubs {
		subs = append(subs, sub)
	}
	l.mu.Unlock()
	for _, sub := range subs {
		ok, err := l.hasPermission(tx, sub.caller, account.ID, PermissionRead)
		if err != nil || !ok {
			continue
		}
		_ = sub.push(ctx, &AccountUpdateMessage{Account: account, Type: AccountAdded})
	}
}
