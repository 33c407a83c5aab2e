package store

import (
	"context"
	"sync"
)

// MemStore is an in-process DataStore guarded by a single mutex for
// the lifetime of each WithTransaction call — "two operations on the
// same entry are serialised" (spec §4.10) trivially holds since the
// whole store serialises, at the cost of cross-entry concurrency the
// spec permits but doesn't require.
type MemStore struct {
	mu sync.Mutex

	nextEntryID   int64
	nextServiceID int64

	entries     map[int64]Entry
	accounts    map[int64]Account
	accountByNm map[string]int64
	parents     map[int64]map[int64]struct{}
	children    map[int64]map[int64]struct{}
	permissions map[PermissionKey]uint32
	services    map[int64]Service
	values      map[int64][]byte
}

// NewMemStore constructs an empty MemStore seeded with the star
// directory (id 0).
func NewMemStore() *MemStore {
	s := &MemStore{
		nextEntryID:   1,
		nextServiceID: 1,
		entries:       make(map[int64]Entry),
		accounts:      make(map[int64]Account),
		accountByNm:   make(map[string]int64),
		parents:       make(map[int64]map[int64]struct{}),
		children:      make(map[int64]map[int64]struct{}),
		permissions:   make(map[PermissionKey]uint32),
		services:      make(map[int64]Service),
		values:        make(map[int64][]byte),
	}
	s.entries[0] = Entry{Type: EntryDirectory, ID: 0, Name: "*"}
	return s
}

func (s *MemStore) WithTransaction(ctx context.Context, fn func(tx Transaction) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(memTx{s})
}

func (s *MemStore) Close() error { return nil }

type memTx struct{ s *MemStore }

func (t memTx) NextEntryID() (int64, error) {
	id := t.s.nextEntryID
	t.s.nextEntryID++
	return id, nil
}

func (t memTx) NextServiceID() (int64, error) {
	id := t.s.nextServiceID
	t.s.nextServiceID++
	return id, nil
}

func (t memTx) LoadEntry(id int64) (Entry, error) {
	e, ok := t.s.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (t memTx) StoreEntry(entry Entry) error {
	t.s.entries[entry.ID] = entry
	return nil
}

func (t memTx) DeleteEntry(id int64) error {
	delete(t.s.entries, id)
	for parent := range t.s.parents[id] {
		delete(t.s.children[parent], id)
	}
	for child := range t.s.children[id] {
		delete(t.s.parents[child], id)
	}
	delete(t.s.parents, id)
	delete(t.s.children, id)
	delete(t.s.values, id)
	return nil
}

func (t memTx) LoadValue(id int64) ([]byte, error) {
	v, ok := t.s.values[id]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (t memTx) StoreValue(id int64, data []byte) error {
	t.s.values[id] = data
	return nil
}

func (t memTx) LoadParents(id int64) ([]int64, error) {
	return keysOf(t.s.parents[id]), nil
}

func (t memTx) LoadChildren(id int64) ([]int64, error) {
	return keysOf(t.s.children[id]), nil
}

func (t memTx) Associate(parent, child int64) error {
	if t.s.parents[child] == nil {
		t.s.parents[child] = make(map[int64]struct{})
	}
	if t.s.children[parent] == nil {
		t.s.children[parent] = make(map[int64]struct{})
	}
	t.s.parents[child][parent] = struct{}{}
	t.s.children[parent][child] = struct{}{}
	return nil
}

func (t memTx) Detach(parent, child int64) error {
	delete(t.s.parents[child], parent)
	delete(t.s.children[parent], child)
	return nil
}

func (t memTx) LoadAccountByName(name string) (Entry, Account, error) {
	id, ok := t.s.accountByNm[name]
	if !ok {
		return Entry{}, Account{}, ErrNotFound
	}
	return t.s.entries[id], t.s.accounts[id], nil
}

func (t memTx) LoadAccount(id int64) (Account, error) {
	a, ok := t.s.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (t memTx) LoadAllAccounts() ([]Entry, error) {
	out := make([]Entry, 0, len(t.s.accounts))
	for id := range t.s.accounts {
		out = append(out, t.s.entries[id])
	}
	return out, nil
}

func (t memTx) StoreAccount(entry Entry, account Account) error {
	t.s.entries[entry.ID] = entry
	t.s.accounts[entry.ID] = account
	t.s.accountByNm[entry.Name] = entry.ID
	return nil
}

func (t memTx) LoadPermissions(key PermissionKey) (uint32, error) {
	return t.s.permissions[key], nil
}

func (t memTx) StorePermissions(key PermissionKey, mask uint32) error {
	t.s.permissions[key] = mask
	return nil
}

func (t memTx) LoadService(id int64) (Service, error) {
	svc, ok := t.s.services[id]
	if !ok {
		return Service{}, ErrNotFound
	}
	return svc, nil
}

func (t memTx) LoadServicesByName(name string) ([]Service, error) {
	var out []Service
	for _, svc := range t.s.services {
		if svc.Name == name {
			out = append(out, svc)
		}
	}
	return out, nil
}

func (t memTx) StoreService(service Service) error {
	t.s.services[service.ID] = service
	return nil
}

func (t memTx) DeleteService(id int64) error {
	delete(t.s.services, id)
	return nil
}

func keysOf(m map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
