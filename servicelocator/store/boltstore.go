package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

var (
	bucketEntries     = []byte("entries")
	bucketAccounts    = []byte("accounts")
	bucketAccountName = []byte("accounts_by_name")
	bucketParents     = []byte("parents")
	bucketChildren    = []byte("children")
	bucketPermissions = []byte("permissions")
	bucketServices    = []byte("services")
	bucketValues      = []byte("values")
	bucketMeta        = []byte("meta")

	metaKeyNextEntryID   = []byte("next_entry_id")
	metaKeyNextServiceID = []byte("next_service_id")
)

// BoltStore is a DataStore backed by an embedded go.etcd.io/bbolt
// database: every WithTransaction call runs inside one bbolt.Update,
// giving the locator the same single-writer serialisation MemStore
// gives it, plus durability across restarts.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens (creating if absent) a bbolt database at path
// and ensures every bucket the locator's schema needs exists.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("servicelocator/store: open bbolt: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{
			bucketEntries, bucketAccounts, bucketAccountName, bucketParents,
			bucketChildren, bucketPermissions, bucketServices, bucketValues, bucketMeta,
		} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		meta := tx.Bucket(bucketMeta)
		if meta.Get(metaKeyNextEntryID) == nil {
			putUint64(meta, metaKeyNextEntryID, 1)
		}
		if meta.Get(metaKeyNextServiceID) == nil {
			putUint64(meta, metaKeyNextServiceID, 1)
		}
		entries := tx.Bucket(bucketEntries)
		if entries.Get(entryKey(0)) == nil {
			return putJSON(entries, entryKey(0), Entry{Type: EntryDirectory, ID: 0, Name: "*"})
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) WithTransaction(ctx context.Context, fn func(tx Transaction) error) error {
	return s.db.Update(func(btx *bbolt.Tx) error {
		return fn(boltTx{btx})
	})
}

type boltTx struct{ tx *bbolt.Tx }

func entryKey(id int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}

func putUint64(b *bbolt.Bucket, key []byte, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	b.Put(key, buf[:])
}

func getUint64(b *bbolt.Bucket, key []byte) uint64 {
	v := b.Get(key)
	if v == nil {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}

func putJSON(b *bbolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

func getJSON(b *bbolt.Bucket, key []byte, v any) (bool, error) {
	data := b.Get(key)
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

func (t boltTx) NextEntryID() (int64, error) {
	meta := t.tx.Bucket(bucketMeta)
	id := getUint64(meta, metaKeyNextEntryID)
	putUint64(meta, metaKeyNextEntryID, id+1)
	return int64(id), nil
}

func (t boltTx) NextServiceID() (int64, error) {
	meta := t.tx.Bucket(bucketMeta)
	id := getUint64(meta, metaKeyNextServiceID)
	putUint64(meta, metaKeyNextServiceID, id+1)
	return int64(id), nil
}

func (t boltTx) LoadEntry(id int64) (Entry, error) {
	var e Entry
	ok, err := getJSON(t.tx.Bucket(bucketEntries), entryKey(id), &e)
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (t boltTx) StoreEntry(entry Entry) error {
	return putJSON(t.tx.Bucket(bucketEntries), entryKey(entry.ID), entry)
}

func (t boltTx) DeleteEntry(id int64) error {
	if err := t.tx.Bucket(bucketEntries).Delete(entryKey(id)); err != nil {
		return err
	}
	parents, _ := t.LoadParents(id)
	for _, p := range parents {
		_ = t.Detach(p, id)
	}
	children, _ := t.LoadChildren(id)
	for _, c := range children {
		_ = t.Detach(id, c)
	}
	if err := t.tx.Bucket(bucketValues).Delete(entryKey(id)); err != nil {
		return err
	}
	return t.tx.Bucket(bucketParents).Delete(entryKey(id))
}

func (t boltTx) LoadValue(id int64) ([]byte, error) {
	v := t.tx.Bucket(bucketValues).Get(entryKey(id))
	if v == nil {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (t boltTx) StoreValue(id int64, data []byte) error {
	return t.tx.Bucket(bucketValues).Put(entryKey(id), data)
}

func (t boltTx) loadIDSet(bucket []byte, id int64) ([]int64, error) {
	var ids []int64
	_, err := getJSON(t.tx.Bucket(bucket), entryKey(id), &ids)
	return ids, err
}

func (t boltTx) storeIDSet(bucket []byte, id int64, ids []int64) error {
	return putJSON(t.tx.Bucket(bucket), entryKey(id), ids)
}

func (t boltTx) LoadParents(id int64) ([]int64, error) {
	return t.loadIDSet(bucketParents, id)
}

func (t boltTx) LoadChildren(id int64) ([]int64, error) {
	return t.loadIDSet(bucketChildren, id)
}

func (t boltTx) Associate(parent, child int64) error {
	parents, err := t.loadIDSet(bucketParents, child)
	if err != nil {
		return err
	}
	if err := t.storeIDSet(bucketParents, child, appendUnique(parents, parent)); err != nil {
		return err
	}
	children, err := t.loadIDSet(bucketChildren, parent)
	if err != nil {
		return err
	}
	return t.storeIDSet(bucketChildren, parent, appendUnique(children, child))
}

func (t boltTx) Detach(parent, child int64) error {
	parents, err := t.loadIDSet(bucketParents, child)
	if err != nil {
		return err
	}
	if err := t.storeIDSet(bucketParents, child, removeID(parents, parent)); err != nil {
		return err
	}
	children, err := t.loadIDSet(bucketChildren, parent)
	if err != nil {
		return err
	}
	return t.storeIDSet(bucketChildren, parent, removeID(children, child))
}

func (t boltTx) LoadAccountByName(name string) (Entry, Account, error) {
	idBytes := t.tx.Bucket(bucketAccountName).Get([]byte(name))
	if idBytes == nil {
		return Entry{}, Account{}, ErrNotFound
	}
	id := int64(binary.BigEndian.Uint64(idBytes))
	entry, err := t.LoadEntry(id)
	if err != nil {
		return Entry{}, Account{}, err
	}
	account, err := t.LoadAccount(id)
	return entry, account, err
}

func (t boltTx) LoadAccount(id int64) (Account, error) {
	var a Account
	ok, err := getJSON(t.tx.Bucket(bucketAccounts), entryKey(id), &a)
	if err != nil {
		return Account{}, err
	}
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (t boltTx) LoadAllAccounts() ([]Entry, error) {
	var out []Entry
	err := t.tx.Bucket(bucketAccounts).ForEach(func(k, v []byte) error {
		id := int64(binary.BigEndian.Uint64(k))
		entry, err := t.LoadEntry(id)
		if err != nil {
			return err
		}
		out = append(out, entry)
		return nil
	})
	return out, err
}

func (t boltTx) StoreAccount(entry Entry, account Account) error {
	if err := t.StoreEntry(entry); err != nil {
		return err
	}
	if err := putJSON(t.tx.Bucket(bucketAccounts), entryKey(entry.ID), account); err != nil {
		return err
	}
	return t.tx.Bucket(bucketAccountName).Put([]byte(entry.Name), entryKey(entry.ID))
}

func permissionKeyBytes(key PermissionKey) []byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], uint64(key.Source))
	binary.BigEndian.PutUint64(b[8:], uint64(key.Target))
	return b[:]
}

func (t boltTx) LoadPermissions(key PermissionKey) (uint32, error) {
	v := t.tx.Bucket(bucketPermissions).Get(permissionKeyBytes(key))
	if v == nil {
		return 0, nil
	}
	return binary.BigEndian.Uint32(v), nil
}

func (t boltTx) StorePermissions(key PermissionKey, mask uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], mask)
	return t.tx.Bucket(bucketPermissions).Put(permissionKeyBytes(key), buf[:])
}

func (t boltTx) LoadService(id int64) (Service, error) {
	var svc Service
	ok, err := getJSON(t.tx.Bucket(bucketServices), entryKey(id), &svc)
	if err != nil {
		return Service{}, err
	}
	if !ok {
		return Service{}, ErrNotFound
	}
	return svc, nil
}

func (t boltTx) LoadServicesByName(name string) ([]Service, error) {
	var out []Service
	err := t.tx.Bucket(bucketServices).ForEach(func(k, v []byte) error {
		var svc Service
		if err := json.Unmarshal(v, &svc); err != nil {
			return err
		}
		if svc.Name == name {
			out = append(out, svc)
		}
		return nil
	})
	return out, err
}

func (t boltTx) StoreService(service Service) error {
	return putJSON(t.tx.Bucket(bucketServices), entryKey(service.ID), service)
}

func (t boltTx) DeleteService(id int64) error {
	return t.tx.Bucket(bucketServices).Delete(entryKey(id))
}

func appendUnique(ids []int64, id int64) []int64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
