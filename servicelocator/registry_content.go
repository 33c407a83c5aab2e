package servicelocator

import (
	"beam/beamerr"
	"beam/servicelocator/store"
	"context"
)

// LoadParent returns id's first parent, gated by READ on id. The
// registry's content tree (spec §4.11) treats entries as
// single-parented even though the underlying DAG supports several;
// an entry associated under more than one parent returns an arbitrary
// one.
func (l *Locator) LoadParent(ctx context.Context, caller, id int64) (DirectoryEntry, error) {
	var parent DirectoryEntry
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, id, PermissionRead); err != nil {
			return err
		}
		parents, err := tx.LoadParents(id)
		if err != nil {
			return err
		}
		if len(parents) == 0 {
			return beamerr.NewServiceException("Entry has no parent.")
		}
		e, err := tx.LoadEntry(parents[0])
		if err != nil {
			return mapNotFound(err)
		}
		parent = toEntry(e)
		return nil
	})
	return parent, err
}

// MakeValue creates an empty VALUE entry under parent, gated by
// ADMINISTRATE on parent (spec §4.11 "make_value").
func (l *Locator) MakeValue(ctx context.Context, caller int64, name string, parent int64) (DirectoryEntry, error) {
	var value, parentEntry DirectoryEntry
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, parent, PermissionAdministrate); err != nil {
			return err
		}
		id, err := tx.NextEntryID()
		if err != nil {
			return err
		}
		entry := store.Entry{Type: store.EntryValue, ID: id, Name: name}
		if err := tx.StoreEntry(entry); err != nil {
			return err
		}
		if err := tx.StoreValue(id, nil); err != nil {
			return err
		}
		if err := tx.Associate(parent, id); err != nil {
			return err
		}
		parentStored, err := tx.LoadEntry(parent)
		if err != nil {
			return mapNotFound(err)
		}
		parentEntry = toEntry(parentStored)
		value = toEntry(entry)
		return nil
	})
	if err == nil {
		l.broadcastAssociated(ctx, parentEntry, value)
	}
	return value, err
}

// StoreValue overwrites id's content, gated by ADMINISTRATE on id
// (spec §4.11 "store_value (create-or-update)"); id must already name
// a VALUE entry.
func (l *Locator) StoreValue(ctx context.Context, caller, id int64, data []byte) error {
	return l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, id, PermissionAdministrate); err != nil {
			return err
		}
		entry, err := tx.LoadEntry(id)
		if err != nil {
			return mapNotFound(err)
		}
		if entry.Type != store.EntryValue {
			return beamerr.NewServiceException("Entry is not a value.")
		}
		return tx.StoreValue(id, data)
	})
}

// LoadValue returns id's content, gated by READ on id.
func (l *Locator) LoadValue(ctx context.Context, caller, id int64) ([]byte, error) {
	var data []byte
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, id, PermissionRead); err != nil {
			return err
		}
		entry, err := tx.LoadEntry(id)
		if err != nil {
			return mapNotFound(err)
		}
		if entry.Type != store.EntryValue {
			return beamerr.NewServiceException("Entry is not a value.")
		}
		v, err := tx.LoadValue(id)
		if err != nil && err != store.ErrNotFound {
			return err
		}
		data = v
		return nil
	})
	return data, err
}

// Copy duplicates id as a new entry under destination, gated by READ
// on id and ADMINISTRATE on destination. A directory is copied empty
// (children are not recursively duplicated); a value's bytes are
// copied verbatim.
func (l *Locator) Copy(ctx context.Context, caller, id, destination int64) (DirectoryEntry, error) {
	var copied, destEntry DirectoryEntry
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, id, PermissionRead); err != nil {
			return err
		}
		if err := l.requirePermission(tx, caller, destination, PermissionAdministrate); err != nil {
			return err
		}
		source, err := tx.LoadEntry(id)
		if err != nil {
			return mapNotFound(err)
		}
		newID, err := tx.NextEntryID()
		if err != nil {
			return err
		}
		entry := store.Entry{Type: source.Type, ID: newID, Name: source.Name}
		if err := tx.StoreEntry(entry); err != nil {
			return err
		}
		if source.Type == store.EntryValue {
			data, err := tx.LoadValue(id)
			if err != nil && err != store.ErrNotFound {
				return err
			}
			if err := tx.StoreValue(newID, data); err != nil {
				return err
			}
		}
		if err := tx.Associate(destination, newID); err != nil {
			return err
		}
		destStored, err := tx.LoadEntry(destination)
		if err != nil {
			return mapNotFound(err)
		}
		destEntry = toEntry(destStored)
		copied = toEntry(entry)
		return nil
	})
	if err == nil {
		l.broadcastAssociated(ctx, destEntry, copied)
	}
	return copied, err
}

// Move reparents id from every current parent to destination, gated
// by MOVE on id and ADMINISTRATE on destination.
func (l *Locator) Move(ctx context.Context, caller, id, destination int64) error {
	var oldParents []DirectoryEntry
	var entry, destEntry DirectoryEntry
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, id, PermissionMove); err != nil {
			return err
		}
		if err := l.requirePermission(tx, caller, destination, PermissionAdministrate); err != nil {
			return err
		}
		parents, err := tx.LoadParents(id)
		if err != nil {
			return err
		}
		for _, p := range parents {
			if err := tx.Detach(p, id); err != nil {
				return err
			}
			stored, err := tx.LoadEntry(p)
			if err != nil {
				return mapNotFound(err)
			}
			oldParents = append(oldParents, toEntry(stored))
		}
		if err := tx.Associate(destination, id); err != nil {
			return err
		}
		entryStored, err := tx.LoadEntry(id)
		if err != nil {
			return mapNotFound(err)
		}
		destStored, err := tx.LoadEntry(destination)
		if err != nil {
			return mapNotFound(err)
		}
		entry, destEntry = toEntry(entryStored), toEntry(destStored)
		return nil
	})
	if err == nil {
		for _, old := range oldParents {
			l.broadcastDetached(ctx, old, entry)
		}
		l.broadcastAssociated(ctx, destEntry, entry)
	}
	return err
}
