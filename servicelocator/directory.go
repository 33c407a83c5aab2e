package servicelocator

import (
	"context"
	"strings"
	"time"

	"beam/beamerr"
	"beam/servicelocator/store"
)

// LoadDirectoryEntry returns the entry for id, gated by READ on id.
func (l *Locator) LoadDirectoryEntry(ctx context.Context, caller, id int64) (DirectoryEntry, error) {
	var entry DirectoryEntry
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, id, PermissionRead); err != nil {
			return err
		}
		e, err := tx.LoadEntry(id)
		if err != nil {
			return mapNotFound(err)
		}
		entry = toEntry(e)
		return nil
	})
	return entry, err
}

// LoadParents returns id's parents, gated by READ on id.
func (l *Locator) LoadParents(ctx context.Context, caller, id int64) ([]DirectoryEntry, error) {
	return l.loadRelated(ctx, caller, id, func(tx store.Transaction) ([]int64, error) {
		return tx.LoadParents(id)
	})
}

// LoadChildren returns id's children, gated by READ on id.
func (l *Locator) LoadChildren(ctx context.Context, caller, id int64) ([]DirectoryEntry, error) {
	return l.loadRelated(ctx, caller, id, func(tx store.Transaction) ([]int64, error) {
		return tx.LoadChildren(id)
	})
}

func (l *Locator) loadRelated(ctx context.Context, caller, id int64, related func(store.Transaction) ([]int64, error)) ([]DirectoryEntry, error) {
	var out []DirectoryEntry
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, id, PermissionRead); err != nil {
			return err
		}
		ids, err := related(tx)
		if err != nil {
			return err
		}
		for _, relID := range ids {
			e, err := tx.LoadEntry(relID)
			if err != nil {
				return err
			}
			out = append(out, toEntry(e))
		}
		return nil
	})
	return out, err
}

// LoadPath resolves a '/'-separated path from root (the star
// directory) to a DirectoryEntry, gated by READ at every hop.
func (l *Locator) LoadPath(ctx context.Context, caller int64, root int64, path string) (DirectoryEntry, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	current := root
	var entry DirectoryEntry
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		for _, segment := range segments {
			if segment == "" {
				continue
			}
			if err := l.requirePermission(tx, caller, current, PermissionRead); err != nil {
				return err
			}
			children, err := tx.LoadChildren(current)
			if err != nil {
				return err
			}
			found := false
			for _, childID := range children {
				child, err := tx.LoadEntry(childID)
				if err != nil {
					return err
				}
				if child.Name == segment {
					current = child.ID
					entry = toEntry(child)
					found = true
					break
				}
			}
			if !found {
				return beamerr.NewServiceException("Path not found: " + path)
			}
		}
		return nil
	})
	return entry, err
}

// LoadAllAccounts returns every account caller has READ on.
func (l *Locator) LoadAllAccounts(ctx context.Context, caller int64) ([]DirectoryEntry, error) {
	var out []DirectoryEntry
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		entries, err := tx.LoadAllAccounts()
		if err != nil {
			return err
		}
		for _, e := range entries {
			ok, err := l.hasPermission(tx, caller, e.ID, PermissionRead)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, toEntry(e))
			}
		}
		return nil
	})
	return out, err
}

// FindAccount resolves an account by name, gated by READ once found.
func (l *Locator) FindAccount(ctx context.Context, caller int64, name string) (DirectoryEntry, error) {
	var account DirectoryEntry
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		entry, _, err := tx.LoadAccountByName(name)
		if err != nil {
			return mapNotFound(err)
		}
		if err := l.requirePermission(tx, caller, entry.ID, PermissionRead); err != nil {
			return err
		}
		account = toEntry(entry)
		return nil
	})
	return account, err
}

// MakeAccount creates a new account under parent, owned-by-convention
// of the caller (spec §4.10 "Accounts: {name (unique, trimmed
// non-empty) -> DirectoryEntry(ACCOUNT)}"), gated by ADMINISTRATE on
// parent.
func (l *Locator) MakeAccount(ctx context.Context, caller int64, name, password string, parent int64) (DirectoryEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DirectoryEntry{}, beamerr.NewServiceException("Account name must not be empty.")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return DirectoryEntry{}, err
	}

	var account, parentEntry DirectoryEntry
	err = l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, parent, PermissionAdministrate); err != nil {
			return err
		}
		if _, _, err := tx.LoadAccountByName(name); err == nil {
			return beamerr.NewServiceException("Account already exists: " + name)
		}
		id, err := tx.NextEntryID()
		if err != nil {
			return err
		}
		entry := store.Entry{Type: store.EntryAccount, ID: id, Name: name}
		if err := tx.StoreAccount(entry, store.Account{EntryID: id, PasswordHash: hash, RegistrationTime: currentTime()}); err != nil {
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
		account = toEntry(entry)
		l.broadcastAccountCreated(ctx, tx, account)
		return nil
	})
	if err == nil {
		l.broadcastAssociated(ctx, parentEntry, account)
	}
	return account, err
}

// MakeDirectory creates a new directory under parent, gated by
// ADMINISTRATE on parent.
func (l *Locator) MakeDirectory(ctx context.Context, caller int64, name string, parent int64) (DirectoryEntry, error) {
	var dir, parentEntry DirectoryEntry
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, parent, PermissionAdministrate); err != nil {
			return err
		}
		id, err := tx.NextEntryID()
		if err != nil {
			return err
		}
		entry := store.Entry{Type: store.EntryDirectory, ID: id, Name: name}
		if err := tx.StoreEntry(entry); err != nil {
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
		dir = toEntry(entry)
		return nil
	})
	if err == nil {
		l.broadcastAssociated(ctx, parentEntry, dir)
	}
	return dir, err
}

// DeleteDirectoryEntry removes id, gated by ADMINISTRATE on id, and
// recursively removes any child whose only parent was id (spec §3
// Lifecycles "deleting a directory recursively removes any child whose
// only parent was the deleted directory").
func (l *Locator) DeleteDirectoryEntry(ctx context.Context, caller, id int64) error {
	return l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, id, PermissionAdministrate); err != nil {
			return err
		}
		return deleteEntryRecursive(tx, id)
	})
}

// deleteEntryRecursive removes id, then recurses into each of id's
// children that id's removal left orphaned (no parent left at all).
// Children still reachable through another surviving parent are left
// alone, matching Associate/Detach's many-parents DAG semantics.
func deleteEntryRecursive(tx store.Transaction, id int64) error {
	children, err := tx.LoadChildren(id)
	if err != nil {
		return err
	}
	if err := tx.DeleteEntry(id); err != nil {
		return err
	}
	for _, child := range children {
		parents, err := tx.LoadParents(child)
		if err != nil {
			return err
		}
		if len(parents) == 0 {
			if err := deleteEntryRecursive(tx, child); err != nil {
				return err
			}
		}
	}
	return nil
}

// Associate attaches entry under parent, gated by MOVE on entry.
func (l *Locator) Associate(ctx context.Context, caller, entryID, parentID int64) error {
	var entry, parent DirectoryEntry
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, entryID, PermissionMove); err != nil {
			return err
		}
		if err := tx.Associate(parentID, entryID); err != nil {
			return err
		}
		entryStored, err := tx.LoadEntry(entryID)
		if err != nil {
			return mapNotFound(err)
		}
		parentStored, err := tx.LoadEntry(parentID)
		if err != nil {
			return mapNotFound(err)
		}
		entry, parent = toEntry(entryStored), toEntry(parentStored)
		return nil
	})
	if err == nil {
		l.broadcastAssociated(ctx, parent, entry)
	}
	return err
}

// Detach removes entry from parent, gated by MOVE on entry. Per spec
// §4.10, detach is only valid when entry has more than one parent —
// otherwise the caller must use DeleteDirectoryEntry.
func (l *Locator) Detach(ctx context.Context, caller, entry, parent int64) error {
	var entryVal, parentVal DirectoryEntry
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, entry, PermissionMove); err != nil {
			return err
		}
		parents, err := tx.LoadParents(entry)
		if err != nil {
			return err
		}
		if len(parents) <= 1 {
			return beamerr.NewServiceException("Cannot detach an entry's only parent; delete it instead.")
		}
		if err := tx.Detach(parent, entry); err != nil {
			return err
		}
		entryStored, err := tx.LoadEntry(entry)
		if err != nil {
			return mapNotFound(err)
		}
		parentStored, err := tx.LoadEntry(parent)
		if err != nil {
			return mapNotFound(err)
		}
		entryVal, parentVal = toEntry(entryStored), toEntry(parentStored)
		return nil
	})
	if err == nil {
		l.broadcastDetached(ctx, parentVal, entryVal)
	}
	return err
}

// Rename changes id's display name, gated by ADMINISTRATE on id.
func (l *Locator) Rename(ctx context.Context, caller, id int64, newName string) error {
	return l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, id, PermissionAdministrate); err != nil {
			return err
		}
		entry, err := tx.LoadEntry(id)
		if err != nil {
			return mapNotFound(err)
		}
		entry.Name = newName
		return tx.StoreEntry(entry)
	})
}

// StorePassword replaces account's password hash, gated by
// ADMINISTRATE on account.
func (l *Locator) StorePassword(ctx context.Context, caller, account int64, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	return l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, account, PermissionAdministrate); err != nil {
			return err
		}
		entry, err := tx.LoadEntry(account)
		if err != nil {
			return mapNotFound(err)
		}
		stored, err := tx.LoadAccount(account)
		if err != nil {
			return mapNotFound(err)
		}
		stored.PasswordHash = hash
		return tx.StoreAccount(entry, stored)
	})
}

// HasPermissions reports whether source holds perm over target.
func (l *Locator) HasPermissions(ctx context.Context, source, target int64, perm Permission) (bool, error) {
	var ok bool
	err := l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		var err error
		ok, err = l.hasPermission(tx, source, target, perm)
		return err
	})
	return ok, err
}

// StorePermissions grants mask to source over target, gated by
// ADMINISTRATE on target by caller.
func (l *Locator) StorePermissions(ctx context.Context, caller, source, target int64, mask Permissions) error {
	return l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, target, PermissionAdministrate); err != nil {
			return err
		}
		return tx.StorePermissions(store.PermissionKey{Source: source, Target: target}, uint32(mask))
	})
}

// LoadRegistrationTime returns when account was created, gated by
// READ on account.
func (l *Locator) LoadRegistrationTime(ctx context.Context, caller, account int64) (t time.Time, err error) {
	err = l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, account, PermissionRead); err != nil {
			return err
		}
		stored, err := tx.LoadAccount(account)
		if err != nil {
			return mapNotFound(err)
		}
		t = stored.RegistrationTime
		return nil
	})
	return t, err
}

// LoadLastLoginTime returns account's last login time, gated by READ
// on account.
func (l *Locator) LoadLastLoginTime(ctx context.Context, caller, account int64) (t time.Time, err error) {
	err = l.store.WithTransaction(ctx, func(tx store.Transaction) error {
		if err := l.requirePermission(tx, caller, account, PermissionRead); err != nil {
			return err
		}
		stored, err := tx.LoadAccount(account)
		if err != nil {
			return mapNotFound(err)
		}
		t = stored.LastLoginTime
		return nil
	})
	return t, err
}

func mapNotFound(err error) error {
	if err == store.ErrNotFound {
		return beamerr.NewServiceException("No such directory entry.")
	}
	return err
}
