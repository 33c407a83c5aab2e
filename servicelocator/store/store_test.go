package store

import (
	"context"
	"path/filepath"
	"testing"
)

func testStores(t *testing.T) map[string]DataStore {
	t.Helper()
	bolt, err := OpenBoltStore(filepath.Join(t.TempDir(), "locator.db"))
	if err != nil {
		t.Fatalf("OpenBoltStore failed: %v", err)
	}
	t.Cleanup(func() { bolt.Close() })
	return map[string]DataStore{
		"mem":  NewMemStore(),
		"bolt": bolt,
	}
}

func TestDataStoreEntryRoundTrip(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var id int64
			err := s.WithTransaction(ctx, func(tx Transaction) error {
				var err error
				id, err = tx.NextEntryID()
				if err != nil {
					return err
				}
				return tx.StoreEntry(Entry{Type: EntryDirectory, ID: id, Name: "trades"})
			})
			if err != nil {
				t.Fatalf("store failed: %v", err)
			}

			err = s.WithTransaction(ctx, func(tx Transaction) error {
				entry, err := tx.LoadEntry(id)
				if err != nil {
					return err
				}
				if entry.Name != "trades" {
					t.Fatalf("expected name %q, got %q", "trades", entry.Name)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("load failed: %v", err)
			}
		})
	}
}

func TestDataStoreAssociateDetach(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			err := s.WithTransaction(ctx, func(tx Transaction) error {
				id, err := tx.NextEntryID()
				if err != nil {
					return err
				}
				if err := tx.StoreEntry(Entry{Type: EntryDirectory, ID: id, Name: "child"}); err != nil {
					return err
				}
				if err := tx.Associate(0, id); err != nil {
					return err
				}
				children, err := tx.LoadChildren(0)
				if err != nil {
					return err
				}
				if len(children) != 1 || children[0] != id {
					t.Fatalf("expected one child %d, got %v", id, children)
				}
				parents, err := tx.LoadParents(id)
				if err != nil {
					return err
				}
				if len(parents) != 1 || parents[0] != 0 {
					t.Fatalf("expected parent [0], got %v", parents)
				}
				if err := tx.Detach(0, id); err != nil {
					return err
				}
				children, err = tx.LoadChildren(0)
				if err != nil {
					return err
				}
				if len(children) != 0 {
					t.Fatalf("expected no children after detach, got %v", children)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("transaction failed: %v", err)
			}
		})
	}
}

func TestDataStoreAccountByName(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			err := s.WithTransaction(ctx, func(tx Transaction) error {
				id, err := tx.NextEntryID()
				if err != nil {
					return err
				}
				entry := Entry{Type: EntryAccount, ID: id, Name: "alice"}
				return tx.StoreAccount(entry, Account{EntryID: id, PasswordHash: "hash"})
			})
			if err != nil {
				t.Fatalf("store account failed: %v", err)
			}

			err = s.WithTransaction(ctx, func(tx Transaction) error {
				entry, account, err := tx.LoadAccountByName("alice")
				if err != nil {
					return err
				}
				if entry.Name != "alice" || account.PasswordHash != "hash" {
					t.Fatalf("unexpected account: %+v %+v", entry, account)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("load account failed: %v", err)
			}

			err = s.WithTransaction(ctx, func(tx Transaction) error {
				_, _, err := tx.LoadAccountByName("bob")
				if err != ErrNotFound {
					t.Fatalf("expected ErrNotFound for an unknown account, got %v", err)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("negative lookup failed: %v", err)
			}
		})
	}
}

func TestDataStoreServicesByName(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			err := s.WithTransaction(ctx, func(tx Transaction) error {
				id, err := tx.NextServiceID()
				if err != nil {
					return err
				}
				return tx.StoreService(Service{ID: id, Name: "quotes", Properties: []byte(`{}`), AccountID: 1})
			})
			if err != nil {
				t.Fatalf("store service failed: %v", err)
			}

			err = s.WithTransaction(ctx, func(tx Transaction) error {
				svcs, err := tx.LoadServicesByName("quotes")
				if err != nil {
					return err
				}
				if len(svcs) != 1 {
					t.Fatalf("expected one service, got %d", len(svcs))
				}
				return nil
			})
			if err != nil {
				t.Fatalf("load services failed: %v", err)
			}
		})
	}
}

func TestDataStorePermissions(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := PermissionKey{Source: 1, Target: 2}
			err := s.WithTransaction(ctx, func(tx Transaction) error {
				mask, err := tx.LoadPermissions(key)
				if err != nil {
					return err
				}
				if mask != 0 {
					t.Fatalf("expected no permissions by default, got %d", mask)
				}
				return tx.StorePermissions(key, 3)
			})
			if err != nil {
				t.Fatalf("transaction failed: %v", err)
			}

			err = s.WithTransaction(ctx, func(tx Transaction) error {
				mask, err := tx.LoadPermissions(key)
				if err != nil {
					return err
				}
				if mask != 3 {
					t.Fatalf("expected mask 3, got %d", mask)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("reload failed: %v", err)
			}
		})
	}
}
