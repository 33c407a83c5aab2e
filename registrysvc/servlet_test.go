package registrysvc

import (
	"context"
	"testing"

	"beam/servicelocator"
	"beam/servicelocator/store"
)

func newTestLocator(t *testing.T) (*servicelocator.Locator, int64) {
	t.Helper()
	l := servicelocator.NewLocator(store.NewMemStore())
	ctx := context.Background()
	if err := l.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	root, _, err := l.Login(ctx, "root-endpoint", "root", "")
	if err != nil {
		t.Fatalf("root login failed: %v", err)
	}
	return l, root.ID
}

// Exercises the content-store operations spec §4.11 names directly
// against a Locator, the same directory tree and permission model the
// service locator itself uses (Servlet is a thin RPC skin over these
// calls — see servlet.go).
func TestRegistryContentLifecycle(t *testing.T) {
	l, root := newTestLocator(t)
	ctx := context.Background()

	dir, err := l.MakeDirectory(ctx, root, "configs", servicelocator.StarDirectoryID)
	if err != nil {
		t.Fatalf("MakeDirectory failed: %v", err)
	}

	value, err := l.MakeValue(ctx, root, "limits.json", dir.ID)
	if err != nil {
		t.Fatalf("MakeValue failed: %v", err)
	}

	if err := l.StoreValue(ctx, root, value.ID, []byte(`{"max":10}`)); err != nil {
		t.Fatalf("StoreValue failed: %v", err)
	}

	data, err := l.LoadValue(ctx, root, value.ID)
	if err != nil {
		t.Fatalf("LoadValue failed: %v", err)
	}
	if string(data) != `{"max":10}` {
		t.Fatalf("expected stored bytes to round-trip, got %q", data)
	}

	parent, err := l.LoadParent(ctx, root, value.ID)
	if err != nil {
		t.Fatalf("LoadParent failed: %v", err)
	}
	if parent.ID != dir.ID {
		t.Fatalf("expected parent %d, got %d", dir.ID, parent.ID)
	}

	children, err := l.LoadChildren(ctx, root, dir.ID)
	if err != nil {
		t.Fatalf("LoadChildren failed: %v", err)
	}
	if len(children) != 1 || children[0].ID != value.ID {
		t.Fatalf("expected a single child %d, got %v", value.ID, children)
	}
}

// Copy duplicates a value's bytes verbatim under a new entry; the
// original is untouched (spec §4.11 "a value's bytes are copied
// verbatim").
func TestRegistryCopyDuplicatesBytes(t *testing.T) {
	l, root := newTestLocator(t)
	ctx := context.Background()

	src, err := l.MakeDirectory(ctx, root, "src", servicelocator.StarDirectoryID)
	if err != nil {
		t.Fatalf("MakeDirectory(src) failed: %v", err)
	}
	dst, err := l.MakeDirectory(ctx, root, "dst", servicelocator.StarDirectoryID)
	if err != nil {
		t.Fatalf("MakeDirectory(dst) failed: %v", err)
	}
	value, err := l.MakeValue(ctx, root, "v", src.ID)
	if err != nil {
		t.Fatalf("MakeValue failed: %v", err)
	}
	if err := l.StoreValue(ctx, root, value.ID, []byte("payload")); err != nil {
		t.Fatalf("StoreValue failed: %v", err)
	}

	copied, err := l.Copy(ctx, root, value.ID, dst.ID)
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if copied.ID == value.ID {
		t.Fatalf("expected Copy to create a new entry id")
	}

	originalData, err := l.LoadValue(ctx, root, value.ID)
	if err != nil {
		t.Fatalf("LoadValue(original) failed: %v", err)
	}
	copiedData, err := l.LoadValue(ctx, root, copied.ID)
	if err != nil {
		t.Fatalf("LoadValue(copy) failed: %v", err)
	}
	if string(originalData) != "payload" || string(copiedData) != "payload" {
		t.Fatalf("expected both original and copy to carry %q, got %q and %q", "payload", originalData, copiedData)
	}
}

// Move reparents an entry from every current parent to a destination
// (spec §4.11 "move").
func TestRegistryMoveReparents(t *testing.T) {
	l, root := newTestLocator(t)
	ctx := context.Background()

	src, err := l.MakeDirectory(ctx, root, "from", servicelocator.StarDirectoryID)
	if err != nil {
		t.Fatalf("MakeDirectory(from) failed: %v", err)
	}
	dst, err := l.MakeDirectory(ctx, root, "to", servicelocator.StarDirectoryID)
	if err != nil {
		t.Fatalf("MakeDirectory(to) failed: %v", err)
	}
	value, err := l.MakeValue(ctx, root, "v", src.ID)
	if err != nil {
		t.Fatalf("MakeValue failed: %v", err)
	}

	if err := l.Move(ctx, root, value.ID, dst.ID); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	parent, err := l.LoadParent(ctx, root, value.ID)
	if err != nil {
		t.Fatalf("LoadParent failed: %v", err)
	}
	if parent.ID != dst.ID {
		t.Fatalf("expected new parent %d, got %d", dst.ID, parent.ID)
	}
}

// Delete is gated by ADMINISTRATE the same as any other directory
// entry mutation (spec §4.10's permission table, reused verbatim by
// the content store per spec §4.11 "Atomicity matches the data-store
// contract").
func TestRegistryDeleteRequiresAdministrate(t *testing.T) {
	l, root := newTestLocator(t)
	ctx := context.Background()

	dir, err := l.MakeDirectory(ctx, root, "gated", servicelocator.StarDirectoryID)
	if err != nil {
		t.Fatalf("MakeDirectory failed: %v", err)
	}
	value, err := l.MakeValue(ctx, root, "v", dir.ID)
	if err != nil {
		t.Fatalf("MakeValue failed: %v", err)
	}

	u, err := l.MakeAccount(ctx, root, "no-admin", "pw", servicelocator.StarDirectoryID)
	if err != nil {
		t.Fatalf("MakeAccount failed: %v", err)
	}

	if err := l.DeleteDirectoryEntry(ctx, u.ID, value.ID); err == nil {
		t.Fatalf("expected delete without ADMINISTRATE to fail")
	}

	if err := l.StorePermissions(ctx, root, u.ID, value.ID, servicelocator.NewPermissions(servicelocator.PermissionAdministrate)); err != nil {
		t.Fatalf("StorePermissions failed: %v", err)
	}
	if err := l.DeleteDirectoryEntry(ctx, u.ID, value.ID); err != nil {
		t.Fatalf("expected delete with ADMINISTRATE to succeed, got: %v", err)
	}
}
