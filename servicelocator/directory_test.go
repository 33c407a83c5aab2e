package servicelocator

import (
	"context"
	"testing"
)

// TestDeleteDirectoryEntryRecursesOrphanedChildren exercises spec §3
// Lifecycles: deleting a directory recursively removes any child whose
// only parent was the deleted directory, but leaves alone a child that
// another surviving parent still references.
func TestDeleteDirectoryEntryRecursesOrphanedChildren(t *testing.T) {
	l, root := newTestLocator(t)
	ctx := context.Background()

	a, err := l.MakeDirectory(ctx, root, "a", StarDirectoryID)
	if err != nil {
		t.Fatalf("MakeDirectory a failed: %v", err)
	}
	onlyChild, err := l.MakeDirectory(ctx, root, "only-child", a.ID)
	if err != nil {
		t.Fatalf("MakeDirectory only-child failed: %v", err)
	}
	sharedChild, err := l.MakeDirectory(ctx, root, "shared-child", a.ID)
	if err != nil {
		t.Fatalf("MakeDirectory shared-child failed: %v", err)
	}
	if err := l.Associate(ctx, root, sharedChild.ID, StarDirectoryID); err != nil {
		t.Fatalf("Associate shared-child under star failed: %v", err)
	}

	if err := l.DeleteDirectoryEntry(ctx, root, a.ID); err != nil {
		t.Fatalf("DeleteDirectoryEntry failed: %v", err)
	}

	if _, err := l.LoadDirectoryEntry(ctx, root, a.ID); err == nil {
		t.Fatalf("expected a to be deleted")
	}
	if _, err := l.LoadDirectoryEntry(ctx, root, onlyChild.ID); err == nil {
		t.Fatalf("expected only-child to be recursively deleted with its only parent")
	}
	if _, err := l.LoadDirectoryEntry(ctx, root, sharedChild.ID); err != nil {
		t.Fatalf("expected shared-child to survive since the star directory still parents it: %v", err)
	}
}

// TestDeleteDirectoryEntryRecursesMultipleLevels confirms the recursion
// isn't limited to one level: a grandchild orphaned only once its
// parent is itself deleted still gets cleaned up in the same call.
func TestDeleteDirectoryEntryRecursesMultipleLevels(t *testing.T) {
	l, root := newTestLocator(t)
	ctx := context.Background()

	a, err := l.MakeDirectory(ctx, root, "a", StarDirectoryID)
	if err != nil {
		t.Fatalf("MakeDirectory a failed: %v", err)
	}
	b, err := l.MakeDirectory(ctx, root, "b", a.ID)
	if err != nil {
		t.Fatalf("MakeDirectory b failed: %v", err)
	}
	c, err := l.MakeDirectory(ctx, root, "c", b.ID)
	if err != nil {
		t.Fatalf("MakeDirectory c failed: %v", err)
	}

	if err := l.DeleteDirectoryEntry(ctx, root, a.ID); err != nil {
		t.Fatalf("DeleteDirectoryEntry failed: %v", err)
	}

	for name, id := range map[string]int64{"b": b.ID, "c": c.ID} {
		if _, err := l.LoadDirectoryEntry(ctx, root, id); err == nil {
			t.Fatalf("expected %s to be recursively deleted", name)
		}
	}
}
