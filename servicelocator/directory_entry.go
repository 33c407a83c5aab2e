// Package servicelocator implements Beam's service-locator core (spec
// §4.10, component C11a): a directory DAG of accounts and
// directories, permission-gated reads and mutations, sessions, and
// subscriptions, exposed as a Servlet over the same
// MessageProtocol/Slots/Container stack every other Beam service
// rides.
//
// Net-new relative to the teacher repo — mini-rpc never modeled a
// directory tree or accounts — built from original_source's
// DirectoryEntry.hpp/Permissions.hpp/ServiceEntry.hpp in the teacher's
// idiom: plain structs with value semantics serialized through
// serialization.Sender/Receiver, a mutex-guarded in-memory core, and
// an injectable DataStore contract for persistence.
package servicelocator

import (
	"fmt"

	"beam/serialization"
)

// EntryType distinguishes a directory node from an account node (spec
// §4.10 "Tree of directory entries ... DirectoryEntry(ACCOUNT)").
type EntryType int

const (
	EntryNone EntryType = iota
	EntryAccount
	EntryDirectory
)

func (t EntryType) String() string {
	switch t {
	case EntryAccount:
		return "ACCOUNT"
	case EntryDirectory:
		return "DIRECTORY"
	default:
		return "NONE"
	}
}

// StarDirectoryID is the id of the reserved root directory every
// other entry is ultimately reachable from (spec §4.10 "rooted at a
// reserved star directory (id = 0, type DIRECTORY)").
const StarDirectoryID int64 = 0

// DirectoryEntry identifies one node of the directory DAG: an account
// or a directory, by stable numeric id plus a display name.
type DirectoryEntry struct {
	Type EntryType
	ID   int64
	Name string
}

// StarDirectory returns the well-known root directory entry.
func StarDirectory() DirectoryEntry {
	return DirectoryEntry{Type: EntryDirectory, ID: StarDirectoryID, Name: "*"}
}

// IsNone reports whether e is the zero-value "no entry" sentinel.
func (e DirectoryEntry) IsNone() bool {
	return e.Type == EntryNone
}

func (e DirectoryEntry) String() string {
	if e.IsNone() {
		return "NONE"
	}
	if e.Name == "" {
		return fmt.Sprintf("(%s %d)", e.Type, e.ID)
	}
	return fmt.Sprintf("(%s %d %s)", e.Type, e.ID, e.Name)
}

const directoryEntryTypeUID = "Beam.ServiceLocator.DirectoryEntry"

// TypeUID implements serialization.Value.
func (e *DirectoryEntry) TypeUID() string { return directoryEntryTypeUID }

// Shuttle implements serialization.Value.
func (e *DirectoryEntry) Shuttle(s *serialization.Sender) error {
	s.PutUint32(uint32(e.Type))
	s.PutUint64(uint64(e.ID))
	s.PutString(e.Name)
	return nil
}

// Unshuttle implements serialization.Value.
func (e *DirectoryEntry) Unshuttle(r *serialization.Receiver) error {
	typ, err := r.GetUint32()
	if err != nil {
		return err
	}
	id, err := r.GetUint64()
	if err != nil {
		return err
	}
	name, err := r.GetString()
	if err != nil {
		return err
	}
	e.Type = EntryType(typ)
	e.ID = int64(id)
	e.Name = name
	return nil
}

// Clone implements serialization.Cloner.
func (e *DirectoryEntry) Clone() serialization.Value {
	clone := *e
	return &clone
}

// RegisterDirectoryEntry registers DirectoryEntry's wire type.
func RegisterDirectoryEntry(registry *serialization.TypeRegistry) {
	registry.Register(directoryEntryTypeUID, func() serialization.Value { return &DirectoryEntry{} })
}
