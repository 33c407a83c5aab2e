package servicelocator

import "beam/serialization"

// Permission is one bit of a Permissions set (spec §4.10, ground on
// original_source's Permissions.hpp BEAM_ENUM).
type Permission uint

const (
	// PermissionRead allows reading a DirectoryEntry.
	PermissionRead Permission = 1 << iota
	// PermissionMove allows associating/detaching a DirectoryEntry.
	PermissionMove
	// PermissionAdministrate allows creating, deleting, or renaming a
	// DirectoryEntry and its permissions.
	PermissionAdministrate
)

// Permissions is a bitset of Permission values, the Go rendition of
// the original's EnumSet<Permission>.
type Permissions uint

// NewPermissions builds a Permissions set from individual bits.
func NewPermissions(bits ...Permission) Permissions {
	var p Permissions
	for _, b := range bits {
		p |= Permissions(b)
	}
	return p
}

// Has reports whether every bit in want is set.
func (p Permissions) Has(want Permission) bool {
	return Permissions(want)&p == Permissions(want)
}

// Set returns p with bit set.
func (p Permissions) Set(bit Permission) Permissions {
	return p | Permissions(bit)
}

// Clear returns p with bit cleared.
func (p Permissions) Clear(bit Permission) Permissions {
	return p &^ Permissions(bit)
}

const permissionsTypeUID = "Beam.ServiceLocator.Permissions"

// permissionsValue is the Value wrapper used only when Permissions
// needs to travel as a standalone message field rather than inline
// within another Value's Shuttle (most call sites just PutUint32 the
// raw bitset directly).
type permissionsValue struct {
	Permissions Permissions
}

func (p *permissionsValue) TypeUID() string { return permissionsTypeUID }

func (p *permissionsValue) Shuttle(s *serialization.Sender) error {
	s.PutUint32(uint32(p.Permissions))
	return nil
}

func (p *permissionsValue) Unshuttle(r *serialization.Receiver) error {
	v, err := r.GetUint32()
	if err != nil {
		return err
	}
	p.Permissions = Permissions(v)
	return nil
}

// RegisterPermissions registers the standalone Permissions wire type.
func RegisterPermissions(registry *serialization.TypeRegistry) {
	registry.Register(permissionsTypeUID, func() serialization.Value { return &permissionsValue{} })
}
