package servicelocator

import "beam/serialization"

// DirectoryEntryAssociatedMessage is pushed to every
// MonitorDirectoryEntryService subscriber of parent when a new child
// is associated under it (spec §6).
type DirectoryEntryAssociatedMessage struct {
	Parent DirectoryEntry
	Entry  DirectoryEntry
}

const directoryEntryAssociatedTypeUID = "Beam.ServiceLocator.DirectoryEntryAssociatedMessage"

func (m *DirectoryEntryAssociatedMessage) TypeUID() string { return directoryEntryAssociatedTypeUID }

func (m *DirectoryEntryAssociatedMessage) Shuttle(s *serialization.Sender) error {
	if err := s.PutValue(&m.Parent); err != nil {
		return err
	}
	return s.PutValue(&m.Entry)
}

func (m *DirectoryEntryAssociatedMessage) Unshuttle(r *serialization.Receiver) error {
	parent, err := getDirectoryEntry(r)
	if err != nil {
		return err
	}
	entry, err := getDirectoryEntry(r)
	if err != nil {
		return err
	}
	m.Parent, m.Entry = parent, entry
	return nil
}

func (m *DirectoryEntryAssociatedMessage) Clone() serialization.Value {
	clone := *m
	return &clone
}

// DirectoryEntryDetachedMessage is pushed to every
// MonitorDirectoryEntryService subscriber of parent when a child is
// detached from it (spec §6).
type DirectoryEntryDetachedMessage struct {
	Parent DirectoryEntry
	Entry  DirectoryEntry
}

const directoryEntryDetachedTypeUID = "Beam.ServiceLocator.DirectoryEntryDetachedMessage"

func (m *DirectoryEntryDetachedMessage) TypeUID() string { return directoryEntryDetachedTypeUID }

func (m *DirectoryEntryDetachedMessage) Shuttle(s *serialization.Sender) error {
	if err := s.PutValue(&m.Parent); err != nil {
		return err
	}
	return s.PutValue(&m.Entry)
}

func (m *DirectoryEntryDetachedMessage) Unshuttle(r *serialization.Receiver) error {
	parent, err := getDirectoryEntry(r)
	if err != nil {
		return err
	}
	entry, err := getDirectoryEntry(r)
	if err != nil {
		return err
	}
	m.Parent, m.Entry = parent, entry
	return nil
}

func (m *DirectoryEntryDetachedMessage) Clone() serialization.Value {
	clone := *m
	return &clone
}

// ServiceAvailabilityMessage is pushed to every
// SubscribeAvailabilityService subscriber of a name whenever an
// instance is registered or unregistered (spec §6).
type ServiceAvailabilityMessage struct {
	Entry     ServiceEntry
	Available bool
}

const serviceAvailabilityTypeUID = "Beam.ServiceLocator.ServiceAvailabilityMessage"

func (m *ServiceAvailabilityMessage) TypeUID() string { return serviceAvailabilityTypeUID }

func (m *ServiceAvailabilityMessage) Shuttle(s *serialization.Sender) error {
	if err := s.PutValue(&m.Entry); err != nil {
		return err
	}
	s.PutBool(m.Available)
	return nil
}

func (m *ServiceAvailabilityMessage) Unshuttle(r *serialization.Receiver) error {
	entryValue, err := r.GetValue()
	if err != nil {
		return err
	}
	entry, ok := entryValue.(*ServiceEntry)
	if !ok {
		return errWrongType("ServiceAvailabilityMessage.Entry", entryValue)
	}
	available, err := r.GetBool()
	if err != nil {
		return err
	}
	m.Entry = *entry
	m.Available = available
	return nil
}

func (m *ServiceAvailabilityMessage) Clone() serialization.Value {
	clone := *m
	return &clone
}

// AccountUpdateType distinguishes an account creation from a deletion
// in an AccountUpdateMessage (spec §6, grounded on original_source's
// AccountUpdate.hpp).
type AccountUpdateType int

const (
	AccountAdded AccountUpdateType = iota
	AccountDeleted
)

func (t AccountUpdateType) String() string {
	if t == AccountDeleted {
		return "DELETED"
	}
	return "ADDED"
}

// AccountUpdateMessage is pushed to every MonitorAccountsService
// subscriber whenever an account it can READ is created or deleted.
type AccountUpdateMessage struct {
	Account DirectoryEntry
	Type    AccountUpdateType
}

const accountUpdateTypeUID = "Beam.ServiceLocator.AccountUpdateMessage"

func (m *AccountUpdateMessage) TypeUID() string { return accountUpdateTypeUID }

func (m *AccountUpdateMessage) Shuttle(s *serialization.Sender) error {
	if err := s.PutValue(&m.Account); err != nil {
		return err
	}
	s.PutUint32(uint32(m.Type))
	return nil
}

func (m *AccountUpdateMessage) Unshuttle(r *serialization.Receiver) error {
	accountValue, err := r.GetValue()
	if err != nil {
		return err
	}
	account, ok := accountValue.(*DirectoryEntry)
	if !ok {
		return errWrongType("AccountUpdateMessage.Account", accountValue)
	}
	typ, err := r.GetUint32()
	if err != nil {
		return err
	}
	m.Account = *account
	m.Type = AccountUpdateType(typ)
	return nil
}

func (m *AccountUpdateMessage) Clone() serialization.Value {
	clone := *m
	return &clone
}

func getDirectoryEntry(r *serialization.Receiver) (DirectoryEntry, error) {
	v, err := r.GetValue()
	if err != nil {
		return DirectoryEntry{}, err
	}
	entry, ok := v.(*DirectoryEntry)
	if !ok {
		return DirectoryEntry{}, errWrongType("DirectoryEntry", v)
	}
	return *entry, nil
}

// RegisterMessages registers every servicelocator push-message wire
// type.
func RegisterMessages(registry *serialization.TypeRegistry) {
	registry.Register(directoryEntryAssociatedTypeUID, func() serialization.Value { return &DirectoryEntryAssociatedMessage{} })
	registry.Register(directoryEntryDetachedTypeUID, func() serialization.Value { return &DirectoryEntryDetachedMessage{} })
	registry.Register(serviceAvailabilityTypeUID, func() serialization.Value { return &ServiceAvailabilityMessage{} })
	registry.Register(accountUpdateTypeUID, func() serialization.Value { return &AccountUpdateMessage{} })
}
