package servicelocator

import "beam/serialization"

// ServiceEntry records one registered service instance (spec §4.10
// "Services: {name → [ServiceEntry]}"), grounded on original_source's
// ServiceEntry.hpp. Properties carries the JSON blob dependent clients
// parse for an "addresses" list (spec §6 "Service registration").
type ServiceEntry struct {
	Name       string
	Properties []byte
	ID         int64
	Account    DirectoryEntry
}

const serviceEntryTypeUID = "Beam.ServiceLocator.ServiceEntry"

// TypeUID implements serialization.Value.
func (e *ServiceEntry) TypeUID() string { return serviceEntryTypeUID }

// Shuttle implements serialization.Value.
func (e *ServiceEntry) Shuttle(s *serialization.Sender) error {
	s.PutString(e.Name)
	s.PutBytes(e.Properties)
	s.PutUint64(uint64(e.ID))
	return s.PutValue(&e.Account)
}

// Unshuttle implements serialization.Value.
func (e *ServiceEntry) Unshuttle(r *serialization.Receiver) error {
	name, err := r.GetString()
	if err != nil {
		return err
	}
	props, err := r.GetBytes()
	if err != nil {
		return err
	}
	id, err := r.GetUint64()
	if err != nil {
		return err
	}
	accountValue, err := r.GetValue()
	if err != nil {
		return err
	}
	account, ok := accountValue.(*DirectoryEntry)
	if !ok {
		return errWrongType("ServiceEntry.Account", accountValue)
	}

	e.Name = name
	e.Properties = props
	e.ID = int64(id)
	e.Account = *account
	return nil
}

// Clone implements serialization.Cloner.
func (e *ServiceEntry) Clone() serialization.Value {
	clone := *e
	clone.Properties = append([]byte(nil), e.Properties...)
	return &clone
}

// RegisterServiceEntry registers ServiceEntry's wire type.
func RegisterServiceEntry(registry *serialization.TypeRegistry) {
	registry.Register(serviceEntryTypeUID, func() serialization.Value { return &ServiceEntry{} })
}
