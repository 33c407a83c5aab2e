package servicelocator

import "time"

// Request/reply shapes for every service-locator RPC, JSON-encoded the
// same way service.RegisterReflect encodes an Args/Reply pair — the
// Servlet just binds these by hand instead of through reflection, so
// its method names can match spec §6's "Beam.ServiceLocator.*Service"
// UIDs instead of a Go receiver's type name.

type LoginArgs struct {
	EndpointID string
	Username   string
	Password   string
}

type LoginReply struct {
	Account   DirectoryEntry
	SessionID string
}

type AuthenticateAccountArgs struct {
	Username string
	Password string
}

type AuthenticateAccountReply struct {
	Account DirectoryEntry
}

type SessionAuthenticationArgs struct {
	EncodedSessionID string
	Key              uint32
}

type SessionAuthenticationReply struct {
	AccountID int64
	SessionID string
}

type LocateArgs struct {
	Name string
}

type LocateReply struct {
	Entries []ServiceEntry
}

type RegisterArgs struct {
	Account    int64
	Name       string
	Properties []byte
}

type RegisterReply struct {
	Entry ServiceEntry
}

type UnregisterArgs struct {
	ServiceID int64
}

type UnregisterReply struct{}

type SubscribeAvailabilityArgs struct {
	Name string
}

type SubscribeAvailabilityReply struct {
	SubscriptionID uint64
}

type UnsubscribeAvailabilityArgs struct {
	SubscriptionID uint64
}

type UnsubscribeAvailabilityReply struct{}

type MonitorDirectoryEntryArgs struct {
	EntryID int64
}

type MonitorDirectoryEntryReply struct {
	SubscriptionID uint64
}

type MonitorAccountsArgs struct{}

type MonitorAccountsReply struct {
	SubscriptionID uint64
}

type UnmonitorAccountsArgs struct {
	SubscriptionID uint64
}

type UnmonitorAccountsReply struct{}

type LoadDirectoryEntryArgs struct {
	ID int64
}

type LoadDirectoryEntryReply struct {
	Entry DirectoryEntry
}

type LoadPathArgs struct {
	Root int64
	Path string
}

type LoadPathReply struct {
	Entry DirectoryEntry
}

type LoadParentsArgs struct {
	ID int64
}

type LoadParentsReply struct {
	Entries []DirectoryEntry
}

type LoadChildrenArgs struct {
	ID int64
}

type LoadChildrenReply struct {
	Entries []DirectoryEntry
}

type LoadAllAccountsArgs struct{}

type LoadAllAccountsReply struct {
	Accounts []DirectoryEntry
}

type FindAccountArgs struct {
	Name string
}

type FindAccountReply struct {
	Account DirectoryEntry
}

type MakeAccountArgs struct {
	Name     string
	Password string
	Parent   int64
}

type MakeAccountReply struct {
	Account DirectoryEntry
}

type MakeDirectoryArgs struct {
	Name   string
	Parent int64
}

type MakeDirectoryReply struct {
	Entry DirectoryEntry
}

type DeleteDirectoryEntryArgs struct {
	ID int64
}

type DeleteDirectoryEntryReply struct{}

type AssociateArgs struct {
	EntryID  int64
	ParentID int64
}

type AssociateReply struct{}

type DetachArgs struct {
	EntryID  int64
	ParentID int64
}

type DetachReply struct{}

type StorePasswordArgs struct {
	Account  int64
	Password string
}

type StorePasswordReply struct{}

type HasPermissionsArgs struct {
	Source int64
	Target int64
	Mask   Permission
}

type HasPermissionsReply struct {
	OK bool
}

type StorePermissionsArgs struct {
	Source int64
	Target int64
	Mask   Permissions
}

type StorePermissionsReply struct{}

type LoadRegistrationTimeArgs struct {
	Account int64
}

type LoadRegistrationTimeReply struct {
	Time time.Time
}

type LoadLastLoginTimeArgs struct {
	Account int64
}

type LoadLastLoginTimeReply struct {
	Time time.Time
}

type RenameArgs struct {
	ID   int64
	Name string
}

type RenameReply struct{}
