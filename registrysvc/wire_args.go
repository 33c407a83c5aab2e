package registrysvc

import "beam/servicelocator"

type LoadPathArgs struct {
	Root int64
	Path string
}
type LoadPathReply struct{ Entry servicelocator.DirectoryEntry }

type LoadParentArgs struct{ ID int64 }
type LoadParentReply struct{ Entry servicelocator.DirectoryEntry }

type LoadChildrenArgs struct{ ID int64 }
type LoadChildrenReply struct{ Entries []servicelocator.DirectoryEntry }

type MakeDirectoryArgs struct {
	Name   string
	Parent int64
}
type MakeDirectoryReply struct{ Entry servicelocator.DirectoryEntry }

type CopyArgs struct {
	ID          int64
	Destination int64
}
type CopyReply struct{ Entry servicelocator.DirectoryEntry }

type MoveArgs struct {
	ID          int64
	Destination int64
}
type MoveReply struct{}

type LoadValueArgs struct{ ID int64 }
type LoadValueReply struct{ Data []byte }

type MakeValueArgs struct {
	Name   string
	Parent int64
}
type MakeValueReply struct{ Entry servicelocator.DirectoryEntry }

type StoreValueArgs struct {
	ID   int64
	Data []byte
}
type StoreValueReply struct{}

type DeleteArgs struct{ ID int64 }
type DeleteReply struct{}
