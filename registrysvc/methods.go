// Package registrysvc is the content-store registry riding the same
// protocol as the service locator (spec §4.11, component C11b):
// directories and VALUE leaves live in the locator's own directory
// tree, gated by the same permission model, exposed as a second set
// of RPC services sharing the connection's session handshake.
package registrysvc

const (
	LoadPathMethod     = "Beam.Registry.LoadPathService"
	LoadParentMethod   = "Beam.Registry.LoadParentService"
	LoadChildrenMethod = "Beam.Registry.LoadChildrenService"
	MakeDirectoryMethod = "Beam.Registry.MakeDirectoryService"
	CopyMethod         = "Beam.Registry.CopyService"
	MoveMethod         = "Beam.Registry.MoveService"
	LoadValueMethod    = "Beam.Registry.LoadValueService"
	MakeValueMethod    = "Beam.Registry.MakeValueService"
	StoreValueMethod   = "Beam.Registry.StoreValueService"
	DeleteMethod       = "Beam.Registry.DeleteService"
)
