package servicelocator

// Method names the Servlet and Client use to address the wire, one
// per spec §6 "Service-locator" service UID. LoginMethod,
// AuthenticateAccountMethod and SessionAuthenticationMethod are exposed
// by AuthServlet before a connection's handshake succeeds; the rest
// live behind auth.ServletAdapter's login gate.
const (
	LoginMethod                = "Beam.ServiceLocator.LoginService"
	AuthenticateAccountMethod   = "Beam.ServiceLocator.AuthenticateAccountService"
	SessionAuthenticationMethod = "Beam.ServiceLocator.SessionAuthenticationService"

	LocateMethod                  = "Beam.ServiceLocator.LocateService"
	SubscribeAvailabilityMethod   = "Beam.ServiceLocator.SubscribeAvailabilityService"
	UnsubscribeAvailabilityMethod = "Beam.ServiceLocator.UnsubscribeAvailabilityService"
	MonitorDirectoryEntryMethod   = "Beam.ServiceLocator.MonitorDirectoryEntryService"
	MonitorAccountsMethod         = "Beam.ServiceLocator.MonitorAccountsService"
	UnmonitorAccountsMethod       = "Beam.ServiceLocator.UnmonitorAccountsService"
	LoadDirectoryEntryMethod      = "Beam.ServiceLocator.LoadDirectoryEntryService"
	LoadPathMethod                = "Beam.ServiceLocator.LoadPathService"
	LoadParentsMethod             = "Beam.ServiceLocator.LoadParentsService"
	LoadChildrenMethod            = "Beam.ServiceLocator.LoadChildrenService"
	LoadAllAccountsMethod         = "Beam.ServiceLocator.LoadAllAccountsService"
	FindAccountMethod             = "Beam.ServiceLocator.FindAccountService"
	MakeAccountMethod             = "Beam.ServiceLocator.MakeAccountService"
	MakeDirectoryMethod           = "Beam.ServiceLocator.MakeDirectoryService"
	DeleteDirectoryEntryMethod    = "Beam.ServiceLocator.DeleteDirectoryEntryService"
	AssociateMethod               = "Beam.ServiceLocator.AssociateService"
	DetachMethod                  = "Beam.ServiceLocator.DetachService"
	StorePasswordMethod           = "Beam.ServiceLocator.StorePasswordService"
	HasPermissionsMethod          = "Beam.ServiceLocator.HasPermissionsService"
	StorePermissionsMethod        = "Beam.ServiceLocator.StorePermissionsService"
	LoadRegistrationTimeMethod    = "Beam.ServiceLocator.LoadRegistrationTimeService"
	LoadLastLoginTimeMethod       = "Beam.ServiceLocator.LoadLastLoginTimeService"
	RenameMethod                  = "Beam.ServiceLocator.RenameService"
	RegisterMethod                = "Beam.ServiceLocator.RegisterService"
	UnregisterMethod              = "Beam.ServiceLocator.UnregisterService"
)
