// Package registry is Beam's pluggable discovery backend: a
// Register/Discover/Watch contract a client.ReconnectHandler resolves
// a service name through instead of a fixed address, and
// servicelocator.Locator optionally mirrors its own directory-backed
// service entries into (spec_full.md's enrichment of spec.md §4.10's
// bare name-keyed registry).
package registry

// ServiceInstance is one running, addressable copy of a named service.
type ServiceInstance struct {
	// Addr is the dialable network address, e.g. "10.0.0.4:9000".
	Addr string
	// Weight biases WeightedRandomBalancer toward higher-capacity
	// instances; a zero Weight is never picked (see weighted_random.go).
	Weight int
	// Version lets a client pin to a known-good deployment during a
	// rolling upgrade instead of load-balancing across mixed versions;
	// see FilterByVersion.
	Version string
}

// Registry registers, deregisters, and discovers ServiceInstances.
// MockRegistry backs tests with an in-process map; EtcdRegistry leases
// registrations against a real etcd cluster so a crashed instance
// expires on its own.
type Registry interface {
	// Register publishes instance under serviceName for ttl seconds,
	// refreshed by the implementation's own keep-alive where one
	// exists. A crashed process's registration lapses once ttl elapses
	// without a refresh.
	Register(serviceName string, instance ServiceInstance, ttl int64) error

	// Deregister removes instance from serviceName's published list,
	// called during a graceful shutdown before the listener closes.
	Deregister(serviceName string, addr string) error

	// Discover lists serviceName's currently published instances.
	Discover(serviceName string) ([]ServiceInstance, error)

	// Watch streams serviceName's instance list on every change, so a
	// long-lived client doesn't have to re-Discover on a timer.
	Watch(serviceName string) <-chan []ServiceInstance
}

// FilterByVersion narrows instances to those matching version,
// leaving instances unfiltered when version is empty. A
// client.ReconnectHandler with a pinned version uses this before
// handing the list to its Balancer, so a rolling upgrade that
// publishes both old and new instances under the same name doesn't
// route a version-sensitive client to the wrong one.
func FilterByVersion(instances []ServiceInstance, version string) []ServiceInstance {
	if version == "" {
		return instances
	}
	filtered := make([]ServiceInstance, 0, len(instances))
	for _, inst := range instances {
		if inst.Version == version {
			filtered = append(filtered, inst)
		}
	}
	return filtered
}
