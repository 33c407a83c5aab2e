package registry

import "sync"

// MockRegistry is an in-process Registry: service instances live in a
// map guarded by a mutex instead of an etcd cluster, for tests and the
// reference cmd/beamclient binary when it is run without -etcd, so the
// wire protocol can be exercised without standing up etcd.
type MockRegistry struct {
	mu        sync.Mutex
	instances map[string][]ServiceInstance
	watchers  map[string][]chan []ServiceInstance
}

// NewMockRegistry constructs an empty MockRegistry.
func NewMockRegistry() *MockRegistry {
	return &MockRegistry{
		instances: make(map[string][]ServiceInstance),
		watchers:  make(map[string][]chan []ServiceInstance),
	}
}

// Register adds instance under serviceName, ignoring ttl — there's no
// lease to expire in-process; a caller must Deregister explicitly.
func (r *MockRegistry) Register(serviceName string, instance ServiceInstance, ttl int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.instances[serviceName] {
		if existing.Addr == instance.Addr {
			r.instances[serviceName][i] = instance
			r.notifyLocked(serviceName)
			return nil
		}
	}
	r.instances[serviceName] = append(r.instances[serviceName], instance)
	r.notifyLocked(serviceName)
	return nil
}

// Deregister removes the instance at addr from serviceName.
func (r *MockRegistry) Deregister(serviceName string, addr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	instances := r.instances[serviceName]
	for i, existing := range instances {
		if existing.Addr == addr {
			r.instances[serviceName] = append(instances[:i], instances[i+1:]...)
			break
		}
	}
	r.notifyLocked(serviceName)
	return nil
}

// Discover returns a copy of serviceName's current instance list.
func (r *MockRegistry) Discover(serviceName string) ([]ServiceInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ServiceInstance, len(r.instances[serviceName]))
	copy(out, r.instances[serviceName])
	return out, nil
}

// Watch returns a channel fed the full instance list every time
// serviceName's set changes. The channel is never closed; a caller
// that stops watching should simply stop reading from it.
func (r *MockRegistry) Watch(serviceName string) <-chan []ServiceInstance {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan []ServiceInstance, 1)
	r.watchers[serviceName] = append(r.watchers[serviceName], ch)
	return ch
}

func (r *MockRegistry) notifyLocked(serviceName string) {
	snapshot := make([]ServiceInstance, len(r.instances[serviceName]))
	copy(snapshot, r.instances[serviceName])
	for _, ch := range r.watchers[serviceName] {
		select {
		case ch <- snapshot:
		default:
		}
	}
}
