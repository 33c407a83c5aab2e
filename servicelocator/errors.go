package servicelocator

import (
	"fmt"

	"beam/serialization"
)

func errWrongType(field string, got serialization.Value) error {
	return fmt.Errorf("servicelocator: %s: unexpected wire type %T", field, got)
}

// RegisterAll registers every servicelocator wire type on registry.
func RegisterAll(registry *serialization.TypeRegistry) {
	RegisterDirectoryEntry(registry)
	RegisterPermissions(registry)
	RegisterServiceEntry(registry)
	RegisterMessages(registry)
}
