package models

// PermissionKind names a permission that can be granted on a connection
type PermissionKind string

const (
	UseForRead  PermissionKind = "use_for_read"
	UseForWrite PermissionKind = "use_for_write"
)

// ConnectionPermissions is the fixed set granted on connection creation
var ConnectionPermissions = []PermissionKind{UseForRead, UseForWrite}

// IsValid reports whether k is a known permission kind
func (k PermissionKind) IsValid() bool {
	return k == UseForRead || k == UseForWrite
}
