package constants

// Scope says which model catalog an operation uses: the project's
// .mina directory or the user's ~/.mina.
type Scope string

const (
	// ScopeLocal is the catalog under the project root.
	ScopeLocal Scope = "local"

	// ScopeGlobal is the catalog under the home directory.
	ScopeGlobal Scope = "global"

	// ScopeBoth searches local first, then global. Only valid for lookups.
	ScopeBoth Scope = "both"
)

// Valid returns true if the scope is a recognized value.
func (s Scope) Valid() bool {
	switch s {
	case ScopeLocal, ScopeGlobal, ScopeBoth:
		return true
	}
	return false
}

// Writable reports whether models can be saved to the scope.
func (s Scope) Writable() bool {
	return s == ScopeLocal || s == ScopeGlobal
}

// String returns the string representation of the scope.
func (s Scope) String() string {
	return string(s)
}
