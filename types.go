package goflat

// Tuple is a fixed-arity container. Unflatten restores it as a Tuple of the
// same arity, while []any models come back as []any.
type Tuple []any

// Symbolic marks a symbolic placeholder leaf: an opaque, non-numeric value
// standing in for a deferred quantity. Placeholders are never type-cast; they
// pass through Flatten and Unflatten by identity.
type Symbolic interface {
	SymbolName() string
}

// Symbol is the stock Symbolic implementation. Use it by pointer so identity
// survives a round trip.
type Symbol struct {
	Name string
	// Ref optionally carries whatever the caller attaches to the placeholder.
	Ref any
}

// NewSymbol returns a named placeholder.
func NewSymbol(name string) *Symbol { return &Symbol{Name: name} }

func (s *Symbol) SymbolName() string { return s.Name }

func (s *Symbol) String() string { return "$" + s.Name }

// IsSymbolic reports whether v is a symbolic placeholder.
func IsSymbolic(v any) bool {
	_, ok := v.(Symbolic)
	return ok
}
