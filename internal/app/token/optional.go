package token

// Optional is a tagged variant distinguishing "not provided, leave unchanged"
// from "provided, replace". A provided empty value means clear. A bare
// nullable cannot express that difference, so update options never collapse
// the two.
type Optional[T any] struct {
	value T
	set   bool
}

// Set wraps a provided value.
func Set[T any](v T) Optional[T] { return Optional[T]{value: v, set: true} }

// Unset represents an absent value.
func Unset[T any]() Optional[T] { return Optional[T]{} }

// IsSet reports whether a value was provided.
func (o Optional[T]) IsSet() bool { return o.set }

// Value returns the provided value. Only meaningful when IsSet is true.
func (o Optional[T]) Value() T { return o.value }
