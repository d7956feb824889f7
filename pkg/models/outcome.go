package models

// Outcome carries a stage result together with whether it was actually
// computed or replaced by a placeholder after a failure.
type Outcome[T any] struct {
	Value    T
	Degraded bool
	Reason   string
}

// Ok wraps a computed value.
func Ok[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

// Degrade wraps a placeholder value and the reason it was substituted.
func Degrade[T any](v T, reason string) Outcome[T] {
	return Outcome[T]{Value: v, Degraded: true, Reason: reason}
}

// Values unwraps a list of outcomes.
func Values[T any](outs []Outcome[T]) []T {
	vals := make([]T, len(outs))
	for i, o := range outs {
		vals[i] = o.Value
	}
	return vals
}
