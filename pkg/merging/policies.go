// Package merging folds duplicate records into one canonical record using
// declarative per-field precedence policies.
package merging

// A Policy resolves one field across two records and returns the value that
// survives. Policies are pure: they never mutate either operand.
type Policy[T any] func(left, right T) T

// First keeps the left operand unconditionally. Used for identity fields.
func First[T any](left, _ T) T {
	return left
}

// FirstDefined keeps the left operand unless it is nil. A defined left value
// is never discarded for a defined right one.
func FirstDefined[T any](left, right *T) *T {
	if left != nil {
		return left
	}
	return right
}

// Shortest picks the shorter of two strings. A defined value always beats
// nil, and the left operand survives ties. Used for truncation-prone values
// such as local identifiers.
func Shortest(left, right *string) *string {
	if left == nil {
		return right
	}
	if right == nil {
		return left
	}
	if len(*right) < len(*left) {
		return right
	}
	return left
}

// MaxBy builds a policy that keeps the operand ranked higher by less. The
// left operand survives ties.
func MaxBy[T any](less func(a, b T) bool) Policy[T] {
	return func(left, right T) T {
		if less(left, right) {
			return right
		}
		return left
	}
}

// Reduce folds records pairwise, left to right. It returns the zero value
// when records is empty.
func Reduce[T any](records []T, merge Policy[T]) T {
	var result T
	if len(records) == 0 {
		return result
	}

	result = records[0]
	for _, record := range records[1:] {
		result = merge(result, record)
	}
	return result
}
