// Package ptr builds pointers for optional record fields.
package ptr

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Float64 returns a pointer to f. It reads better than To for untyped
// constants, which To would infer as int.
func Float64(f float64) *float64 {
	return &f
}
