// Package value implements the tagged value representation manipulated by
// the machine: Int, Str, Bool, Nil and the internal Undefined marker.
package value

import "strconv"

// Value is the interface implemented by every runtime value the machine
// manipulates.
type Value interface {
	// String returns the value rendered the way WRITE/DPRINT emit it.
	String() string

	// Type returns the type name as used by TYPE and in diagnostics: one of
	// "int", "string", "bool", "nil", or "" for Undefined.
	Type() string
}

// Int is a signed 64-bit integer value. Overflow wraps using Go's native
// int64 two's-complement arithmetic (documented choice; the reference source
// makes no explicit promise here).
type Int int64

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }
func (i Int) Type() string   { return "int" }

// Str is a text value. Escape expansion of \DDD sequences happens at decode
// time (see package decode), so a Str always holds its final rendered text.
type Str string

func (s Str) String() string { return string(s) }
func (s Str) Type() string   { return "string" }

// Bool is a boolean value, rendered as the literal words true/false.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Bool) Type() string { return "bool" }

// nilValue is the singleton nil value: the missing-value usable only with
// EQ/JUMPIFEQ/JUMPIFNEQ, printed as the empty string.
type nilValue struct{}

func (nilValue) String() string { return "" }
func (nilValue) Type() string   { return "nil" }

// Nil is the singleton nil value.
var Nil Value = nilValue{}

// undefinedValue is the defined-but-uninitialized state of a freshly
// DEFVAR'd variable. Reading it into any value-consuming operation fails
// with "missing value" (exit 56).
type undefinedValue struct{}

func (undefinedValue) String() string { return "" }
func (undefinedValue) Type() string   { return "" }

// Undefined is the singleton undefined value.
var Undefined Value = undefinedValue{}

// IsUndefined reports whether v is the Undefined marker.
func IsUndefined(v Value) bool {
	_, ok := v.(undefinedValue)
	return ok
}

// IsNil reports whether v is the Nil value.
func IsNil(v Value) bool {
	_, ok := v.(nilValue)
	return ok
}

// OrderableType reports whether t is one of the three types that support
// natural ordering (LT/GT): int, string, bool.
func OrderableType(t string) bool {
	switch t {
	case "int", "string", "bool":
		return true
	}
	return false
}

// SameOrderableType reports whether x and y are comparable for ordering: the
// same non-nil type drawn from {int, string, bool}.
func SameOrderableType(x, y Value) bool {
	tx, ty := x.Type(), y.Type()
	return tx == ty && OrderableType(tx)
}

// ComparableForEquality reports whether x and y are comparable for equality:
// same type, or either one is nil.
func ComparableForEquality(x, y Value) bool {
	if IsNil(x) || IsNil(y) {
		return true
	}
	return x.Type() == y.Type()
}

// Equal reports whether x and y are equal under EQ/JUMPIFEQ semantics. The
// caller must have already checked ComparableForEquality.
func Equal(x, y Value) bool {
	if IsNil(x) && IsNil(y) {
		return true
	}
	if IsNil(x) || IsNil(y) {
		return false
	}
	switch a := x.(type) {
	case Int:
		b, ok := y.(Int)
		return ok && a == b
	case Str:
		b, ok := y.(Str)
		return ok && a == b
	case Bool:
		b, ok := y.(Bool)
		return ok && a == b
	}
	return false
}

// Less reports whether x < y under LT/GT semantics (lexicographic for
// strings, false < true for bools). The caller must have already checked
// SameOrderableType.
func Less(x, y Value) bool {
	switch a := x.(type) {
	case Int:
		return a < y.(Int)
	case Str:
		return a < y.(Str)
	case Bool:
		return !bool(a) && bool(y.(Bool))
	}
	return false
}
