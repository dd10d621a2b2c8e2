package viewcache

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// StringField builds a locale-aware, case-insensitive comparator over a
// string field. The collator is owned by the closure; the collection's lock
// serializes access during sorts.
func StringField[T any](get func(T) string) Comparator[T] {
	collator := collate.New(language.Und, collate.IgnoreCase)
	return func(a, b T) int {
		return collator.CompareString(get(a), get(b))
	}
}

// NumberField compares an integer field.
func NumberField[T any](get func(T) int) Comparator[T] {
	return func(a, b T) int {
		left, right := get(a), get(b)
		switch {
		case left < right:
			return -1
		case left > right:
			return 1
		default:
			return 0
		}
	}
}

// NullableNumberField compares an optional integer field; missing values
// order after present ones in ascending order.
func NullableNumberField[T any](get func(T) *int) Comparator[T] {
	return func(a, b T) int {
		left, right := get(a), get(b)
		switch {
		case left == nil && right == nil:
			return 0
		case left == nil:
			return 1
		case right == nil:
			return -1
		case *left < *right:
			return -1
		case *left > *right:
			return 1
		default:
			return 0
		}
	}
}
