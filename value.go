package trix

import "reflect"

// IsNilValue reports whether the boxed value is nil, either as a bare nil
// interface or as a nil pointer-shaped value (pointer, map, slice, func,
// channel or interface). The tree engines reject nil values on insert; a
// non-nilable kind (struct, int, ...) is never nil.
func IsNilValue(value any) bool {
	if value == nil {
		return true
	}
	switch rv := reflect.ValueOf(value); rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
