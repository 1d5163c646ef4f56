package keyframe

import (
	"math"
	"reflect"
)

// kind groups Go values the way interpolation cares about them.
type kind int

const (
	kindDiscrete kind = iota // strings, bools, pointers: never interpolated
	kindNumber               // every int, uint and float kind
	kindRecord               // structs and string-keyed maps
)

func kindOf(v any) kind {
	if v == nil {
		return kindDiscrete
	}
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return kindNumber
	case reflect.Struct:
		return kindRecord
	case reflect.Map:
		if t.Key().Kind() == reflect.String {
			return kindRecord
		}
	}
	return kindDiscrete
}

// sameKind reports whether a and b may be interpolated against each other.
// Numbers of different Go types mix freely; discrete values must share a type.
func sameKind(a, b any) bool {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return false
	}
	if ka == kindDiscrete {
		return reflect.TypeOf(a) == reflect.TypeOf(b)
	}
	return true
}

// Interpolable reports whether v is a number or a record.
func Interpolable(v any) bool {
	return kindOf(v) != kindDiscrete
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return 0
}

// valueFor adapts an interpolated result to the slot type it is stored into.
func valueFor(v any, t reflect.Type) reflect.Value {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return reflect.Zero(t)
	}
	if rv.Type().AssignableTo(t) {
		return rv
	}
	if kindOf(v) == kindNumber && rv.Type().ConvertibleTo(t) {
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if rv.CanFloat() {
				rv = reflect.ValueOf(math.Round(rv.Float()))
			}
		}
		return rv.Convert(t)
	}
	return reflect.Zero(t)
}
