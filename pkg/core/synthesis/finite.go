package synthesis

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
)

var (
	// ErrInvalidRequest is returned when a request carries NaN or infinite numbers.
	ErrInvalidRequest = errors.New("invalid valuation request")
	// ErrNonFiniteResult is returned when finite inputs overflow during valuation.
	ErrNonFiniteResult = errors.New("valuation result is not finite")
)

// CheckInput rejects NaN and infinite values anywhere in a decoded request.
func CheckInput(v interface{}) error {
	if path := firstNonFinite(reflect.ValueOf(v), ""); path != "" {
		return fmt.Errorf("%w: %s is not a finite number", ErrInvalidRequest, path)
	}
	return nil
}

// CheckResult rejects results that overflowed, e.g. a huge metric times a multiple.
func CheckResult(v interface{}) error {
	if path := firstNonFinite(reflect.ValueOf(v), ""); path != "" {
		return fmt.Errorf("%w: %s overflowed", ErrNonFiniteResult, path)
	}
	return nil
}

// firstNonFinite returns the JSON path of the first NaN or Inf float reachable from v,
// or "" when there is none. Map iteration order makes the reported path arbitrary among
// several offenders.
func firstNonFinite(v reflect.Value, path string) string {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		if f := v.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			if path == "" {
				return "value"
			}
			return path
		}
	case reflect.Ptr, reflect.Interface:
		if !v.IsNil() {
			return firstNonFinite(v.Elem(), path)
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue
			}
			if p := firstNonFinite(v.Field(i), fieldPath(path, f)); p != "" {
				return p
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if p := firstNonFinite(v.Index(i), fmt.Sprintf("%s[%d]", path, i)); p != "" {
				return p
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if p := firstNonFinite(iter.Value(), fmt.Sprintf("%s[%v]", path, iter.Key())); p != "" {
				return p
			}
		}
	}
	return ""
}

// fieldPath names a struct field the way it appears on the wire. Embedded structs are
// flattened like encoding/json does.
func fieldPath(parent string, f reflect.StructField) string {
	name := strings.Split(f.Tag.Get("json"), ",")[0]
	if f.Anonymous && name == "" {
		return parent
	}
	if name == "" || name == "-" {
		name = f.Name
	}
	if parent == "" {
		return name
	}
	return parent + "." + name
}
