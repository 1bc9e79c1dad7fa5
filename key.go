package sharingmap

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/tryexceptelse/sharingmap/treemap"
)

// A Key can order itself against other keys of the same type.
type Key interface {
	// Order returns -1 if this key is less than the argument, 1 if greater, and 0 if equal.
	Order(Key) int
}

// DefaultKeyCompare orders keys of the builtin comparable types natively and
// falls back to comparing marshaled bytes for other types, provided both
// keys have the same type.
func DefaultKeyCompare(marshaler func(interface{}) ([]byte, error)) treemap.CompareFunc {
	return func(i, i2 interface{}) (int, error) {
		switch v := i.(type) {
		case Key:
			if v2, ok := i2.(Key); ok {
				return v.Order(v2), nil
			}
		case string:
			if v2, ok := i2.(string); ok {
				return orderedCompare(v, v2), nil
			}
		case int:
			if v2, ok := i2.(int); ok {
				return orderedCompare(v, v2), nil
			}
		case uint:
			if v2, ok := i2.(uint); ok {
				return orderedCompare(v, v2), nil
			}
		case int64:
			if v2, ok := i2.(int64); ok {
				return orderedCompare(v, v2), nil
			}
		case uint64:
			if v2, ok := i2.(uint64); ok {
				return orderedCompare(v, v2), nil
			}
		case float64:
			if v2, ok := i2.(float64); ok {
				return orderedCompare(v, v2), nil
			}
		case []byte:
			if v2, ok := i2.([]byte); ok {
				return bytes.Compare(v, v2), nil
			}
		default:
			if reflect.TypeOf(v) != reflect.TypeOf(i2) {
				return -1, fmt.Errorf("don't know how to compare %T with %T; set Config.KeyCompare or implement Key", i, i2)
			}
			b, err := marshaler(i)
			if err != nil {
				return -1, fmt.Errorf("marshal left: %w", err)
			}
			b2, err := marshaler(i2)
			if err != nil {
				return -1, fmt.Errorf("marshal right: %w", err)
			}
			return bytes.Compare(b, b2), nil
		}
		return -1, fmt.Errorf("don't know how to compare %T with %T; set Config.KeyCompare or implement Key", i, i2)
	}
}

func orderedCompare[T interface {
	~int | ~int64 | ~uint | ~uint64 | ~float64 | ~string
}](a, b T) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}
