package normalize

import (
	"strconv"

	"github.com/andes-data/procura-cli/internal/model"
)

// Coerce casts value to the field's declared kind. When the value cannot be
// coerced it is returned unchanged: coercion never fails a record and never
// drops a field. Nil passes through untouched.
func Coerce(value any, kind model.Kind) any {
	if value == nil {
		return nil
	}

	switch kind {
	case model.KindInt:
		return coerceInt(value)
	case model.KindFloat:
		return coerceFloat(value)
	case model.KindString:
		return coerceString(value)
	}
	return value
}

func coerceInt(value any) any {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return value
}

func coerceFloat(value any) any {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return value
}

func coerceString(value any) any {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	// Containers are not coercible to a scalar; keep the raw value.
	return value
}
