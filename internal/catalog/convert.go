package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// asInt converts catalog numbers of any driver type; nil and unparsable
// values are 0.
func asInt(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case int32:
		return int(x)
	case int16:
		return int(x)
	case int8:
		return int(x)
	case uint8:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	case float64:
		return int(x)
	case string, []byte:
		n, _ := strconv.Atoi(strings.TrimSpace(asString(x)))
		return n
	default:
		return 0
	}
}

// asNullable accepts 'YES'/'NO' as well as booleans and 0/1.
func asNullable(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case nil:
		return true
	case string, []byte:
		s := strings.ToUpper(strings.TrimSpace(asString(x)))
		return s == "YES" || s == "Y" || s == "TRUE" || s == "1"
	default:
		return asInt(x) != 0
	}
}
