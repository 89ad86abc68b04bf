package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ToString converts various types to string.
// nil becomes "" and json.Number keeps its literal text.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
