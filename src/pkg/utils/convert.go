package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ConvertString marshals any value to a string for log metadata.
func ConvertString(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case error:
		return value.Error()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}

// ConvertInt parses a value into an int, returning 0 when it cannot.
func ConvertInt(v interface{}) int {
	switch value := v.(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	case string:
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0
		}
		return parsed
	}
	return 0
}
