package tools

import (
	"fmt"
	"strconv"
	"strings"
)

func getStringArg(args map[string]any, key string) (string, error) {
	value, ok := args[key]
	if !ok {
		return "", fmt.Errorf("invocation is missing required arg: '%s'", key)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("arg '%s' has an invalid type (expected string)", key)
	}
	return strValue, nil
}

func getIntArg(args map[string]any, key string, fallback int) (int, error) {
	v, ok := args[key]
	if !ok {
		return fallback, nil
	}
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("arg '%s' invalid int: %v", key, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("arg '%s' has unsupported type %T", key, v)
	}
}

func getBoolArg(args map[string]any, key string, fallback bool) (bool, error) {
	v, ok := args[key]
	if !ok {
		return fallback, nil
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, fmt.Errorf("arg '%s' invalid bool: %v", key, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("arg '%s' has unsupported type %T", key, v)
	}
}
