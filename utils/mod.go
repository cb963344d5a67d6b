package utils

import (
	"fmt"
	"strings"
)

func FindIndex[T comparable](slice []T, item T) int {
	for i, v := range slice {
		if v == item {
			return i
		}
	}
	return -1
}

// ParseList splits a comma separated list and parses each trimmed item.
// Empty input is an empty list.
func ParseList[T any](s string, parse func(string) (T, error)) ([]T, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	items := make([]T, 0, len(parts))
	for i, part := range parts {
		item, err := parse(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("item %d of %q: %w", i+1, s, err)
		}
		items = append(items, item)
	}
	return items, nil
}
