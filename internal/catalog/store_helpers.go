package catalog

import (
	"errors"
	"strings"
	"time"
)

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

// makeValueTuples renders "(?,?),(?,?)" groups for multi-row inserts.
func makeValueTuples(rows, width int) string {
	if rows <= 0 || width <= 0 {
		return ""
	}
	tuple := "(" + makePlaceholders(width) + ")"
	parts := make([]string, rows)
	for i := range parts {
		parts[i] = tuple
	}
	return strings.Join(parts, ", ")
}
