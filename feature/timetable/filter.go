package timetable

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// GroupFilter maps a batch name (subject id) to the group substrings it keeps.
// Batches without an entry, or with an empty list, are not filtered.
type GroupFilter map[string][]string

// For returns the allowed substrings for batch.
func (f GroupFilter) For(batch string) []string {
	if f == nil {
		return nil
	}
	return f[batch]
}

// LoadGroupFilter reads a filter from a YAML mapping such as:
//
//	"1025": ["RV1"]
//	"1444": ["RV1", "RV2"]
//
// An empty path yields an empty filter.
func LoadGroupFilter(path string) (GroupFilter, error) {
	if path == "" {
		return GroupFilter{}, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("group filter file %s not found", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read group filter: %w", err)
	}

	return ParseGroupFilter(data)
}

// ParseGroupFilter decodes a YAML group filter document.
func ParseGroupFilter(data []byte) (GroupFilter, error) {
	filter := GroupFilter{}
	if err := yaml.Unmarshal(data, &filter); err != nil {
		return nil, fmt.Errorf("failed to parse group filter: %w", err)
	}
	return filter, nil
}

// matchesGroups reports whether any group name contains any allowed substring,
// ignoring case.
func matchesGroups(groups []string, allowed []string) bool {
	for _, group := range groups {
		g := strings.ToLower(group)
		for _, a := range allowed {
			if strings.Contains(g, strings.ToLower(a)) {
				return true
			}
		}
	}
	return false
}
