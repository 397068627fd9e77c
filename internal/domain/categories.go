package domain

import (
	"errors"
	"fmt"
	"strings"
)

// SentinelCategory is assigned when no category signal is found.
const SentinelCategory = "Other"

// DefaultCategories is the built-in category vocabulary. Its order matters: literal
// category matching walks it front to back and the first hit wins.
var DefaultCategories = []string{"Food", "Transport", "Shopping", "Bills", "Entertainment", "Health", SentinelCategory}

var (
	// ErrInvalidCategory is returned for empty, duplicate or unknown category names.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrLastCategory is returned when removing the only remaining category.
	ErrLastCategory = errors.New("at least one category is required")
)

// CanonicalCategory resolves label against the vocabulary case-insensitively. Unknown
// non-empty labels are kept as custom labels; an empty label yields the sentinel.
func CanonicalCategory(vocabulary []string, label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return SentinelCategory
	}
	if len(vocabulary) == 0 {
		vocabulary = DefaultCategories
	}
	for _, c := range vocabulary {
		if strings.EqualFold(c, label) {
			return c
		}
	}
	return label
}

// AddCategory returns a copy of list with name appended.
func AddCategory(list []string, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is empty", ErrInvalidCategory)
	}
	for _, c := range list {
		if c == name {
			return nil, fmt.Errorf("%w: %q already exists", ErrInvalidCategory, name)
		}
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, list...)
	return append(out, name), nil
}

// RemoveCategory returns a copy of list without name.
func RemoveCategory(list []string, name string) ([]string, error) {
	if len(list) <= 1 {
		return nil, ErrLastCategory
	}
	out := make([]string, 0, len(list))
	found := false
	for _, c := range list {
		if c == name {
			found = true
			continue
		}
		out = append(out, c)
	}
	if !found {
		return nil, fmt.Errorf("%w: %q not found", ErrInvalidCategory, name)
	}
	return out, nil
}
