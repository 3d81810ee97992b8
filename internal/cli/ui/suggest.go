package ui

import (
	"sort"
	"strings"
)

const (
	// MaxSuggestDistance is the largest edit distance offered as a suggestion.
	MaxSuggestDistance = 2
	// MaxSuggestions caps the number of suggestions.
	MaxSuggestions = 3
)

// SuggestExtensions returns the known extensions closest to ext, nearest
// first. Leading dots and case are ignored.
func SuggestExtensions(ext string, known []string) []string {
	target := strings.ToLower(strings.TrimLeft(ext, "."))
	if target == "" {
		return nil
	}

	type match struct {
		value    string
		distance int
	}
	var matches []match
	for _, candidate := range known {
		d := LevenshteinDistance(target, strings.ToLower(candidate))
		if d <= MaxSuggestDistance {
			matches = append(matches, match{value: candidate, distance: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	result := make([]string, 0, MaxSuggestions)
	for i := 0; i < len(matches) && i < MaxSuggestions; i++ {
		result = append(result, matches[i].value)
	}
	return result
}

// LevenshteinDistance returns the minimum number of single-byte insertions,
// deletions and substitutions turning s1 into s2.
func LevenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
