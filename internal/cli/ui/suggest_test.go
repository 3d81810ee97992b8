package ui

import (
	"reflect"
	"testing"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1, s2 string
		want   int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"txt", "txt", 0},
		{"txtt", "txt", 1},
		{"mainfest", "manifest", 2},
	}

	for _, tt := range tests {
		if got := LevenshteinDistance(tt.s1, tt.s2); got != tt.want {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.s1, tt.s2, got, tt.want)
		}
	}
}

func TestSuggestExtensions(t *testing.T) {
	known := []string{"bin", "dat", "txt", "md", "manifest"}

	tests := []struct {
		ext  string
		want []string
	}{
		{".TXTT", []string{"txt"}},
		{"mainfest", []string{"manifest"}},
		{"png", []string{}},
		{"", nil},
	}

	for _, tt := range tests {
		got := SuggestExtensions(tt.ext, known)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SuggestExtensions(%q) = %v, want %v", tt.ext, got, tt.want)
		}
	}
}

func TestSuggestExtensions_Limit(t *testing.T) {
	got := SuggestExtensions("a", []string{"b", "c", "d", "e"})
	if len(got) != MaxSuggestions {
		t.Errorf("expected %d suggestions, got %v", MaxSuggestions, got)
	}
}
