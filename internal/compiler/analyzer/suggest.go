package analyzer

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// maxDistance is the largest edit distance a suggestion may have
	maxDistance = 3
	// shortDistance caps the distance for names shorter than shortName runes
	shortDistance = 2
	shortName     = 6
	// maxSuggestions is the most names a suggestion lists
	maxSuggestions = 3
)

// similar returns up to maxSuggestions names from candidates close to
// target, closest first. Short targets tolerate fewer edits.
func similar(target string, candidates map[string]bool) []string {
	limit := distanceLimit(target)

	type match struct {
		name     string
		distance int
	}
	var matches []match
	lowered := strings.ToLower(target)
	for name := range candidates {
		if name == target {
			continue
		}
		if d := levenshtein(lowered, strings.ToLower(name)); d <= limit {
			matches = append(matches, match{name, d})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].name < matches[j].name
	})

	result := make([]string, 0, maxSuggestions)
	for i := 0; i < len(matches) && i < maxSuggestions; i++ {
		result = append(result, matches[i].name)
	}
	return result
}

// distanceLimit is half the rune length of target rounded up, capped at
// shortDistance for short names and maxDistance otherwise
func distanceLimit(target string) int {
	n := len([]rune(target))
	limit := (n + 1) / 2
	if n < shortName && limit > shortDistance {
		return shortDistance
	}
	if limit > maxDistance {
		return maxDistance
	}
	return limit
}

// didYouMean formats names as a suggestion, "" when there are none
func didYouMean(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return fmt.Sprintf("Did you mean %s?", strings.Join(names, ", "))
}

// levenshtein is the edit distance between a and b, by rune
func levenshtein(a, b string) int {
	s, t := []rune(a), []rune(b)
	if len(s) == 0 {
		return len(t)
	}
	if len(t) == 0 {
		return len(s)
	}

	prev := make([]int, len(t)+1)
	curr := make([]int, len(t)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s); i++ {
		curr[0] = i
		for j := 1; j <= len(t); j++ {
			cost := 1
			if s[i-1] == t[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(t)]
}

func minInt(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
