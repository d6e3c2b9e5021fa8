// Package fuzzy ranks candidate paths against whitespace-separated keywords.
//
// Each keyword scores a path independently and the scores add up:
//
//	3    keyword is a substring of the basename
//	1    keyword is a substring of the path, but not of the basename
//	0.5  keyword's characters appear in order within the path
//	0    otherwise
//
// Paths scoring zero overall are dropped. Everything is compared lowercased.
package fuzzy

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Per-keyword scores.
const (
	BasenameScore    = 3.0
	PathScore        = 1.0
	SubsequenceScore = 0.5
)

// Match is a candidate together with its total score.
type Match struct {
	Path  string
	Score float64
}

// Keywords lowercases input and splits it on whitespace.
func Keywords(input string) []string {
	return strings.Fields(strings.ToLower(input))
}

// Score returns the contribution of a single lowercase keyword to path.
func Score(path, keyword string) float64 {
	if keyword == "" {
		return 0
	}
	lower := strings.ToLower(path)
	return scoreLower(lower, basename(lower), keyword)
}

func scoreLower(lowerPath, lowerBase, keyword string) float64 {
	if strings.Contains(lowerPath, keyword) {
		if strings.Contains(lowerBase, keyword) {
			return BasenameScore
		}
		return PathScore
	}
	if isSubsequence(lowerPath, keyword) {
		return SubsequenceScore
	}
	return 0
}

// isSubsequence reports whether the runes of keyword occur in s in order, each
// strictly after the previous match.
func isSubsequence(s, keyword string) bool {
	pos := 0
	for _, r := range keyword {
		idx := strings.IndexRune(s[pos:], r)
		if idx < 0 {
			return false
		}
		pos += idx + utf8.RuneLen(r)
	}
	return true
}

func basename(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// RankMatches scores every candidate and returns those with a positive score,
// best first. Equal scores are ordered by locale-aware comparison of the path.
func RankMatches(candidates, keywords []string) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, candidate := range candidates {
		lower := strings.ToLower(candidate)
		base := basename(lower)

		total := 0.0
		for _, keyword := range keywords {
			if keyword == "" {
				continue
			}
			total += scoreLower(lower, base, keyword)
		}
		if total > 0 {
			matches = append(matches, Match{Path: candidate, Score: total})
		}
	}

	// A collator carries scratch buffers, so each call builds its own.
	col := collate.New(language.Und)
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if c := col.CompareString(a.Path, b.Path); c != 0 {
			return c < 0
		}
		return a.Path < b.Path
	})
	return matches
}

// Rank returns the candidates matching keywords, best first. With no keywords
// the candidates are returned unchanged.
func Rank(candidates, keywords []string) []string {
	if len(keywords) == 0 {
		return candidates
	}
	matches := RankMatches(candidates, keywords)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Path
	}
	return out
}
