package readme

import (
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"readmegen/internal/scan"
)

// RankingLine is one accepted "<rank>. <name> (<dir>): <size> KB" line.
type RankingLine struct {
	Rank   int
	Name   string
	Dir    string
	SizeKB float64
}

// The directory group excludes parentheses so names like "a (b).txt" keep
// their own parentheses.
var rankingLineRE = regexp.MustCompile(`(?i)^(\d+)\.\s+(.+?)\s*\(([^()]+)\):\s*(\d+(?:\.\d+)?)\s*KB$`)

// ParseRanking keeps the lines of raw that match the ranking shape, in the
// order the model emitted them. It returns nil when no line matches.
func ParseRanking(raw string) []RankingLine {
	var out []RankingLine
	for _, line := range strings.Split(raw, "\n") {
		m := rankingLineRE.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		rank, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		size, err := strconv.ParseFloat(m[4], 64)
		if err != nil {
			continue
		}
		name := strings.TrimSpace(m[2])
		dir := strings.TrimSpace(m[3])
		if name == "" || dir == "" {
			continue
		}
		out = append(out, RankingLine{Rank: rank, Name: name, Dir: dir, SizeKB: size})
	}
	return out
}

// ResolvePath maps a ranking line to root/dir/name, falling back to
// root/name when the first does not exist. It never fails; a path that
// exists nowhere is returned as the fallback guess.
func ResolvePath(root string, line RankingLine) string {
	fallback := filepath.Join(root, filepath.FromSlash(line.Name))
	if line.Dir == scan.RootDir {
		return fallback
	}
	primary := filepath.Join(root, filepath.FromSlash(line.Dir), filepath.FromSlash(line.Name))
	if _, err := os.Stat(primary); err == nil {
		return primary
	}
	return fallback
}

// ResolvePaths resolves every line, preserving order.
func ResolvePaths(root string, lines []RankingLine) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, ResolvePath(root, l))
	}
	return out
}

// SelectionPolicy keeps the leading Fraction of a ranking longer than Threshold.
type SelectionPolicy struct {
	Threshold int
	Fraction  float64
}

// DefaultSelection keeps 80% of rankings with more than 10 entries.
func DefaultSelection() SelectionPolicy {
	return SelectionPolicy{Threshold: 10, Fraction: 0.8}
}

// Count returns how many of n ranked entries are kept (floor rounding).
func (p SelectionPolicy) Count(n int) int {
	if n <= p.Threshold || p.Fraction <= 0 || p.Fraction >= 1 {
		return n
	}
	return int(math.Floor(float64(n)*p.Fraction + 1e-9))
}

// Select returns the leading Count(len(paths)) entries.
func (p SelectionPolicy) Select(paths []string) []string {
	return paths[:p.Count(len(paths))]
}
