package parser

import (
	"path"
	"slices"
	"strconv"
	"strings"
)

// chapterExtensions are the archive member extensions that may hold chapter text.
// Comparison is case-sensitive.
var chapterExtensions = []string{".xhtml", ".xml", ".html"}

// minSupport is the support a numeric matcher must exceed before the
// candidates are reordered by the number it extracts.
const minSupport = 2

// ResolveChapterOrder selects the chapter documents among archive member paths
// and returns them in reading order.
//
// Paths are first filtered by extension. If the file names share a prefix
// followed by a chapter number ("chapter1", "ch02", ...) the documents are
// sorted numerically by that number and documents without it are dropped.
// Otherwise the filtered paths are returned in their original order.
//
// The inference tries every prefix length k below the longest stem, and for
// each k every distinct k-character prefix, rescanning all stems each time:
// O(L·P·N) for L the longest stem, P the distinct prefixes and N the paths.
// Ebooks have at most a few hundred chapter files so this is not optimized.
func ResolveChapterOrder(paths []string) []string {
	candidates := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ext := splitExt(p); slices.Contains(chapterExtensions, ext) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return candidates
	}

	stems := make([]string, len(candidates))
	for i, p := range candidates {
		stems[i], _ = splitExt(p)
	}

	best, support := bestNumericMatcher(stems)
	if support <= minSupport {
		return candidates
	}

	type numbered struct {
		path   string
		number int
	}
	matched := make([]numbered, 0, len(candidates))
	for i, stem := range stems {
		n, ok := best.match(stem)
		if !ok {
			continue
		}
		matched = append(matched, numbered{path: candidates[i], number: n})
	}
	slices.SortStableFunc(matched, func(a, b numbered) int {
		return a.number - b.number
	})

	ordered := make([]string, len(matched))
	for i, m := range matched {
		ordered[i] = m.path
	}
	return ordered
}

// numericMatcher accepts stems made of prefix immediately followed by one or
// more ASCII digits. Anything after the digit run is ignored.
type numericMatcher struct {
	prefix string
}

// match reports whether stem is accepted and the number it carries.
// Digit runs that overflow int are rejected.
func (m numericMatcher) match(stem string) (int, bool) {
	rest, ok := strings.CutPrefix(stem, m.prefix)
	if !ok {
		return 0, false
	}
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// support walks the stems and counts the ones that do not refute the matcher.
// A stem refutes it when its chopped prefix equals the matcher prefix but the
// matcher rejects it; the matcher then has no support at all. Stems with a
// different chopped prefix count even if the matcher rejects them.
func (m numericMatcher) support(stems, chopped []string) (int, bool) {
	count := 0
	for i, stem := range stems {
		if _, ok := m.match(stem); !ok && chopped[i] == m.prefix {
			return 0, false
		}
		count++
	}
	return count, true
}

// bestNumericMatcher scans prefix lengths in ascending order and returns the
// matcher with the highest support. Ties keep the first matcher found.
func bestNumericMatcher(stems []string) (numericMatcher, int) {
	runes := make([][]rune, len(stems))
	maxLen := 0
	for i, s := range stems {
		runes[i] = []rune(s)
		maxLen = max(maxLen, len(runes[i]))
	}

	var best numericMatcher
	bestSupport := 0
	chopped := make([]string, len(stems))
	for k := 0; k < maxLen; k++ {
		for i, r := range runes {
			chopped[i] = string(r[:min(k, len(r))])
		}

		prefixes, topFreq := groupPrefixes(chopped)
		if topFreq == 1 {
			continue
		}

		for _, prefix := range prefixes {
			m := numericMatcher{prefix: prefix}
			n, ok := m.support(stems, chopped)
			if ok && n > bestSupport {
				best, bestSupport = m, n
			}
		}
	}
	return best, bestSupport
}

// groupPrefixes returns the distinct values in first-seen order and the
// frequency of the most common one.
func groupPrefixes(chopped []string) ([]string, int) {
	freq := make(map[string]int, len(chopped))
	distinct := make([]string, 0, len(chopped))
	top := 0
	for _, c := range chopped {
		if freq[c] == 0 {
			distinct = append(distinct, c)
		}
		freq[c]++
		top = max(top, freq[c])
	}
	return distinct, top
}

// splitExt splits the base name of an archive member path into stem and
// extension. The final dot only starts an extension when it is neither the
// first nor the last character of the name, so ".xhtml" has no extension.
func splitExt(p string) (string, string) {
	name := path.Base(p)
	if name == "." || name == "/" {
		return "", ""
	}
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return name, ""
	}
	return name[:i], name[i:]
}
