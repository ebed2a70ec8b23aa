// stac/features.go
package stac

import (
	"strings"
)

// Path and label feature extraction. These helpers carry no dataset-specific
// knowledge; they are plain string analysis shared by the timestamp resolver
// and the item ID builder.

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// YearInPath returns the first 4-digit year found in the path. Accepted
// centuries are 19xx, 20xx and 21xx. A candidate immediately followed by
// another digit or an underscore is rejected, so "202401" and "1971_2000" do
// not yield a bogus year, while "1998-2005" still yields 1998.
func YearInPath(path string) (string, bool) {
	for i := 0; i+4 <= len(path); i++ {
		century := path[i : i+2]
		if century != "19" && century != "20" && century != "21" {
			continue
		}
		if !isDigit(path[i+2]) || !isDigit(path[i+3]) {
			continue
		}
		if i+4 < len(path) {
			next := path[i+4]
			if isDigit(next) || next == '_' {
				continue
			}
		}
		return path[i : i+4], true
	}
	return "", false
}

// YearInLabel returns a 4-digit year from the label, but only when it is
// parenthesized, e.g. "(1932)". Accepted centuries are 18xx, 19xx and 20xx;
// old survey maps reach back further than paths do.
func YearInLabel(label string) (string, bool) {
	for i := 0; i+6 <= len(label); i++ {
		if label[i] != '(' || label[i+5] != ')' {
			continue
		}
		century := label[i+1 : i+3]
		if century != "18" && century != "19" && century != "20" {
			continue
		}
		if !isDigit(label[i+3]) || !isDigit(label[i+4]) {
			continue
		}
		return label[i+1 : i+5], true
	}
	return "", false
}

// UsableLabel reports whether the label is a simple single token usable
// verbatim inside an item ID, and returns it lower-cased. Labels containing
// underscores, parentheses or spaces are structured and unusable.
func UsableLabel(label string) (string, bool) {
	if label == "" {
		return "", false
	}
	if strings.ContainsAny(label, "_( ") {
		return "", false
	}
	return strings.ToLower(label), true
}

// FileStem returns the filename without directories and without anything
// after the first period of the basename.
func FileStem(path string) string {
	base := path[strings.LastIndex(path, "/")+1:]
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return base
}

// NumericToken returns the first whole-numeric underscore-delimited segment
// of the filename stem, used for YYYYMM-style monthly filenames.
func NumericToken(path string) (string, bool) {
	for _, seg := range strings.Split(FileStem(path), "_") {
		if seg == "" {
			continue
		}
		numeric := true
		for i := 0; i < len(seg); i++ {
			if !isDigit(seg[i]) {
				numeric = false
				break
			}
		}
		if numeric {
			return seg, true
		}
	}
	return "", false
}
