package importer

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	priceKeepPattern    = regexp.MustCompile(`[^0-9.,]`)
	thousandsDotPattern = regexp.MustCompile(`\.(\d{3})([.,]|$)`)
	digitsPattern       = regexp.MustCompile(`-?\d+`)
)

// NormalizePrice converts a human-typed price string into a float. Currency
// symbols and spacing are stripped, dots acting as thousands separators are
// removed and a decimal comma becomes a decimal point. Unparsable input
// yields 0, which validation later rejects.
func NormalizePrice(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "-") {
		return 0
	}
	cleaned := priceKeepPattern.ReplaceAllString(trimmed, "")
	if cleaned == "" {
		return 0
	}

	// A dot followed by exactly three digits and then another separator or
	// the end of the string is a thousands separator ($12.000 style).
	for {
		next := thousandsDotPattern.ReplaceAllString(cleaned, "$1$2")
		if next == cleaned {
			break
		}
		cleaned = next
	}

	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if strings.Count(cleaned, ".") > 1 {
		// Leftover separators, keep only the last as decimal point
		last := strings.LastIndex(cleaned, ".")
		cleaned = strings.ReplaceAll(cleaned[:last], ".", "") + cleaned[last:]
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// NormalizeStock parses an integer stock quantity. Negative or unparsable
// input yields 0; the caller decides whether that is an error.
func NormalizeStock(raw string) int {
	trimmed := strings.TrimSpace(raw)
	value, err := strconv.Atoi(trimmed)
	if err != nil {
		match := digitsPattern.FindString(trimmed)
		if match == "" {
			return 0
		}
		value, err = strconv.Atoi(match)
		if err != nil {
			return 0
		}
	}
	if value < 0 {
		return 0
	}
	return value
}

// NormalizeName trims and title-cases each whitespace-separated token.
// Already-normalized names are a fixed point of this function.
func NormalizeName(raw string) string {
	fields := strings.Fields(raw)
	for i, f := range fields {
		runes := []rune(f)
		fields[i] = strings.ToUpper(string(runes[0])) + strings.ToLower(string(runes[1:]))
	}
	return strings.Join(fields, " ")
}

// SplitList splits a comma or slash separated list into trimmed non-empty items
func SplitList(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '/' || r == ';'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// DedupeList drops repeated items, keeping the first occurrence order.
// Size lists must be unique before stock distribution, otherwise the
// per-size map would collapse the duplicates and lose units.
func DedupeList(items []string) []string {
	if len(items) < 2 {
		return items
	}
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// isImageRef reports whether raw looks like a usable image reference, either
// an absolute http(s) URL or a site-relative path.
func isImageRef(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	return strings.HasPrefix(trimmed, "http://") ||
		strings.HasPrefix(trimmed, "https://") ||
		strings.HasPrefix(trimmed, "/")
}
