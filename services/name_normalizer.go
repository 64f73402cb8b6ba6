package services

import (
	"regexp"
	"sort"
	"strings"
)

var sizeDescriptors = []string{
	"Twin", "Full", "Queen", "King", "Cal King", "Twin XL", "Standard",
	"Plush", "Medium", "Firm", "High Loft", "Low Loft", "Medium-Firm",
}

var (
	descriptorPattern = buildDescriptorPattern(sizeDescriptors)
	whitespace        = regexp.MustCompile(`\s+`)
)

// longest alternatives first so "Twin XL" wins over "Twin"
func buildDescriptorPattern(words []string) *regexp.Regexp {
	sorted := append([]string(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, w := range sorted {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

// GenerateParentName strips size and firmness descriptors from a variation
// name to produce the family name. A name made only of descriptors is
// returned unchanged.
func GenerateParentName(name string) string {
	stripped := descriptorPattern.ReplaceAllString(name, "")
	stripped = strings.TrimSpace(whitespace.ReplaceAllString(stripped, " "))
	if stripped == "" {
		return name
	}
	return stripped
}
