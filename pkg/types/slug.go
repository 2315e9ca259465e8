// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"regexp"
	"strings"
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s and joins its alphanumeric runs with hyphens, cutting
// the result to at most limit bytes (no cut when limit <= 0).
func Slug(s string, limit int) string {
	slug := strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if limit > 0 && len(slug) > limit {
		slug = strings.TrimRight(slug[:limit], "-")
	}
	return slug
}
