package services

import "strings"

// ParseTags strips every space from s and splits it on commas
func ParseTags(s string) []string {
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

// JoinTags renders tags back into the form's comma separated field
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}
