package source

import "strings"

// Matches reports whether text contains keyword, ignoring case. A leading
// '#' on the keyword is ignored so "#coffee" and "coffee" behave alike.
func Matches(text, keyword string) bool {
	keyword = strings.TrimPrefix(strings.TrimSpace(keyword), "#")
	if keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(keyword))
}
