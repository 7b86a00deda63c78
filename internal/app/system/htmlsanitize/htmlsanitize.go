// Package htmlsanitize strips unsafe markup from announcement text.
//
// Announcements are rendered by arbitrary frontends, so any HTML a manager
// submits is reduced to a safe subset before it is stored. Text without tags,
// and markup the policy accepts as-is, is stored byte-for-byte.
package htmlsanitize

import (
	"html"
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// tagStart matches the opening of an element, end tag, comment, doctype or
// processing instruction. A bare "<" followed by a space or digit is text.
var tagStart = regexp.MustCompile(`<[A-Za-z/!?]`)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// getPolicy returns the shared policy. bluemonday policies are safe for
// concurrent use once built.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("u", "s", "mark", "sub", "sup")
		p.AllowAttrs("class").OnElements("table", "tr", "td", "th", "p", "span")
		p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
		policy = p
	})
	return policy
}

// Sanitize removes scripts, event handlers, iframes and unsafe URLs while
// keeping formatting, links, lists and tables.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return getPolicy().Sanitize(s)
}

// IsPlainText reports whether s contains nothing an HTML parser would read
// as a tag.
func IsPlainText(s string) bool {
	return !tagStart.MatchString(s)
}

// Text returns s unchanged when it has no tags or when the policy keeps all
// of its markup; only then does entity encoding differ. Otherwise it returns
// the sanitised form. Text(Text(s)) == Text(s).
func Text(s string) string {
	if IsPlainText(s) {
		return s
	}
	clean := Sanitize(s)
	if clean == s {
		return s
	}
	// Every tag survived and the decoded text is identical, so the policy
	// only re-encoded entities such as & and '.
	if countTags(clean) == countTags(s) &&
		html.UnescapeString(clean) == html.UnescapeString(s) {
		return s
	}
	return clean
}

func countTags(s string) int {
	return len(tagStart.FindAllStringIndex(s, -1))
}
