package util

import "strings"

var emailSlugReplacer = strings.NewReplacer("@", "_", ".", "_")

// EmailSlug turns an email into an identifier safe for file names and URLs
// ("a.b@c.com" -> "a_b_c_com").
func EmailSlug(email string) string {
	return emailSlugReplacer.Replace(strings.TrimSpace(email))
}

// NormalizeEmail trims and lower-cases an email for comparison
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EqualEmails compares two emails ignoring case and surrounding space
func EqualEmails(a, b string) bool {
	return NormalizeEmail(a) == NormalizeEmail(b)
}

// SafeFilename rejects names that could escape a directory.
func SafeFilename(name string) bool {
	if name == "" || name == "." {
		return false
	}
	return !strings.Contains(name, "..") && !strings.ContainsAny(name, `/\`)
}
