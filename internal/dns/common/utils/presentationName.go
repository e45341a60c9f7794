package utils

import "strings"

// PresentationDNSName strips a trailing root dot from a name written in
// presentation format (e.g. "example.com.") without touching letter case,
// so it can be split into wire labels directly.
func PresentationDNSName(name string) string {
	name = strings.TrimSpace(name)
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	return name
}
