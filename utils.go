package configlib

import (
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// reValidKey matches dotted keys like "database.host" or "foo.fizz_buzz".
var reValidKey = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)*$`)

var nameReplacer = strings.NewReplacer("/", "_", `\`, "_", ".", "_")

// ValidKey reports whether key is a syntactically valid dotted key.
func ValidKey(key string) bool {
	return reValidKey.MatchString(key)
}

// splitKey splits a dotted key into its segments. It returns nil for
// invalid keys.
func splitKey(key string) []string {
	if !ValidKey(key) {
		return nil
	}

	return strings.Split(key, ".")
}

// NormalizeName turns a configuration name into the identifier used for file
// names and environment variables, e.g. "net.example/MyApp" becomes
// "net_example_myapp".
func NormalizeName(name string) string {
	name = nameReplacer.Replace(strings.ToLower(strings.TrimSpace(name)))
	if name == "" {
		return defaultName
	}

	return name
}

// compileKeyGlob compiles a pattern for matching dotted keys. A single
// asterisk stays within one key segment, a double asterisk spans segments.
func compileKeyGlob(pattern string) (glob.Glob, error) {
	return glob.Compile(pattern, '.')
}
