package configlib

import (
	"os"
	"slices"
	"strings"

	"github.com/gopasspw/gopass/pkg/debug"
)

// applyEnvOverlay copies variables of the form CONFIGLIB_<NAME>_<A>_<B>=value
// into root as a.b = "value". Segments are lowercased and intermediate
// mappings are created as needed. It returns the number of applied variables.
func applyEnvOverlay(root *Map, name string, environ []string) int {
	prefix := EnvPathVar(name) + "_"

	// sorted so that overlapping variables resolve deterministically
	environ = slices.Clone(environ)
	slices.Sort(environ)

	var applied int
	for _, kv := range environ {
		k, v, found := strings.Cut(kv, "=")
		if !found {
			continue
		}
		rest, found := strings.CutPrefix(k, prefix)
		if !found || rest == "" {
			continue
		}

		key := strings.ToLower(strings.ReplaceAll(rest, "_", "."))
		segs := splitKey(key)
		if segs == nil {
			debug.V(1).Log("[%s] ignoring environment variable %s: %q is no valid key", name, k, key)

			continue
		}

		assign(root, segs, String(v), true)
		applied++
		debug.V(3).Log("[%s] set %s from %s", name, key, k)
	}

	return applied
}

// lookupEnv returns the value of an environment variable. An empty name is
// never set.
func lookupEnv(name string) (string, bool) {
	if name == "" {
		return "", false
	}

	return os.LookupEnv(name)
}
