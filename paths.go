package configlib

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gopasspw/gopass/pkg/appdir"
	"github.com/gopasspw/gopass/pkg/debug"
)

const (
	appName     = "configlib"
	defaultName = "default"
	fileExt     = ".conf"

	// EnvPrefix prefixes every environment variable consulted by this package.
	EnvPrefix = "CONFIGLIB"
	// EnvConfigDir overrides the directory default configuration files live in.
	EnvConfigDir = EnvPrefix + "_PATH"
)

// EnvPathVar returns the name of the environment variable that may point
// to the backing file of the (normalized) configuration name.
func EnvPathVar(name string) string {
	return EnvPrefix + "_" + strings.ToUpper(name)
}

// resolvePath determines the backing file of a configuration. An explicit
// path wins, followed by the CONFIGLIB_<NAME> environment variable (only if
// it points to an existing file) and finally <configDir>/<name>.conf.
func resolvePath(name, explicit string) (string, error) {
	if explicit != "" {
		return checkExplicitPath(explicit)
	}

	envVar := EnvPathVar(name)
	if p, found := os.LookupEnv(envVar); found {
		if fileExists(p) {
			debug.V(1).Log("[%s] using config file %s from %s", name, p, envVar)

			return p, nil
		}
		debug.Log("[%s] environment variable %s points to non-existent file %q, using default location", name, envVar, p)
	}

	dir, err := configDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, name+fileExt), nil
}

func checkExplicitPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("%w: invalid path %q: %w", ErrConstruct, p, err)
	}

	dir := filepath.Dir(abs)
	fi, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("%w: directory %s of %s: %w", ErrConstruct, dir, abs, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrConstruct, dir)
	}
	if !dirWritable(dir) {
		return "", fmt.Errorf("%w: directory %s is not writable: %w", ErrConstruct, dir, ErrPermission)
	}

	return abs, nil
}

// configDir returns the directory default configuration files are stored
// in, creating it if necessary.
func configDir() (string, error) {
	dir := os.Getenv(EnvConfigDir)
	if dir == "" {
		dir = findConfigDir()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: failed to create config directory %s: %w", ErrConstruct, dir, err)
	}

	return dir, nil
}

// findConfigDir picks the first candidate that is writable or can be created.
func findConfigDir() string {
	for _, dir := range configDirCandidates() {
		if dir == "" {
			continue
		}
		if fi, err := os.Stat(dir); err == nil {
			if fi.IsDir() && dirWritable(dir) {
				return dir
			}

			continue
		}
		if err := os.MkdirAll(dir, 0o755); err == nil {
			return dir
		}
		debug.V(3).Log("config dir candidate %s not usable", dir)
	}

	dir := filepath.Join(os.TempDir(), appName)
	debug.Log("unable to find a usable config directory, falling back to %s", dir)

	return dir
}

func configDirCandidates() []string {
	if runtime.GOOS == "windows" {
		base := os.Getenv("APPDATA")
		if base == "" {
			base = os.Getenv("LOCALAPPDATA")
		}
		if base == "" {
			base = os.TempDir()
		}

		return []string{filepath.Join(base, "ConfigLib")}
	}

	var dirs []string
	if home := appdir.UserHome(); home != "" {
		dirs = append(dirs,
			filepath.Join(home, "."+appName),
			appdir.New(appName).UserConfig(),
		)
	}

	return append(dirs, "/etc/"+appName, "/var/lib/"+appName)
}

// dirWritable probes dir by creating and removing a temporary file.
func dirWritable(dir string) bool {
	fh, err := os.CreateTemp(dir, "."+appName+"-probe-*")
	if err != nil {
		return false
	}
	name := fh.Name()
	_ = fh.Close()
	_ = os.Remove(name)

	return true
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	fi, err := os.Stat(p)

	return err == nil && !fi.IsDir()
}
