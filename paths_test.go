package configlib

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvPathVar(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "CONFIGLIB_MYAPP", EnvPathVar("myapp"))
	assert.Equal(t, "CONFIGLIB_NET_EXAMPLE", EnvPathVar(NormalizeName("net.example")))
}

func TestResolvePathConfigDir(t *testing.T) {
	td := t.TempDir()
	dir := filepath.Join(td, "nested", "dir")
	t.Setenv(EnvConfigDir, dir)

	p, err := resolvePath("myapp", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "myapp.conf"), p)
	assert.DirExists(t, dir, "the config dir is created on demand")
}

func TestResolvePathEnvPointer(t *testing.T) {
	td := t.TempDir()
	t.Setenv(EnvConfigDir, filepath.Join(td, "default"))

	target := filepath.Join(td, "elsewhere.yml")
	require.NoError(t, os.WriteFile(target, []byte("a: 1\n"), 0o644))
	t.Setenv("CONFIGLIB_POINTER", target)

	p, err := resolvePath("pointer", "")
	require.NoError(t, err)
	assert.Equal(t, target, p)

	c, err := New("Pointer")
	require.NoError(t, err)
	assert.Equal(t, target, c.Path())
	assert.Equal(t, int64(1), c.GetInt("a", 0))
}

func TestResolvePathDanglingPointer(t *testing.T) {
	td := t.TempDir()
	t.Setenv(EnvConfigDir, td)
	t.Setenv("CONFIGLIB_DANGLING", filepath.Join(td, "does-not-exist.conf"))

	p, err := resolvePath("dangling", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(td, "dangling.conf"), p)

	// a directory is no file either
	t.Setenv("CONFIGLIB_DANGLING", td)
	p, err = resolvePath("dangling", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(td, "dangling.conf"), p)
}

func TestResolvePathExplicit(t *testing.T) {
	t.Parallel()

	td := t.TempDir()

	p, err := resolvePath("ignored", filepath.Join(td, "custom.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(td, "custom.yaml"), p)

	_, err = resolvePath("x", filepath.Join(td, "missing", "custom.yaml"))
	require.ErrorIs(t, err, ErrConstruct)

	file := filepath.Join(td, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = resolvePath("x", filepath.Join(file, "custom.yaml"))
	require.ErrorIs(t, err, ErrConstruct)

	_, err = NewWithPath("x", filepath.Join(td, "missing", "custom.yaml"))
	require.ErrorIs(t, err, ErrConstruct)
}

func TestResolvePathExplicitReadOnly(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("Directory permission test not reliable on Windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root can write anywhere")
	}

	td := t.TempDir()
	ro := filepath.Join(td, "ro")
	require.NoError(t, os.Mkdir(ro, 0o555))
	defer func() { _ = os.Chmod(ro, 0o755) }()

	_, err := resolvePath("x", filepath.Join(ro, "c.conf"))
	require.ErrorIs(t, err, ErrConstruct)
	require.ErrorIs(t, err, ErrPermission)
}

func TestNewUsesConfigDir(t *testing.T) {
	td := t.TempDir()
	t.Setenv(EnvConfigDir, td)
	require.NoError(t, os.WriteFile(filepath.Join(td, "net_example_app.conf"), []byte(`{"server": {"port": 8080}}`), 0o644))

	c, err := New("net.example.App")
	require.NoError(t, err)
	assert.Equal(t, "net_example_app", c.Name())
	assert.Equal(t, filepath.Join(td, "net_example_app.conf"), c.Path())
	assert.Equal(t, int64(8080), c.GetInt("server.port", 0))
	assert.False(t, c.IsDirty())
}

func TestConfigDirCandidates(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Unix locations only")
	}

	td := t.TempDir()
	t.Setenv("GOPASS_HOMEDIR", td)

	dirs := configDirCandidates()
	require.GreaterOrEqual(t, len(dirs), 2)
	assert.Equal(t, filepath.Join(td, "."+appName), dirs[0])
	assert.Equal(t, []string{"/etc/configlib", "/var/lib/configlib"}, dirs[len(dirs)-2:])
}

func TestFindConfigDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Unix locations only")
	}

	td := t.TempDir()
	t.Setenv("GOPASS_HOMEDIR", td)

	dir := findConfigDir()
	assert.Equal(t, filepath.Join(td, "."+appName), dir)
	assert.DirExists(t, dir)
}
