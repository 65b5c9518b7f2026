package configlib

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gopasspw/gopass/pkg/debug"
	"github.com/gopasspw/gopass/pkg/set"
)

// Configuration is a named, hierarchical key-value store backed by a single
// file.
//
// Values are addressed by dotted keys ("database.host"), where every segment
// selects an entry of a nested mapping. All modifications happen in memory
// and are only written to disk by Save (or Close) and only if something
// changed since the last Load or Save.
//
// Fields:
// - name: normalized name, used for the file name and environment variables
// - path: backing file, fixed at construction
// - data: the root mapping
// - dirty: true if data holds changes not yet written to path
//
// Note: Configuration is not thread-safe. Concurrent access from multiple
// goroutines must be synchronized by the caller. Multiple processes writing
// the same file are not coordinated either, the last writer wins.
//
// Typical Usage:
//
//	cfg, err := configlib.New("myapp")
//	if err != nil { ... }
//	defer cfg.Close()
//	cfg.SetDefault("database.host", configlib.String("127.0.0.1"))
//	host := cfg.GetString("database.host", "localhost")
type Configuration struct {
	name  string
	path  string
	data  *Map
	dirty bool
}

// New creates the configuration with the given name at its default
// location. See NewWithPath.
func New(name string) (*Configuration, error) {
	return NewWithPath(name, "")
}

// NewWithPath creates a configuration and loads its backing file, if one
// exists.
//
// The name is normalized (lowercase, "/", "\" and "." become "_"). The
// backing file is, in order of precedence:
// 1. path, if not empty. Its directory must exist and be writable.
// 2. the file named by the CONFIGLIB_<NAME> environment variable, if it exists
// 3. <dir>/<name>.conf where dir is CONFIGLIB_PATH or a per-platform default
//
// Errors wrap ErrConstruct.
func NewWithPath(name, path string) (*Configuration, error) {
	name = NormalizeName(name)

	p, err := resolvePath(name, path)
	if err != nil {
		return nil, err
	}

	c := &Configuration{
		name: name,
		path: p,
		data: NewMap(),
	}

	if _, err := os.Stat(p); err == nil {
		if err := c.Load(true); err != nil {
			debug.Log("[%s] unable to load configuration from %s: %s", name, p, err)

			return nil, fmt.Errorf("%w: unable to load configuration %q: %w", ErrConstruct, name, err)
		}
	}

	debug.V(1).Log("[%s] configuration ready at %s (%d top-level keys)", name, p, c.data.Len())

	return c, nil
}

// Name returns the normalized configuration name.
func (c *Configuration) Name() string {
	return c.name
}

// Path returns the backing file.
func (c *Configuration) Path() string {
	return c.path
}

// IsDirty returns true if there are changes that have not been saved.
func (c *Configuration) IsDirty() bool {
	return c.dirty
}

// String implements fmt.Stringer for debugging.
func (c *Configuration) String() string {
	return fmt.Sprintf("Configuration{Name: %s - Path: %s - Dirty: %t}", c.name, c.path, c.dirty)
}

// Get returns a copy of the value stored under key.
//
// def is returned if the key is syntactically invalid, if any segment is
// missing or if the stored value is null. A stored null is treated as "use
// the default", it is not a meaningful value of its own. Use Exists to tell
// a stored null from a missing key.
//
// Example:
//
//	port := cfg.Get("database.port", configlib.Int(3306))
func (c *Configuration) Get(key string, def Value) Value {
	v, found := c.lookup(key)
	if !found || v.IsNull() {
		return def
	}

	return v.Clone()
}

// GetString returns the string under key or def if there is none.
func (c *Configuration) GetString(key, def string) string {
	v, found := c.lookup(key)
	if !found {
		return def
	}
	if s, ok := v.AsString(); ok {
		return s
	}

	return def
}

// GetInt returns the integer under key or def if there is none.
func (c *Configuration) GetInt(key string, def int64) int64 {
	v, found := c.lookup(key)
	if !found {
		return def
	}
	if i, ok := v.AsInt(); ok {
		return i
	}

	return def
}

// GetFloat returns the number under key or def if there is none. Integers
// are converted.
func (c *Configuration) GetFloat(key string, def float64) float64 {
	v, found := c.lookup(key)
	if !found {
		return def
	}
	if f, ok := v.AsFloat(); ok {
		return f
	}

	return def
}

// GetBool returns the boolean under key or def if there is none.
func (c *Configuration) GetBool(key string, def bool) bool {
	v, found := c.lookup(key)
	if !found {
		return def
	}
	if b, ok := v.AsBool(); ok {
		return b
	}

	return def
}

// Exists returns true if key resolves to an entry, even if that entry is null.
func (c *Configuration) Exists(key string) bool {
	_, found := c.lookup(key)

	return found
}

// Set stores a copy of v under key.
//
// Behavior:
// - Invalid keys are rejected (false)
// - Without create every segment of the key, including the last one, must
// already exist and every intermediate entry must be a mapping
// - With create missing intermediate entries, and ones that are not
// mappings, are replaced by empty mappings
// - On failure nothing is modified
// - On success the configuration is marked dirty
//
// Example:
//
//	cfg.Set("key1.key2", configlib.String("value"), true) // true
//	cfg.Set("key1.key3", configlib.String("value"), false) // false, key3 is missing
func (c *Configuration) Set(key string, v Value, create bool) bool {
	segs := splitKey(key)
	if segs == nil {
		debug.V(3).Log("[%s] rejecting invalid key %q", c.name, key)

		return false
	}

	if !assign(c.data, segs, v.Clone(), create) {
		debug.V(3).Log("[%s] not setting %s, path does not exist", c.name, key)

		return false
	}

	c.dirty = true
	debug.V(3).Log("[%s] set %s to %s", c.name, key, v)

	return true
}

// Unset removes key. It returns false if the key is invalid or not present.
func (c *Configuration) Unset(key string) bool {
	segs := splitKey(key)
	if segs == nil {
		return false
	}

	parent, found := lookup(c.data, segs[:len(segs)-1])
	if !found {
		return false
	}
	m, ok := parent.AsMap()
	if !ok || !m.Delete(segs[len(segs)-1]) {
		return false
	}

	c.dirty = true
	debug.V(3).Log("[%s] unset %s", c.name, key)

	return true
}

// SetDefault stores v under key, creating intermediate mappings, unless the
// key already exists. It returns true if the value was set.
func (c *Configuration) SetDefault(key string, v Value) bool {
	return c.SetDefaultFromEnv(key, v, "", true)
}

// SetDefaultFromEnv is like SetDefault but gives the environment variable
// envVar precedence: if it is set and either override is true or its value
// is not empty, key is set to its (string) value, even if the key already
// exists. The return value then reports whether this changed the stored
// value.
func (c *Configuration) SetDefaultFromEnv(key string, v Value, envVar string, override bool) bool {
	if ev, found := lookupEnv(envVar); found && (override || ev != "") {
		nv := String(ev)
		if cur, exists := c.lookup(key); exists && cur.Equal(nv) {
			return false
		}
		debug.V(1).Log("[%s] setting %s from %s", c.name, key, envVar)

		return c.Set(key, nv, true)
	}

	if c.Exists(key) {
		return false
	}

	return c.Set(key, v, true)
}

// Clear removes all entries.
func (c *Configuration) Clear() {
	c.data = NewMap()
	c.dirty = true
}

// Replace swaps the whole tree for a copy of root, which must be a mapping
// (or null for an empty one).
func (c *Configuration) Replace(root Value) error {
	m, err := rootMap(root)
	if err != nil {
		return err
	}

	c.data = m.Clone()
	c.dirty = true

	return nil
}

// Data returns a copy of the whole tree.
func (c *Configuration) Data() Value {
	return MapValue(c.data.Clone())
}

// Keys returns the sorted dotted keys of all leaves, i.e. of every entry that
// is not a non-empty mapping.
func (c *Configuration) Keys() []string {
	keys := make([]string, 0, 64)
	keys = collectKeys(keys, "", c.data)

	return set.Sorted(keys)
}

// List returns the sorted keys matching pattern. A "*" matches within one
// key segment, "**" across segments. An empty pattern lists all keys.
func (c *Configuration) List(pattern string) ([]string, error) {
	if pattern == "" {
		return c.Keys(), nil
	}

	g, err := compileKeyGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	return set.SortedFiltered(c.Keys(), g.Match), nil
}

// KVList returns "<key><sep><value>" entries for all keys matching pattern
// (see List). Strings are printed verbatim, everything else as compact JSON.
// Null values are skipped.
func (c *Configuration) KVList(pattern, sep string) ([]string, error) {
	if sep == "" {
		sep = "="
	}

	keys, err := c.List(pattern)
	if err != nil {
		return nil, err
	}

	kv := make([]string, 0, len(keys))
	for _, k := range keys {
		v, _ := c.lookup(k)
		if v.IsNull() {
			continue
		}
		s, ok := v.AsString()
		if !ok {
			s = v.String()
		}
		kv = append(kv, k+sep+s)
	}

	return kv, nil
}

// Save writes the configuration to its backing file if it has unsaved
// changes. The file is encoded according to its extension, falling back to
// pretty printed JSON, and made world-writable. On failure the in-memory
// state is left untouched and still dirty.
func (c *Configuration) Save() error {
	if !c.dirty {
		debug.V(3).Log("[%s] not saving, no changes", c.name)

		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("%w: failed to create directory %s: %w", ErrWrite, filepath.Dir(c.path), err)
	}

	if _, err := c.fileFormat().WriteFile(MapValue(c.data), c.path, false); err != nil {
		return err
	}

	c.dirty = false
	debug.V(1).Log("[%s] configuration saved to %s", c.name, c.path)

	return nil
}

// Load reads the backing file, replacing all in-memory data, and applies
// the environment overlay (see below). Unless force is set this only happens
// if there are unsaved changes, i.e. it discards them. A missing file is not
// an error and leaves the configuration as it is. On failure nothing is
// modified.
//
// Environment overlay: every variable CONFIGLIB_<NAME>_<A>_<B>=value sets the
// key a.b to the string value after the file has been read.
func (c *Configuration) Load(force bool) error {
	if !force && !c.dirty {
		return nil
	}

	if _, err := os.Stat(c.path); errors.Is(err, fs.ErrNotExist) {
		debug.V(1).Log("[%s] no configuration file at %s", c.name, c.path)

		return nil
	}

	v, err := c.fileFormat().ReadFile(c.path)
	if err != nil {
		return err
	}

	root, err := rootMap(v)
	if err != nil {
		return fmt.Errorf("%s: %w", c.path, err)
	}

	if n := applyEnvOverlay(root, c.name, os.Environ()); n > 0 {
		debug.V(1).Log("[%s] applied %d environment overrides", c.name, n)
	}

	c.data = root
	c.dirty = false
	debug.V(1).Log("[%s] loaded configuration from %s", c.name, c.path)

	return nil
}

// Import reads path (format detected by extension) and deep-merges it into
// the configuration: nested mappings are combined key by key, everything
// else is replaced by the imported value. The configuration is marked dirty.
// On failure nothing is merged.
func (c *Configuration) Import(path string) error {
	v, err := ReadFile(path)
	if err != nil {
		return err
	}

	root, err := rootMap(v)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	c.data.Merge(root)
	c.dirty = true
	debug.V(1).Log("[%s] imported %d top-level keys from %s", c.name, root.Len(), path)

	return nil
}

// Export writes the configuration to path in the given format, see
// Format.WriteFile. It neither changes the backing file nor the dirty state.
// It returns the path written.
func (c *Configuration) Export(path string, f Format, appendExtension bool) (string, error) {
	return f.WriteFile(MapValue(c.data), path, appendExtension)
}

// Serialize encodes the configuration in the given format without any I/O.
func (c *Configuration) Serialize(f Format) ([]byte, error) {
	return f.Serialize(MapValue(c.data))
}

// Close saves pending changes. Callers should defer it right after creating
// a configuration. Errors are logged and returned; calling Close again
// retries the save.
func (c *Configuration) Close() error {
	if !c.dirty {
		return nil
	}

	if err := c.Save(); err != nil {
		debug.Log("[%s] unable to save configuration to %s: %s", c.name, c.path, err)

		return err
	}

	return nil
}

// fileFormat determines the encoding of the backing file from its extension.
// Unknown extensions and the JSON family use pretty printed JSON.
func (c *Configuration) fileFormat() Format {
	f, err := DetectFormat(c.path)
	if err != nil || f == JSON {
		return JSONPretty
	}

	return f
}

func (c *Configuration) lookup(key string) (Value, bool) {
	segs := splitKey(key)
	if segs == nil {
		return Value{}, false
	}

	return lookup(c.data, segs)
}

// lookup walks the mappings below root along segs.
func lookup(root *Map, segs []string) (Value, bool) {
	cur := MapValue(root)
	for _, seg := range segs {
		m, ok := cur.AsMap()
		if !ok {
			return Value{}, false
		}
		cur, ok = m.Get(seg)
		if !ok {
			return Value{}, false
		}
	}

	return cur, true
}

// assign stores v at segs below root. Without create it fails, before
// touching anything, unless the whole path already exists.
func assign(root *Map, segs []string, v Value, create bool) bool {
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		child, found := cur.Get(seg)
		if !found || child.kind != KindMap {
			if !create {
				return false
			}
			child = MapValue(NewMap())
			cur.Set(seg, child)
		}
		cur = child.m
	}

	leaf := segs[len(segs)-1]
	if _, found := cur.Get(leaf); !found && !create {
		return false
	}
	cur.Set(leaf, v)

	return true
}

func collectKeys(keys []string, prefix string, m *Map) []string {
	for _, k := range m.keys {
		fk := k
		if prefix != "" {
			fk = prefix + "." + k
		}
		v := m.vals[k]
		if v.kind == KindMap && v.m.Len() > 0 {
			keys = collectKeys(keys, fk, v.m)

			continue
		}
		keys = append(keys, fk)
	}

	return keys
}

// rootMap checks that a decoded tree can serve as a configuration root.
func rootMap(v Value) (*Map, error) {
	switch v.kind {
	case KindMap:
		return v.m, nil
	case KindNull:
		return NewMap(), nil
	default:
		return nil, fmt.Errorf("%w: %w, got %s", ErrParse, ErrInvalidRoot, v.kind)
	}
}
