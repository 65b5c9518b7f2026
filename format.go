package configlib

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopasspw/gopass/pkg/debug"
)

// Format is one of the supported on-disk encodings of a configuration tree.
// The set is closed.
type Format uint8

// Supported formats.
const (
	// JSON is compact JSON.
	JSON Format = iota
	// JSONPretty is JSON indented with four spaces.
	JSONPretty
	// YAML is block style YAML.
	YAML
	// Serialized is Go's native gob encoding, opaque to other tooling.
	Serialized
)

// filePerm is applied to every written file so that configurations can be
// shared by processes running as different users.
const filePerm fs.FileMode = 0o777

var formatNames = map[Format]string{
	JSON:       "json",
	JSONPretty: "json-pretty",
	YAML:       "yaml",
	Serialized: "serialized",
}

// Formats returns all supported formats.
func Formats() []Format {
	return []Format{JSON, JSONPretty, YAML, Serialized}
}

func (f Format) String() string {
	if n, found := formatNames[f]; found {
		return n
	}

	return fmt.Sprintf("format(%d)", uint8(f))
}

// ParseFormat returns the format with the given name (see Format.String).
// Matching is case-insensitive and "yml" is accepted as an alias for yaml.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "yml" {
		return YAML, nil
	}
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}

	return JSON, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// Serialize encodes v.
func (f Format) Serialize(v Value) ([]byte, error) {
	var (
		buf []byte
		err error
	)

	switch f {
	case JSON:
		buf, err = encodeJSON(v, false)
	case JSONPretty:
		buf, err = encodeJSON(v, true)
	case YAML:
		buf, err = encodeYAML(v)
	case Serialized:
		buf, err = encodeSerialized(v)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", f, err)
	}

	return buf, nil
}

// Deserialize decodes data. Malformed input results in ErrParse.
func (f Format) Deserialize(data []byte) (Value, error) {
	var (
		v   Value
		err error
	)

	switch f {
	case JSON, JSONPretty:
		v, err = decodeJSON(data)
	case YAML:
		v, err = decodeYAML(data)
	case Serialized:
		v, err = decodeSerialized(data)
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return Value{}, fmt.Errorf("%w as %s: %w", ErrParse, f, err)
	}

	return v, nil
}

// Extension returns the canonical file extension, optionally with the
// leading dot. Both JSON variants share ".json".
func (f Format) Extension(withDot bool) string {
	var ext string
	switch f {
	case YAML:
		ext = "yml"
	case Serialized:
		ext = "ser"
	default:
		ext = "json"
	}
	if withDot {
		return "." + ext
	}

	return ext
}

// family maps the pretty variant onto JSON since both read the same way.
func (f Format) family() Format {
	if f == JSONPretty {
		return JSON
	}

	return f
}

// DetectFormat derives the format from the extension of path.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "json", "conf":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "ser", "serialized":
		return Serialized, nil
	case "":
		return JSON, fmt.Errorf("%w: %s has no file extension", ErrUnsupportedFormat, path)
	default:
		return JSON, fmt.Errorf("%w: extension %q of %s", ErrUnsupportedFormat, ext, path)
	}
}

// ReadFile reads and decodes path, detecting the format from its extension.
func ReadFile(path string) (Value, error) {
	if err := checkReadable(path); err != nil {
		return Value{}, err
	}

	f, err := DetectFormat(path)
	if err != nil {
		return Value{}, err
	}

	return f.readFile(path)
}

// ReadFile reads and decodes path as f regardless of its extension.
func (f Format) ReadFile(path string) (Value, error) {
	if err := checkReadable(path); err != nil {
		return Value{}, err
	}

	return f.readFile(path)
}

func (f Format) readFile(path string) (Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Value{}, classifyReadError(path, err)
	}

	debug.V(3).Log("read %d bytes from %s as %s", len(data), path, f)

	v, err := f.Deserialize(data)
	if err != nil {
		return Value{}, fmt.Errorf("%s: %w", path, err)
	}

	return v, nil
}

// WriteFile encodes v as f and writes it to path. If appendExtension is set
// and path does not already end in an extension of this format, the
// canonical extension is appended. The written file is made world-writable.
// It returns the path that was actually written.
func (f Format) WriteFile(v Value, path string, appendExtension bool) (string, error) {
	if appendExtension {
		if df, err := DetectFormat(path); err != nil || df != f.family() {
			path += f.Extension(true)
		}
	}

	buf, err := f.Serialize(v)
	if err != nil {
		return path, fmt.Errorf("%w to %s: %w", ErrWrite, path, err)
	}

	if err := writeFile(path, buf); err != nil {
		return path, err
	}

	debug.V(1).Log("wrote %s to %s", f, path)

	return path, nil
}

// writeFile writes buf to path and makes it world-writable.
func writeFile(path string, buf []byte) error {
	if err := os.WriteFile(path, buf, filePerm); err != nil {
		return classifyWriteError(path, err)
	}
	// WriteFile is subject to the umask
	if err := os.Chmod(path, filePerm); err != nil {
		return classifyWriteError(path, err)
	}

	return nil
}

func checkReadable(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return classifyReadError(path, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	return nil
}

func classifyReadError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: can not read %s: %w", ErrPermission, path, err)
	default:
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
}

func classifyWriteError(path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w to %s: %w: %w", ErrWrite, path, ErrPermission, err)
	}

	return fmt.Errorf("%w to %s: %w", ErrWrite, path, err)
}
