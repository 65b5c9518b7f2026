package configlib

import "errors"

var (
	// ErrConstruct indicates a configuration could not be set up, e.g. because
	// its path could not be resolved or its initial load failed.
	ErrConstruct = errors.New("failed to construct configuration")
	// ErrParse indicates malformed serialized content.
	ErrParse = errors.New("failed to parse configuration data")
	// ErrUnsupportedFormat indicates a file extension that maps to no known format.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNotFound indicates a referenced file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrPermission indicates a path that can not be read or written.
	ErrPermission = errors.New("permission denied")
	// ErrWrite indicates a configuration file could not be written.
	ErrWrite = errors.New("failed to write configuration")
	// ErrInvalidKey indicates a dotted key that does not match the key syntax.
	ErrInvalidKey = errors.New("invalid key")
	// ErrInvalidRoot indicates a tree whose root is not a mapping.
	ErrInvalidRoot = errors.New("configuration root must be a mapping")
)
