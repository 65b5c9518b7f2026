// Package configlib implements hierarchical configuration storage backed by
// a single file. Values are addressed by dotted keys ("database.host") and
// form a tree of mappings, lists and scalars (see Value).
//
// # Usage
//
// Use configlib.New with a name to open (or start) a configuration:
//
//	cfg, err := configlib.New("myapp")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer cfg.Close()
//
// The backing file is selected in this order (the first one wins):
//
//   - an explicit path given to NewWithPath
//   - `CONFIGLIB_<NAME>` - if it points to an existing file
//   - `CONFIGLIB_PATH/<name>.conf`
//   - `<platform config dir>/<name>.conf`, e.g. `~/.configlib`,
//     `$XDG_CONFIG_HOME/configlib`, `/etc/configlib` or `%APPDATA%\ConfigLib`
//
// All changes are kept in memory until Save (or Close) writes them. Nothing is
// written if nothing changed.
//
// # Examples
//
// ## Defaults and Environment Variables
//
//	cfg.SetDefault("database.host", configlib.String("127.0.0.1"))
//	cfg.SetDefault("database.port", configlib.Int(3306))
//	// DB_PASSWORD wins over the stored value if it is set and not empty
//	cfg.SetDefaultFromEnv("database.password", configlib.Null(), "DB_PASSWORD", false)
//
// Additionally every `CONFIGLIB_<NAME>_<A>_<B>=value` variable overrides the
// key `a.b` whenever the file is loaded.
//
// ## Reading and Writing
//
//	cfg.Set("server.tls.enabled", configlib.Bool(true), true) // create missing parents
//	enabled := cfg.GetBool("server.tls.enabled", false)
//	if !cfg.Set("server.port", configlib.Int(8080), false) {
//		// server.port did not exist yet
//	}
//
// ## Import and Export
//
// Files can be exchanged as JSON, YAML or Go's native gob encoding. The format
// is detected from the extension:
//
//	if err := cfg.Import("overrides.yaml"); err != nil { ... } // deep merge
//	p, err := cfg.Export("backup", configlib.YAML, true)        // writes backup.yml
//
// ## Error Handling
//
// Get, Set and Exists never fail, they return the default or false instead.
// File operations return errors wrapping one of the sentinels in errors.go:
//
//	if err := cfg.Import(path); err != nil {
//		if errors.Is(err, configlib.ErrNotFound) {
//			// nothing to import
//		}
//	}
//
// # Known limitations
//
// * No locking: processes sharing a file overwrite each other's changes
// * Written files are world-writable (0777) for compatibility with existing deployments
// * YAML merge keys (<<) are not expanded
package configlib
