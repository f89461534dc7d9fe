// Package types holds the record type codes, scan metadata and version
// constants shared by every strata package.
package types

// Version is the canonical project version.
// The CLI, the index cache format and notification payloads share it.
const Version = "0.3.0"

// CacheVersion is the index cache format version. It changes only when the
// encoded layout changes, independently of Version.
const CacheVersion = 2
