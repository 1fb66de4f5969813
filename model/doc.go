// Package model defines stable boundary types for CLI and API output.
//
// Event identity (canonical bytes, hashes and CIDs) is unaffected by any
// projection. These structs are the only types intended for direct JSON/YAML
// serialization by consumers.
package model
