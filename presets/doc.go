// Package presets registers subtype presets with package core.
//
// Import this package for its side effects:
//
//	import _ "github.com/Comcast/estructura/presets"
//
// and then ask a Namespace for a preset by name:
//
//	ns.Subtype("html-nodes")
//	ns.Subtype("text")
package presets
