// Package estructura provides runtime multiple dispatch on the types
// and subtypes of values.
//
// The core code is in package 'core'.  Libraries of subtypes and
// methods written in YAML (with ECMAScript sources) are in package
// 'library', and some command-line tools are in `cmd`.
package estructura
