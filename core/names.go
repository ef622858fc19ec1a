package core

// ReservedNames can't be used as type names, subtype names, method
// names, or namespace names.
//
// The set includes the members of Result (so that a registered method
// can never be confused with them), Go keywords and predeclared
// identifiers, this package's own registry keys, and serialization
// hooks.
var ReservedNames = map[string]bool{
	// Result members
	"Args": true, "Call": true, "Has": true, "Invoke": true, "Len": true, "Method": true,
	"Names": true, "Types": true,

	// Go keywords
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,

	// Predeclared
	"nil": true, "true": true, "false": true, "iota": true,

	// Registry keys
	"fns": true, "subtypes": true, "fn": true, "subtype": true, "Default": true,

	// Serialization
	"MarshalJSON": true, "toJSON": true,
}

// IsReserved reports whether the given name is reserved.
func IsReserved(name string) bool {
	return ReservedNames[name]
}

// checkName reports a problem with the given name and returns false
// if the name can't be registered.  The path is only used for the
// report.
func (ns *Namespace) checkName(name, path string) bool {
	if name == "" {
		ns.warn(&InvalidDefinition{
			Path:    path,
			Value:   name,
			Allowed: "non-empty names",
		})
		return false
	}
	if IsReserved(name) {
		ns.warn(&ReservedName{
			Name: name,
			Path: path,
		})
		return false
	}
	return true
}
