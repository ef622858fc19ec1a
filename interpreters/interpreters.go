// Package interpreters collects the standard interpreters.
package interpreters

import (
	"github.com/Comcast/estructura/core"
	"github.com/Comcast/estructura/interpreters/goja"
	"github.com/Comcast/estructura/interpreters/noop"
	"github.com/Comcast/estructura/interpreters/pattern"
)

// Standard makes an InterpretersMap with the standard interpreters.
//
// The given Outbox (if any) receives what code emits with _.out().
func Standard(outbox *goja.Outbox) core.InterpretersMap {
	is := core.NewInterpretersMap()

	es := goja.NewInterpreter()
	es.Outbox = outbox
	is["goja"] = es
	is["ecmascript"] = es

	is["match"] = pattern.NewInterpreter()
	is["noop"] = noop.NewInterpreter()

	return is
}
