package tools

import "encoding/json"

// Spec is the identity and schema metadata of a helper tool
// (toolproc.HelperTool); the output tool and the injected submit tool carry
// the same three fields directly on their own types. It carries no handler or DSL metadata — those live where the handler's
// concrete Run/Attempt types are known (package toolproc, package agent).
type Spec struct {
	// Name is the tool's identifier as seen by the model.
	Name Ident
	// Description is sent to the model as the tool's description.
	Description string
	// InputSchema is the tool's JSON-Schema input document.
	InputSchema json.RawMessage
}
