// Package tool defines typed tools that a model can call through the agent
// loop.
//
// A [Tool] wraps a Go function together with its name, description and a
// JSON schema derived from its input type. [New] creates one; [WithDescription]
// and [WithCost] configure it. A [Catalog] groups tools so their
// [Catalog.Definitions] can be offered to a model and their handlers
// dispatched by name.
package tool
