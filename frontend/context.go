// Package frontend implements the expansion protocol that a meta-transformed
// kernel function emits into: the comptime/runtime duality of range loops,
// branches, and the Comptime[T] wrapper that carries host-known values
// through expansion.
package frontend

import "github.com/cubecl-go/cubecl/ir"

// Context is the build-context argument an expansion function receives. It
// wraps the ir.Scope currently being emitted into, plus the HostEval flag
// that lets a hand-written expansion function be driven in either
// expansion mode (emit IR) or host-evaluation mode (run as a normal Go
// function, for CPU unit-testing the kernel's logic) without inventing a
// source-transform layer to generate that split automatically.
type Context struct {
	scope    *ir.Scope
	HostEval bool
}

// New wraps scope in a root build Context.
func New(scope *ir.Scope) *Context {
	return &Context{scope: scope}
}

// Scope returns the ir.Scope this context is currently emitting into.
func (c *Context) Scope() *ir.Scope {
	return c.scope
}

// child returns a Context wrapping a fresh child scope of c's, preserving
// HostEval. Used by the branch/loop expansion helpers.
func (c *Context) child() *Context {
	return &Context{scope: c.scope.Child(), HostEval: c.HostEval}
}
