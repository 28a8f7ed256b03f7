// Package cmd is a small transport-agnostic command core: a command has a name,
// a description and Run(ctx, invocation). Adapters decide how invocations are
// produced (chat prefix, CLI) and what they carry in Data.
package cmd

import "context"

// Invocation is one parsed call. Data is the adapter's context value.
type Invocation struct {
	Name string
	Args []string
	Data any
}

// Arg returns the i-th argument or "".
func (inv *Invocation) Arg(i int) string {
	if i < 0 || i >= len(inv.Args) {
		return ""
	}
	return inv.Args[i]
}

type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}

// Aliased commands answer to extra names.
type Aliased interface {
	Aliases() []string
}
