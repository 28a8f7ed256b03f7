package cmd

// Middleware decorates a command (logging, scope checks). The result is still a Command.
type Middleware func(Command) Command

// Apply wraps c so that the last middleware listed runs first.
func Apply(c Command, mws ...Middleware) Command {
	for _, mw := range mws {
		c = mw(c)
	}
	return c
}
