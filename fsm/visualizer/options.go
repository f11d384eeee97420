package visualizer

// Options configures the visualization output.
type Options struct {
	// ShowRules labels transitions with their rule names.
	ShowRules bool

	// ShowActions lists enter/exit action names inside state nodes.
	ShowActions bool

	// Direction controls diagram flow: "TD" (top-down) or "LR" (left-right).
	Direction string

	// Highlight marks one state, typically the machine's current state.
	Highlight string
}

// DefaultOptions returns sensible defaults for visualization.
func DefaultOptions() Options {
	return Options{
		ShowRules:   true,
		ShowActions: false,
		Direction:   "TD",
	}
}

// WithShowRules enables/disables rule labels.
func (o Options) WithShowRules(show bool) Options {
	o.ShowRules = show

	return o
}

// WithShowActions enables/disables action details.
func (o Options) WithShowActions(show bool) Options {
	o.ShowActions = show

	return o
}

// WithDirection sets the diagram direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithHighlight sets the state to highlight.
func (o Options) WithHighlight(state string) Options {
	o.Highlight = state

	return o
}
