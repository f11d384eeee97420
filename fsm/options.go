package fsm

// Option configures an Engine at construction.
type Option func(*Engine)

// WithName sets the machine name used in logs, metrics and spans.
func WithName(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.name = name
		}
	}
}

// WithLogger sets the logger for the engine. Nil disables logging.
func WithLogger(logger Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStateChangedSink installs the state-changed trace sink.
func WithStateChangedSink(fn TraceFunc) Option {
	return func(e *Engine) {
		e.SetStateChangedSink(fn)
	}
}

// WithTriggerSink installs the trigger trace sink.
func WithTriggerSink(fn TraceFunc) Option {
	return func(e *Engine) {
		e.SetTriggerSink(fn)
	}
}
