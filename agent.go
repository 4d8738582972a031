package tabular

import (
	"log/slog"
	"os"

	"github.com/nexxia-ai/tabular/sandbox"
)

// Option configures an agent at construction time.
type Option func(*agentOptions)

type agentOptions struct {
	name      string
	session   *Session
	logger    *slog.Logger
	logLevel  slog.Level
	box       *sandbox.Sandbox
	namespace sandbox.Namespace
	history   *History
	trace     *Trace
}

// WithName overrides the agent's default name.
func WithName(name string) Option {
	return func(o *agentOptions) { o.name = name }
}

// WithSession attaches the agent to an existing session so multiple agents
// share its ID and base context.
func WithSession(session *Session) Option {
	return func(o *agentOptions) { o.session = session }
}

// WithLogger replaces the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *agentOptions) { o.logger = logger }
}

// WithLogLevel sets the level of the default logger.
func WithLogLevel(level slog.Level) Option {
	return func(o *agentOptions) { o.logLevel = level }
}

// WithSandbox replaces the default python subprocess sandbox. Tests use this
// to substitute fake runners.
func WithSandbox(box *sandbox.Sandbox) Option {
	return func(o *agentOptions) { o.box = box }
}

// WithNamespace overrides the execution namespace bound into the sandbox.
// Omitting a symbol the generated code needs makes execution fail, which is
// how tests exercise the recovery path.
func WithNamespace(ns sandbox.Namespace) Option {
	return func(o *agentOptions) { o.namespace = ns }
}

// WithHistory makes the agent record its turns into an existing conversation
// history instead of a fresh one. The router uses this to keep one shared
// history across its delegates.
func WithHistory(history *History) Option {
	return func(o *agentOptions) { o.history = history }
}

// WithTrace records every model exchange of the agent to the trace file.
func WithTrace(trace *Trace) Option {
	return func(o *agentOptions) { o.trace = trace }
}

func newAgentOptions(defaultName string, opts ...Option) agentOptions {
	o := agentOptions{name: defaultName}
	for _, opt := range opts {
		opt(&o)
	}
	if o.session == nil {
		o.session = NewSession(nil)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: o.logLevel})).With("agent", o.name)
	}
	if o.box == nil {
		o.box = sandbox.New()
	}
	if o.history == nil {
		o.history = NewHistory()
	}
	return o
}
