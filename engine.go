package papermill

import (
	"context"
	"errors"
	"fmt"

	"github.com/tsawler/papermill/capability"
	"github.com/tsawler/papermill/convert"
	"github.com/tsawler/papermill/format"
)

// State is one stage in a conversion's lifecycle. A conversion moves
// strictly forward through the states; the trace in Result.States
// shows how far it got.
type State string

const (
	// StateReceived means the request was accepted for processing.
	StateReceived State = "received"
	// StateValidated means input and options passed strategy checks.
	StateValidated State = "validated"
	// StateCapabilityChecked means every required external backend
	// is present.
	StateCapabilityChecked State = "capability-checked"
	// StateExecuting means the conversion is running.
	StateExecuting State = "executing"
	// StateSucceeded is the terminal success state.
	StateSucceeded State = "succeeded"
	// StateFailed is the terminal failure state.
	StateFailed State = "failed"
)

// ErrUnknownKind reports a request for a conversion the registry does
// not contain.
var ErrUnknownKind = errors.New("unknown conversion kind")

// ErrInputTooLarge reports input exceeding the engine's size limit.
var ErrInputTooLarge = errors.New("input exceeds size limit")

// Request describes one conversion.
type Request struct {
	Kind    convert.Kind
	Input   convert.Input
	Options convert.Options
}

// FileInput builds a single-file conversion input, sniffing the
// format from content with the filename as a fallback.
func FileInput(name string, data []byte) convert.Input {
	f := format.DetectFromMagic(data)
	if f == format.Unknown || f == format.ZIP {
		if byName := format.Detect(name); byName != format.Unknown {
			f = byName
		}
	}
	return convert.Input{
		Files:  []convert.NamedFile{{Name: name, Data: data}},
		Format: f,
	}
}

// Engine runs conversions. The capability snapshot and backends are
// fixed at construction; a conversion either sees a backend or fails
// fast, availability never changes mid-run. An Engine is safe for
// concurrent use.
type Engine struct {
	env          *convert.Env
	maxInputSize int64
}

// New builds an Engine, probing the environment for external backends
// unless options say otherwise.
func New(opts ...Option) *Engine {
	cfg := config{
		caps:         nil,
		scratchDir:   "",
		maxInputSize: DefaultMaxInputSize,
	}
	for _, o := range opts {
		o(&cfg)
	}
	var caps capability.Set
	if cfg.caps != nil {
		caps = *cfg.caps
	} else {
		caps = capability.Probe()
	}
	eng := &Engine{
		env:          convert.NewEnv(caps, cfg.scratchDir),
		maxInputSize: cfg.maxInputSize,
	}
	if cfg.env != nil {
		eng.env = cfg.env
	}
	return eng
}

// Capabilities returns the engine's probed capability snapshot.
func (e *Engine) Capabilities() capability.Set {
	return e.env.Caps
}

// Convert runs one conversion. The context bounds the whole run
// including any external tool invocations; cancellation kills running
// tools. The returned Result carries the state trace even on failure.
func (e *Engine) Convert(ctx context.Context, req Request) (*Result, error) {
	res := &Result{}
	fail := func(err error) (*Result, error) {
		res.States = append(res.States, StateFailed)
		res.Err = err
		return res, err
	}

	res.States = append(res.States, StateReceived)
	var total int64
	for _, f := range req.Input.Files {
		total += int64(len(f.Data))
	}
	if e.maxInputSize > 0 && total > e.maxInputSize {
		return fail(fmt.Errorf("%w: %d bytes, limit %d", ErrInputTooLarge, total, e.maxInputSize))
	}

	strategy, ok := convert.Lookup(req.Kind)
	if !ok {
		return fail(fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind))
	}

	if err := strategy.Validate(req.Input, req.Options); err != nil {
		return fail(err)
	}
	res.States = append(res.States, StateValidated)

	// The capability gate runs before any scratch I/O so a refused
	// conversion leaves no artifacts behind.
	for _, need := range strategy.Requires() {
		if !e.env.Caps.Has(need) {
			return fail(&capability.Error{Capability: need})
		}
	}
	res.States = append(res.States, StateCapabilityChecked)

	res.States = append(res.States, StateExecuting)
	out, err := strategy.Convert(ctx, e.env, req.Input, req.Options)
	if err != nil {
		return fail(err)
	}

	res.States = append(res.States, StateSucceeded)
	res.Files = out.Files
	res.MIME = out.MIME
	for _, w := range out.Warnings {
		res.Warnings = append(res.Warnings, Warning{Message: w})
	}
	return res, nil
}
