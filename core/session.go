package mal

import (
	"fmt"
	"io"
	"log"
	"time"
)

// Journal persists top-level definitions so a later session can replay them.
type Journal interface {
	Append(source, result string) error
	Sources() ([]string, error)
	Truncate() error
}

type SessionOptions struct {
	Out       io.Writer // destination of prn/println, io.Discard when nil
	Journal   Journal   // optional
	MaxDepth  int // DefaultMaxDepth when zero
	MaxTraces int
}

// Session is one global environment plus the evaluator and bookkeeping
// that the REPL and the eval server share. It is not safe for concurrent use.
type Session struct {
	opts   SessionOptions
	env    *Env
	eval   *Evaluator
	traces traceRing
}

// NewSession builds the root environment and replays the journal into it.
func NewSession(opts SessionOptions) (*Session, error) {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	s := &Session{
		opts:   opts,
		eval:   &Evaluator{MaxDepth: opts.MaxDepth},
		traces: traceRing{max: opts.MaxTraces},
	}
	s.reset()
	if err := s.replay(); err != nil {
		return nil, fmt.Errorf("replay journal: %w", err)
	}
	return s, nil
}

func (s *Session) reset() {
	s.env = NewRootEnv(s.opts.Out)
	s.env.Bind("traces", PrimitiveVal("traces", s.traces.builtin))
	s.env.Bind("apply", PrimitiveVal("apply", s.builtinApply))
}

func (s *Session) replay() error {
	if s.opts.Journal == nil {
		return nil
	}
	sources, err := s.opts.Journal.Sources()
	if err != nil {
		return err
	}
	replayed := 0
	for _, src := range sources {
		ast, err := Read(src)
		if err == nil {
			_, err = s.eval.Eval(ast, s.env)
		}
		if err != nil {
			log.Printf("replay: skipping %s: %v", src, err)
			continue
		}
		replayed++
	}
	if len(sources) > 0 {
		log.Printf("replayed %d/%d journal entries", replayed, len(sources))
	}
	return nil
}

// Env returns the session's global scope.
func (s *Session) Env() *Env { return s.env }

// Rep reads every form in input and evaluates them in order, returning the
// last value. Evaluation stops at the first error.
func (s *Session) Rep(input string) (Value, error) {
	forms, err := ReadAll(input)
	if err != nil {
		return Value{}, fmt.Errorf("parse error: %w", err)
	}
	if len(forms) == 0 {
		return Value{}, fmt.Errorf("parse error: empty input")
	}
	var result Value
	for _, form := range forms {
		result, err = s.evalTopLevel(form)
		if err != nil {
			return Value{}, err
		}
	}
	return result, nil
}

// evalTopLevel evaluates one form, records a trace and journals it when it
// succeeded and wrote to the global scope, wherever the def! sits inside it.
// A journal failure is reported but the binding stays in place.
func (s *Session) evalTopLevel(form Value) (Value, error) {
	trace := Trace{
		Source:    PrStr(form, true),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	before := s.env.Version()
	s.eval.ResetSteps()
	val, err := s.eval.Eval(form, s.env)
	trace.Steps = s.eval.Steps()
	if err != nil {
		trace.Error = err.Error()
		s.traces.add(trace)
		return Value{}, err
	}
	trace.Result = val
	s.traces.add(trace)

	if s.opts.Journal != nil && s.env.Version() != before {
		if err := s.opts.Journal.Append(trace.Source, PrStr(val, true)); err != nil {
			return Value{}, fmt.Errorf("journal: %w", err)
		}
	}
	return val, nil
}

// Symbols lists the names bound in the global scope.
func (s *Session) Symbols() []string {
	return s.env.Names()
}

// Traces returns up to n of the newest traces; n < 0 returns all.
func (s *Session) Traces(n int) []Trace {
	return s.traces.last(n)
}

// Clear truncates the journal and resets the environment and traces.
func (s *Session) Clear() error {
	if s.opts.Journal != nil {
		if err := s.opts.Journal.Truncate(); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}
	s.traces.reset()
	s.reset()
	return nil
}

// builtinApply: (apply f arg... seq) calls f with the args followed by the
// elements of seq.
func (s *Session) builtinApply(args []Value) (Value, error) {
	if len(args) < 2 {
		return Value{}, fmt.Errorf("apply: expected at least 2 args (fn seq), got %d", len(args))
	}
	if args[0].Kind != ValFunc {
		return Value{}, fmt.Errorf("apply: first arg must be Func, got %s", args[0].KindName())
	}
	tail, err := seqArg("apply", args[len(args)-1])
	if err != nil {
		return Value{}, err
	}
	callArgs := append(append([]Value(nil), args[1:len(args)-1]...), tail...)
	return s.eval.Apply(args[0].Fn, callArgs)
}
