package mal

import "fmt"

type ErrorKind int

const (
	UnboundSymbol ErrorKind = iota
	ArityError
	ShapeError
	NotCallable
	MalformedCall
	BindingError
	DepthExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case UnboundSymbol:
		return "UnboundSymbol"
	case ArityError:
		return "ArityError"
	case ShapeError:
		return "ShapeError"
	case NotCallable:
		return "NotCallable"
	case MalformedCall:
		return "MalformedCall"
	case BindingError:
		return "BindingError"
	case DepthExceeded:
		return "DepthExceeded"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// EvalError is returned for every failure raised by the evaluator itself.
// Errors from primitives pass through unchanged.
type EvalError struct {
	Kind    ErrorKind
	Message string
}

func (e *EvalError) Error() string {
	return e.Message
}

func errorf(kind ErrorKind, format string, args ...any) error {
	return &EvalError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
