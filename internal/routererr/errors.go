package routererr

import (
	"errors"
	"fmt"
)

// Code is a custom program error code surfaced to the caller.
type Code uint32

const (
	InvalidInstruction Code = iota
	InvalidInput
	InvalidFee
	InvalidStatus
	ConversionFailure
	MissingAccount
)

var codeNames = map[Code]string{
	InvalidInstruction: "invalid instruction",
	InvalidInput:       "invalid input",
	InvalidFee:         "invalid fee",
	InvalidStatus:      "invalid status",
	ConversionFailure:  "conversion failure",
	MissingAccount:     "missing account",
}

func (c Code) Error() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("custom program error: %d", uint32(c))
}

// String returns the symbolic name used in API responses.
func (c Code) String() string {
	switch c {
	case InvalidInstruction:
		return "InvalidInstruction"
	case InvalidInput:
		return "InvalidInput"
	case InvalidFee:
		return "InvalidFee"
	case InvalidStatus:
		return "InvalidStatus"
	case ConversionFailure:
		return "ConversionFailure"
	case MissingAccount:
		return "MissingAccount"
	}
	return fmt.Sprintf("Custom(%d)", uint32(c))
}

// CodeOf extracts the custom code from an error chain.
func CodeOf(err error) (Code, bool) {
	var c Code
	if errors.As(err, &c) {
		return c, true
	}
	return 0, false
}

// ForwardCallError wraps the verbatim error returned by the external AMM program.
type ForwardCallError struct {
	Program string
	Err     error
}

func (e *ForwardCallError) Error() string {
	return fmt.Sprintf("forward call to %s failed: %v", e.Program, e.Err)
}

func (e *ForwardCallError) Unwrap() error { return e.Err }

// SkimCallError wraps the verbatim error returned by the token program for a fee transfer.
type SkimCallError struct {
	Leg    string
	Amount uint64
	Err    error
}

func (e *SkimCallError) Error() string {
	return fmt.Sprintf("skim transfer %s (%d) failed: %v", e.Leg, e.Amount, e.Err)
}

func (e *SkimCallError) Unwrap() error { return e.Err }

// Overflow is the panic value raised when checked arithmetic fails.
// It is never returned as an error: the enclosing unit of work is rolled back
// and the panic continues.
type Overflow struct {
	Op string
}

func (o Overflow) String() string {
	return "arithmetic overflow in " + o.Op
}

// ArithmeticOverflow panics with an Overflow value.
func ArithmeticOverflow(op string) {
	panic(Overflow{Op: op})
}
