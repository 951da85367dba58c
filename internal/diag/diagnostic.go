package diag

import (
	"fmt"
	"strings"
)

// Location pins a diagnostic to a place in the Scratch project.
// Every field is optional; empty fields are omitted from messages.
type Location struct {
	File    string
	Target  string
	BlockID string
	Opcode  string
}

func (l Location) String() string {
	parts := make([]string, 0, 4)
	if l.File != "" {
		parts = append(parts, l.File)
	}
	if l.Target != "" {
		parts = append(parts, "target "+l.Target)
	}
	if l.BlockID != "" {
		parts = append(parts, "block "+l.BlockID)
	}
	if l.Opcode != "" {
		parts = append(parts, "opcode "+l.Opcode)
	}
	return strings.Join(parts, ", ")
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Where    Location
}

// Error is the error value produced by the compiler passes.
// It aborts the whole compilation and carries enough context to diagnose
// the failure without re-running.
type Error struct {
	Code    Code
	Message string
	Where   Location
	Cause   error
}

// Errorf builds an Error with a formatted message.
func Errorf(code Code, where Location, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Where: where}
}

// Wrap builds an Error around a lower-level cause.
func Wrap(code Code, where Location, cause error, msg string) *Error {
	return &Error{Code: code, Message: msg, Where: where, Cause: cause}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var sb strings.Builder
	sb.WriteString(e.Code.ID())
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if loc := e.Where.String(); loc != "" {
		sb.WriteString(" (")
		sb.WriteString(loc)
		sb.WriteString(")")
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Diagnostic converts the error into a reportable record.
func (e *Error) Diagnostic() Diagnostic {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return Diagnostic{
		Severity: SevError,
		Code:     e.Code,
		Message:  msg,
		Where:    e.Where,
	}
}
