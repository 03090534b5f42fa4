package parser

import (
	"errors"
	"fmt"
)

// ErrUnsupportedType is returned for documents no registered parser reads.
var ErrUnsupportedType = errors.New("unsupported document type")

// ErrSyntax matches every *SyntaxError via errors.Is.
var ErrSyntax = errors.New("syntax error")

// SyntaxError reports the position of the first syntax error in a document.
// A document with a syntax error yields no triples at all.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("turtle: line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// Is reports whether target is ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}
