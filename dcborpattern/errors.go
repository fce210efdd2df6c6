package dcborpattern

import (
	"fmt"

	"github.com/samber/oops"
)

// Error kind tags. This package is a from-scratch reference implementation
// owned by this repository (not a sealed external dependency), so its error
// taxonomy follows the same samber/oops convention the enclosing pattern
// package uses in errors.go rather than bare fmt.Errorf.
const (
	codeLex   = "dcborpattern lex error"
	codeParse = "dcborpattern parse error"
)

// lexErrorf reports a malformed or unterminated token, tagged with the
// byte offset the lexer had reached.
func lexErrorf(offset int, format string, args ...interface{}) error {
	return oops.
		Code(codeLex).
		With("offset", offset).
		Errorf("%s: %s", codeLex, fmt.Sprintf(format, args...))
}

// parseErrorf reports an unexpected token, wrong arity, or malformed
// literal at parse time.
func parseErrorf(format string, args ...interface{}) error {
	return oops.Code(codeParse).Errorf("%s: %s", codeParse, fmt.Sprintf(format, args...))
}

// parseErrorWrap reports a parse-time failure whose root cause came from a
// delegated literal decoder (regexp2, iso8601, go-urn, or the dCBOR
// unmarshaler), preserving that cause via %w-style wrapping.
func parseErrorWrap(cause error, format string, args ...interface{}) error {
	return oops.
		Code(codeParse).
		Wrapf(cause, "%s: %s", codeParse, fmt.Sprintf(format, args...))
}
