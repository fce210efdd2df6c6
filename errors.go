package pattern

import (
	"fmt"

	"github.com/samber/oops"
)

// Error kind tags from the taxonomy of spec §7. Tests match substrings of
// Error(), so the tag text below is part of the public error surface.
const (
	codeLex               = "lex error"
	codeParse             = "parse error"
	codeCompile           = "compile error"
	codeSubMatcher        = "sub-matcher error"
	codeResourceExhausted = "resource exhausted"
	codeInternal          = "internal invariant violated"
)

// lexError reports a malformed or unterminated token.
func lexError(offset int, message string) error {
	return oops.
		Code(codeLex).
		With("offset", offset).
		Errorf("%s: %s", codeLex, message)
}

// parseError reports an unexpected token, wrong arity, or disallowed nesting.
// span is the [start,end) byte range of the offending construct.
func parseError(spanStart, spanEnd int, expected, found string) error {
	return oops.
		Code(codeParse).
		With("span_start", spanStart).
		With("span_end", spanEnd).
		With("expected", expected).
		Errorf("%s: expected %s, found %q", codeParse, expected, found)
}

// compileError reports a malformed quantifier range or an unresolvable
// tag/known-value name at compile time.
func compileError(message string) error {
	return oops.Code(codeCompile).Errorf("%s: %s", codeCompile, message)
}

// duplicateCaptureError reports a capture name collision between the
// envelope-level namespace and the CBOR sub-matcher's namespace.
func duplicateCaptureError(name string) error {
	return oops.
		Code(codeCompile).
		With("capture_name", name).
		Errorf("%s: duplicate capture name %q", codeCompile, name)
}

// subMatcherError wraps an error surfaced from the CBOR sub-matcher's parser
// or matcher, verbatim, tagged with the enclosing span.
func subMatcherError(spanStart, spanEnd int, cause error) error {
	return oops.
		Code(codeSubMatcher).
		With("span_start", spanStart).
		With("span_end", spanEnd).
		Wrapf(cause, "%s", codeSubMatcher)
}

// resourceExhausted reports the VM exceeding an implementation-imposed step
// or thread-queue bound.
func resourceExhausted(instructionPointer, pathLength int) error {
	return oops.
		Code(codeResourceExhausted).
		With("instruction_pointer", instructionPointer).
		With("path_length", pathLength).
		Errorf("%s", codeResourceExhausted)
}

// internalInvariant builds an error for a condition that must never surface
// from valid input; seeing one means this package has a bug.
func internalInvariant(format string, args ...interface{}) error {
	return oops.Code(codeInternal).Errorf("%s: %s", codeInternal, fmt.Sprintf(format, args...))
}
