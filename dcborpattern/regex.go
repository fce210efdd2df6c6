package dcborpattern

import (
	"github.com/dlclark/regexp2"
)

// compiledRegex wraps dlclark/regexp2, the pack's .NET-flavoured regex
// engine, used for every `/…/` regex literal in both text/bstr/date/known
// leaf patterns here and in the envelope-level lexer (spec.md §4.1).
type compiledRegex struct {
	re *regexp2.Regexp
}

// CompileRegex compiles a regex literal's source text.
func CompileRegex(source string) (*compiledRegex, error) {
	re, err := regexp2.Compile(source, regexp2.RE2)
	if err != nil {
		return nil, err
	}
	return &compiledRegex{re: re}, nil
}

func (c *compiledRegex) MatchString(s string) bool {
	if c == nil || c.re == nil {
		return false
	}
	ok, err := c.re.MatchString(s)
	return err == nil && ok
}

func (c *compiledRegex) MatchBytes(b []byte) bool {
	return c.MatchString(string(b))
}
