// Command envquery is a small REPL for trying out patex patterns against
// dCBOR leaf envelopes, in the spirit of hucsmn-peg's own example/sexp
// read-eval-print loop.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/BlockchainCommons/bc-envelope-pattern-go/dcborpattern"
	"github.com/BlockchainCommons/bc-envelope-pattern-go/envelope"
	pattern "github.com/BlockchainCommons/bc-envelope-pattern-go"
)

// Query evaluates one "pattern => envelope" line: text left of "=>" is a
// patex pattern, text right of it a dCBOR diagnostic-notation literal that
// becomes a single-leaf envelope.
func Query(line string) (string, error) {
	lhs, rhs, ok := strings.Cut(line, "=>")
	if !ok {
		return "", fmt.Errorf("expected PATTERN => ENVELOPE, found %q", line)
	}
	patexText := strings.TrimSpace(lhs)
	diagText := strings.TrimSpace(rhs)

	v, err := dcborpattern.ParseDiagnostic(diagText)
	if err != nil {
		return "", fmt.Errorf("invalid envelope literal: %w", err)
	}
	env := envelope.NewLeaf(v)

	p, err := pattern.Parse(patexText)
	if err != nil {
		return "", fmt.Errorf("invalid pattern: %w", err)
	}
	paths, caps, err := p.PathsWithCaptures(env)
	if err != nil {
		return "", fmt.Errorf("match error: %w", err)
	}
	if len(paths) == 0 {
		return "no match", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d match(es)\n", len(paths))
	b.WriteString(pattern.FormatPaths(paths, pattern.FormatFull))
	for name, ps := range caps {
		fmt.Fprintf(&b, "\n@%s:\n%s", name, pattern.FormatPaths(ps, pattern.FormatLastOnly))
	}
	return b.String(), nil
}

func main() {
	buf := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("envquery> ")
		line, _, err := buf.ReadLine()
		if err != nil {
			break
		}
		if strings.TrimSpace(string(line)) == "" {
			continue
		}
		out, err := Query(string(line))
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		fmt.Println(out)
	}
}
