// Package pattern implements patex, a textual pattern language for matching
// and destructuring Gordian Envelopes, plus the compiler and VM that execute
// it (spec.md).
package pattern

import "github.com/BlockchainCommons/bc-envelope-pattern-go/envelope"

// Pattern is a parsed and compiled patex expression (spec §4.7 "Surface
// API"). It is immutable after Parse and safe for concurrent use by
// multiple goroutines, since matching never mutates the Program.
type Pattern struct {
	prog   *Program
	source string
}

// Parse compiles a patex pattern string (spec §6 grammar). The returned
// Pattern can be matched against any number of envelopes.
func Parse(text string) (*Pattern, error) {
	ast, err := parsePattern(text)
	if err != nil {
		return nil, err
	}
	prog, err := Compile(ast)
	if err != nil {
		return nil, err
	}
	return &Pattern{prog: prog, source: text}, nil
}

// String returns the patex source text the Pattern was parsed from.
func (p *Pattern) String() string { return p.source }

// Matches reports whether env has at least one match, using DefaultConfig.
func (p *Pattern) Matches(env *envelope.Envelope) (bool, error) {
	paths, err := p.Paths(env)
	if err != nil {
		return false, err
	}
	return len(paths) > 0, nil
}

// Paths returns every path this Pattern matches against env, in
// deterministic order (spec §5 "Ordering guarantees"), using DefaultConfig.
func (p *Pattern) Paths(env *envelope.Envelope) ([]Path, error) {
	paths, _, err := p.PathsWithCaptures(env)
	return paths, err
}

// PathsWithCaptures is the full surface-API entry point (spec §4.7): it
// returns every matched path plus the named capture map harvested along the
// way, running under DefaultConfig. Use MatchWithConfig to supply a custom
// resource bound.
func (p *Pattern) PathsWithCaptures(env *envelope.Envelope) ([]Path, Captures, error) {
	return p.MatchWithConfig(env, DefaultConfig())
}

// MatchWithConfig runs the pattern against env under an explicit Config,
// for callers that need a tighter or looser resource bound than
// DefaultConfig (spec §5 "Concurrency & Resource Model").
func (p *Pattern) MatchWithConfig(env *envelope.Envelope, cfg Config) ([]Path, Captures, error) {
	start := Path{env}
	return execProgram(p.prog, cfg, start)
}

// Match is the single-call convenience form of the surface API (spec §4.7:
// "a single function accepts a patex string and an envelope and returns
// (paths, captures)"). It parses text fresh on every call; callers matching
// the same pattern repeatedly should Parse once and reuse the Pattern.
func Match(text string, env *envelope.Envelope) ([]Path, Captures, error) {
	p, err := Parse(text)
	if err != nil {
		return nil, nil, err
	}
	return p.PathsWithCaptures(env)
}
