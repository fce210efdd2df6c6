package pattern

import "github.com/BlockchainCommons/bc-envelope-pattern-go/dcborpattern"

// opKind enumerates the compiler's instruction set (spec §3 "Program",
// §4.4 ISA table).
type opKind int

const (
	opMatch opKind = iota
	opSplit
	opJump
	opSave
	opCaptureCommit
	opCut
	opAccept
)

// inst is one instruction. Not every field is meaningful for every opKind:
// opMatch uses atom; opSplit uses a/b (branch targets, a preferred) plus
// group for possessive quantifiers; opJump uses target; opSave/
// opCaptureCommit use slot (and name, for the latter); opCut carries the
// same group as the Split(s) it terminates; opAccept carries no operands.
type inst struct {
	op     opKind
	atom   atomic
	a, b   int
	target int
	slot   int
	name   string
	group  int
}

// Program is the compiler's output: a flat instruction stream plus the
// slot-to-name table the compiler assigned while lowering `@name(...)`
// captures (spec §3 "Program", §4.4 "Compiler").
type Program struct {
	insts      []inst
	slotNames  []string
}

func (p *Program) at(pc int) inst { return p.insts[pc] }
func (p *Program) len() int       { return len(p.insts) }

// compiler accumulates instructions for one Program and assigns capture
// slots, rejecting duplicate names across both its own `@name(...)`
// captures and any names captured inside embedded CBOR sub-patterns
// (spec §4.5: "name collisions are a compile error").
type compiler struct {
	insts       []inst
	slotNames   []string
	seen        map[string]bool
	groupCursor int
}

func newCompiler() *compiler {
	return &compiler{seen: map[string]bool{}}
}

func (c *compiler) emit(i inst) int {
	c.insts = append(c.insts, i)
	return len(c.insts) - 1
}

func (c *compiler) pc() int { return len(c.insts) }

// nextGroup allocates a fresh possessive-quantifier group id (spec §4.4
// "Cut"). Every Split belonging to one possessive quantifier, plus the Cut
// that terminates it, share one id so the VM can tell a matching Cut from
// an unrelated one compiled elsewhere in the same program.
func (c *compiler) nextGroup() int {
	c.groupCursor++
	return c.groupCursor
}

func (c *compiler) allocSlot(name string) int {
	c.slotNames = append(c.slotNames, name)
	return len(c.slotNames) - 1
}

// markSeen registers a capture name, returning a compile error on the
// second registration of the same name (spec §4.5, §7 CompileError).
func (c *compiler) markSeen(name string) error {
	if c.seen[name] {
		return duplicateCaptureError(name)
	}
	c.seen[name] = true
	return nil
}

// compileSub compiles a node into its own independent Program and wraps
// it as a Matcher, for atomics (and/not/search/assertpred/assertobj) that
// evaluate a sub-pattern against one envelope rather than threading
// through the enclosing program (spec §4.4: "and ... represented as
// nested MatchPredicate with a shared snapshot").
func (c *compiler) compileSub(n node) Matcher {
	return c.compileMatcher(n)
}

// compileMatcher compiles n into an independent Program wrapped as a
// Matcher. Sub-programs do not themselves enforce capture-name
// uniqueness — the top-level Compile call walks the whole AST up front
// (checkCaptureNames below) so duplicates are always caught exactly once,
// at the name's point of first appearance in document order.
func (c *compiler) compileMatcher(n node) Matcher {
	repr := n.String()
	sub := newCompiler()
	n.compile(sub)
	sub.emit(inst{op: opAccept})
	prog := &Program{insts: sub.insts, slotNames: sub.slotNames}
	return &compiledMatcher{prog: prog, repr: repr}
}

// Compile lowers the top-level Pattern AST into a Program, registering
// every capture name (including those inside embedded CBOR fragments) in
// one flat namespace and failing on the first collision (spec §3 "Capture
// map", §4.5).
func Compile(root node) (*Program, error) {
	c := newCompiler()
	if err := checkCaptureNames(root, map[string]bool{}); err != nil {
		return nil, err
	}
	root.compile(c)
	c.emit(inst{op: opAccept})
	return &Program{insts: c.insts, slotNames: c.slotNames}, nil
}

// checkCaptureNames walks the whole AST (including CBOR sub-patterns
// reachable from leaf nodes) looking for a name used twice.
func checkCaptureNames(n node, seen map[string]bool) error {
	switch v := n.(type) {
	case captureNode:
		if seen[v.name] {
			return duplicateCaptureError(v.name)
		}
		seen[v.name] = true
		if err := checkCaptureNames(v.sub, seen); err != nil {
			return err
		}
	case notNode:
		return checkCaptureNames(v.sub, seen)
	case searchNode:
		return checkCaptureNames(v.sub, seen)
	case andNode:
		for _, s := range v.subs {
			if err := checkCaptureNames(s, seen); err != nil {
				return err
			}
		}
	case orNode:
		for _, s := range v.subs {
			if err := checkCaptureNames(s, seen); err != nil {
				return err
			}
		}
	case travNode:
		for _, s := range v.subs {
			if err := checkCaptureNames(s, seen); err != nil {
				return err
			}
		}
	case repeatNode:
		return checkCaptureNames(v.sub, seen)
	case assertPredWrap:
		return checkCaptureNames(v.sub, seen)
	case assertObjWrap:
		return checkCaptureNames(v.sub, seen)
	case subjFilterWrap:
		return checkCaptureNames(v.sub, seen)
	case predFilterWrap:
		return checkCaptureNames(v.sub, seen)
	case objFilterWrap:
		return checkCaptureNames(v.sub, seen)
	case atomicNode:
		return checkCaptureNamesAtom(v.atom, seen)
	}
	return nil
}

// cborCaptureNames exposes dcborpattern's own capture-name walk under the
// name this file's collision checker expects.
func cborCaptureNames(p dcborpattern.Pattern) []string {
	return dcborpattern.CaptureNames(p)
}

// checkCaptureNamesAtom reaches into atoms that carry an embedded CBOR
// sub-pattern (leafAtom) so names captured inside CBOR fragments share the
// envelope-level namespace. Nested envelope sub-patterns (assertpred/
// assertobj and the subj/pred/obj filters) are wrap nodes, walked by
// checkCaptureNames itself.
func checkCaptureNamesAtom(a atomic, seen map[string]bool) error {
	switch v := a.(type) {
	case leafAtom:
		for _, name := range cborCaptureNames(v.sub) {
			if seen[name] {
				return duplicateCaptureError(name)
			}
			seen[name] = true
		}
	}
	return nil
}
