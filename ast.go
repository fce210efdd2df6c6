package pattern

import (
	"strings"

	"github.com/BlockchainCommons/bc-envelope-pattern-go/dcborpattern"
	"github.com/BlockchainCommons/bc-envelope-pattern-go/envelope"
)

// node is the Pattern AST contract (spec §3, §4.3): every parsed pattern,
// leaf/structure/meta alike, knows how to lower itself into the flat
// instruction stream a *compiler is building. Leaf and structure nodes
// always lower to a single MatchPredicate; meta nodes may emit Split/Jump/
// Save/CaptureCommit/Cut around the instructions their children emit.
type node interface {
	compile(c *compiler)
	String() string
}

// --- atomic-backed nodes (leaf, structure, and/not/search) --------------

// atomicNode wraps any atomic (atomic.go) as a single MatchPredicate
// instruction — the direct case spec §4.4 describes for "Leaf/Structure
// atoms".
type atomicNode struct{ atom atomic }

func (n atomicNode) compile(c *compiler) { c.emit(inst{op: opMatch, atom: n.atom}) }
func (n atomicNode) String() string      { return n.atom.String() }

func leafNode(sub dcborpattern.Pattern, lift bool) node {
	return atomicNode{leafAtom{sub: sub, lift: lift}}
}

// --- any (`*`) ------------------------------------------------------------

type anyNode struct{}

func (anyNode) compile(c *compiler) { c.emit(inst{op: opMatch, atom: anyAtom{}}) }
func (anyNode) String() string      { return "*" }

// --- not (`!p`) -------------------------------------------------------------

type notNode struct{ sub node }

func (n notNode) compile(c *compiler) {
	m := c.compileSub(n.sub)
	c.emit(inst{op: opMatch, atom: notAtom{sub: m}})
}
func (n notNode) String() string { return "!" + n.sub.String() }

// --- and (`p1 & p2 & ...`) --------------------------------------------------

type andNode struct{ subs []node }

func (n andNode) compile(c *compiler) {
	subs := make([]Matcher, len(n.subs))
	for i, s := range n.subs {
		subs[i] = c.compileSub(s)
	}
	c.emit(inst{op: opMatch, atom: andAtom{subs: subs}})
}
func (n andNode) String() string { return joinNodes(n.subs, " & ") }

// --- search (a specialised atom, spec §4.4) ---------------------------------

type searchNode struct{ sub node }

func (n searchNode) compile(c *compiler) {
	m := c.compileSub(n.sub)
	c.emit(inst{op: opMatch, atom: searchAtom{sub: m}})
}
func (n searchNode) String() string { return "search(" + n.sub.String() + ")" }

// --- traversal (`p1 -> p2 -> ...`) ------------------------------------------

// travNode compiles to sequential MatchPredicate-rooted code exactly per
// spec §4.4 ("sequential MatchPredicates; thread success requires each
// successive atom to extend the path of the previous"): each sub-pattern's
// own instructions are simply emitted one after another, so a thread
// falls through from one sub-pattern's compiled code straight into the
// next's.
type travNode struct{ subs []node }

func (n travNode) compile(c *compiler) {
	for _, s := range n.subs {
		s.compile(c)
	}
}
func (n travNode) String() string { return joinNodes(n.subs, " -> ") }

// --- or (`p1 | p2`) ----------------------------------------------------------

// orNode compiles to a real Split/Jump pair (spec §4.4: "Split → p-branch
// → Jump(end) | q-branch"). The VM tries the preferred branch (greedy:
// first) to completion; if it yields no matches, it backtracks into the
// other branch (see vm.go) — consistent with the CBOR sub-matcher's own
// `or` ("first alternative that matches wins", dcborpattern/ast.go).
type orNode struct{ subs []node }

func (n orNode) compile(c *compiler) {
	if len(n.subs) == 1 {
		n.subs[0].compile(c)
		return
	}
	// Right-fold a chain of binary splits: p1 | (p2 | (p3 | ...)).
	var ends []int
	for i := 0; i < len(n.subs)-1; i++ {
		splitPC := c.emit(inst{op: opSplit})
		bodyPC := c.pc()
		n.subs[i].compile(c)
		jumpPC := c.emit(inst{op: opJump})
		ends = append(ends, jumpPC)
		nextPC := c.pc()
		c.insts[splitPC].a, c.insts[splitPC].b = bodyPC, nextPC
	}
	n.subs[len(n.subs)-1].compile(c)
	end := c.pc()
	for _, j := range ends {
		c.insts[j].target = end
	}
}
func (n orNode) String() string { return joinNodes(n.subs, " | ") }

// --- repeat (`p{n,m}`, greedy/lazy/possessive) ------------------------------

type greediness int

const (
	greedy greediness = iota
	lazy
	possessive
)

type repeatNode struct {
	sub   node
	min   int
	max   int // -1 means unbounded
	mode  greediness
}

// compile unrolls the repetition per spec §4.4 ("unrolled as Thompson
// loop..."): min mandatory copies, then either a true backward-jumping
// loop (unbounded max) or (max-min) skippable optional copies, each
// guarded by a Split whose preferred branch depends on mode. Possessive
// mode tags every one of those Splits with a shared group id and emits a
// Cut carrying the same id right after the optional copies: once the VM
// passes through that Cut, every Split sharing its group id refuses to
// fall back to its other branch even if everything after the Cut then
// fails, which is what makes the quantifier possessive rather than
// greedy (see exec's opSplit/opCut handling in vm.go).
func (n repeatNode) compile(c *compiler) {
	for i := 0; i < n.min; i++ {
		n.sub.compile(c)
	}
	if n.max < 0 {
		loopStart := c.pc()
		splitPC := c.emit(inst{op: opSplit})
		bodyPC := c.pc()
		n.sub.compile(c)
		c.emit(inst{op: opJump, target: loopStart})
		after := c.pc()
		setSplitOrder(c, splitPC, bodyPC, after, n.mode)
		if n.mode == possessive {
			group := c.nextGroup()
			c.insts[splitPC].group = group
			c.emit(inst{op: opCut, group: group})
		}
		return
	}
	reps := n.max - n.min
	var splits []int
	for i := 0; i < reps; i++ {
		splitPC := c.emit(inst{op: opSplit})
		bodyPC := c.pc()
		n.sub.compile(c)
		splits = append(splits, splitPC)
		_ = bodyPC
	}
	end := c.pc()
	for i, splitPC := range splits {
		bodyPC := splitPC + 1
		_ = i
		setSplitOrder(c, splitPC, bodyPC, end, n.mode)
	}
	if n.mode == possessive && reps > 0 {
		group := c.nextGroup()
		for _, splitPC := range splits {
			c.insts[splitPC].group = group
		}
		c.emit(inst{op: opCut, group: group})
	}
}

func setSplitOrder(c *compiler, splitPC, bodyPC, skipPC int, mode greediness) {
	if mode == lazy {
		c.insts[splitPC].a, c.insts[splitPC].b = skipPC, bodyPC
	} else {
		c.insts[splitPC].a, c.insts[splitPC].b = bodyPC, skipPC
	}
}

func (n repeatNode) String() string {
	suffix := ""
	switch n.mode {
	case lazy:
		suffix = "?"
	case possessive:
		suffix = "+"
	}
	if n.max < 0 {
		return n.sub.String() + "{" + itoa(n.min) + ",}" + suffix
	}
	return n.sub.String() + "{" + itoa(n.min) + "," + itoa(n.max) + "}" + suffix
}

// --- capture (`@name(p)`) ----------------------------------------------------

type captureNode struct {
	name string
	sub  node
}

func (n captureNode) compile(c *compiler) {
	slot := c.allocSlot(n.name)
	c.emit(inst{op: opSave, slot: slot})
	n.sub.compile(c)
	c.emit(inst{op: opCaptureCommit, slot: slot, name: n.name})
}
func (n captureNode) String() string { return "@" + n.name + "(" + n.sub.String() + ")" }

func joinNodes(ns []node, sep string) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = n.String()
	}
	return strings.Join(parts, sep)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Structure-atom constructors (spec §4.5), one per keyword in §3's
// "Structure patterns" family.

func leafCaseNode() node                    { return atomicNode{leafCaseAtom{}} }
func assertNode() node                      { return atomicNode{assertAtom{}} }
func assertPredNode(sub node) node          { return assertPredWrap{sub: sub} }
func assertObjNode(sub node) node           { return assertObjWrap{sub: sub} }
func nodeRangeNode(min, max int) node       { return atomicNode{nodeAtom{min: min, max: max}} }
func subjNode() node                        { return atomicNode{subjAtom{}} }
func predNode() node                        { return atomicNode{predAtom{}} }
func objNode() node                         { return atomicNode{objAtom{}} }
func subjFilterNode(sub node) node          { return subjFilterWrap{sub: sub} }
func predFilterNode(sub node) node          { return predFilterWrap{sub: sub} }
func objFilterNode(sub node) node           { return objFilterWrap{sub: sub} }
func wrappedNode() node                     { return atomicNode{wrappedAtom{}} }
func unwrapNode() node                      { return atomicNode{unwrapAtom{}} }
func digestExactNode(d envelope.Digest) node {
	return atomicNode{digestAtom{exact: &d}}
}
func digestPrefixNode(prefix []byte) node { return atomicNode{digestAtom{prefix: prefix}} }
func obscuredAnyNode() node               { return atomicNode{obscuredAtom{}} }
func obscuredKindNode(k envelope.ObscuredKind) node {
	return atomicNode{obscuredAtom{kind: k, exact: true}}
}

// assertPredWrap / assertObjWrap lower `assertpred(p)` / `assertobj(p)`:
// the sub-pattern is compiled into its own Matcher (spec §4.4's "shared
// snapshot" style) and tested against each assertion's predicate/object
// in turn by assertpredAtom/assertobjAtom (atomic.go), not threaded
// through the enclosing program.
type assertPredWrap struct{ sub node }

func (n assertPredWrap) compile(c *compiler) {
	m := c.compileSub(n.sub)
	c.emit(inst{op: opMatch, atom: assertpredAtom{sub: m}})
}
func (n assertPredWrap) String() string { return "assertpred(" + n.sub.String() + ")" }

type assertObjWrap struct{ sub node }

func (n assertObjWrap) compile(c *compiler) {
	m := c.compileSub(n.sub)
	c.emit(inst{op: opMatch, atom: assertobjAtom{sub: m}})
}
func (n assertObjWrap) String() string { return "assertobj(" + n.sub.String() + ")" }

// subjFilterWrap / predFilterWrap / objFilterWrap lower the restricted
// `subj(p)` / `pred(p)` / `obj(p)` structure patterns (spec §3: "subject(p),
// pred(p), obj(p)") — unlike assertpred(p)/assertobj(p), which enumerate
// whole assertions, these extend by the subject/predicate/object itself
// once it satisfies p (spec §8 scenario S5: `@who(obj(text))` extends by
// the matched object, not by the enclosing assertion).
type subjFilterWrap struct{ sub node }

func (n subjFilterWrap) compile(c *compiler) {
	m := c.compileSub(n.sub)
	c.emit(inst{op: opMatch, atom: subjFilterAtom{sub: m}})
}
func (n subjFilterWrap) String() string { return "subj(" + n.sub.String() + ")" }

type predFilterWrap struct{ sub node }

func (n predFilterWrap) compile(c *compiler) {
	m := c.compileSub(n.sub)
	c.emit(inst{op: opMatch, atom: predFilterAtom{sub: m}})
}
func (n predFilterWrap) String() string { return "pred(" + n.sub.String() + ")" }

type objFilterWrap struct{ sub node }

func (n objFilterWrap) compile(c *compiler) {
	m := c.compileSub(n.sub)
	c.emit(inst{op: opMatch, atom: objFilterAtom{sub: m}})
}
func (n objFilterWrap) String() string { return "obj(" + n.sub.String() + ")" }
