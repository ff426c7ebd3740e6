package chc

import (
	"fmt"

	"kanso/internal/ast"
)

// loopContext records the two jump targets a break/continue inside a
// loop body needs: where "continue" re-enters the loop's condition
// check (or post-step, for a for-loop), and where "break" exits to.
type loopContext struct {
	headBlock *Block
	exitBlock *Block
}

// BlockGraphBuilder walks one function's body, minting a FunctionBlock
// predicate at every control-flow join and emitting the implication
// rules that connect them. It delegates call sites to a CallEncoder and
// arithmetic/require sites to the target-raising helpers below, which
// register verification targets through a TargetEngine.
type BlockGraphBuilder struct {
	reg     *Registry
	enc     SymbolicEncoder
	rep     Reporter
	calls   *CallEncoder
	targets *TargetEngine

	contract   *ast.Contract
	fn         *ast.Function
	frame      *frame
	stateNames []string
	loops      []loopContext
	exits      []*Block
	ruleSeq    int
}

func NewBlockGraphBuilder(reg *Registry, enc SymbolicEncoder, rep Reporter, calls *CallEncoder, targets *TargetEngine) *BlockGraphBuilder {
	return &BlockGraphBuilder{reg: reg, enc: enc, rep: rep, calls: calls, targets: targets}
}

// Start computes the function's frame and declares its entry predicate,
// returning the block encoding should begin from.
func (g *BlockGraphBuilder) Start(contract *ast.Contract, fn *ast.Function, storageVars []string) *Block {
	g.contract = contract
	g.fn = fn
	g.frame = buildFrame(fn, storageVars, g.enc)
	g.stateNames = append([]string{ErrorSymbol, AddressSymbol, StateSymbol}, storageVars...)
	g.exits = nil
	g.calls.SetFrame(g.frame.names)
	g.calls.SetStateNames(g.stateNames)

	entryPred := g.reg.Declare(FunctionEntry, fn, fmt.Sprintf("%s$entry", fn.Name.Value), g.frame.sorts)
	return &Block{Pred: entryPred, SSA: NewSSAState(entryPred.Name)}
}

// BuildFunction encodes fn's body starting at entry, returning the block
// reached by falling off the end (nil if every path returns explicitly).
func (g *BlockGraphBuilder) BuildFunction(entry *Block) *Block {
	return g.buildBlockStmt(g.fn.Body, entry)
}

// Finish wires every path that leaves the function (explicit returns
// plus a fallthrough tail, if any) into the function's summary
// predicate, completing the inductive relation callers apply. The
// argument layout (state-pre, params, state-post, return) must match
// buildFunctionSummarySorts and CallEncoder.applyInternalSummary.
func (g *BlockGraphBuilder) Finish(entry, tail *Block, summary *Predicate) {
	invariant(summary != nil, "BlockGraphBuilder.Finish", "function summary predicate must be declared before Finish runs")
	exits := g.exits
	if tail != nil {
		exits = append(exits, tail)
	}
	for _, exit := range exits {
		args := make([]Term, 0, len(g.stateNames)*2+len(g.fn.Params)+1)
		for _, n := range g.stateNames {
			args = append(args, g.enc.CurrentValue(entry.SSA, n))
		}
		for _, p := range g.fn.Params {
			args = append(args, g.enc.CurrentValue(entry.SSA, p.Name.Value))
		}
		for _, n := range g.stateNames {
			args = append(args, g.enc.CurrentValue(exit.SSA, n))
		}
		if g.fn.Return != nil {
			ret := exit.ReturnValue
			if ret == nil {
				ret = g.enc.CreateVariable(fmt.Sprintf("%s$ret_unknown", g.fn.Name.Value), g.enc.SortOf(g.fn.Return))
			}
			args = append(args, ret)
		}

		head := &Atom{Pred: summary, Args: args}
		body := []BodyElem{&Atom{Pred: exit.Pred, Args: g.args(exit.SSA)}}
		body = append(body, exit.Pending...)
		g.ruleSeq++
		g.emit(&Rule{Name: fmt.Sprintf("%s$exit%d", g.fn.Name.Value, g.ruleSeq), Body: body, Head: head})
	}
}

// emit hands a completed rule to the underlying solver, warning through
// Reporter if the solver rejects it (e.g. a malformed sort match).
func (g *BlockGraphBuilder) emit(rule *Rule) {
	emitRule(g.reg, g.rep, g.fn.NodePos(), rule)
}

func (g *BlockGraphBuilder) args(ssa *SSAState) []Term {
	args := make([]Term, len(g.frame.names))
	for i, name := range g.frame.names {
		args[i] = g.enc.CurrentValue(ssa, name)
	}
	return args
}

// jump emits "from ∧ from.Pending ∧ cond ∧ (target args = flowed values) ⇒ target",
// the single rule shape every control-flow edge in the function reduces to.
func (g *BlockGraphBuilder) jump(from *Block, cond Term, target *Block) {
	body := make([]BodyElem, 0, len(from.Pending)+len(g.frame.names)+2)
	body = append(body, &Atom{Pred: from.Pred, Args: g.args(from.SSA)})
	body = append(body, from.Pending...)
	if cond != nil {
		body = append(body, &Constraint{Formula: cond})
	}

	headArgs := g.args(target.SSA)
	for i, name := range g.frame.names {
		flowed := g.enc.CurrentValue(from.SSA, name)
		body = append(body, &Constraint{Formula: Eq(headArgs[i], flowed)})
	}

	g.ruleSeq++
	rule := &Rule{
		Name: fmt.Sprintf("%s$jump%d", g.fn.Name.Value, g.ruleSeq),
		Body: body,
		Head: &Atom{Pred: target.Pred, Args: headArgs},
	}
	g.emit(rule)
}

func (g *BlockGraphBuilder) newBlock(node ast.Node, label string) *Block {
	pred := g.reg.Fresh(FunctionBlock, node, fmt.Sprintf("%s$%s", g.fn.Name.Value, label), g.frame.sorts)
	return &Block{Pred: pred, SSA: NewSSAState(pred.Name)}
}

// raise wires "cur ∧ cur.Pending ∧ trigger ⇒ Error(...)", registering one
// verification target per call site.
func (g *BlockGraphBuilder) raise(cur *Block, node ast.Node, kind TargetKind, trigger Term) {
	errPred := g.reg.Fresh(Error, node, fmt.Sprintf("%s$err_%s", g.fn.Name.Value, kind), g.frame.sorts)
	g.targets.Register(kind, g.contract, g.fn, node, errPred)

	body := make([]BodyElem, 0, len(cur.Pending)+2)
	body = append(body, &Atom{Pred: cur.Pred, Args: g.args(cur.SSA)})
	body = append(body, cur.Pending...)
	if trigger != nil {
		body = append(body, &Constraint{Formula: trigger})
	}

	g.ruleSeq++
	g.emit(&Rule{
		Name: fmt.Sprintf("%s$raise%d", g.fn.Name.Value, g.ruleSeq),
		Body: body,
		Head: &Atom{Pred: errPred, Args: g.args(cur.SSA)},
	})
}

// ---- statement dispatch ----

func (g *BlockGraphBuilder) buildBlockStmt(fb *ast.FunctionBlock, cur *Block) *Block {
	for _, item := range fb.Items {
		if cur == nil {
			break // unreachable code after a return/break/continue
		}
		cur = g.buildItem(item, cur)
	}
	if cur != nil && fb.TailExpr != nil {
		if _, err := g.evalWithTargets(cur, fb.TailExpr.Expr); err != nil {
			g.rep.Warning(fb.TailExpr.NodePos(), err.Error())
		}
	}
	return cur
}

func (g *BlockGraphBuilder) buildItem(item ast.FunctionBlockItem, cur *Block) *Block {
	switch node := item.(type) {
	case *ast.LetStmt:
		return g.buildLet(node, cur)
	case *ast.AssignStmt:
		return g.buildAssign(node, cur)
	case *ast.RequireStmt:
		return g.buildRequire(node, cur)
	case *ast.IfStmt:
		return g.buildIf(node, cur)
	case *ast.WhileStmt:
		return g.buildWhile(node, cur)
	case *ast.ForStmt:
		return g.buildFor(node, cur)
	case *ast.BreakStmt:
		return g.buildBreak(node, cur)
	case *ast.ContinueStmt:
		return g.buildContinue(node, cur)
	case *ast.ReturnStmt:
		return g.buildReturn(node, cur)
	case *ast.ExprStmt:
		return g.buildExprStmt(node, cur)
	default:
		return cur
	}
}

func (g *BlockGraphBuilder) buildLet(node *ast.LetStmt, cur *Block) *Block {
	val, err := g.evalWithTargets(cur, node.Expr)
	if err != nil {
		g.rep.Warning(node.NodePos(), err.Error())
		return cur
	}
	cur.SSA.Bump(node.Name.Value)
	bound := g.enc.CurrentValue(cur.SSA, node.Name.Value)
	cur.assume(Eq(bound, val))
	return cur
}

func (g *BlockGraphBuilder) buildAssign(node *ast.AssignStmt, cur *Block) *Block {
	name := assignTargetName(node.Target)
	rhs, err := g.evalWithTargets(cur, node.Value)
	if err != nil {
		g.rep.Warning(node.NodePos(), err.Error())
		return cur
	}
	if node.Operator != ast.ASSIGN {
		old := g.enc.CurrentValue(cur.SSA, name)
		rhs = g.applyCompound(cur, node, name, old, rhs)
	}
	cur.SSA.Bump(name)
	bound := g.enc.CurrentValue(cur.SSA, name)
	cur.assume(Eq(bound, rhs))
	return cur
}

func (g *BlockGraphBuilder) applyCompound(cur *Block, node *ast.AssignStmt, name string, old, rhs Term) Term {
	op := compoundOp(node.Operator)
	bits, ok := g.enc.IntWidth(node.Target)
	if kind, isArith := arithmeticOps[op]; ok && isArith {
		g.registerArithmeticOp(cur, node, op, kind, bits, old, rhs)
	}
	return &Apply{Op: op, Args: []Term{old, rhs}, Sort: SortInt}
}

func compoundOp(op ast.AssignType) string {
	switch op {
	case ast.PLUS_ASSIGN:
		return "+"
	case ast.MINUS_ASSIGN:
		return "-"
	case ast.STAR_ASSIGN:
		return "*"
	case ast.SLASH_ASSIGN:
		return "/"
	case ast.PERCENT_ASSIGN:
		return "%"
	default:
		return "+"
	}
}

func (g *BlockGraphBuilder) buildRequire(node *ast.RequireStmt, cur *Block) *Block {
	if len(node.Args) == 0 {
		return cur
	}
	cond, err := g.evalWithTargets(cur, node.Args[0])
	if err != nil {
		g.rep.Warning(node.NodePos(), err.Error())
		return cur
	}
	g.raise(cur, node, TargetAssert, Not(cond))
	g.targets.RegisterAssertion(g.fn.Name.Value, node)
	cur.assume(cond)
	return cur
}

func (g *BlockGraphBuilder) buildIf(node *ast.IfStmt, cur *Block) *Block {
	cond, err := g.evalWithTargets(cur, node.Cond)
	if err != nil {
		g.rep.Warning(node.NodePos(), err.Error())
	}

	thenEntry := g.newBlock(node.Then, "then")
	g.jump(cur, cond, thenEntry)
	thenExit := g.buildBlockStmt(node.Then, thenEntry)

	var elseExit *Block
	switch {
	case node.ElseIf != nil:
		elseEntry := g.newBlock(node.ElseIf, "elseif")
		g.jump(cur, Not(cond), elseEntry)
		elseExit = g.buildIf(node.ElseIf, elseEntry)
	case node.Else != nil:
		elseEntry := g.newBlock(node.Else, "else")
		g.jump(cur, Not(cond), elseEntry)
		elseExit = g.buildBlockStmt(node.Else, elseEntry)
	default:
		elseEntry := g.newBlock(node, "skip")
		g.jump(cur, Not(cond), elseEntry)
		elseExit = elseEntry
	}

	if thenExit == nil && elseExit == nil {
		return nil
	}
	join := g.newBlock(node, "join")
	if thenExit != nil {
		g.jump(thenExit, nil, join)
	}
	if elseExit != nil {
		g.jump(elseExit, nil, join)
	}
	return join
}

func (g *BlockGraphBuilder) buildWhile(node *ast.WhileStmt, cur *Block) *Block {
	head := g.newBlock(node, "while_head")
	g.jump(cur, nil, head)

	cond, err := g.evalWithTargets(head, node.Cond)
	if err != nil {
		g.rep.Warning(node.NodePos(), err.Error())
	}

	exit := g.newBlock(node, "while_exit")
	bodyEntry := g.newBlock(node.Body, "while_body")
	g.jump(head, cond, bodyEntry)
	g.jump(head, Not(cond), exit)

	g.loops = append(g.loops, loopContext{headBlock: head, exitBlock: exit})
	bodyExit := g.buildBlockStmt(node.Body, bodyEntry)
	g.loops = g.loops[:len(g.loops)-1]

	if bodyExit != nil {
		g.jump(bodyExit, nil, head)
	}
	return exit
}

func (g *BlockGraphBuilder) buildFor(node *ast.ForStmt, cur *Block) *Block {
	if node.Init != nil {
		cur = g.buildItem(node.Init, cur)
	}

	head := g.newBlock(node, "for_head")
	g.jump(cur, nil, head)

	var cond Term
	if node.Cond != nil {
		c, err := g.evalWithTargets(head, node.Cond)
		if err != nil {
			g.rep.Warning(node.NodePos(), err.Error())
		}
		cond = c
	}

	exit := g.newBlock(node, "for_exit")
	bodyEntry := g.newBlock(node.Body, "for_body")
	if cond != nil {
		g.jump(head, cond, bodyEntry)
		g.jump(head, Not(cond), exit)
	} else {
		g.jump(head, nil, bodyEntry)
	}

	postTarget := head
	if node.Post != nil {
		postTarget = g.newBlock(node, "for_post")
	}

	g.loops = append(g.loops, loopContext{headBlock: postTarget, exitBlock: exit})
	bodyExit := g.buildBlockStmt(node.Body, bodyEntry)
	g.loops = g.loops[:len(g.loops)-1]

	if bodyExit != nil {
		g.jump(bodyExit, nil, postTarget)
	}
	if node.Post != nil {
		next := g.buildItem(node.Post, postTarget)
		if next != nil {
			g.jump(next, nil, head)
		}
	}
	return exit
}

func (g *BlockGraphBuilder) buildBreak(node *ast.BreakStmt, cur *Block) *Block {
	invariant(len(g.loops) > 0, "BlockGraphBuilder.buildBreak", "break used outside of a loop")
	g.jump(cur, nil, g.loops[len(g.loops)-1].exitBlock)
	return nil
}

func (g *BlockGraphBuilder) buildContinue(node *ast.ContinueStmt, cur *Block) *Block {
	invariant(len(g.loops) > 0, "BlockGraphBuilder.buildContinue", "continue used outside of a loop")
	g.jump(cur, nil, g.loops[len(g.loops)-1].headBlock)
	return nil
}

func (g *BlockGraphBuilder) buildReturn(node *ast.ReturnStmt, cur *Block) *Block {
	if node.Value != nil {
		val, err := g.evalWithTargets(cur, node.Value)
		if err != nil {
			g.rep.Warning(node.NodePos(), err.Error())
		} else {
			cur.ReturnValue = val
		}
	}
	g.exits = append(g.exits, cur)
	return nil
}

func (g *BlockGraphBuilder) buildExprStmt(node *ast.ExprStmt, cur *Block) *Block {
	if call, ok := node.Expr.(*ast.CallExpr); ok {
		g.calls.Encode(g.contract, g.fn, cur, call)
		return cur
	}
	if _, err := g.evalWithTargets(cur, node.Expr); err != nil {
		g.rep.Warning(node.NodePos(), err.Error())
	}
	return cur
}

// ---- verification target scanning ----

// evalWithTargets scans expr for arithmetic and container-method sites
// before lowering it, so every subexpression gets its targets registered
// regardless of where in a statement it appears.
func (g *BlockGraphBuilder) evalWithTargets(cur *Block, expr ast.Expr) (Term, error) {
	g.scanTargets(cur, expr)
	return g.enc.Expr(cur.SSA, expr)
}

func (g *BlockGraphBuilder) scanTargets(cur *Block, expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.BinaryExpr:
		g.scanTargets(cur, e.Left)
		g.scanTargets(cur, e.Right)
		g.scanBinaryArithmetic(cur, e)
	case *ast.UnaryExpr:
		g.scanTargets(cur, e.Value)
	case *ast.ParenExpr:
		g.scanTargets(cur, e.Value)
	case *ast.CallExpr:
		g.scanTargets(cur, e.Callee)
		for _, a := range e.Args {
			g.scanTargets(cur, a)
		}
		g.scanPop(cur, e)
	case *ast.FieldAccessExpr:
		g.scanTargets(cur, e.Target)
	case *ast.IndexExpr:
		g.scanTargets(cur, e.Target)
		g.scanTargets(cur, e.Index)
	case *ast.TupleExpr:
		for _, el := range e.Elements {
			g.scanTargets(cur, el)
		}
	case *ast.StructLiteralExpr:
		for _, field := range e.Fields {
			g.scanTargets(cur, field.Value)
		}
	}
}

var arithmeticOps = map[string]TargetKind{
	"+": TargetOverflow,
	"-": TargetUnderflow,
	"*": TargetOverflow,
	"/": TargetDivByZero,
}

func (g *BlockGraphBuilder) scanBinaryArithmetic(cur *Block, e *ast.BinaryExpr) {
	if _, ok := arithmeticOps[e.Op]; !ok {
		return
	}
	bits, ok := g.enc.IntWidth(e)
	if !ok {
		return
	}
	left, lerr := g.enc.Expr(cur.SSA, e.Left)
	right, rerr := g.enc.Expr(cur.SSA, e.Right)
	if lerr != nil || rerr != nil {
		return
	}
	g.registerArithmeticOp(cur, e, e.Op, arithmeticOps[e.Op], bits, left, right)
}

// registerArithmeticOp wires the trigger condition under which op would
// wrap or divide by zero for an operand width of bits. Kanso has no
// signed integer types, so every numeric builtin funnels through these
// three unsigned cases; TargetUnderOverflow is never produced here.
func (g *BlockGraphBuilder) registerArithmeticOp(cur *Block, node ast.Node, op string, kind TargetKind, bits uint, left, right Term) {
	max := &IntLit{Value: MaxForBits(bits)}
	zero := &IntLit{Value: MaxForBits(0)}
	switch kind {
	case TargetOverflow:
		var trigger Term
		if op == "*" {
			// left * right > max  <=>  right != 0 && left > max / right
			trigger = And(Neq(right, zero), Gt(left, Div(max, right)))
		} else {
			// left + right > max  <=>  left > max - right (avoids widening)
			trigger = Gt(left, Sub(max, right))
		}
		g.raise(cur, node, TargetOverflow, trigger)
	case TargetUnderflow:
		g.raise(cur, node, TargetUnderflow, Lt(left, right))
	case TargetDivByZero:
		g.raise(cur, node, TargetDivByZero, Eq(right, zero))
	}
}

func (g *BlockGraphBuilder) scanPop(cur *Block, call *ast.CallExpr) {
	field, ok := call.Callee.(*ast.FieldAccessExpr)
	if !ok || field.Field != "pop" || len(call.Args) != 0 {
		return
	}
	recv := assignTargetName(field.Target)
	lenTerm := g.enc.CreateVariable(fmt.Sprintf("%s$len", recv), SortInt)
	g.raise(cur, call, TargetPopEmptyArray, Eq(lenTerm, &IntLit{Value: MaxForBits(0)}))
}

// ---- shared AST helpers ----

func assignTargetName(target ast.Expr) string {
	switch t := target.(type) {
	case *ast.IdentExpr:
		return t.Name
	case *ast.FieldAccessExpr:
		return t.Field
	case *ast.IndexExpr:
		return assignTargetName(t.Target)
	default:
		return target.String()
	}
}

// buildFrame computes the fixed variable/sort ordering shared by every
// block predicate in fn: the three frame symbols, the contract's storage
// fields, fn's parameters, then every let-bound local hoisted from fn's
// body (including loop-init bindings), in first-appearance order.
func buildFrame(fn *ast.Function, storageVars []string, enc SymbolicEncoder) *frame {
	names := []string{ErrorSymbol, AddressSymbol, StateSymbol}
	sorts := []Sort{SortInt, SortAddress, SortArray}

	for _, sv := range storageVars {
		names = append(names, sv)
		sorts = append(sorts, SortInt)
	}

	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}

	for _, p := range fn.Params {
		if seen[p.Name.Value] {
			continue
		}
		seen[p.Name.Value] = true
		names = append(names, p.Name.Value)
		sorts = append(sorts, enc.SortOf(p.Type))
	}

	var locals []string
	if fn.Body != nil {
		collectLocals(fn.Body, &locals, seen)
	}
	for _, l := range locals {
		names = append(names, l)
		sorts = append(sorts, SortInt)
	}

	return &frame{names: names, sorts: sorts}
}

func collectLocals(fb *ast.FunctionBlock, out *[]string, seen map[string]bool) {
	if fb == nil {
		return
	}
	for _, item := range fb.Items {
		switch node := item.(type) {
		case *ast.LetStmt:
			addLocal(node.Name.Value, out, seen)
		case *ast.IfStmt:
			collectLocalsIf(node, out, seen)
		case *ast.WhileStmt:
			collectLocals(node.Body, out, seen)
		case *ast.ForStmt:
			if ls, ok := node.Init.(*ast.LetStmt); ok {
				addLocal(ls.Name.Value, out, seen)
			}
			collectLocals(node.Body, out, seen)
		}
	}
}

func collectLocalsIf(node *ast.IfStmt, out *[]string, seen map[string]bool) {
	collectLocals(node.Then, out, seen)
	if node.Else != nil {
		collectLocals(node.Else, out, seen)
	}
	if node.ElseIf != nil {
		collectLocalsIf(node.ElseIf, out, seen)
	}
}

func addLocal(name string, out *[]string, seen map[string]bool) {
	if seen[name] {
		return
	}
	seen[name] = true
	*out = append(*out, name)
}
