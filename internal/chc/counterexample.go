package chc

import (
	"fmt"
	"strings"

	"github.com/emicklei/dot"
)

// CexNode is one node of the witness DAG a Solver returns for an unsafe
// query: the predicate it derives, the concrete argument terms the
// model assigns, the rule that concluded it, and the premises (body
// atoms) that rule needed.
type CexNode struct {
	Pred     *Predicate
	Args     []Term
	Rule     *Rule
	Children []*CexNode
}

// Step is one predicate reached while replaying a counterexample DAG
// back into the order a transaction actually executed in.
type Step struct {
	Predicate string
	Rule      string
	// Model is the solver's argument assignment for this step's
	// predicate — its state variables and parameters — rendered in
	// declaration order.
	Model string
}

// Transaction is a reconstructed sequence of reached predicates,
// earliest call first, ending at the violated error predicate.
type Transaction struct {
	Steps []Step
}

// CounterexampleReconstructor walks a Solver's witness DAG into a linear
// Transaction trace suitable for CLI/LSP reporting. The DAG chains
// nondet-interface/interface nodes transaction-by-transaction, each
// carrying a function-summary sibling for the call that advanced it;
// ordinary block derivations inside one function call recurse through
// every premise instead.
type CounterexampleReconstructor struct{}

func NewCounterexampleReconstructor() *CounterexampleReconstructor {
	return &CounterexampleReconstructor{}
}

func (r *CounterexampleReconstructor) Reconstruct(root *CexNode) *Transaction {
	tx := &Transaction{}
	r.walk(root, tx)
	reverseSteps(tx.Steps)
	return tx
}

// walk appends node itself before descending, so the raw trace runs
// latest-transaction-first; Reconstruct inverts it afterward into
// chronological order.
//
// Whenever a node's premises include a function-summary atom, that
// child is this step's transaction (the call that just ran); its
// Interface/NondetInterface sibling (if any) is the pre-state the
// transaction before it left behind, and recursion continues there
// rather than into the function-summary's own block-by-block
// derivation. Nodes without that shape (an ordinary function-block
// chain within one call) recurse through every premise instead.
func (r *CounterexampleReconstructor) walk(node *CexNode, tx *Transaction) {
	if node == nil {
		return
	}
	r.appendStep(node, tx)

	var priorState *CexNode
	var isTransactionStep bool
	for _, child := range node.Children {
		switch child.Pred.Kind {
		case Interface, NondetInterface:
			priorState = child
			isTransactionStep = true
		case FunctionSummary:
			r.appendStep(child, tx)
			isTransactionStep = true
		}
	}
	if isTransactionStep {
		r.walk(priorState, tx)
		return
	}
	for _, child := range node.Children {
		r.walk(child, tx)
	}
}

func (r *CounterexampleReconstructor) appendStep(node *CexNode, tx *Transaction) {
	ruleName := "?"
	if node.Rule != nil {
		ruleName = node.Rule.Name
	}
	tx.Steps = append(tx.Steps, Step{Predicate: node.Pred.Name, Rule: ruleName, Model: formatModel(node.Args)})
}

func formatModel(args []Term) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

func reverseSteps(steps []Step) {
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
}

// WriteDOT renders the transaction as a Graphviz graph, one node per
// step in execution order, returned as DOT text.
func (tx *Transaction) WriteDOT() string {
	g := dot.NewGraph(dot.Directed)
	var prev dot.Node
	for i, step := range tx.Steps {
		n := g.Node(fmt.Sprintf("step%d", i)).Label(fmt.Sprintf("%s\n%s\n%s", step.Predicate, step.Rule, step.Model))
		if i > 0 {
			g.Edge(prev, n)
		}
		prev = n
	}
	return g.String()
}
