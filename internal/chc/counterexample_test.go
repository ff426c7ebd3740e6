package chc_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanso/internal/chc"
)

func TestReconstructOrdersStepsChildrenFirst(t *testing.T) {
	entry := &chc.CexNode{Pred: &chc.Predicate{Name: "fn$entry"}, Rule: &chc.Rule{Name: "fn$jump1"}}
	branch := &chc.CexNode{Pred: &chc.Predicate{Name: "fn$b1"}, Rule: &chc.Rule{Name: "fn$jump2"}, Children: []*chc.CexNode{entry}}
	errNode := &chc.CexNode{Pred: &chc.Predicate{Name: "fn$err_overflow"}, Rule: &chc.Rule{Name: "fn$raise1"}, Children: []*chc.CexNode{branch}}

	r := chc.NewCounterexampleReconstructor()
	tx := r.Reconstruct(errNode)

	require.Len(t, tx.Steps, 3)
	assert.Equal(t, "fn$entry", tx.Steps[0].Predicate)
	assert.Equal(t, "fn$b1", tx.Steps[1].Predicate)
	assert.Equal(t, "fn$err_overflow", tx.Steps[2].Predicate, "the violated error predicate is always the last step")
}

func TestReconstructNilRootYieldsEmptyTransaction(t *testing.T) {
	r := chc.NewCounterexampleReconstructor()
	tx := r.Reconstruct(nil)
	assert.Empty(t, tx.Steps)
}

func TestWriteDOTContainsEveryStepAndAnEdgeBetweenThem(t *testing.T) {
	tx := &chc.Transaction{Steps: []chc.Step{
		{Predicate: "fn$entry", Rule: "fn$jump1"},
		{Predicate: "fn$err_overflow", Rule: "fn$raise1"},
	}}
	dot := tx.WriteDOT()

	assert.True(t, strings.Contains(dot, "fn$entry"))
	assert.True(t, strings.Contains(dot, "fn$err_overflow"))
	assert.True(t, strings.Contains(dot, "->"), "a two-step transaction must render one edge")
}
