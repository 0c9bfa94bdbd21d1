package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pyprod/internal/core/domain"
	"go.trai.ch/pyprod/internal/engine/graph"
)

func mustRule(t *testing.T, targets []string, pattern string, depends, uses []string) *domain.Rule {
	t.Helper()
	r, err := domain.NewRule(targets, pattern, depends, uses, nil, 0)
	require.NoError(t, err)
	return r
}

func TestResolve_SimpleChain(t *testing.T) {
	reg := domain.NewRegistry()
	require.NoError(t, reg.AddRule(mustRule(t, []string{"%.o"}, "", []string{"%.c"}, nil)))

	exists := func(target string) bool { return target == "main.c" }
	r := graph.New(reg, exists)

	node, err := r.Resolve("main.o")
	require.NoError(t, err)
	assert.Equal(t, "main.o", node.Name.String())
	require.Len(t, node.Depends, 1)
	assert.Equal(t, "main.c", node.Depends[0].Name.String())
	assert.Equal(t, domain.KindFile, node.Depends[0].Kind)
}

func TestResolve_CycleDetected(t *testing.T) {
	reg := domain.NewRegistry()
	require.NoError(t, reg.AddRule(mustRule(t, []string{"a"}, "", []string{"b"}, nil)))
	require.NoError(t, reg.AddRule(mustRule(t, []string{"b"}, "", []string{"a"}, nil)))

	r := graph.New(reg, func(string) bool { return false })
	_, err := r.Resolve("a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestResolve_NoRuleNoFile(t *testing.T) {
	reg := domain.NewRegistry()
	r := graph.New(reg, func(string) bool { return false })
	_, err := r.Resolve("ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rule")
}

func TestResolve_LeafFileNoRule(t *testing.T) {
	reg := domain.NewRegistry()
	r := graph.New(reg, func(target string) bool { return target == "existing.txt" })
	node, err := r.Resolve("existing.txt")
	require.NoError(t, err)
	assert.Equal(t, domain.KindFile, node.Kind)
	assert.Nil(t, node.Rule)
}

func TestResolve_VirtualCheckNode(t *testing.T) {
	reg := domain.NewRegistry()
	rule := mustRule(t, []string{"migrate"}, "", []string{"db://schema"}, nil)
	require.NoError(t, reg.AddRule(rule))
	reg.AddCheck(&domain.Check{Pattern: "db://%"})

	r := graph.New(reg, func(string) bool { return false })
	node, err := r.Resolve("migrate")
	require.NoError(t, err)
	require.Len(t, node.Depends, 1)
	assert.Equal(t, domain.KindVirtual, node.Depends[0].Kind)
	assert.Equal(t, "schema", node.Depends[0].Stem)
}

func TestResolve_Memoization(t *testing.T) {
	reg := domain.NewRegistry()
	require.NoError(t, reg.AddRule(mustRule(t, []string{"top"}, "", []string{"shared"}, nil)))
	require.NoError(t, reg.AddRule(mustRule(t, []string{"shared"}, "", nil, nil)))

	r := graph.New(reg, func(string) bool { return false })

	first, err := r.Resolve("shared")
	require.NoError(t, err)
	top, err := r.Resolve("top")
	require.NoError(t, err)

	assert.Same(t, first, top.Depends[0], "shared node should be memoized, not rebuilt")
}

func TestResolve_Canonicalization(t *testing.T) {
	reg := domain.NewRegistry()
	require.NoError(t, reg.AddRule(mustRule(t, []string{"foo"}, "", nil, nil)))

	r := graph.New(reg, func(string) bool { return false })
	a, err := r.Resolve("./foo")
	require.NoError(t, err)
	b, err := r.Resolve("foo")
	require.NoError(t, err)
	assert.Same(t, a, b)
}
