package handler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pyprod/internal/core/domain"
	"go.trai.ch/pyprod/internal/engine/handler"
)

type fakeStat struct {
	present map[string]bool
}

func (f *fakeStat) Stat(path string) (time.Time, bool, error) {
	return time.Time{}, f.present[path], nil
}

func ruleNode(name string, h domain.Handler, kind domain.NodeKind) *domain.Node {
	return &domain.Node{
		Name: domain.NewInternedString(name),
		Kind: kind,
		Rule: &domain.Rule{Handler: h},
	}
}

func TestInvoke_PassesTargetAndDepends(t *testing.T) {
	var gotTarget string
	var gotDepends []string
	h := func(_ context.Context, target string, depends []string) error {
		gotTarget = target
		gotDepends = depends
		return nil
	}

	node := ruleNode("out.o", h, domain.KindFile)
	inv := handler.New(&fakeStat{present: map[string]bool{"out.o": true}})

	err := inv.Invoke(context.Background(), node, []string{"out.c", "out.h"})
	require.NoError(t, err)
	assert.Equal(t, "out.o", gotTarget)
	assert.Equal(t, []string{"out.c", "out.h"}, gotDepends)
}

func TestInvoke_HandlerError(t *testing.T) {
	h := func(context.Context, string, []string) error { return errors.New("boom") }
	node := ruleNode("out.o", h, domain.KindFile)
	inv := handler.New(&fakeStat{})

	err := inv.Invoke(context.Background(), node, nil)
	require.Error(t, err)
}

func TestInvoke_TargetNotProduced(t *testing.T) {
	h := func(context.Context, string, []string) error { return nil }
	node := ruleNode("out.o", h, domain.KindFile)
	inv := handler.New(&fakeStat{present: map[string]bool{}})

	err := inv.Invoke(context.Background(), node, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTargetNotProduced)
}

func TestInvoke_TaskSkipsOutputVerification(t *testing.T) {
	h := func(context.Context, string, []string) error { return nil }
	node := ruleNode("build", h, domain.KindTask)
	inv := handler.New(&fakeStat{present: map[string]bool{}})

	err := inv.Invoke(context.Background(), node, nil)
	require.NoError(t, err)
}

func TestInvoke_NoHandlerIsNoop(t *testing.T) {
	node := &domain.Node{Name: domain.NewInternedString("leaf.txt"), Kind: domain.KindFile}
	inv := handler.New(&fakeStat{})

	err := inv.Invoke(context.Background(), node, nil)
	require.NoError(t, err)
}
