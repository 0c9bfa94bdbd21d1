package scheduler_test

import (
	"context"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/require"
	"go.trai.ch/pyprod/internal/core/domain"
	"go.trai.ch/pyprod/internal/core/ports/mocks"
	"go.trai.ch/pyprod/internal/engine/handler"
	"go.trai.ch/pyprod/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

// TestScheduler_TracesAndLogsSingleNode verifies the scheduler's observable
// side channel contract: one EmitPlan before dispatch, a Start/End pair
// bracketing the handler, and exactly one Info log on success.
func TestScheduler_TracesAndLogsSingleNode(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		tracer := mocks.NewMockTracer(ctrl)
		span := mocks.NewMockSpan(ctrl)
		logger := mocks.NewMockLogger(ctrl)

		stat := &fakeStat{present: map[string]bool{}}
		a := &domain.Node{Name: domain.NewInternedString("A"), Kind: domain.KindFile}
		a.Rule = &domain.Rule{Handler: func(_ context.Context, target string, _ []string) error {
			stat.mark(target)
			return nil
		}}

		tracer.EXPECT().EmitPlan(gomock.Any(), []string{"A"})
		tracer.EXPECT().Start(gomock.Any(), "A").Return(context.Background(), span)
		span.EXPECT().End()
		logger.EXPECT().Info("built A")

		oracle := newFakeOracle("A")
		sched := scheduler.New(oracle, nil, handler.New(stat), tracer, logger)

		err := sched.Run(context.Background(), a, 1)
		require.NoError(t, err)
	})
}

// TestScheduler_RecordsErrorOnFailingSpan verifies a failing handler's error
// reaches the active span before it ends, and never reaches the logger's
// success path.
func TestScheduler_RecordsErrorOnFailingSpan(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		tracer := mocks.NewMockTracer(ctrl)
		span := mocks.NewMockSpan(ctrl)
		logger := mocks.NewMockLogger(ctrl)

		stat := &fakeStat{present: map[string]bool{}}
		boom := domain.ErrHandlerFailed
		a := &domain.Node{Name: domain.NewInternedString("A"), Kind: domain.KindFile}
		a.Rule = &domain.Rule{Handler: func(context.Context, string, []string) error { return boom }}

		tracer.EXPECT().EmitPlan(gomock.Any(), []string{"A"})
		tracer.EXPECT().Start(gomock.Any(), "A").Return(context.Background(), span)
		span.EXPECT().RecordError(gomock.Any())
		span.EXPECT().End()

		oracle := newFakeOracle("A")
		sched := scheduler.New(oracle, nil, handler.New(stat), tracer, logger)

		err := sched.Run(context.Background(), a, 1)
		require.Error(t, err)
	})
}
