package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type runnerStub struct {
	calls  int
	result *SettlementResult
	err    error
}

func (s *runnerStub) RunSettlement(ctx context.Context) (*SettlementResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newTestJobs(runner SettlementRunner) *Jobs {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewJobs(runner, logger)
}

func TestRunWeeklySettlement_InvokesRunner(t *testing.T) {
	runner := &runnerStub{result: &SettlementResult{Success: true}}

	newTestJobs(runner).RunWeeklySettlement()

	if runner.calls != 1 {
		t.Fatalf("expected one settlement run, got %d", runner.calls)
	}
}

func TestRunWeeklySettlement_SurvivesBatchError(t *testing.T) {
	runner := &runnerStub{err: errors.New("db unavailable")}

	newTestJobs(runner).RunWeeklySettlement()

	if runner.calls != 1 {
		t.Fatalf("expected the run to be attempted once, got %d", runner.calls)
	}
}
