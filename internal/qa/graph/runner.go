package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/daycare-qa/server/internal/qa/graph/nodes"
	"github.com/daycare-qa/server/internal/qa/model"
	logx "github.com/daycare-qa/server/pkg/logger"
)

// Runner executes the compiled graphs. Ask drives a top-level question
// through the pipeline from the child identifier; Followup enters at the
// advisor, which may loop the same run back into the pipeline. The evidence
// route is deliberately not part of either graph and is handled by the
// caller against the returned state.
type Runner struct {
	ask      compose.Runnable[*model.RequestState, *model.RequestState]
	followup compose.Runnable[*model.RequestState, *model.RequestState]
}

// New compiles both entry points of the question-answering graph.
func New(ctx context.Context, cfg *Config) (*Runner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	ask, err := build(ctx, cfg, nodes.NodeChildIdentifier)
	if err != nil {
		return nil, fmt.Errorf("build ask graph: %w", err)
	}
	followup, err := build(ctx, cfg, nodes.NodeFollowupAdvisor)
	if err != nil {
		return nil, fmt.Errorf("build followup graph: %w", err)
	}

	logx.Debug().Msg("Question-answering graphs built")
	return &Runner{ask: ask, followup: followup}, nil
}

// Ask runs a top-level question to completion or to the child-information
// halt. The same state, updated with the parent's reply, is passed back in
// to resume.
func (r *Runner) Ask(ctx context.Context, st *model.RequestState) (*model.RequestState, error) {
	out, err := r.ask.Invoke(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("ask graph: %w", err)
	}
	return out, nil
}

// Followup advises on the latest follow-up in the state's history and, for
// routes that need fresh answering, re-enters the pipeline within the same
// run.
func (r *Runner) Followup(ctx context.Context, st *model.RequestState) (*model.RequestState, error) {
	out, err := r.followup.Invoke(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("followup graph: %w", err)
	}
	return out, nil
}
