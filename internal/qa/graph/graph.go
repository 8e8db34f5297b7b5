// Package graph wires the pipeline stages into a directed graph with
// conditional branches and a single loop-back edge for follow-up re-entry.
package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/daycare-qa/server/internal/qa/catalog"
	"github.com/daycare-qa/server/internal/qa/graph/nodes"
	"github.com/daycare-qa/server/internal/qa/llm"
	"github.com/daycare-qa/server/internal/qa/model"
	"github.com/daycare-qa/server/internal/qa/transcript"
	logx "github.com/daycare-qa/server/pkg/logger"
)

// Config holds everything needed to compose the question-answering graph.
type Config struct {
	Model    llm.Model
	Catalog  *catalog.Catalog
	Days     *transcript.DayStore
	Children *transcript.ChildStore
	Answer   model.AnswerConfig
}

func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("graph config is nil")
	}
	if c.Model == nil {
		return fmt.Errorf("model adapter is nil")
	}
	if c.Catalog == nil {
		return fmt.Errorf("catalog is nil")
	}
	if c.Days == nil || c.Children == nil {
		return fmt.Errorf("transcript stores are not initialized")
	}
	return nil
}

// GraphBuilder handles the construction of the pipeline graph.
type GraphBuilder struct {
	config *Config
	entry  string
	graph  *compose.Graph[*model.RequestState, *model.RequestState]
}

func build(ctx context.Context, cfg *Config, entry string) (compose.Runnable[*model.RequestState, *model.RequestState], error) {
	b := &GraphBuilder{
		config: cfg,
		entry:  entry,
		graph:  compose.NewGraph[*model.RequestState, *model.RequestState](),
	}

	b.addNodes()
	b.addEdges()
	if err := b.addBranches(); err != nil {
		return nil, err
	}
	return b.compile(ctx)
}

// addNodes adds all processing stages to the graph.
func (b *GraphBuilder) addNodes() {
	c := b.config
	b.graph.AddLambdaNode(nodes.NodeChildIdentifier, nodes.NewChildIdentifierNode(c.Model))
	b.graph.AddLambdaNode(nodes.NodeVideoPicker, nodes.NewVideoPickerNode(c.Model, c.Catalog, c.Answer))
	b.graph.AddLambdaNode(nodes.NodeQuestionRefiner, nodes.NewQuestionRefinerNode(c.Model))
	b.graph.AddLambdaNode(nodes.NodeTranscriptRouter, nodes.NewTranscriptRouterNode(c.Model))
	b.graph.AddLambdaNode(nodes.NodeTranscriptBuilder, nodes.NewTranscriptBuilderNode(c.Model, c.Days, c.Children, c.Catalog, c.Answer))
	b.graph.AddLambdaNode(nodes.NodeTranscriptAnswerer, nodes.NewTranscriptAnswererNode(c.Model, c.Days, c.Answer))
	b.graph.AddLambdaNode(nodes.NodeVideoAnalyzers, nodes.NewVideoAnalyzersNode(c.Model, c.Catalog))
	b.graph.AddLambdaNode(nodes.NodeComposer, nodes.NewComposerNode(c.Model, c.Answer))
	b.graph.AddLambdaNode(nodes.NodeFollowupAdvisor, nodes.NewFollowupAdvisorNode(c.Model))
	b.graph.AddLambdaNode(nodes.NodeFollowupReentry, nodes.NewFollowupReentryNode())
}

// addEdges creates the unconditional flow connections, including the
// loop-back edge from follow-up re-entry to the child identifier.
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, b.entry},
		{nodes.NodeVideoPicker, nodes.NodeQuestionRefiner},
		{nodes.NodeQuestionRefiner, nodes.NodeTranscriptRouter},
		{nodes.NodeTranscriptRouter, nodes.NodeTranscriptBuilder},
		{nodes.NodeTranscriptBuilder, nodes.NodeTranscriptAnswerer},
		{nodes.NodeVideoAnalyzers, nodes.NodeComposer},
		{nodes.NodeFollowupReentry, nodes.NodeChildIdentifier},
	}
	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates the conditional routing branches.
func (b *GraphBuilder) addBranches() error {
	haltBranch := compose.NewGraphBranch(
		nodes.NewChildIdentifierCondition(),
		map[string]bool{
			compose.END:           true,
			nodes.NodeVideoPicker: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeChildIdentifier, haltBranch); err != nil {
		return fmt.Errorf("error adding child identifier branch: %w", err)
	}

	answerBranch := compose.NewGraphBranch(
		nodes.NewTranscriptAnswerCondition(),
		map[string]bool{
			nodes.NodeComposer:       true,
			nodes.NodeVideoAnalyzers: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeTranscriptAnswerer, answerBranch); err != nil {
		return fmt.Errorf("error adding transcript answer branch: %w", err)
	}

	adviseBranch := compose.NewGraphBranch(
		nodes.NewComposerCondition(),
		map[string]bool{
			nodes.NodeFollowupAdvisor: true,
			compose.END:               true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeComposer, adviseBranch); err != nil {
		return fmt.Errorf("error adding composer branch: %w", err)
	}

	reentryBranch := compose.NewGraphBranch(
		nodes.NewFollowupAdvisorCondition(),
		map[string]bool{
			nodes.NodeFollowupReentry: true,
			compose.END:               true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeFollowupAdvisor, reentryBranch); err != nil {
		return fmt.Errorf("error adding follow-up advisor branch: %w", err)
	}

	return nil
}

// compile finalizes the graph. The run-step cap bounds the follow-up
// re-entry loop so a misrouting model cannot spin the graph forever.
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[*model.RequestState, *model.RequestState], error) {
	loops := b.config.Answer.MaxFollowupLoops
	if loops <= 0 {
		loops = 5
	}
	maxSteps := (loops + 1) * 12

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Str("entry", b.entry).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}
	logx.Debug().Str("entry", b.entry).Int("max_steps", maxSteps).Msg("Graph compiled")
	return runnable, nil
}
