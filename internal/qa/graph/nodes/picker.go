package nodes

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/eino/compose"

	"github.com/daycare-qa/server/internal/qa/catalog"
	"github.com/daycare-qa/server/internal/qa/graph/prompts"
	"github.com/daycare-qa/server/internal/qa/llm"
	"github.com/daycare-qa/server/internal/qa/model"
	logx "github.com/daycare-qa/server/pkg/logger"
)

type pickerEntry struct {
	ID          string `json:"id"`
	SessionType string `json:"session_type"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description"`
}

// VideoPickerStage selects the catalog videos most likely to answer the
// question. An invalid or empty model suggestion falls back deterministically
// to the first catalog entries.
func VideoPickerStage(m llm.Model, cat *catalog.Catalog, cfg model.AnswerConfig) StageFunc {
	return func(ctx context.Context, st *model.RequestState) (*model.RequestState, error) {
		ids := pickWithModel(ctx, m, cat, cfg, st)
		if len(ids) == 0 {
			ids = fallbackVideos(cat, cfg.FallbackVideos)
			logx.Warn().Strs("target_videos", ids).Msg("Video picker produced no usable ids, using catalog fallback")
		}
		st.TargetVideos = ids
		logx.Info().Str("request_id", st.RequestID).Strs("target_videos", ids).Msg("Selected target videos")
		return st, nil
	}
}

func pickWithModel(ctx context.Context, m llm.Model, cat *catalog.Catalog, cfg model.AnswerConfig, st *model.RequestState) []string {
	entries := make([]pickerEntry, 0, cat.Len())
	for _, v := range cat.List() {
		entries = append(entries, pickerEntry{
			ID:          v.ID,
			SessionType: v.SessionType,
			StartTime:   v.StartTime,
			EndTime:     v.EndTime,
			Description: v.Description,
		})
	}
	info, err := json.Marshal(entries)
	if err != nil {
		return nil
	}

	prompt, err := prompts.VideoPicker(ctx, st.Question(), st.ChildInfo, string(info))
	if err != nil {
		logx.Warn().Err(err).Msg("Video picker prompt render failed")
		return nil
	}
	obj, err := m.CallJSON(ctx, prompt)
	if err != nil {
		logx.Warn().Err(err).Msg("Video picker model call failed")
		return nil
	}

	raw, ok := obj["videos"].([]any)
	if !ok {
		return nil
	}
	seen := make(map[string]bool, len(raw))
	var ids []string
	for _, r := range raw {
		id, ok := r.(string)
		if !ok || seen[id] || !cat.Has(id) {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		if len(ids) == cfg.MaxVideos {
			break
		}
	}
	return ids
}

func fallbackVideos(cat *catalog.Catalog, n int) []string {
	if n <= 0 {
		n = 3
	}
	var ids []string
	for _, v := range cat.List() {
		ids = append(ids, v.ID)
		if len(ids) == n {
			break
		}
	}
	return ids
}

func NewVideoPickerNode(m llm.Model, cat *catalog.Catalog, cfg model.AnswerConfig) *compose.Lambda {
	return compose.InvokableLambda(compose.InvokeWOOpt[*model.RequestState, *model.RequestState](VideoPickerStage(m, cat, cfg)))
}
