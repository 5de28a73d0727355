package stages

import (
	"context"
	"fmt"
	"log"
	"strings"

	"pov-pipeline/fault"
	"pov-pipeline/types"
)

const ideaCount = 3

const ideasPromptTemplate = `Generate %d ideas for short vertical POV videos about "%s".

Return ONLY tab-separated lines, one idea per line, with exactly these four fields:
idea<TAB>hashtag<TAB>caption<TAB>environment_prompt

- idea: starts with "POV:" and describes the viewer's perspective in one sentence
- hashtag: 3-5 space-separated hashtags
- caption: a short hook caption for the video
- environment_prompt: the visual setting in one sentence, suitable for image generation

No header line, no numbering, no extra text.`

// Ideas asks the text model for new video concepts and appends them to the
// ledger ready for production.
type Ideas struct {
	deps *Deps
}

func NewIdeas(d *Deps) *Ideas { return &Ideas{deps: d} }

func (s *Ideas) Name() string        { return StageIdeas }
func (s *Ideas) DependsOn() []string { return nil }

// IdeaBatch is the stage artifact: the items that were appended, with
// their assigned IDs.
type IdeaBatch struct {
	Count int              `json:"count"`
	Items []types.WorkItem `json:"items"`
}

func (s *Ideas) Run(ctx context.Context) (any, error) {
	prompt := fmt.Sprintf(ideasPromptTemplate, ideaCount, s.deps.Cfg.LLM.Theme)

	text, err := s.deps.Text.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate ideas: %w", err)
	}

	items := ParseIdeaLines(text)
	if len(items) == 0 {
		return nil, fault.Newf(fault.InvalidResponse, "ideas.parse", "no usable idea lines in response")
	}

	appended := s.deps.Ledger.AppendRows(ctx, items)
	if appended == 0 {
		return nil, fmt.Errorf("append ideas: no rows written")
	}
	log.Printf("[ideas] appended %d new ideas", appended)

	return &IdeaBatch{Count: appended, Items: items}, nil
}

// ParseIdeaLines turns tab-separated model output into work items. Short
// rows are padded, blank and non-idea lines are skipped, and every idea is
// forced to start with "POV:".
func ParseIdeaLines(text string) []types.WorkItem {
	var items []types.WorkItem
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		for len(fields) < 4 {
			fields = append(fields, "")
		}
		idea := strings.TrimSpace(fields[0])
		if idea == "" || strings.EqualFold(idea, "idea") {
			continue
		}
		if !strings.HasPrefix(strings.ToUpper(idea), "POV:") {
			idea = "POV: " + idea
		}
		items = append(items, types.WorkItem{
			Idea:              idea,
			Hashtag:           strings.TrimSpace(fields[1]),
			Caption:           strings.TrimSpace(fields[2]),
			EnvironmentPrompt: strings.TrimSpace(fields[3]),
			Production:        types.StatusForProduction,
			StatusPublishing:  types.StatusPending,
		})
	}
	return items
}
