package stages

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"pov-pipeline/fault"
	"pov-pipeline/ledger"
	"pov-pipeline/types"
)

const scenesPromptTemplate = `Break this POV video concept into exactly %d scene beats.

Concept: %s
Setting: %s

Each beat is one short sentence describing what the viewer sees at that
moment, in chronological order. Return ONLY the numbered beats, one per
line, nothing else.`

var leadingNumber = regexp.MustCompile(`^\s*\d+[.)]\s*`)

// Scenes takes the first ledger item marked for production and breaks its
// concept into an ordered scene sequence.
type Scenes struct {
	deps *Deps
}

func NewScenes(d *Deps) *Scenes { return &Scenes{deps: d} }

func (s *Scenes) Name() string        { return StageScenes }
func (s *Scenes) DependsOn() []string { return []string{StageIdeas} }

func (s *Scenes) Run(ctx context.Context) (any, error) {
	item, ok := s.deps.Ledger.DequeueFirst(ctx, ledger.ColProduction, types.StatusForProduction)
	if !ok {
		log.Printf("[scenes] no item marked %q, nothing to do", types.StatusForProduction)
		return &types.SceneSequence{}, nil
	}
	log.Printf("[scenes] working on item %d: %s", item.ID, item.Idea)

	maxScenes := s.deps.Cfg.Pipeline.MaxScenes
	prompt := fmt.Sprintf(scenesPromptTemplate, maxScenes, item.Idea, item.EnvironmentPrompt)

	text, err := s.deps.Text.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate scenes: %w", err)
	}

	scenes := ParseSceneLines(text)
	if len(scenes) < maxScenes {
		return nil, fault.Newf(fault.InvalidResponse, "scenes.parse",
			"got %d scene beats, need %d", len(scenes), maxScenes)
	}
	scenes = scenes[:maxScenes]

	return &types.SceneSequence{
		ItemID:      item.ID,
		Idea:        item.Idea,
		Environment: item.EnvironmentPrompt,
		Caption:     item.Caption,
		Scenes:      scenes,
	}, nil
}

// ParseSceneLines extracts scene beats from model output, stripping list
// numbering and blank lines.
func ParseSceneLines(text string) []string {
	var scenes []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(leadingNumber.ReplaceAllString(line, ""))
		line = strings.Trim(line, "-* ")
		if line == "" {
			continue
		}
		scenes = append(scenes, line)
	}
	return scenes
}
