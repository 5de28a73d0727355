package stages

import (
	"context"
	"fmt"
	"log"

	"pov-pipeline/types"
)

const enhancePromptTemplate = `Turn this scene beat into a single image-generation prompt.

Scene: %s
Setting: %s

The prompt must describe a first-person POV shot, include the setting,
and end with style keywords (photorealistic, cinematic lighting, vertical).
Return ONLY the prompt, one line.`

// Prompts enhances each scene beat into a detailed image prompt. A failed
// enhancement falls back to a template so one bad model call never loses
// the scene.
type Prompts struct {
	deps *Deps
}

func NewPrompts(d *Deps) *Prompts { return &Prompts{deps: d} }

func (s *Prompts) Name() string        { return StagePrompts }
func (s *Prompts) DependsOn() []string { return []string{StageScenes} }

func (s *Prompts) Run(ctx context.Context) (any, error) {
	var seq types.SceneSequence
	ok, err := s.deps.Store.Get(StageScenes, &seq)
	if err != nil {
		return nil, err
	}
	if !ok || len(seq.Scenes) == 0 {
		log.Printf("[prompts] no scene sequence available, nothing to do")
		return &types.EnhancedScenes{}, nil
	}

	enhanced := make([]types.EnhancedScene, 0, len(seq.Scenes))
	for i, scene := range seq.Scenes {
		prompt, err := s.deps.Text.Generate(ctx, fmt.Sprintf(enhancePromptTemplate, scene, seq.Environment))
		if err != nil {
			log.Printf("[prompts] scene %d enhancement failed, using fallback: %v", i, err)
			prompt = FallbackPrompt(scene, seq.Environment)
		}
		enhanced = append(enhanced, types.EnhancedScene{Text: scene, Prompt: prompt})
	}
	log.Printf("[prompts] enhanced %d scene prompts for item %d", len(enhanced), seq.ItemID)

	return &types.EnhancedScenes{
		ItemID:      seq.ItemID,
		Environment: seq.Environment,
		Caption:     seq.Caption,
		Scenes:      enhanced,
	}, nil
}

// FallbackPrompt is the template used when enhancement fails.
func FallbackPrompt(scene, environment string) string {
	return fmt.Sprintf("First-person POV shot, %s, %s, photorealistic, cinematic lighting, vertical",
		scene, environment)
}
