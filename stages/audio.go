package stages

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"pov-pipeline/types"
)

// Audio narrates each scene beat, storing one audio segment per scene in
// the blob store.
type Audio struct {
	deps *Deps
}

func NewAudio(d *Deps) *Audio { return &Audio{deps: d} }

func (s *Audio) Name() string        { return StageAudio }
func (s *Audio) DependsOn() []string { return []string{StageScenes} }

func (s *Audio) Run(ctx context.Context) (any, error) {
	var seq types.SceneSequence
	ok, err := s.deps.Store.Get(StageScenes, &seq)
	if err != nil {
		return nil, err
	}
	if !ok || len(seq.Scenes) == 0 {
		log.Printf("[audio] no scene sequence available, nothing to do")
		return &types.AudioSet{}, nil
	}

	set := &types.AudioSet{ItemID: seq.ItemID}
	succeeded := 0
	for i, text := range seq.Scenes {
		result := s.narrateOne(ctx, i, text)
		if result.Success {
			succeeded++
		}
		set.Results = append(set.Results, result)
	}
	log.Printf("[audio] %d/%d narration segments ready for item %d", succeeded, len(seq.Scenes), seq.ItemID)
	return set, nil
}

func (s *Audio) narrateOne(ctx context.Context, index int, text string) types.AudioResult {
	result := types.AudioResult{Index: index, Text: text}

	audio, err := s.deps.Speech.Synthesize(ctx, text, s.deps.Cfg.Audio.Language)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	localPath := filepath.Join(s.deps.Store.MediaDir("audio"), fmt.Sprintf("scene_%02d.mp3", index))
	if err := os.WriteFile(localPath, audio, 0644); err != nil {
		result.Error = err.Error()
		return result
	}
	result.LocalPath = localPath

	info, err := s.deps.Blobs.Upload(ctx, localPath, s.deps.Cfg.Drive.AudioFolderID)
	if err != nil {
		result.Error = fmt.Sprintf("upload: %v", err)
		return result
	}
	result.DriveID = info.ID

	if err := s.deps.Blobs.Share(ctx, info.ID, "reader", "anyone"); err != nil {
		result.Error = fmt.Sprintf("share: %v", err)
		return result
	}
	link, err := s.deps.Blobs.PublicLink(ctx, info.ID)
	if err != nil {
		result.Error = fmt.Sprintf("link: %v", err)
		return result
	}
	result.Link = link
	result.Success = true
	return result
}
