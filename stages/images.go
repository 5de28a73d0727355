package stages

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"pov-pipeline/types"
)

// Images renders each enhanced prompt to an image, stores it in the blob
// store, and records a public link per scene. One failed scene does not
// abort the stage; the result carries per-scene success flags.
type Images struct {
	deps *Deps
}

func NewImages(d *Deps) *Images { return &Images{deps: d} }

func (s *Images) Name() string        { return StageImages }
func (s *Images) DependsOn() []string { return []string{StagePrompts} }

func (s *Images) Run(ctx context.Context) (any, error) {
	var enhanced types.EnhancedScenes
	ok, err := s.deps.Store.Get(StagePrompts, &enhanced)
	if err != nil {
		return nil, err
	}
	if !ok || len(enhanced.Scenes) == 0 {
		log.Printf("[images] no enhanced scenes available, nothing to do")
		return &types.ImageSet{}, nil
	}

	set := &types.ImageSet{
		ItemID:      enhanced.ItemID,
		Caption:     enhanced.Caption,
		Environment: enhanced.Environment,
	}
	succeeded := 0
	for i, scene := range enhanced.Scenes {
		result := s.generateOne(ctx, i, scene.Prompt)
		if result.Success {
			succeeded++
		}
		set.Results = append(set.Results, result)
	}
	// Zero successes is still a valid (empty) result; downstream stages
	// see the per-scene flags and act accordingly.
	log.Printf("[images] %d/%d scene images ready for item %d", succeeded, len(enhanced.Scenes), enhanced.ItemID)
	return set, nil
}

func (s *Images) generateOne(ctx context.Context, index int, prompt string) types.ImageResult {
	result := types.ImageResult{Index: index, Prompt: prompt}

	localPath := filepath.Join(s.deps.Store.MediaDir("images"), fmt.Sprintf("scene_%02d.jpg", index))
	if err := s.deps.Images.GenerateImage(ctx, prompt, index, localPath); err != nil {
		result.Error = err.Error()
		return result
	}
	result.LocalPath = localPath

	info, err := s.deps.Blobs.Upload(ctx, localPath, s.deps.Cfg.Drive.ImagesFolderID)
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
