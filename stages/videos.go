package stages

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"pov-pipeline/types"
)

// Videos turns each scene image into a fixed-duration still clip, stores
// the clips in the blob store, and removes the now-redundant source images
// from remote storage.
type Videos struct {
	deps *Deps
}

func NewVideos(d *Deps) *Videos { return &Videos{deps: d} }

func (s *Videos) Name() string        { return StageVideos }
func (s *Videos) DependsOn() []string { return []string{StageImages} }

func (s *Videos) Run(ctx context.Context) (any, error) {
	var images types.ImageSet
	ok, err := s.deps.Store.Get(StageImages, &images)
	if err != nil {
		return nil, err
	}
	if !ok || len(images.Results) == 0 {
		log.Printf("[videos] no scene images available, nothing to do")
		return &types.ClipSet{}, nil
	}

	set := &types.ClipSet{ItemID: images.ItemID, Caption: images.Caption}
	succeeded := 0
	for _, img := range images.Results {
		result := s.renderOne(ctx, img)
		if result.Success {
			succeeded++
		}
		set.Results = append(set.Results, result)
	}
	log.Printf("[videos] %d/%d clips ready for item %d", succeeded, len(images.Results), images.ItemID)

	// The clips supersede the raw images in remote storage. Keep the
	// sources if nothing was produced from them.
	if succeeded > 0 {
		for _, img := range images.Results {
			if img.DriveID == "" {
				continue
			}
			if err := s.deps.Blobs.Delete(ctx, img.DriveID); err != nil {
				log.Printf("[videos] could not remove source image %s: %v", img.DriveID, err)
			}
		}
	}

	return set, nil
}

func (s *Videos) renderOne(ctx context.Context, img types.ImageResult) types.ClipResult {
	result := types.ClipResult{Index: img.Index}
	if !img.Success {
		result.Error = "source image unavailable"
		return result
	}

	localPath := filepath.Join(s.deps.Store.MediaDir("videos"), fmt.Sprintf("clip_%02d.mp4", img.Index))
	if err := s.deps.Media.StillClip(ctx, img.LocalPath, localPath); err != nil {
		result.Error = err.Error()
		return result
	}
	result.LocalPath = localPath

	info, err := s.deps.Blobs.Upload(ctx, localPath, s.deps.Cfg.Drive.VideosFolderID)
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
