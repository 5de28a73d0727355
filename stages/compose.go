package stages

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"pov-pipeline/ledger"
	"pov-pipeline/types"
)

// templateSlots is the number of Video/Audio/Text slots in the render
// template. Shorter inputs are padded by repeating the last entry.
const templateSlots = 5

// Compose assembles the final video from the scene clips and narration,
// preferring the remote renderer and falling back to local ffmpeg assembly
// when it is unavailable. On success it publishes the video link back to
// the ledger and marks the item ready for publishing.
type Compose struct {
	deps *Deps
}

func NewCompose(d *Deps) *Compose { return &Compose{deps: d} }

func (s *Compose) Name() string        { return StageCompose }
func (s *Compose) DependsOn() []string { return []string{StageVideos, StageAudio} }

func (s *Compose) Run(ctx context.Context) (any, error) {
	var clips types.ClipSet
	var audio types.AudioSet
	if _, err := s.deps.Store.Get(StageVideos, &clips); err != nil {
		return nil, err
	}
	if _, err := s.deps.Store.Get(StageAudio, &audio); err != nil {
		return nil, err
	}
	if !anyClipSucceeded(&clips) || !anyAudioSucceeded(&audio) {
		log.Printf("[compose] no usable clips or narration, nothing to do")
		return &types.ComposeResult{}, nil
	}
	if clips.ItemID != audio.ItemID {
		return nil, fmt.Errorf("clip set is for item %d but narration is for item %d", clips.ItemID, audio.ItemID)
	}

	result := &types.ComposeResult{ItemID: clips.ItemID}
	finalPath := filepath.Join(s.deps.Store.MediaDir("videos"), fmt.Sprintf("final_%d.mp4", clips.ItemID))

	media, texts := BuildModifications(&clips, &audio, templateSlots)
	render, err := s.deps.Composer.Compose(ctx, media, texts)
	if err == nil {
		if dlErr := s.deps.Composer.Download(ctx, render, finalPath); dlErr == nil {
			result.JobID = render.ID
			result.Status = render.Status
			result.OutputURL = render.URL
			result.LocalPath = finalPath
		} else {
			err = dlErr
		}
	}
	if result.LocalPath == "" {
		log.Printf("[compose] remote render failed, assembling locally: %v", err)
		if localErr := s.assembleLocally(ctx, &clips, &audio, finalPath); localErr != nil {
			return nil, fmt.Errorf("local assembly: %w (remote: %v)", localErr, err)
		}
		result.Status = "assembled locally"
		result.LocalPath = finalPath
	}

	info, err := s.deps.Blobs.Upload(ctx, finalPath, s.deps.Cfg.Drive.FinalFolderID)
	if err != nil {
		return nil, fmt.Errorf("store final video: %w", err)
	}
	result.DriveID = info.ID
	if err := s.deps.Blobs.Share(ctx, info.ID, "reader", "anyone"); err != nil {
		return nil, fmt.Errorf("share final video: %w", err)
	}
	link, err := s.deps.Blobs.PublicLink(ctx, info.ID)
	if err != nil {
		return nil, fmt.Errorf("link final video: %w", err)
	}
	result.Link = link

	ref := ledger.RowRef{ID: clips.ItemID}
	if !s.deps.Ledger.UpdateCell(ctx, ref, ledger.ColVideoURL, link) {
		log.Printf("[compose] could not record video URL for item %d", clips.ItemID)
	}
	if !s.deps.Ledger.UpdateCell(ctx, ref, ledger.ColPublishing, string(types.StatusForPublishing)) {
		log.Printf("[compose] could not mark item %d for publishing", clips.ItemID)
	}
	log.Printf("[compose] final video ready for item %d: %s", clips.ItemID, link)

	return result, nil
}

func anyClipSucceeded(clips *types.ClipSet) bool {
	for _, c := range clips.Results {
		if c.Success {
			return true
		}
	}
	return false
}

func anyAudioSucceeded(audio *types.AudioSet) bool {
	for _, a := range audio.Results {
		if a.Success {
			return true
		}
	}
	return false
}

// BuildModifications maps clips and narration onto the template's named
// slots. Slots beyond the available scenes repeat the last successful
// entry so the template never renders an empty layer.
func BuildModifications(clips *types.ClipSet, audio *types.AudioSet, slots int) (media, texts map[string]string) {
	media = make(map[string]string, slots*2)
	texts = make(map[string]string, slots)

	lastClip, lastAudio, lastText := "", "", ""
	for i := 0; i < slots; i++ {
		if i < len(clips.Results) && clips.Results[i].Success {
			lastClip = clips.Results[i].Link
		}
		if i < len(audio.Results) && audio.Results[i].Success {
			lastAudio = audio.Results[i].Link
			lastText = audio.Results[i].Text
		}
		media[fmt.Sprintf("Video-%d.source", i+1)] = lastClip
		media[fmt.Sprintf("Audio-%d.source", i+1)] = lastAudio
		texts[fmt.Sprintf("Text-%d.text", i+1)] = lastText
	}
	return media, texts
}

// assembleLocally is the ffmpeg fallback: concatenate clips, concatenate
// narration, mux them, and burn the caption in.
func (s *Compose) assembleLocally(ctx context.Context, clips *types.ClipSet, audio *types.AudioSet, finalPath string) error {
	var clipPaths []string
	for _, c := range clips.Results {
		if c.Success && c.LocalPath != "" {
			clipPaths = append(clipPaths, c.LocalPath)
		}
	}
	var audioPaths []string
	for _, a := range audio.Results {
		if a.Success && a.LocalPath != "" {
			audioPaths = append(audioPaths, a.LocalPath)
		}
	}
	if len(clipPaths) == 0 || len(audioPaths) == 0 {
		return fmt.Errorf("no local clips or narration to assemble")
	}

	workDir := filepath.Dir(finalPath)
	silent := filepath.Join(workDir, "assembled_silent.mp4")
	if err := s.deps.Media.Concat(ctx, clipPaths, silent); err != nil {
		return fmt.Errorf("concat clips: %w", err)
	}
	narration := filepath.Join(s.deps.Store.MediaDir("audio"), "narration_full.mp3")
	if err := s.deps.Media.Concat(ctx, audioPaths, narration); err != nil {
		return fmt.Errorf("concat narration: %w", err)
	}
	muxed := filepath.Join(workDir, "assembled_muxed.mp4")
	if err := s.deps.Media.Mux(ctx, silent, narration, muxed); err != nil {
		return fmt.Errorf("mux: %w", err)
	}

	if vd, err := s.deps.Media.Duration(ctx, silent); err == nil {
		if ad, err := s.deps.Media.Duration(ctx, narration); err == nil && ad-vd > 1.0 {
			log.Printf("[compose] narration runs %.1fs past the video, trimmed at mux", ad-vd)
		}
	}

	if clips.Caption == "" {
		return os.Rename(muxed, finalPath)
	}
	return s.deps.Media.Caption(ctx, muxed, clips.Caption, finalPath)
}
