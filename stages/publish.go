package stages

import (
	"context"
	"fmt"
	"log"
	"strings"

	"pov-pipeline/fault"
	"pov-pipeline/ledger"
	"pov-pipeline/publisher"
	"pov-pipeline/types"
)

// Publish uploads the first item marked for publishing, records the watch
// URL in the ledger, and cleans up the run's intermediate media.
type Publish struct {
	deps *Deps
}

func NewPublish(d *Deps) *Publish { return &Publish{deps: d} }

func (s *Publish) Name() string        { return StagePublish }
func (s *Publish) DependsOn() []string { return []string{StageCompose} }

func (s *Publish) Run(ctx context.Context) (any, error) {
	item, ok := s.deps.Ledger.DequeueFirst(ctx, ledger.ColPublishing, types.StatusForPublishing)
	if !ok {
		log.Printf("[publish] no item marked %q, nothing to do", types.StatusForPublishing)
		return &types.PublishResult{}, nil
	}
	log.Printf("[publish] publishing item %d: %s", item.ID, item.Idea)

	videoFile, composed, err := s.locateVideo(item)
	if err != nil {
		return nil, err
	}

	meta := BuildMetadata(item, s.deps.Cfg.Upload.CategoryID, s.deps.Cfg.Upload.Privacy)
	videoID, videoURL, err := s.deps.Publisher.Upload(ctx, videoFile, meta)
	if err != nil {
		return nil, fmt.Errorf("publish item %d: %w", item.ID, err)
	}

	result := &types.PublishResult{ItemID: item.ID, VideoID: videoID, VideoURL: videoURL}

	ref := ledger.RowRef{ID: item.ID}
	updated := s.deps.Ledger.UpdateCell(ctx, ref, ledger.ColYouTube, videoURL)
	updated = s.deps.Ledger.UpdateCell(ctx, ref, ledger.ColPublishing, string(types.StatusPublished)) && updated
	updated = s.deps.Ledger.UpdateCell(ctx, ref, ledger.ColProduction, string(types.StatusDone)) && updated
	result.LedgerUpdated = updated
	if !updated {
		log.Printf("[publish] item %d uploaded but some ledger updates failed", item.ID)
	}

	s.cleanup(ctx, composed)
	return result, nil
}

// locateVideo finds the local file to upload: the composed video from this
// run when its item matches, otherwise nothing to upload.
func (s *Publish) locateVideo(item types.WorkItem) (string, *types.ComposeResult, error) {
	var composed types.ComposeResult
	ok, err := s.deps.Store.Get(StageCompose, &composed)
	if err != nil {
		return "", nil, err
	}
	if !ok || composed.LocalPath == "" {
		return "", nil, fault.Newf(fault.NotFound, "publish.locate",
			"no composed video on disk for item %d", item.ID)
	}
	if composed.ItemID != item.ID {
		return "", nil, fault.Newf(fault.NotFound, "publish.locate",
			"composed video is for item %d, ledger wants item %d", composed.ItemID, item.ID)
	}
	return composed.LocalPath, &composed, nil
}

// BuildMetadata derives the video listing from the ledger row.
func BuildMetadata(item types.WorkItem, categoryID, privacy string) *publisher.Metadata {
	title := item.Idea
	if len(title) > 100 {
		title = title[:97] + "..."
	}
	description := item.Caption
	if item.Hashtag != "" {
		description = strings.TrimSpace(description + "\n\n" + item.Hashtag)
	}
	var tags []string
	for _, tag := range strings.Fields(item.Hashtag) {
		tags = append(tags, strings.TrimPrefix(tag, "#"))
	}
	return &publisher.Metadata{
		Title:       title,
		Description: description,
		Tags:        tags,
		CategoryID:  categoryID,
		Privacy:     privacy,
	}
}

// cleanup removes the run's intermediates: remote scene media, the final
// video's remote copy once published, and everything in the local working
// directory. Failures are logged, never fatal; the video is already live.
func (s *Publish) cleanup(ctx context.Context, composed *types.ComposeResult) {
	drive := s.deps.Cfg.Drive
	for _, folderID := range []string{drive.ImagesFolderID, drive.VideosFolderID, drive.AudioFolderID} {
		if folderID == "" {
			continue
		}
		if n := s.deps.Blobs.EmptyFolder(ctx, folderID); n > 0 {
			log.Printf("[publish] removed %d intermediate files from folder %s", n, folderID)
		}
	}
	if composed != nil && composed.DriveID != "" {
		if err := s.deps.Blobs.Delete(ctx, composed.DriveID); err != nil {
			log.Printf("[publish] could not remove published video %s from storage: %v", composed.DriveID, err)
		}
	}
	if err := s.deps.Store.Clear(); err != nil {
		log.Printf("[publish] working directory cleanup failed: %v", err)
	}
}
