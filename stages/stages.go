// Package stages holds the pipeline's units of work. Each stage reads its
// upstream artifact from the store, talks to its collaborators, and returns
// the artifact the runner persists under the stage's name.
package stages

import (
	"context"

	"pov-pipeline/composer"
	"pov-pipeline/config"
	"pov-pipeline/ledger"
	"pov-pipeline/publisher"
	"pov-pipeline/storage"
	"pov-pipeline/store"
)

// Stage names, in pipeline order.
const (
	StageIdeas   = "ideas"
	StageScenes  = "scenes"
	StagePrompts = "prompts"
	StageImages  = "images"
	StageVideos  = "videos"
	StageAudio   = "audio"
	StageCompose = "compose"
	StagePublish = "publish"
)

// Order is the canonical stage sequence.
var Order = []string{
	StageIdeas, StageScenes, StagePrompts, StageImages,
	StageVideos, StageAudio, StageCompose, StagePublish,
}

// Stage is one unit of pipeline work. Run returns the artifact to persist
// under Name; a non-nil error is the only failure signal.
type Stage interface {
	Name() string
	DependsOn() []string
	Run(ctx context.Context) (any, error)
}

// TextGenerator produces free text from a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator renders a prompt to an image file.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, index int, destPath string) error
}

// SpeechSynthesizer converts text to audio bytes.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

// VideoComposer renders named media and text slots into a final video.
type VideoComposer interface {
	Compose(ctx context.Context, media, texts map[string]string) (*composer.Render, error)
	Download(ctx context.Context, render *composer.Render, destPath string) error
}

// BlobStore holds intermediate and final media where the remote renderer
// can reach them.
type BlobStore interface {
	Upload(ctx context.Context, localPath, folderID string) (*storage.FileInfo, error)
	Share(ctx context.Context, fileID, role, audience string) error
	PublicLink(ctx context.Context, fileID string) (string, error)
	Delete(ctx context.Context, fileID string) error
	EmptyFolder(ctx context.Context, folderID string) int
}

// VideoPublisher uploads a finished video and returns its ID and URL.
type VideoPublisher interface {
	Upload(ctx context.Context, videoFile string, meta *publisher.Metadata) (string, string, error)
}

// MediaTool is the local ffmpeg surface used for clips and the fallback
// composition path.
type MediaTool interface {
	StillClip(ctx context.Context, imagePath, outPath string) error
	Concat(ctx context.Context, paths []string, outPath string) error
	Mux(ctx context.Context, videoPath, audioPath, outPath string) error
	Caption(ctx context.Context, videoPath, text, outPath string) error
	Duration(ctx context.Context, path string) (float64, error)
}

// Deps bundles everything a stage may need. Stages take the bundle and use
// what they require; tests swap in fakes per field.
type Deps struct {
	Cfg       *config.Config
	Store     *store.Store
	Ledger    *ledger.Ledger
	Text      TextGenerator
	Images    ImageGenerator
	Speech    SpeechSynthesizer
	Composer  VideoComposer
	Blobs     BlobStore
	Publisher VideoPublisher
	Media     MediaTool
}

// All returns the full stage set in pipeline order.
func All(d *Deps) []Stage {
	return []Stage{
		NewIdeas(d),
		NewScenes(d),
		NewPrompts(d),
		NewImages(d),
		NewVideos(d),
		NewAudio(d),
		NewCompose(d),
		NewPublish(d),
	}
}
