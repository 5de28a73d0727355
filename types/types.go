package types

import (
	"fmt"
	"strings"
	"time"
)

// Status is a workflow state stored in the ledger. Parsing is
// case-insensitive because the spreadsheet is hand-edited; values are
// always written back in canonical lowercase form.
type Status string

const (
	StatusPending       Status = "pending"
	StatusForProduction Status = "for production"
	StatusDone          Status = "done"
	StatusForPublishing Status = "for publishing"
	StatusPublished     Status = "published"
)

// ParseStatus normalizes a raw spreadsheet cell into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusForProduction, StatusDone, StatusForPublishing, StatusPublished:
		return s, nil
	case "":
		return StatusPending, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// Equal compares a raw cell value against a Status, ignoring case and
// surrounding whitespace.
func (s Status) Equal(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), string(s))
}

// WorkItem is one POV concept moving through production. It maps 1:1 to a
// ledger row.
type WorkItem struct {
	ID                int    `json:"id"`
	Idea              string `json:"idea"`
	Hashtag           string `json:"hashtag"`
	Caption           string `json:"caption"`
	Production        Status `json:"production"`
	EnvironmentPrompt string `json:"environment_prompt"`
	StatusPublishing  Status `json:"status_publishing"`
	VideoURL          string `json:"video_url"`
	YouTubeLink       string `json:"youtube_link"`
}

// SceneSequence is the scene-sequencing stage artifact: the selected work
// item plus its ordered scene beats.
type SceneSequence struct {
	ItemID      int      `json:"item_id"`
	Idea        string   `json:"idea"`
	Environment string   `json:"environment"`
	Caption     string   `json:"caption"`
	Scenes      []string `json:"scenes"`
}

// EnhancedScene pairs a scene beat with its image prompt.
type EnhancedScene struct {
	Text   string `json:"text"`
	Prompt string `json:"prompt"`
}

// EnhancedScenes is the prompt-enhancement stage artifact.
type EnhancedScenes struct {
	ItemID      int             `json:"item_id"`
	Environment string          `json:"environment"`
	Caption     string          `json:"caption"`
	Scenes      []EnhancedScene `json:"scenes"`
}

// ImageResult records one generated scene image. Index preserves positional
// correspondence with the scene list; downstream stages rely on it.
type ImageResult struct {
	Index     int    `json:"index"`
	Prompt    string `json:"prompt"`
	LocalPath string `json:"local_path"`
	DriveID   string `json:"drive_id"`
	Link      string `json:"link"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// ClipResult records one still-image clip produced by the video stage.
type ClipResult struct {
	Index     int    `json:"index"`
	LocalPath string `json:"local_path"`
	DriveID   string `json:"drive_id"`
	Link      string `json:"link"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// AudioResult records one narration segment.
type AudioResult struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	LocalPath string `json:"local_path"`
	DriveID   string `json:"drive_id"`
	Link      string `json:"link"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// ImageSet is the image-generation stage artifact: one entry per scene,
// partial failures included.
type ImageSet struct {
	ItemID      int           `json:"item_id"`
	Caption     string        `json:"caption"`
	Environment string        `json:"environment"`
	Results     []ImageResult `json:"results"`
}

// ClipSet is the clip-rendering stage artifact.
type ClipSet struct {
	ItemID  int          `json:"item_id"`
	Caption string       `json:"caption"`
	Results []ClipResult `json:"results"`
}

// AudioSet is the narration stage artifact.
type AudioSet struct {
	ItemID  int           `json:"item_id"`
	Results []AudioResult `json:"results"`
}

// ComposeResult is the composition stage artifact.
type ComposeResult struct {
	ItemID    int    `json:"item_id"`
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	OutputURL string `json:"output_url"`
	LocalPath string `json:"local_path"`
	DriveID   string `json:"drive_id"`
	Link      string `json:"link"`
}

// PublishResult is the publishing stage artifact.
type PublishResult struct {
	ItemID        int    `json:"item_id"`
	VideoID       string `json:"video_id"`
	VideoURL      string `json:"video_url"`
	LedgerUpdated bool   `json:"ledger_updated"`
}

// RunSummary describes one pipeline invocation. It is written once at the
// end of a run and overwrites the previous summary.
type RunSummary struct {
	RunID        string          `json:"run_id"`
	Timestamp    string          `json:"timestamp"`
	StartStage   string          `json:"start_stage"`
	EndStage     string          `json:"end_stage"`
	Duration     time.Duration   `json:"duration_ns"`
	StepsTotal   int             `json:"steps_total"`
	StepsSuccess int             `json:"steps_success"`
	Results      map[string]bool `json:"results"`
}

// AllSucceeded reports whether every requested stage succeeded.
func (s *RunSummary) AllSucceeded() bool {
	return s.StepsSuccess == s.StepsTotal
}
