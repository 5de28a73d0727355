// Package media drives local ffmpeg/ffprobe for still-image clips and the
// fallback composition path used when the remote renderer is unavailable.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Options are the encoding parameters shared by every ffmpeg invocation.
type Options struct {
	Width       int
	Height      int
	FPS         int
	Codec       string
	PixelFormat string
	ClipSeconds int
}

// Tool wraps the local ffmpeg/ffprobe binaries.
type Tool struct {
	opts Options
}

func New(opts Options) *Tool {
	return &Tool{opts: opts}
}

// stillClipArgs builds the ffmpeg arguments that turn one still image
// into a fixed-duration clip, scaled and padded to the target frame.
func stillClipArgs(imagePath, outPath string, o Options) []string {
	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		o.Width, o.Height, o.Width, o.Height,
	)
	return []string{
		"-y",
		"-loop", "1",
		"-i", imagePath,
		"-c:v", o.Codec,
		"-t", strconv.Itoa(o.ClipSeconds),
		"-pix_fmt", o.PixelFormat,
		"-vf", vf,
		"-r", strconv.Itoa(o.FPS),
		outPath,
	}
}

// StillClip renders a single image into a silent clip at outPath.
func (t *Tool) StillClip(ctx context.Context, imagePath, outPath string) error {
	return run(ctx, "ffmpeg", stillClipArgs(imagePath, outPath, t.opts)...)
}

// Concat joins clip files in order into one video using the concat
// demuxer with stream copy. The list file is written next to the output.
func (t *Tool) Concat(ctx context.Context, clipPaths []string, outPath string) error {
	if len(clipPaths) == 0 {
		return fmt.Errorf("no clips to concatenate")
	}
	listFile := filepath.Join(filepath.Dir(outPath), "concat_list.txt")
	var lines []string
	for _, p := range clipPaths {
		lines = append(lines, fmt.Sprintf("file '%s'", p))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return err
	}
	return run(ctx, "ffmpeg",
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		outPath,
	)
}

// Mux combines a video track and an audio track, trimming to the
// shorter stream so a long narration cannot trail over black frames.
func (t *Tool) Mux(ctx context.Context, videoPath, audioPath, outPath string) error {
	return run(ctx, "ffmpeg",
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		outPath,
	)
}

// captionFilter builds the drawtext filter for a bottom-centered caption.
func captionFilter(text string) string {
	return fmt.Sprintf(
		"drawtext=text='%s':fontcolor=white:fontsize=42:box=1:boxcolor=black@0.5:boxborderw=12:x=(w-text_w)/2:y=h-th-80",
		escapeDrawtext(text),
	)
}

// escapeDrawtext escapes the characters drawtext treats specially.
func escapeDrawtext(text string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(text)
}

// Caption burns a text overlay onto the video.
func (t *Tool) Caption(ctx context.Context, videoPath, text, outPath string) error {
	return run(ctx, "ffmpeg",
		"-y",
		"-i", videoPath,
		"-vf", captionFilter(text),
		"-c:v", t.opts.Codec,
		"-c:a", "copy",
		outPath,
	)
}

// Duration returns the media duration in seconds via ffprobe.
func (t *Tool) Duration(ctx context.Context, path string) (float64, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
}

func run(ctx context.Context, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", bin, args[len(args)-1], err)
	}
	return nil
}
