package media

import (
	"strings"
	"testing"
)

func defaultOptions() Options {
	return Options{
		Width:       540,
		Height:      960,
		FPS:         30,
		Codec:       "libx264",
		PixelFormat: "yuv420p",
		ClipSeconds: 5,
	}
}

func TestStillClipArgs(t *testing.T) {
	args := stillClipArgs("in.jpg", "out.mp4", defaultOptions())
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-loop 1",
		"-i in.jpg",
		"-t 5",
		"-c:v libx264",
		"-pix_fmt yuv420p",
		"-r 30",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
	if args[len(args)-1] != "out.mp4" {
		t.Errorf("output must be the final argument, got %q", args[len(args)-1])
	}
}

func TestStillClipArgsScaleAndPad(t *testing.T) {
	args := stillClipArgs("in.jpg", "out.mp4", defaultOptions())
	var vf string
	for i, a := range args {
		if a == "-vf" && i+1 < len(args) {
			vf = args[i+1]
		}
	}
	if !strings.Contains(vf, "scale=540:960:force_original_aspect_ratio=decrease") {
		t.Errorf("scale filter wrong: %q", vf)
	}
	if !strings.Contains(vf, "pad=540:960:(ow-iw)/2:(oh-ih)/2") {
		t.Errorf("pad filter wrong: %q", vf)
	}
}

func TestCaptionFilterEscaping(t *testing.T) {
	filter := captionFilter(`it's 50%: a test`)
	if !strings.HasPrefix(filter, "drawtext=text='") {
		t.Errorf("filter = %q", filter)
	}
	if !strings.Contains(filter, `\'`) {
		t.Error("single quote not escaped")
	}
	if !strings.Contains(filter, `\%`) {
		t.Error("percent not escaped")
	}
	if !strings.Contains(filter, `\:`) {
		t.Error("colon not escaped")
	}
}

func TestEscapeDrawtextBackslashFirst(t *testing.T) {
	// The backslash must be escaped before the characters that use it,
	// otherwise escapes double up.
	got := escapeDrawtext(`a\b`)
	if got != `a\\b` {
		t.Errorf("escapeDrawtext = %q", got)
	}
}
