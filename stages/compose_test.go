package stages

import (
	"testing"

	"pov-pipeline/types"
)

func TestBuildModificationsFullSet(t *testing.T) {
	clips := &types.ClipSet{Results: []types.ClipResult{
		{Index: 0, Link: "v0", Success: true},
		{Index: 1, Link: "v1", Success: true},
		{Index: 2, Link: "v2", Success: true},
		{Index: 3, Link: "v3", Success: true},
		{Index: 4, Link: "v4", Success: true},
	}}
	audio := &types.AudioSet{Results: []types.AudioResult{
		{Index: 0, Link: "a0", Text: "t0", Success: true},
		{Index: 1, Link: "a1", Text: "t1", Success: true},
		{Index: 2, Link: "a2", Text: "t2", Success: true},
		{Index: 3, Link: "a3", Text: "t3", Success: true},
		{Index: 4, Link: "a4", Text: "t4", Success: true},
	}}

	media, texts := BuildModifications(clips, audio, 5)
	if len(media) != 10 || len(texts) != 5 {
		t.Fatalf("slot counts: media=%d texts=%d", len(media), len(texts))
	}
	if media["Video-1.source"] != "v0" || media["Video-5.source"] != "v4" {
		t.Errorf("video slots wrong: %+v", media)
	}
	if media["Audio-3.source"] != "a2" {
		t.Errorf("audio slot wrong: %+v", media)
	}
	if texts["Text-2.text"] != "t1" {
		t.Errorf("text slot wrong: %+v", texts)
	}
}

func TestBuildModificationsPadsShortInput(t *testing.T) {
	clips := &types.ClipSet{Results: []types.ClipResult{
		{Index: 0, Link: "v0", Success: true},
		{Index: 1, Link: "v1", Success: true},
	}}
	audio := &types.AudioSet{Results: []types.AudioResult{
		{Index: 0, Link: "a0", Text: "t0", Success: true},
	}}

	media, texts := BuildModifications(clips, audio, 5)
	for _, slot := range []string{"Video-3.source", "Video-4.source", "Video-5.source"} {
		if media[slot] != "v1" {
			t.Errorf("%s = %q, want last clip repeated", slot, media[slot])
		}
	}
	if media["Audio-5.source"] != "a0" || texts["Text-5.text"] != "t0" {
		t.Errorf("audio/text padding wrong: %+v %+v", media, texts)
	}
}

func TestBuildModificationsSkipsFailedScenes(t *testing.T) {
	clips := &types.ClipSet{Results: []types.ClipResult{
		{Index: 0, Link: "v0", Success: true},
		{Index: 1, Success: false},
		{Index: 2, Link: "v2", Success: true},
	}}
	audio := &types.AudioSet{Results: []types.AudioResult{
		{Index: 0, Link: "a0", Text: "t0", Success: true},
		{Index: 1, Success: false},
		{Index: 2, Link: "a2", Text: "t2", Success: true},
	}}

	media, _ := BuildModifications(clips, audio, 5)
	if media["Video-2.source"] != "v0" {
		t.Errorf("failed clip slot should repeat the previous link, got %q", media["Video-2.source"])
	}
	if media["Video-3.source"] != "v2" {
		t.Errorf("recovered clip slot wrong: %q", media["Video-3.source"])
	}
}
