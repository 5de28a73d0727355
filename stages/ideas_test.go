package stages

import (
	"testing"

	"pov-pipeline/types"
)

func TestParseIdeaLines(t *testing.T) {
	text := "POV: you open the cafe at dawn\t#cafe #morning\tfirst customer\tcozy cafe interior at sunrise\n" +
		"\n" +
		"you find a hidden door\t#mystery\twhat's behind it\told library\n" +
		"POV: short row only\n"

	items := ParseIdeaLines(text)
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}

	if items[0].Idea != "POV: you open the cafe at dawn" {
		t.Errorf("idea[0] = %q", items[0].Idea)
	}
	if items[0].Hashtag != "#cafe #morning" || items[0].Caption != "first customer" {
		t.Errorf("fields[0] = %+v", items[0])
	}
	if items[0].EnvironmentPrompt != "cozy cafe interior at sunrise" {
		t.Errorf("environment[0] = %q", items[0].EnvironmentPrompt)
	}

	// Missing prefix is added.
	if items[1].Idea != "POV: you find a hidden door" {
		t.Errorf("idea[1] = %q, want POV: prefix forced", items[1].Idea)
	}

	// Short rows are padded, not dropped.
	if items[2].Idea != "POV: short row only" || items[2].Hashtag != "" {
		t.Errorf("short row mishandled: %+v", items[2])
	}

	for i, item := range items {
		if item.Production != types.StatusForProduction {
			t.Errorf("item %d Production = %q", i, item.Production)
		}
		if item.StatusPublishing != types.StatusPending {
			t.Errorf("item %d StatusPublishing = %q", i, item.StatusPublishing)
		}
	}
}

func TestParseIdeaLinesSkipsNoise(t *testing.T) {
	text := "idea\thashtag\tcaption\tenvironment\n\n\t\t\t\n"
	if items := ParseIdeaLines(text); len(items) != 0 {
		t.Errorf("header and blank lines should be skipped, got %d items", len(items))
	}
}
