package composer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL, "key", "tpl-1", "mp4", time.Millisecond, 5)
	return srv, c
}

func TestComposeSubmitPayload(t *testing.T) {
	var payload map[string]any
	_, c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			if got := r.Header.Get("Authorization"); got != "Bearer key" {
				t.Errorf("Authorization = %q", got)
			}
			json.NewDecoder(r.Body).Decode(&payload)
			json.NewEncoder(w).Encode([]Render{{ID: "r1", Status: StatusCompleted, URL: "http://out"}})
		}
	})

	render, err := c.Compose(context.Background(),
		map[string]string{"Video-1.source": "v1"},
		map[string]string{"Text-1.text": "hello"})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if render.URL != "http://out" {
		t.Errorf("URL = %q", render.URL)
	}
	if payload["template_id"] != "tpl-1" || payload["output_format"] != "mp4" {
		t.Errorf("payload = %+v", payload)
	}
	mods := payload["modifications"].(map[string]any)
	if mods["Video-1.source"] != "v1" || mods["Text-1.text"] != "hello" {
		t.Errorf("modifications = %+v", mods)
	}
}

func TestComposePollsUntilCompleted(t *testing.T) {
	polls := 0
	_, c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			json.NewEncoder(w).Encode(Render{ID: "r2", Status: StatusPlanned})
			return
		}
		polls++
		status := StatusProcessing
		url := ""
		if polls >= 3 {
			status = StatusCompleted
			url = "http://out/r2"
		}
		json.NewEncoder(w).Encode(Render{ID: "r2", Status: status, URL: url})
	})

	render, err := c.Compose(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if polls != 3 {
		t.Errorf("polls = %d, want 3", polls)
	}
	if render.Status != StatusCompleted || render.URL == "" {
		t.Errorf("render = %+v", render)
	}
}

func TestComposeTimesOutWithoutURL(t *testing.T) {
	_, c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Render{ID: "r3", Status: StatusProcessing})
	})

	if _, err := c.Compose(context.Background(), nil, nil); err == nil {
		t.Error("a render that never completes and has no URL should fail")
	}
}

func TestComposeReturnsStuckRenderWithURL(t *testing.T) {
	_, c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Render{ID: "r4", Status: StatusProcessing, URL: "http://out/r4"})
	})

	render, err := c.Compose(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("a stuck render with an output URL should be returned: %v", err)
	}
	if render.URL != "http://out/r4" {
		t.Errorf("URL = %q", render.URL)
	}
}

func TestComposeRejectsUnknownStatus(t *testing.T) {
	_, c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			json.NewEncoder(w).Encode(Render{ID: "r5", Status: StatusPlanned})
			return
		}
		json.NewEncoder(w).Encode(Render{ID: "r5", Status: "failed"})
	})

	if _, err := c.Compose(context.Background(), nil, nil); err == nil {
		t.Error("an unknown render status should fail the job")
	}
}

func TestDecodeRenderShapes(t *testing.T) {
	single, err := decodeRender([]byte(`{"id":"a","status":"planned"}`))
	if err != nil || single.ID != "a" {
		t.Errorf("single object: %+v, %v", single, err)
	}
	fromList, err := decodeRender([]byte(`[{"id":"b","status":"completed","url":"u"}]`))
	if err != nil || fromList.ID != "b" || fromList.URL != "u" {
		t.Errorf("list: %+v, %v", fromList, err)
	}
	if _, err := decodeRender([]byte(`{"status":"planned"}`)); err == nil {
		t.Error("missing id should be rejected")
	}
	if _, err := decodeRender([]byte(`not json`)); err == nil {
		t.Error("garbage should be rejected")
	}
}

func TestDownload(t *testing.T) {
	content := []byte("rendered video bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "tpl", "mp4", time.Millisecond, 1)
	dest := filepath.Join(t.TempDir(), "final.mp4")
	if err := c.Download(context.Background(), &Render{ID: "r", URL: srv.URL}, dest); err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(content) {
		t.Error("downloaded content differs")
	}
}

func TestDownloadWithoutURL(t *testing.T) {
	c := New("http://unused", "key", "tpl", "mp4", time.Millisecond, 1)
	if err := c.Download(context.Background(), &Render{ID: "r"}, "/tmp/x.mp4"); err == nil {
		t.Error("download without a URL should fail")
	}
}
