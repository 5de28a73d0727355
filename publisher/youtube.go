// Package publisher uploads finished videos to YouTube via Data API v3.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"pov-pipeline/fault"
)

// Metadata is the listing information for one upload.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	CategoryID  string
	Privacy     string
}

// Credentials holds the OAuth installed-app secrets used for upload.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Publisher uploads videos with per-channel OAuth credentials.
type Publisher struct {
	creds             Credentials
	defaultLanguage   string
	notifySubscribers bool
	madeForKids       bool
}

func New(creds Credentials, defaultLanguage string, notifySubscribers, madeForKids bool) *Publisher {
	return &Publisher{
		creds:             creds,
		defaultLanguage:   defaultLanguage,
		notifySubscribers: notifySubscribers,
		madeForKids:       madeForKids,
	}
}

// Upload pushes the video file to YouTube and returns its ID and watch URL.
// Server-side errors (HTTP 5xx) are retried once; client errors are not,
// since reuploading the same bad request cannot succeed.
func (p *Publisher) Upload(ctx context.Context, videoFile string, meta *Metadata) (string, string, error) {
	svc, err := p.service(ctx)
	if err != nil {
		return "", "", fmt.Errorf("youtube auth: %w", err)
	}

	var videoID string
	for attempt := 1; attempt <= 2; attempt++ {
		videoID, err = p.insert(ctx, svc, videoFile, meta)
		if err == nil {
			break
		}
		if !serverSide(err) || attempt == 2 {
			return "", "", fmt.Errorf("youtube upload: %w", err)
		}
		log.Printf("[publish] upload attempt %d failed, retrying: %v", attempt, err)
		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
			return "", "", ctx.Err()
		}
	}

	videoURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	log.Printf("[publish] uploaded video %s: %s", videoID, videoURL)
	return videoID, videoURL, nil
}

func (p *Publisher) insert(ctx context.Context, svc *youtube.Service, videoFile string, meta *Metadata) (string, error) {
	f, err := os.Open(videoFile)
	if err != nil {
		return "", fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	if fi, statErr := f.Stat(); statErr == nil {
		log.Printf("[publish] uploading %q (%.1f MB)", meta.Title, float64(fi.Size())/1024/1024)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           meta.CategoryID,
			DefaultLanguage:      p.defaultLanguage,
			DefaultAudioLanguage: p.defaultLanguage,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           meta.Privacy,
			SelfDeclaredMadeForKids: p.madeForKids,
		},
	}

	call := svc.Videos.Insert([]string{"snippet", "status"}, video)
	call.NotifySubscribers(p.notifySubscribers)
	call.Media(f)
	uploaded, err := call.Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return uploaded.Id, nil
}

func (p *Publisher) service(ctx context.Context) (*youtube.Service, error) {
	if p.creds.ClientID == "" || p.creds.ClientSecret == "" || p.creds.RefreshToken == "" {
		return nil, fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN not set")
	}

	conf := &oauth2.Config{
		ClientID:     p.creds.ClientID,
		ClientSecret: p.creds.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}
	token := &oauth2.Token{
		RefreshToken: p.creds.RefreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}
	client := oauth2.NewClient(ctx, conf.TokenSource(ctx, token))

	return youtube.NewService(ctx, option.WithHTTPClient(client))
}

// serverSide reports whether err came from the API's side rather than
// from the request we sent.
func serverSide(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 500
	}
	return fault.Retryable(err)
}
