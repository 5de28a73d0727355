// Package storage keeps intermediate and final media in Google Drive so
// the renderer and reviewers can reach them by public link.
package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// FileInfo identifies one stored blob.
type FileInfo struct {
	ID   string
	Name string
	Link string
}

// Drive is a folder-scoped Google Drive client.
type Drive struct {
	svc *drive.Service
}

// New authenticates with a service-account credentials file.
func New(ctx context.Context, credentialsFile string) (*Drive, error) {
	svc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return &Drive{svc: svc}, nil
}

// Upload stores the local file under folderID and returns its identity.
func (d *Drive) Upload(ctx context.Context, localPath, folderID string) (*FileInfo, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	meta := &drive.File{Name: filepath.Base(localPath)}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}
	created, err := d.svc.Files.Create(meta).Media(f).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", localPath, err)
	}
	return &FileInfo{ID: created.Id, Name: created.Name}, nil
}

// Share grants access on a stored file, e.g. Share(ctx, id, "reader", "anyone").
func (d *Drive) Share(ctx context.Context, fileID, role, audience string) error {
	perm := &drive.Permission{Role: role, Type: audience}
	_, err := d.svc.Permissions.Create(fileID, perm).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("share %s: %w", fileID, err)
	}
	return nil
}

// PublicLink returns a direct-download URL for a shared file.
func (d *Drive) PublicLink(ctx context.Context, fileID string) (string, error) {
	f, err := d.svc.Files.Get(fileID).Fields("webContentLink", "webViewLink").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("link %s: %w", fileID, err)
	}
	if f.WebContentLink != "" {
		return f.WebContentLink, nil
	}
	return f.WebViewLink, nil
}

// List returns the files directly inside folderID.
func (d *Drive) List(ctx context.Context, folderID string) ([]FileInfo, error) {
	query := fmt.Sprintf("'%s' in parents and trashed=false", folderID)
	var out []FileInfo
	pageToken := ""
	for {
		call := d.svc.Files.List().Q(query).Fields("nextPageToken, files(id, name)").Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list folder %s: %w", folderID, err)
		}
		for _, f := range resp.Files {
			out = append(out, FileInfo{ID: f.Id, Name: f.Name})
		}
		if resp.NextPageToken == "" {
			return out, nil
		}
		pageToken = resp.NextPageToken
	}
}

// Delete removes one stored file.
func (d *Drive) Delete(ctx context.Context, fileID string) error {
	if err := d.svc.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete %s: %w", fileID, err)
	}
	return nil
}

// EmptyFolder deletes every file inside folderID, logging but tolerating
// individual failures. Returns the number removed.
func (d *Drive) EmptyFolder(ctx context.Context, folderID string) int {
	files, err := d.List(ctx, folderID)
	if err != nil {
		log.Printf("[storage] list %s failed: %v", folderID, err)
		return 0
	}
	removed := 0
	for _, f := range files {
		if err := d.Delete(ctx, f.ID); err != nil {
			log.Printf("[storage] delete %s (%s) failed: %v", f.Name, f.ID, err)
			continue
		}
		removed++
	}
	return removed
}

// Download fetches a stored file's content to destPath.
func (d *Drive) Download(ctx context.Context, fileID, destPath string) error {
	resp, err := d.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("download %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	return nil
}
