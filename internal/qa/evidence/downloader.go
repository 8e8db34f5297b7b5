// Package evidence extracts short proof clips from a source video at the
// evidence times recorded in the child transcripts.
package evidence

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/go-resty/resty/v2"
)

// Downloader fetches a remote video to a local path.
type Downloader interface {
	Fetch(ctx context.Context, remoteURI, destPath string) error
}

// RemoteDownloader handles gs:// objects through the Cloud Storage client
// and https:// sources through HTTP. The catalog guarantees every URI uses
// one of the two schemes.
type RemoteDownloader struct {
	gcs  *gcs.Client
	http *resty.Client
}

func NewRemoteDownloader(ctx context.Context) (*RemoteDownloader, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &RemoteDownloader{gcs: client, http: resty.New()}, nil
}

func (d *RemoteDownloader) Fetch(ctx context.Context, remoteURI, destPath string) error {
	switch {
	case strings.HasPrefix(remoteURI, "gs://"):
		return d.fetchGCS(ctx, remoteURI, destPath)
	case strings.HasPrefix(remoteURI, "https://"):
		return d.fetchHTTP(ctx, remoteURI, destPath)
	}
	return fmt.Errorf("unsupported uri scheme: %q", remoteURI)
}

func (d *RemoteDownloader) fetchGCS(ctx context.Context, remoteURI, destPath string) error {
	bucket, object, err := splitGCSURI(remoteURI)
	if err != nil {
		return err
	}
	rc, err := d.gcs.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("open %s: %w", remoteURI, err)
	}
	defer rc.Close()

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return fmt.Errorf("download %s: %w", remoteURI, err)
	}
	return nil
}

func (d *RemoteDownloader) fetchHTTP(ctx context.Context, remoteURI, destPath string) error {
	resp, err := d.http.R().SetContext(ctx).SetOutput(destPath).Get(remoteURI)
	if err != nil {
		return fmt.Errorf("download %s: %w", remoteURI, err)
	}
	if resp.IsError() {
		return fmt.Errorf("download %s: status %s", remoteURI, resp.Status())
	}
	return nil
}

func splitGCSURI(uri string) (bucket, object string, err error) {
	rest := strings.TrimPrefix(uri, "gs://")
	i := strings.Index(rest, "/")
	if i <= 0 || i == len(rest)-1 {
		return "", "", fmt.Errorf("malformed gcs uri: %q", uri)
	}
	return rest[:i], rest[i+1:], nil
}
