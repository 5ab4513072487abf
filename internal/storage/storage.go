package storage

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
	supa "github.com/supabase-community/supabase-go"
)

// ErrNotConfigured is returned when the client was built without a Supabase client.
var ErrNotConfigured = errors.New("storage client not configured")

// listPageSize is the page size used when listing a folder.
const listPageSize = 1000

// Client is a thin wrapper around one Supabase storage bucket.
type Client struct {
	sc     *supa.Client
	bucket string
}

// NewClient returns a storage client bound to bucket.
func NewClient(sc *supa.Client, bucket string) *Client {
	return &Client{sc: sc, bucket: bucket}
}

// Bucket returns the bucket name the client writes to.
func (c *Client) Bucket() string {
	return c.bucket
}

// List returns the object names directly under prefix.
func (c *Client) List(prefix string) ([]string, error) {
	if c.sc == nil {
		return nil, ErrNotConfigured
	}

	var names []string
	for offset := 0; ; offset += listPageSize {
		files, err := c.sc.Storage.ListFiles(c.bucket, prefix, storage_go.FileSearchOptions{
			Limit:  listPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", c.bucket, prefix, err)
		}
		for _, f := range files {
			// Supabase keeps empty folders alive with a dot-file placeholder.
			if f.Name == "" || strings.HasPrefix(f.Name, ".") {
				continue
			}
			names = append(names, f.Name)
		}
		if len(files) < listPageSize {
			return names, nil
		}
	}
}

// Upload writes data to objectPath, replacing any existing object.
func (c *Client) Upload(objectPath string, data io.Reader) error {
	if c.sc == nil {
		return ErrNotConfigured
	}

	upsert := true
	opts := storage_go.FileOptions{Upsert: &upsert}
	if ct := contentType(objectPath); ct != "" {
		opts.ContentType = &ct
	}

	if _, err := c.sc.Storage.UploadFile(c.bucket, objectPath, data, opts); err != nil {
		return fmt.Errorf("upload %s/%s: %w", c.bucket, objectPath, err)
	}
	return nil
}

// Download returns the full contents of objectPath.
func (c *Client) Download(objectPath string) ([]byte, error) {
	if c.sc == nil {
		return nil, ErrNotConfigured
	}

	data, err := c.sc.Storage.DownloadFile(c.bucket, objectPath)
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", c.bucket, objectPath, err)
	}
	return data, nil
}

// Remove deletes the given objects.
func (c *Client) Remove(objectPaths ...string) error {
	if c.sc == nil {
		return ErrNotConfigured
	}
	if len(objectPaths) == 0 {
		return nil
	}
	if _, err := c.sc.Storage.RemoveFile(c.bucket, objectPaths); err != nil {
		return fmt.Errorf("remove from %s: %w", c.bucket, err)
	}
	return nil
}

// StoredIDs lists prefix and returns the set of video ids found there.
// It is recomputed on every call.
func (c *Client) StoredIDs(prefix string) (map[string]struct{}, error) {
	names, err := c.List(prefix)
	if err != nil {
		return nil, err
	}
	return IDSet(names), nil
}

// IDSet maps object names to video ids: the part of the name before the first dot.
func IDSet(names []string) map[string]struct{} {
	ids := make(map[string]struct{}, len(names))
	for _, name := range names {
		id, _, _ := strings.Cut(name, ".")
		if id == "" {
			continue
		}
		ids[id] = struct{}{}
	}
	return ids
}

func contentType(objectPath string) string {
	switch ext := strings.ToLower(path.Ext(objectPath)); ext {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case "":
		return ""
	default:
		return mime.TypeByExtension(ext)
	}
}
