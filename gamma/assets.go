package gamma

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Assets lists the exported files of a generation and, after
// [Client.DownloadAssets], where they were saved.
type Assets struct {
	GenerationID string            `json:"generation_id"`
	PDF          string            `json:"pdf,omitempty"`
	PPTX         string            `json:"pptx,omitempty"`
	Downloads    map[string]string `json:"downloads,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// Assets looks up the export URLs of generation id.
func (c *Client) Assets(ctx context.Context, id string) (Assets, error) {
	data, err := c.Status(ctx, id)
	if err != nil {
		return Assets{GenerationID: id}, fmt.Errorf("failed to fetch generation %s: %w", id, err)
	}
	pdf, pptx := ExtractAssets(data)
	return Assets{GenerationID: id, PDF: pdf, PPTX: pptx}, nil
}

// DownloadAssets saves the PDF and PPTX of a into dir as
// <generation_id>.pdf and <generation_id>.pptx, concurrently.
//
// A failed file is recorded under "<ext>_error" in a.Downloads and does not
// stop the other one. The returned error is non-nil only when ctx ends.
func (c *Client) DownloadAssets(ctx context.Context, a *Assets, dir string) error {
	if a.Downloads == nil {
		a.Downloads = make(map[string]string)
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)

	for ext, src := range map[string]string{"pdf": a.PDF, "pptx": a.PPTX} {
		if src == "" {
			continue
		}
		g.Go(func() error {
			path := filepath.Join(dir, a.GenerationID+"."+ext)
			err := c.http.Download(ctx, src, path)
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.Warn("asset download failed", "generation_id", a.GenerationID, "format", ext, "error", err)
				a.Downloads[ext+"_error"] = fmt.Sprintf("Failed to download %s from %s", displayName(ext), src)
				return nil
			}
			a.Downloads[ext] = path
			return nil
		})
	}

	return g.Wait()
}

func displayName(ext string) string {
	if ext == "pptx" {
		return "PPTX"
	}
	return "PDF"
}
