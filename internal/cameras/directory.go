// Package cameras caches the backend camera inventory so alert rendering can
// show display names without a round trip per event.
package cameras

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/visionguard/visionguard-monitor/internal/models"
)

const directorySize = 128

// Fetcher is the slice of the API client the directory needs.
type Fetcher interface {
	Camera(ctx context.Context, cameraID string) (*models.Camera, error)
}

// Directory resolves camera ids to metadata through an expiring cache.
// Lookups degrade to the raw id on any failure; they never block an alert.
type Directory struct {
	fetcher Fetcher
	cache   *expirable.LRU[string, models.Camera]
	logger  *slog.Logger
}

// NewDirectory creates a directory whose entries stay fresh for ttl.
func NewDirectory(fetcher Fetcher, ttl time.Duration, logger *slog.Logger) *Directory {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		fetcher: fetcher,
		cache:   expirable.NewLRU[string, models.Camera](directorySize, nil, ttl),
		logger:  logger,
	}
}

// Get returns camera metadata, from cache when fresh.
func (d *Directory) Get(ctx context.Context, cameraID string) (*models.Camera, error) {
	if cam, ok := d.cache.Get(cameraID); ok {
		return &cam, nil
	}

	cam, err := d.fetcher.Camera(ctx, cameraID)
	if err != nil {
		return nil, err
	}
	d.cache.Add(cameraID, *cam)
	return cam, nil
}

// DisplayName resolves a camera id to its configured name, falling back to
// the raw id when the camera is unknown or the backend is unreachable.
func (d *Directory) DisplayName(ctx context.Context, cameraID string) string {
	cam, err := d.Get(ctx, cameraID)
	if err != nil {
		d.logger.Debug("cameras: lookup failed", "camera_id", cameraID, "err", err)
		return cameraID
	}
	if cam.Name == "" {
		return cameraID
	}
	return cam.Name
}

// Prime warms the cache from a full inventory fetch (used by the CLI).
func (d *Directory) Prime(list *models.CameraList) {
	for id, cam := range list.Cameras {
		d.cache.Add(id, cam)
	}
}
