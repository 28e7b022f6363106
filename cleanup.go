package foodrecipe

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/eko2okna/food-recipe-app/internal/blobstore"
)

// BlobCleaner removes stale image blobs in the background. Failures are logged only.
type BlobCleaner interface {
	Schedule(path string)
	Wait(ctx context.Context) error
}

type BlobCleanerParams struct {
	fx.In

	Blobs     *blobstore.Store
	Lifecycle fx.Lifecycle
	Logger    LoggerService
}

type blobCleaner struct {
	blobs  *blobstore.Store
	logger LoggerService
	wg     sync.WaitGroup
}

func NewBlobCleaner(params BlobCleanerParams) BlobCleaner {
	c := newBlobCleaner(params.Blobs, params.Logger)

	params.Lifecycle.Append(fx.Hook{
		OnStop: c.Wait,
	})

	return c
}

func newBlobCleaner(blobs *blobstore.Store, logger LoggerService) *blobCleaner {
	return &blobCleaner{blobs: blobs, logger: logger}
}

func NewBlobStore(cfg *Config) (*blobstore.Store, error) {
	return blobstore.New(cfg.Uploads.Dir)
}

func (c *blobCleaner) Schedule(path string) {
	if path == "" {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		if err := c.blobs.Delete(path); err != nil {
			c.logger.Error("failed to remove image", "path", path, "error", err)
			return
		}

		c.logger.Debug("Removed image", "path", path)
	}()
}

// Wait blocks until scheduled removals finish or ctx is done.
func (c *blobCleaner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
