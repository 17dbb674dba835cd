package browser

import (
	"context"
	"fmt"
	"os"

	"jpltour/pkg/logger"

	"go.uber.org/zap"
)

// SaveFullPageScreenshot grows the window to the document size, captures the
// body to path as PNG, and restores the window size.
func SaveFullPageScreenshot(ctx context.Context, d Driver, path string) (err error) {
	original, err := d.WindowSize(ctx)
	if err != nil {
		return fmt.Errorf("read window size: %w", err)
	}
	full, err := d.ScrollSize(ctx)
	if err != nil {
		return fmt.Errorf("read document size: %w", err)
	}

	if full.Width > 0 && full.Height > 0 {
		if err := d.SetWindowSize(ctx, full); err != nil {
			return fmt.Errorf("resize window: %w", err)
		}
		defer func() {
			if rerr := d.SetWindowSize(ctx, original); rerr != nil && err == nil {
				err = fmt.Errorf("restore window size: %w", rerr)
			}
		}()
	}

	body, err := NewLocator(d).FindOrFail(ctx, ByCSS, "body", nil)
	if err != nil {
		return err
	}
	png, err := d.Screenshot(ctx, body)
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.WriteFile(path, png, 0644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}

	logger.FromContext(ctx).Debug("Saved screenshot",
		zap.String("path", path),
		zap.Int("width", full.Width),
		zap.Int("height", full.Height))
	return nil
}
