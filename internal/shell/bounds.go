package shell

import (
	"context"
	"time"

	"voxshell/internal/logging"
)

// WatchBounds polls the window size and reports it until ctx is done.
// Wails v2 has no resize event.
func WatchBounds(ctx context.Context, rt Runtime, interval time.Duration, report func(width, height int)) {
	defer logging.Recover("bounds watcher")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report(rt.WindowGetSize())
		}
	}
}
