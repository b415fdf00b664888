//go:build !nogpu

package gpu

import (
	"log/slog"

	"github.com/FairlyBet/wgpurenderer"
)

// slogger returns the renderer logger.
// All logging in internal/gpu goes through this function.
func slogger() *slog.Logger { return wgpurenderer.Logger() }
