package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports every event to a logger at debug level, errors at warn.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that write to logger, or to the default logger
// when nil.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger}
}

// Register installs h for all hook categories.
func (h *LogHooks) Register() {
	SetLayoutHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, treeID, engine string, units int) {
	h.logger.Debug("layout started", "tree", treeID, "engine", engine, "units", units)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, treeID, engine string, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("layout failed", "tree", treeID, "engine", engine, "err", err)
		return
	}
	h.logger.Debug("layout done", "tree", treeID, "engine", engine, "duration", d)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, treeID, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("render failed", "tree", treeID, "format", format, "err", err)
		return
	}
	h.logger.Debug("render done", "tree", treeID, "format", format, "bytes", size, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	lvl := log.DebugLevel
	if status >= 500 {
		lvl = log.WarnLevel
	}
	h.logger.Log(lvl, "request", "method", method, "route", route, "status", status, "duration", d)
}

var (
	_ LayoutHooks = (*LogHooks)(nil)
	_ CacheHooks  = (*LogHooks)(nil)
	_ HTTPHooks   = (*LogHooks)(nil)
)
