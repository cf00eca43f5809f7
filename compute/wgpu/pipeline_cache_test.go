package wgpu

import (
	"io"
	"log/slog"
	"testing"

	"github.com/cubecl-go/cubecl"
)

func TestNewPipelineCacheDefaultsToCubeclLogger(t *testing.T) {
	pc := NewPipelineCache(nil)
	if pc.logger != cubecl.Logger() {
		t.Fatal("expected a fresh PipelineCache to log through cubecl.Logger() by default")
	}
}

func TestPipelineCacheSetLoggerReplacesLogger(t *testing.T) {
	pc := NewPipelineCache(nil)
	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	pc.SetLogger(custom)
	if pc.logger != custom {
		t.Fatal("expected SetLogger to replace the cache's logger")
	}
}
