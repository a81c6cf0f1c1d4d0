package subtitles

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"subforge/internal/logging"
	"subforge/internal/timeline"
)

func TestCachePathUsesStem(t *testing.T) {
	got := CachePath("/cache", "/media/show.episode.mkv")
	if got != filepath.Join("/cache", "show.episode.srt") {
		t.Fatalf("unexpected cache path %q", got)
	}
}

func TestCacheStoreAndLoad(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(filepath.Join(dir, "cache"), logging.NewNop())

	if _, ok, err := cache.Load("/media/clip.mp4"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	segs := []timeline.Segment{
		{StartSec: 0, EndSec: 1, Text: "hello", Translation: "bonjour"},
		{StartSec: 1, EndSec: 2, Text: "world"},
	}
	path, err := cache.Store(context.Background(), "/media/clip.mp4", segs, ModeCache)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if filepath.Base(path) != "clip.srt" {
		t.Fatalf("unexpected cache file %q", path)
	}
	if _, err := os.Stat(path + ".lock"); err != nil {
		t.Fatalf("expected lock file beside cache entry: %v", err)
	}

	loaded, ok, err := cache.Load("/media/clip.mp4")
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if len(loaded) != 2 || loaded[0].Translation != "bonjour" || loaded[1].Text != "world" {
		t.Fatalf("unexpected cached segments %+v", loaded)
	}
}
