package clip

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
)

func TestDirSourceClipsOrdered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"clip_002.mp4", "clip_000.mp4", "clip_001.mp4", ".hidden"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	src := NewDirSource(NewDirSourceParams{VideoID: "video-1", Dir: dir, ClipSeconds: 10})
	clips, err := src.Clips(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(clips) != 3 {
		t.Fatalf("expected 3 clips, got %d", len(clips))
	}
	for i, c := range clips {
		if c.ID != i {
			t.Errorf("clip %d has id %d", i, c.ID)
		}
		if c.VideoID != "video-1" {
			t.Errorf("clip %d has video id %q", i, c.VideoID)
		}
		if c.Start != float64(i)*10 || c.End != float64(i+1)*10 {
			t.Errorf("clip %d has bounds [%v, %v]", i, c.Start, c.End)
		}
	}
	if filepath.Base(clips[0].Path) != "clip_000.mp4" {
		t.Errorf("expected first clip to be clip_000.mp4, got %s", clips[0].Path)
	}
}

func TestDirSourceMedia(t *testing.T) {
	dir := t.TempDir()
	content := []byte("frame data")
	if err := os.WriteFile(filepath.Join(dir, "clip_000.mp4"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewDirSource(NewDirSourceParams{VideoID: "video-1", Dir: dir})
	clips, err := src.Clips(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	media, err := src.Media(context.Background(), clips[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if media.Base64 != base64.StdEncoding.EncodeToString(content) {
		t.Error("media content does not match file content")
	}
	if media.MIME != "video/mp4" {
		t.Errorf("expected video/mp4, got %s", media.MIME)
	}

	// second load hits the cache
	again, err := src.Media(context.Background(), clips[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != media {
		t.Error("cached media differs from first load")
	}
}

func TestDirSourceMissingDir(t *testing.T) {
	src := NewDirSource(NewDirSourceParams{VideoID: "video-1", Dir: "/nonexistent/clips"})
	if _, err := src.Clips(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
