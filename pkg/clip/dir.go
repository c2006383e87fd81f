package clip

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/vidmem/vidmem/pkg/ai"
)

// DirSource serves the clips of one video from a directory of pre-cut media
// files. Files are ordered lexicographically by name, so clip files should
// carry zero-padded indices. Loaded media is cached per path.
type DirSource struct {
	videoID     string
	dir         string
	clipSeconds float64

	cache   map[string]ai.ClipMedia
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewDirSourceParams configures a DirSource.
type NewDirSourceParams struct {
	VideoID string
	Dir     string

	// ClipSeconds is the nominal duration of each clip file. Defaults to 30.
	ClipSeconds float64
}

// NewDirSource creates a clip source backed by a directory of media files.
func NewDirSource(params NewDirSourceParams) *DirSource {
	clipSeconds := params.ClipSeconds
	if clipSeconds <= 0 {
		clipSeconds = 30
	}
	return &DirSource{
		videoID:     params.VideoID,
		dir:         params.Dir,
		clipSeconds: clipSeconds,
		cache:       make(map[string]ai.ClipMedia),
	}
}

// Clips lists the clip files of the directory in temporal order.
func (s *DirSource) Clips(ctx context.Context) ([]Clip, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read clip directory %s: %w", s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	clips := make([]Clip, 0, len(names))
	for i, name := range names {
		clips = append(clips, Clip{
			ID:      i,
			VideoID: s.videoID,
			Path:    filepath.Join(s.dir, name),
			Start:   float64(i) * s.clipSeconds,
			End:     float64(i+1) * s.clipSeconds,
		})
	}
	return clips, nil
}

// Media reads and base64-encodes the clip file. Results are cached, and
// concurrent loads of the same path are collapsed into one read.
func (s *DirSource) Media(ctx context.Context, c Clip) (ai.ClipMedia, error) {
	s.cacheMu.RLock()
	if cached, ok := s.cache[c.Path]; ok {
		s.cacheMu.RUnlock()
		return cached, nil
	}
	s.cacheMu.RUnlock()

	result, err, _ := s.group.Do(c.Path, func() (any, error) {
		s.cacheMu.RLock()
		if cached, ok := s.cache[c.Path]; ok {
			s.cacheMu.RUnlock()
			return cached, nil
		}
		s.cacheMu.RUnlock()

		raw, err := os.ReadFile(c.Path)
		if err != nil {
			return ai.ClipMedia{}, err
		}

		media := ai.ClipMedia{
			Base64: base64.StdEncoding.EncodeToString(raw),
			MIME:   mimeForPath(c.Path),
		}

		s.cacheMu.Lock()
		s.cache[c.Path] = media
		s.cacheMu.Unlock()

		return media, nil
	})
	if err != nil {
		return ai.ClipMedia{}, err
	}
	return result.(ai.ClipMedia), nil
}

func mimeForPath(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "application/octet-stream"
	}
	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "application/octet-stream"
	}
	return mimeType
}
