package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// generateThumbnails creates 1200px, 600px, and 300px WebP renditions of an
// uploaded image under <root>/thumbs.
func (s *DiskStore) generateThumbnails(originalPath, name string) ([]string, error) {
	originalFile, err := os.Open(originalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open original file: %w", err)
	}
	defer originalFile.Close()

	img, err := imaging.Decode(originalFile)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	thumbsDir := filepath.Join(s.root, "thumbs")
	if err := os.MkdirAll(thumbsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create thumbs directory: %w", err)
	}

	basename := strings.TrimSuffix(name, filepath.Ext(name))
	sizes := []int{1200, 600, 300}
	thumbnailPaths := make([]string, len(sizes))

	for i, width := range sizes {
		resized := imaging.Resize(img, width, 0, imaging.Lanczos)

		thumbFilename := fmt.Sprintf("%s_%dpx.webp", basename, width)
		thumbPath := filepath.Join(thumbsDir, thumbFilename)

		if err := webp.Save(thumbPath, resized, &webp.Options{Quality: 85}); err != nil {
			for j := 0; j < i; j++ {
				os.Remove(thumbnailPaths[j])
			}
			return nil, fmt.Errorf("failed to save WebP thumbnail %s: %w", thumbFilename, err)
		}

		thumbnailPaths[i] = thumbPath
	}

	return thumbnailPaths, nil
}
