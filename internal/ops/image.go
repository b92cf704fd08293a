package ops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/tweetsched/internal/errors"
	"github.com/hpungsan/tweetsched/internal/llm"
	"github.com/hpungsan/tweetsched/internal/vision"
)

// MaxImageBytes caps a single screenshot read from disk.
const MaxImageBytes = 20 << 20

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

// LoadImage reads a screenshot from a local path for the vision model.
// It checks:
// 1. Path traversal (.. sequences)
// 2. Extension (png, jpg, jpeg, gif or webp)
// 3. Symlinks (the file itself must not be one)
// 4. Size (at most MaxImageBytes, and not empty)
func LoadImage(path string) (llm.Image, error) {
	if strings.TrimSpace(path) == "" {
		return llm.Image{}, errors.NewInvalidRequest("image path is required")
	}
	if containsTraversal(path) {
		return llm.Image{}, errors.NewInvalidRequest("image path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if !imageExts[strings.ToLower(filepath.Ext(cleaned))] {
		return llm.Image{}, errors.NewInvalidRequest("image must be a .png, .jpg, .jpeg, .gif or .webp file").
			WithDetail("path", path)
	}

	info, err := os.Lstat(cleaned)
	if err != nil {
		if os.IsNotExist(err) {
			return llm.Image{}, errors.NewInvalidRequest("image not found").WithDetail("path", path)
		}
		return llm.Image{}, errors.NewInternal(err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return llm.Image{}, errors.NewInvalidRequest("image path must not be a symlink").WithDetail("path", path)
	}
	if !info.Mode().IsRegular() {
		return llm.Image{}, errors.NewInvalidRequest("image path must be a regular file").WithDetail("path", path)
	}
	if info.Size() == 0 || info.Size() > MaxImageBytes {
		return llm.Image{}, errors.NewInvalidRequest(
			fmt.Sprintf("image must be between 1 and %d bytes", MaxImageBytes)).WithDetail("path", path)
	}

	f, err := openFileNoFollowRead(cleaned)
	if err != nil {
		return llm.Image{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
	if err != nil {
		return llm.Image{}, errors.NewInternal(fmt.Errorf("read image: %w", err))
	}
	return llm.Image{Data: data, MIMEType: vision.DetectMIME(data)}, nil
}

// LoadImages reads every path with LoadImage, stopping at the first failure.
func LoadImages(paths []string) ([]llm.Image, error) {
	images := make([]llm.Image, 0, len(paths))
	for _, p := range paths {
		img, err := LoadImage(p)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// containsTraversal checks if path contains ".." directory traversal.
func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	// Also check for forward slashes on all platforms (e.g., user input)
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}
