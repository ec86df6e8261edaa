// Package evidence manages the photo/video evidence tree: per-device
// folders of uploaded blobs under an image root and a video root.
package evidence

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".webm": true,
}

// FileInfo describes one stored evidence file. DeviceID is nil for files
// sitting directly in the root rather than a device folder.
type FileInfo struct {
	Filename string  `json:"filename"`
	DeviceID *string `json:"deviceId"`
	URL      string  `json:"url"`
	Size     int64   `json:"size"`
	Modified string  `json:"modified"`

	modTime time.Time
}

// Archive stores and lists evidence blobs on the local filesystem.
type Archive struct {
	imageRoot string
	videoRoot string
	logger    *log.Logger
}

// NewArchive creates an Archive, ensuring both roots exist. Per-device
// subfolders are created on demand.
func NewArchive(imageRoot, videoRoot string, logger *log.Logger) (*Archive, error) {
	if err := os.MkdirAll(imageRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image root '%s': %w", imageRoot, err)
	}
	if err := os.MkdirAll(videoRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create video root '%s': %w", videoRoot, err)
	}
	return &Archive{imageRoot: imageRoot, videoRoot: videoRoot, logger: logger}, nil
}

// SaveImage stores an uploaded image, optionally under a device folder,
// and returns the generated filename.
func (a *Archive) SaveImage(deviceID, originalName string, src io.Reader) (string, error) {
	return a.save(a.imageRoot, "image", deviceID, extensionOf(originalName, ".jpg"), src)
}

// SaveVideo stores an uploaded video, optionally under a device folder,
// and returns the generated filename.
func (a *Archive) SaveVideo(deviceID, originalName string, src io.Reader) (string, error) {
	return a.save(a.videoRoot, "video", deviceID, extensionOf(originalName, ".mp4"), src)
}

// ListImages lists stored images, newest first. With a device ID only that
// device's folder is listed; otherwise root-level files and every device
// folder are included.
func (a *Archive) ListImages(deviceID string) ([]FileInfo, error) {
	return a.list(a.imageRoot, "/image/", imageExtensions, deviceID)
}

// ListVideos lists stored videos, newest first.
func (a *Archive) ListVideos(deviceID string) ([]FileInfo, error) {
	return a.list(a.videoRoot, "/video/", videoExtensions, deviceID)
}

// ImagePath resolves a serve path. The first segment of rest is treated as
// a device folder when a second segment follows, else as a flat filename.
func (a *Archive) ImagePath(rest string) string {
	return resolve(a.imageRoot, rest)
}

// VideoPath resolves a serve path, see ImagePath.
func (a *Archive) VideoPath(rest string) string {
	return resolve(a.videoRoot, rest)
}

// DeviceFolders returns the device subfolder names found under both roots.
// Enumeration errors contribute an empty set, never an error.
func (a *Archive) DeviceFolders() []string {
	seen := make(map[string]bool)
	for _, root := range []string{a.imageRoot, a.videoRoot} {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				seen[entry.Name()] = true
			}
		}
	}
	folders := make([]string, 0, len(seen))
	for name := range seen {
		folders = append(folders, name)
	}
	sort.Strings(folders)
	return folders
}

func (a *Archive) save(root, prefix, deviceID, ext string, src io.Reader) (string, error) {
	filename := fmt.Sprintf("%s_%s%s", prefix, time.Now().Format("20060102_150405"), ext)

	dir := root
	if deviceID != "" {
		dir = filepath.Join(root, deviceID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create device folder '%s': %w", dir, err)
		}
	}

	path := filepath.Join(dir, filename)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create evidence file '%s': %w", path, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write evidence file '%s': %w", path, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close evidence file '%s': %w", path, err)
	}

	a.logger.Printf("Evidence saved: %s", path)
	return filename, nil
}

func (a *Archive) list(root, urlPrefix string, exts map[string]bool, deviceID string) ([]FileInfo, error) {
	var files []FileInfo

	if deviceID != "" {
		target := filepath.Join(root, deviceID)
		entries, err := os.ReadDir(target)
		if err != nil {
			if os.IsNotExist(err) {
				return []FileInfo{}, nil
			}
			return nil, fmt.Errorf("failed to list device folder '%s': %w", target, err)
		}
		for _, entry := range entries {
			if info := describe(target, entry, exts, urlPrefix, &deviceID); info != nil {
				files = append(files, *info)
			}
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			if os.IsNotExist(err) {
				return []FileInfo{}, nil
			}
			return nil, fmt.Errorf("failed to list evidence root '%s': %w", root, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				device := entry.Name()
				sub, err := os.ReadDir(filepath.Join(root, device))
				if err != nil {
					continue
				}
				for _, subEntry := range sub {
					if info := describe(filepath.Join(root, device), subEntry, exts, urlPrefix, &device); info != nil {
						files = append(files, *info)
					}
				}
			} else if info := describe(root, entry, exts, urlPrefix, nil); info != nil {
				files = append(files, *info)
			}
		}
	}

	// Newest first by modification time.
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})
	if files == nil {
		files = []FileInfo{}
	}
	return files, nil
}

func describe(dir string, entry os.DirEntry, exts map[string]bool, urlPrefix string, deviceID *string) *FileInfo {
	if entry.IsDir() || !exts[strings.ToLower(filepath.Ext(entry.Name()))] {
		return nil
	}
	fi, err := entry.Info()
	if err != nil {
		return nil
	}

	url := urlPrefix + entry.Name()
	if deviceID != nil {
		url = urlPrefix + *deviceID + "/" + entry.Name()
	}
	return &FileInfo{
		Filename: entry.Name(),
		DeviceID: deviceID,
		URL:      url,
		Size:     fi.Size(),
		Modified: fi.ModTime().UTC().Format(time.RFC3339Nano),
		modTime:  fi.ModTime(),
	}
}

func resolve(root, rest string) string {
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) == 1 {
		return filepath.Join(root, parts[0])
	}
	return filepath.Join(root, parts[0], parts[1])
}

func extensionOf(name, fallback string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return fallback
	}
	return ext
}
