package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxImageSize = 10 << 20 // 10 MB
	ImageDir     = "posts"
	MediaURL     = "/media/"
)

var (
	ErrImageTooLarge = errors.New("image exceeds the 10 MB limit")
	ErrNotAnImage    = errors.New("upload a valid image: the file is either not an image or corrupted")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// ImageStore keeps uploaded post images under Root.
type ImageStore struct {
	Root string
}

func NewImageStore(root string) *ImageStore {
	return &ImageStore{Root: root}
}

// SaveImage validates an uploaded image and returns its path relative to the media root.
func (s *ImageStore) SaveImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > MaxImageSize {
		return "", ErrImageTooLarge
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	ext, ok := imageExtensions[http.DetectContentType(head[:n])]
	if !ok {
		return "", ErrNotAnImage
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}

	dir := filepath.Join(s.Root, ImageDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%s%s",
		time.Now().Format("20060102"),
		uuid.New().String(),
		ext,
	)

	dst, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, MaxImageSize+1)); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return path.Join(ImageDir, filename), nil
}

// DeleteImage removes a stored image; missing files are not an error.
func (s *ImageStore) DeleteImage(relPath string) error {
	if relPath == "" {
		return nil
	}
	filePath := filepath.Join(s.Root, ImageDir, filepath.Base(relPath))
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(filePath)
}

// ImageURL is the public address of a stored image.
func ImageURL(relPath string) string {
	if relPath == "" {
		return ""
	}
	return MediaURL + strings.TrimPrefix(relPath, "/")
}
