package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxMediaSize = 50 << 20 // 50 MB, audio and video included
	MediaPath    = "uploads/media"
)

var mediaKinds = map[string]string{
	".jpg":  "image",
	".jpeg": "image",
	".png":  "image",
	".gif":  "image",
	".webp": "image",
	".mp4":  "video",
	".webm": "video",
	".mp3":  "audio",
	".wav":  "audio",
	".ogg":  "audio",
}

// SaveMedia stores an uploaded file and returns its URL path and media kind.
func SaveMedia(file multipart.File, header *multipart.FileHeader) (string, string, error) {
	if header.Size > MaxMediaSize {
		return "", "", fmt.Errorf("file size exceeds maximum limit of %d MB", MaxMediaSize/(1<<20))
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	kind, ok := mediaKinds[ext]
	if !ok {
		return "", "", fmt.Errorf("invalid file type: %s", ext)
	}

	if err := os.MkdirAll(MediaPath, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create upload directory: %v", err)
	}

	filename := fmt.Sprintf("%s-%s%s",
		time.Now().Format("20060102"),
		uuid.New().String(),
		ext,
	)
	filePath := filepath.Join(MediaPath, filename)

	dst, err := os.Create(filePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create file: %v", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", "", fmt.Errorf("failed to save file: %v", err)
	}

	return fmt.Sprintf("/uploads/media/%s", filename), kind, nil
}

func DeleteMedia(mediaURL string) error {
	filename := filepath.Base(mediaURL)
	filePath := filepath.Join(MediaPath, filename)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(filePath)
}
