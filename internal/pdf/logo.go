package pdf

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
)

const maxLogoBytes = 2 << 20

// LogoLoader fetches the business logo.
type LogoLoader interface {
	LoadLogo(ctx context.Context) ([]byte, error)
}

// FileLogoLoader reads the logo from the local filesystem.
type FileLogoLoader struct {
	Path string
}

// LoadLogo implements LogoLoader.
func (l FileLogoLoader) LoadLogo(_ context.Context) ([]byte, error) {
	info, err := os.Stat(l.Path)
	if err != nil {
		return nil, fmt.Errorf("logo %s: %w", l.Path, err)
	}
	if info.IsDir() || info.Size() == 0 || info.Size() > maxLogoBytes {
		return nil, fmt.Errorf("logo %s: unusable file (%d bytes)", l.Path, info.Size())
	}
	return os.ReadFile(l.Path)
}

// ObjectDownloader is the slice of the storage service the object loader needs.
type ObjectDownloader interface {
	DownloadFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error)
}

// ObjectLogoLoader reads the logo from object storage.
type ObjectLogoLoader struct {
	Storage ObjectDownloader
	Bucket  string
	Key     string
}

// LoadLogo implements LogoLoader.
func (l ObjectLogoLoader) LoadLogo(ctx context.Context) ([]byte, error) {
	reader, err := l.Storage.DownloadFile(ctx, l.Bucket, l.Key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(io.LimitReader(reader, maxLogoBytes))
}

type logoImage struct {
	bytes []byte
	ext   extension.Type
}

// decodeLogo accepts PNG and JPEG only; anything else is treated as missing.
func decodeLogo(raw []byte) (*logoImage, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("logo is empty")
	}
	switch http.DetectContentType(raw) {
	case "image/png":
		return &logoImage{bytes: raw, ext: extension.Png}, nil
	case "image/jpeg":
		return &logoImage{bytes: raw, ext: extension.Jpg}, nil
	default:
		return nil, fmt.Errorf("logo has unsupported content type %s", http.DetectContentType(raw))
	}
}
