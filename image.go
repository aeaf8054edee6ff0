package smolagent

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
)

// ImageMimeType represents supported MIME types for images
type ImageMimeType string

const (
	ImageMimeTypeJPEG ImageMimeType = "image/jpeg"
	ImageMimeTypePNG  ImageMimeType = "image/png"
	ImageMimeTypeGIF  ImageMimeType = "image/gif"
	ImageMimeTypeWebP ImageMimeType = "image/webp"
)

// Image is an image attached to a task, produced by a tool, or observed by the agent.
type Image struct {
	data     []byte
	mimeType ImageMimeType
}

func (i Image) LogValue() slog.Value {
	return slog.StringValue(i.String())
}

func (i Image) String() string {
	return fmt.Sprintf("image (%d bytes, %s)", len(i.data), i.mimeType)
}

// Data returns the image data as bytes
func (i Image) Data() []byte {
	return i.data
}

// MimeType returns the MIME type of the image
func (i Image) MimeType() ImageMimeType {
	return i.mimeType
}

// Base64 returns the base64 encoded string of the image data
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.data)
}

// DataURL returns the image as an inline data URL, e.g. "data:image/png;base64,...".
func (i Image) DataURL() string {
	return "data:" + string(i.mimeType) + ";base64," + i.Base64()
}

type imageJSON struct {
	MimeType ImageMimeType `json:"mime_type"`
	Data     string        `json:"data"`
}

func (i Image) MarshalJSON() ([]byte, error) {
	return json.Marshal(imageJSON{MimeType: i.mimeType, Data: i.Base64()})
}

func (i *Image) UnmarshalJSON(data []byte) error {
	var v imageJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(v.Data)
	if err != nil {
		return goerr.Wrap(err, "failed to decode image data")
	}
	i.data = raw
	i.mimeType = v.MimeType
	return nil
}

// detectImageMimeType detects MIME type from image data
func detectImageMimeType(data []byte) (ImageMimeType, error) {
	if len(data) < 12 {
		return "", goerr.New("data too short to detect format")
	}

	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return ImageMimeTypeJPEG, nil
	}
	if bytes.Equal(data[:8], []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}) {
		return ImageMimeTypePNG, nil
	}
	if bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a")) {
		return ImageMimeTypeGIF, nil
	}
	if bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return ImageMimeTypeWebP, nil
	}

	return "", goerr.New("unsupported image format")
}

const maxImageSize = 20 * 1024 * 1024 // 20MB

// ImageOption is a functional option for creating Image
type ImageOption func(*imageConfig)

type imageConfig struct {
	mimeType ImageMimeType
}

// WithMimeType explicitly sets the MIME type and skips detection.
func WithMimeType(mimeType ImageMimeType) ImageOption {
	return func(cfg *imageConfig) {
		cfg.mimeType = mimeType
	}
}

// NewImage creates a new Image with automatic MIME type detection by default
func NewImage(data []byte, opts ...ImageOption) (Image, error) {
	cfg := &imageConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.mimeType == "" {
		detected, err := detectImageMimeType(data)
		if err != nil {
			return Image{}, err
		}
		cfg.mimeType = detected
	}

	if len(data) > maxImageSize {
		return Image{}, goerr.New("image size exceeds maximum limit", goerr.V("size", len(data)), goerr.V("max_size", maxImageSize))
	}

	return Image{data: data, mimeType: cfg.mimeType}, nil
}

// NewImageFromReader creates a new Image from io.Reader
func NewImageFromReader(r io.Reader, opts ...ImageOption) (Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Image{}, goerr.Wrap(err, "failed to read image data")
	}
	return NewImage(data, opts...)
}
