package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/foodgram-project/backend/config"
)

// ImageService stores recipe images submitted as base64 payloads. Uploads
// go to S3 when a bucket is configured, otherwise to the local media
// directory served under mediaURL.
type ImageService struct {
	s3Config *config.S3Config
	mediaDir string
	mediaURL string
}

func NewImageService(s3Config *config.S3Config, mediaDir, mediaURL string) *ImageService {
	return &ImageService{
		s3Config: s3Config,
		mediaDir: mediaDir,
		mediaURL: mediaURL,
	}
}

// Store decodes a base64 image payload (optionally a data: URI) and writes
// it out, returning the URL the image is retrievable from. Decoding and
// storage happen synchronously within the request.
func (s *ImageService) Store(ctx context.Context, payload string) (string, error) {
	data, ext, err := decodeImagePayload(payload)
	if err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("recipes/image/%s%s", uuid.New().String(), ext)

	if s.s3Config != nil {
		return s.uploadToS3(ctx, data, fileName, ext)
	}
	return s.writeLocal(data, fileName)
}

func (s *ImageService) uploadToS3(ctx context.Context, data []byte, fileName, ext string) (string, error) {
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(fileName),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeFor(ext)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, fileName), nil
}

func (s *ImageService) writeLocal(data []byte, fileName string) (string, error) {
	path := filepath.Join(s.mediaDir, filepath.FromSlash(fileName))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return s.mediaURL + "/" + fileName, nil
}

// decodeImagePayload accepts both raw base64 and data:image/...;base64,
// URIs and returns the bytes with a file extension drawn from the MIME
// type (.png by default).
func decodeImagePayload(payload string) ([]byte, string, error) {
	ext := ".png"
	if strings.HasPrefix(payload, "data:") {
		semi := strings.Index(payload, ";base64,")
		if semi < 0 {
			return nil, "", fmt.Errorf("malformed data URI")
		}
		switch payload[len("data:"):semi] {
		case "image/jpeg", "image/jpg":
			ext = ".jpg"
		case "image/gif":
			ext = ".gif"
		case "image/webp":
			ext = ".webp"
		}
		payload = payload[semi+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 image payload: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image payload")
	}
	return data, ext, nil
}

func contentTypeFor(ext string) string {
	switch ext {
	case ".jpg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
