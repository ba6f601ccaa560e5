package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forkful/backend/config"
)

// maxImageBytes bounds an uploaded recipe image.
const maxImageBytes = 5 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageService stores recipe images in S3 under recipe-images/ and hands
// back the public URL. A nil S3 configuration disables uploads.
type ImageService struct {
	s3Config *config.S3Config
	logger   *zap.Logger
}

func NewImageService(s3Config *config.S3Config, logger *zap.Logger) *ImageService {
	return &ImageService{s3Config: s3Config, logger: logger}
}

// Enabled reports whether image storage is configured.
func (s *ImageService) Enabled() bool {
	return s.s3Config != nil
}

// UploadRecipeImage validates and stores one image, returning its public
// URL. The key is random so uploads never collide or overwrite.
func (s *ImageService) UploadRecipeImage(ctx context.Context, imageData []byte, contentType string) (string, error) {
	if !s.Enabled() {
		return "", &ValidationError{Fields: []string{"image_storage_not_configured"}}
	}
	if len(imageData) == 0 || len(imageData) > maxImageBytes {
		return "", &ValidationError{Fields: []string{"image"}}
	}
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return "", &ValidationError{Fields: []string{"content_type"}}
	}

	fileName := fmt.Sprintf("recipe-images/%s%s", uuid.New().String(), ext)

	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(fileName),
		Body:        bytes.NewReader(imageData),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, fileName)
	s.logger.Info("recipe image uploaded", zap.String("url", publicURL))
	return publicURL, nil
}
