package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"foodgram/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	maxImageBytes = 10 << 20
	imagePrefix   = "recipes/images"
)

// ImageStore persists recipe images and returns the public URL stored on the
// recipe row.
type ImageStore interface {
	Save(ctx context.Context, data []byte, ext, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// DecodedImage is a recipe image normalised for storage.
type DecodedImage struct {
	Data        []byte
	Ext         string
	ContentType string
}

// DecodeImagePayload accepts a `data:image/...;base64,` URL (or bare base64),
// checks the content really is an image and shrinks it to maxEdge.
func DecodeImagePayload(payload string, maxEdge int) (*DecodedImage, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, fmt.Errorf("image is empty")
	}
	if strings.HasPrefix(payload, "data:") {
		comma := strings.Index(payload, ",")
		if comma < 0 || !strings.Contains(payload[:comma], ";base64") {
			return nil, fmt.Errorf("image must be a base64 data URL")
		}
		payload = payload[comma+1:]
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxImageBytes {
		return nil, fmt.Errorf("image is larger than %d MB", maxImageBytes>>20)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unsupported image: %w", err)
	}

	out := imaging.JPEG
	ext, ctype := ".jpg", "image/jpeg"
	if format == "png" || format == "gif" {
		out = imaging.PNG
		ext, ctype = ".png", "image/png"
	}

	b := img.Bounds()
	if maxEdge > 0 && (b.Dx() > maxEdge || b.Dy() > maxEdge) {
		img = imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	} else if format == "jpeg" {
		return &DecodedImage{Data: raw, Ext: ext, ContentType: ctype}, nil
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, out, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return &DecodedImage{Data: buf.Bytes(), Ext: ext, ContentType: ctype}, nil
}

func newImageKey(ext string) string {
	return path.Join(imagePrefix, uuid.NewString()+ext)
}

// LocalStore writes images under Root and serves them from BaseURL.
type LocalStore struct {
	Root    string
	BaseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(imagePrefix)), 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Save(ctx context.Context, data []byte, ext, contentType string) (string, error) {
	key := newImageKey(ext)
	if err := os.WriteFile(filepath.Join(s.Root, filepath.FromSlash(key)), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return s.BaseURL + "/" + key, nil
}

func (s *LocalStore) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.BaseURL+"/")
	if !ok || !strings.HasPrefix(key, imagePrefix+"/") || strings.Contains(key, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// S3Store puts images into an S3-compatible bucket (AWS, R2, MinIO).
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewS3Store(ctx context.Context, cfg config.ImageConfig) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	public := strings.TrimRight(cfg.S3PublicURL, "/")
	if public == "" {
		public = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}
	return &S3Store{client: client, bucket: cfg.S3Bucket, publicURL: public}, nil
}

func (s *S3Store) Save(ctx context.Context, data []byte, ext, contentType string) (string, error) {
	key := newImageKey(ext)
	obj, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	log.Printf("Image uploaded to %s: %s, ETag: %s", s.bucket, key, aws.ToString(obj.ETag))
	return s.publicURL + "/" + key, nil
}

func (s *S3Store) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.publicURL+"/")
	if !ok {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// NewImageStore picks the backend named by cfg.Storage.
func NewImageStore(ctx context.Context, cfg config.ImageConfig) (ImageStore, error) {
	if cfg.Storage == "s3" {
		return NewS3Store(ctx, cfg)
	}
	return NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
}
