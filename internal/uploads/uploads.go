// internal/uploads/uploads.go
//
// Presigned image uploads to an S3-compatible bucket.
//
// Context
// -------
// The dashboard never proxies image bytes through the API.  It asks for
// a presigned PUT URL, uploads directly to the bucket, and stores the
// resulting public URL on the product.  Objects are keyed under the
// tenant's schema name so one tenant can never guess or overwrite
// another tenant's files.  With no bucket configured the signer refuses
// every request instead of writing to a half-configured target.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	ErrNotConfigured      = errors.New("uploads: object storage is not configured")
	ErrUnsupportedContent = errors.New("uploads: content type must be an image")
)

// presignTTL bounds how long a returned PUT URL stays valid.
const presignTTL = 10 * time.Minute

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Settings carries the bucket coordinates from configuration.
type Settings struct {
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

func (s Settings) complete() bool {
	return s.Endpoint != "" && s.Bucket != "" && s.AccessKeyID != "" &&
		s.SecretAccessKey != "" && s.PublicBaseURL != ""
}

// Ticket is a one-shot upload grant returned to the dashboard.
type Ticket struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}

// Signer issues presigned PUT URLs.
type Signer struct {
	settings Settings
	presign  *s3.PresignClient
}

// NewSigner builds a Signer, or one that fails closed when storage is
// not fully configured.
func NewSigner(ctx context.Context, settings Settings) (*Signer, error) {
	s := &Signer{settings: settings}
	if !settings.complete() {
		return s, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			settings.AccessKeyID, settings.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("uploads: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(settings.Endpoint)
		o.UsePathStyle = true
	})
	s.presign = s3.NewPresignClient(client)
	return s, nil
}

// Enabled reports whether uploads can be served.
func (s *Signer) Enabled() bool {
	return s != nil && s.presign != nil
}

// Presign returns a PUT grant for one object under the tenant's prefix.
func (s *Signer) Presign(ctx context.Context, schemaName, contentType string) (*Ticket, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}
	ext, ok := allowedTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return nil, ErrUnsupportedContent
	}

	key := path.Join(schemaName, "products", uuid.NewString()+ext)
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.settings.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return nil, fmt.Errorf("uploads: presign: %w", err)
	}

	return &Ticket{
		UploadURL: req.URL,
		PublicURL: strings.TrimRight(s.settings.PublicBaseURL, "/") + "/" + key,
		Key:       key,
		ExpiresIn: int(presignTTL.Seconds()),
	}, nil
}
