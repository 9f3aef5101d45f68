package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"google.golang.org/api/option"

	"github.com/minios-linux/sitetext/localefile"
)

// Sink receives an encoded bundle.
type Sink interface {
	Put(ctx context.Context, data []byte, contentType string) error
	// String describes the destination for messages.
	String() string
}

// Destination is a parsed --to argument.
type Destination struct {
	// Scheme is "file", "s3" or "gs".
	Scheme string
	// Bucket is empty for files.
	Bucket string
	// Path is the file path or object key.
	Path string
}

// ParseDestination accepts file:///path, a plain path, s3://bucket/key or
// gs://bucket/object.
func ParseDestination(raw string) (Destination, error) {
	if raw == "" {
		return Destination{}, fmt.Errorf("empty destination")
	}
	if !strings.Contains(raw, "://") {
		return Destination{Scheme: "file", Path: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Destination{}, fmt.Errorf("invalid destination %q: %w", raw, err)
	}
	switch u.Scheme {
	case "file":
		p := u.Path
		if u.Host != "" && u.Host != "localhost" {
			// file://relative/path
			p = u.Host + u.Path
		}
		if p == "" {
			return Destination{}, fmt.Errorf("invalid destination %q: missing path", raw)
		}
		return Destination{Scheme: "file", Path: p}, nil
	case "s3", "gs":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" || strings.HasSuffix(key, "/") {
			return Destination{}, fmt.Errorf("invalid destination %q: want %s://bucket/object", raw, u.Scheme)
		}
		return Destination{Scheme: u.Scheme, Bucket: u.Host, Path: key}, nil
	}
	return Destination{}, fmt.Errorf("unsupported destination scheme %q (valid: file, s3, gs)", u.Scheme)
}

// Ext returns the destination's file extension without the dot.
func (d Destination) Ext() string {
	return strings.TrimPrefix(filepath.Ext(d.Path), ".")
}

func (d Destination) String() string {
	if d.Scheme == "file" {
		return d.Path
	}
	return d.Scheme + "://" + d.Bucket + "/" + d.Path
}

// Open returns the sink for d, creating cloud clients from the ambient
// credentials (AWS_* variables and shared config for S3, application
// default credentials for GCS).
func Open(ctx context.Context, d Destination) (Sink, error) {
	switch d.Scheme {
	case "file":
		return &FileSink{Path: d.Path}, nil
	case "s3":
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := s3.NewFromConfig(cfg, func(o *s3.Options) {
			// S3-compatible services such as MinIO
			o.UsePathStyle = os.Getenv("SITETEXT_S3_PATH_STYLE") != ""
		})
		return &S3Sink{Client: client, Bucket: d.Bucket, Key: d.Path}, nil
	case "gs":
		client, err := storage.NewClient(ctx, gcsOptions(os.Getenv)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCS client: %w", err)
		}
		return &GCSSink{
			Bucket: d.Bucket,
			Object: d.Path,
			NewWriter: func(ctx context.Context) io.WriteCloser {
				return client.Bucket(d.Bucket).Object(d.Path).NewWriter(ctx)
			},
			close: client.Close,
		}, nil
	}
	return nil, fmt.Errorf("unsupported destination scheme %q", d.Scheme)
}

// gcsOptions points the client at SITETEXT_GCS_ENDPOINT when set, without
// authentication, for local emulators such as fake-gcs-server.
func gcsOptions(getenv func(string) string) []option.ClientOption {
	endpoint := getenv("SITETEXT_GCS_ENDPOINT")
	if endpoint == "" {
		return nil
	}
	return []option.ClientOption{option.WithEndpoint(endpoint), option.WithoutAuthentication()}
}

// ---------------------------------------------------------------------------
// Local file
// ---------------------------------------------------------------------------

// FileSink writes to a local file, replacing it atomically.
type FileSink struct {
	Path string
}

func (s *FileSink) String() string { return s.Path }

func (s *FileSink) Put(_ context.Context, data []byte, _ string) error {
	return localefile.WriteFileAtomic(s.Path, data, 0o644)
}

// ---------------------------------------------------------------------------
// Amazon S3
// ---------------------------------------------------------------------------

// S3API is the subset of the S3 client used by S3Sink.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads to an S3 object.
type S3Sink struct {
	Client S3API
	Bucket string
	Key    string
}

func (s *S3Sink) String() string { return "s3://" + s.Bucket + "/" + s.Key }

func (s *S3Sink) Put(ctx context.Context, data []byte, contentType string) error {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(s.Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Google Cloud Storage
// ---------------------------------------------------------------------------

// GCSSink uploads to a GCS object.
type GCSSink struct {
	Bucket    string
	Object    string
	NewWriter func(ctx context.Context) io.WriteCloser
	close     func() error
}

func (s *GCSSink) String() string { return "gs://" + s.Bucket + "/" + s.Object }

func (s *GCSSink) Put(ctx context.Context, data []byte, contentType string) error {
	if s.close != nil {
		defer s.close()
	}
	w := s.NewWriter(ctx)
	if sw, ok := w.(*storage.Writer); ok {
		sw.ContentType = contentType
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		if closeErr := w.Close(); closeErr != nil {
			return fmt.Errorf("failed to write to GCS: %v, and failed to close writer: %w", err, closeErr)
		}
		return fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}
