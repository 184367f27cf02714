package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gopkg.in/yaml.v3"

	"github.com/faciam-dev/snapcopy/internal/snapcopy"
)

type Dest interface {
	Write(ctx context.Context, name string, data []byte) error
}

type LocalDir struct{ Path string }

func (l LocalDir) Write(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(l.Path, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(l.Path, name), data, 0o644)
}

// putObjectAPI is the subset of *s3.Client used by S3.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3 struct {
	Bucket string
	Prefix string
	client putObjectAPI
}

func NewS3(ctx context.Context, region, bucket, prefix string) (S3, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return S3{}, err
	}
	return S3{Bucket: bucket, Prefix: prefix, client: s3.NewFromConfig(cfg)}, nil
}

func (s S3) Write(ctx context.Context, name string, data []byte) error {
	key := path.Join(s.Prefix, name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/yaml"),
	})
	return err
}

// ParseDest resolves a REPORT_DEST value: "s3://bucket/prefix" or a local
// directory. An empty value yields a nil Dest.
func ParseDest(ctx context.Context, region, dest string) (Dest, error) {
	if dest == "" {
		return nil, nil
	}
	if !strings.HasPrefix(dest, "s3://") {
		return LocalDir{Path: dest}, nil
	}
	bucket, prefix := SplitS3(dest)
	if bucket == "" {
		return nil, errors.New("report: s3 destination without bucket")
	}
	return NewS3(ctx, region, bucket, prefix)
}

// SplitS3 splits "s3://bucket/some/prefix" into bucket and prefix.
func SplitS3(dest string) (bucket, prefix string) {
	p := strings.TrimPrefix(dest, "s3://")
	parts := strings.SplitN(p, "/", 2)
	bucket = parts[0]
	if len(parts) > 1 {
		prefix = strings.Trim(parts[1], "/")
	}
	return bucket, prefix
}

// Encode renders a run result as YAML.
func Encode(res *snapcopy.Result) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(res); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName is the report object name for res.
func FileName(res *snapcopy.Result) string {
	return fmt.Sprintf("snapcopy_%s_%s.yaml", res.Region, res.StartedAt.Format("2006-01-02T15-04-05"))
}

// Export encodes res and writes it to dest.
func Export(ctx context.Context, res *snapcopy.Result, dest Dest) error {
	data, err := Encode(res)
	if err != nil {
		return err
	}
	return dest.Write(ctx, FileName(res), data)
}
