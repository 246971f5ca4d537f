package storage

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"io.winapps.traveljournal/internal/metrics"
)

const remoteMarker = "upload"

// remoteObjectPattern captures the object identifier between the last
// /upload/ and the final extension, skipping an optional v<digits> version
// segment. The public base may itself contain an upload segment.
var remoteObjectPattern = regexp.MustCompile(`^.*/upload/(?:v\d+/)?(.+)\.([A-Za-z0-9]+)$`)

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Options struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	UsePathStyle  bool
}

// publicBase is where uploaded objects resolve for clients.
func (o S3Options) publicBase() string {
	if o.PublicBaseURL != "" {
		return strings.TrimRight(o.PublicBaseURL, "/")
	}
	if o.Endpoint != "" {
		return strings.TrimRight(o.Endpoint, "/") + "/" + o.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", o.Bucket, o.Region)
}

type S3Store struct {
	uploader   objectUploader
	deleter    objectDeleter
	bucket     string
	publicBase string
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.SugaredLogger
	now        func() time.Time
}

func NewS3Store(ctx context.Context, opts S3Options, logger *zap.SugaredLogger) (*S3Store, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return newS3Store(manager.NewUploader(client), client, opts, logger), nil
}

func newS3Store(up objectUploader, del objectDeleter, opts S3Options, logger *zap.SugaredLogger) *S3Store {
	st := gobreaker.Settings{
		Name:        "s3",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnw("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &S3Store{
		uploader:   up,
		deleter:    del,
		bucket:     opts.Bucket,
		publicBase: opts.publicBase(),
		breaker:    gobreaker.NewCircuitBreaker(st),
		logger:     logger,
		now:        time.Now,
	}
}

// folderFor groups objects by coarse content type.
func folderFor(u Upload) string {
	ct := baseContentType(u.ContentType)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return "images"
	case strings.HasPrefix(ct, "video/"):
		return "videos"
	}
	return "media"
}

func (s *S3Store) Save(ctx context.Context, u Upload) (string, error) {
	ext := storedExt(u)
	name := fmt.Sprintf("%d-%d", s.now().UnixMilli(), rand.IntN(1_000_000_000))
	key := fmt.Sprintf("%s/%s/%s%s", remoteMarker, folderFor(u), name, ext)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(u.Data),
	}
	if u.ContentType != "" {
		input.ContentType = aws.String(u.ContentType)
	}

	_, err := s.breaker.Execute(func() (interface{}, error) {
		return s.uploader.Upload(ctx, input)
	})
	if err != nil {
		metrics.BlobUploads.WithLabelValues(BackendS3, metrics.ResultError).Inc()
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	metrics.BlobUploads.WithLabelValues(BackendS3, metrics.ResultOK).Inc()
	s.logger.Debugw("blob stored", "backend", BackendS3, "key", key, "bytes", u.Size())
	return s.publicBase + "/" + key, nil
}

// Delete removes the object a previously returned URL points at. URLs that do
// not carry the upload marker are not ours and are ignored.
func (s *S3Store) Delete(ctx context.Context, rawURL string) error {
	key, ok := objectKey(rawURL)
	if !ok {
		metrics.BlobDeletes.WithLabelValues(BackendS3, metrics.ResultRejected).Inc()
		s.logger.Debugw("remote delete skipped, url has no object identifier", "url", rawURL)
		return nil
	}

	_, err := s.breaker.Execute(func() (interface{}, error) {
		return s.deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
	})
	if err != nil {
		metrics.BlobDeletes.WithLabelValues(BackendS3, metrics.ResultError).Inc()
		return fmt.Errorf("delete %s: %w", key, err)
	}

	metrics.BlobDeletes.WithLabelValues(BackendS3, metrics.ResultOK).Inc()
	return nil
}

// ObjectID extracts the identifier between the last /upload/ marker and the final
// extension, e.g. "images/1700000000-42" for ".../upload/v3/images/1700000000-42.png".
func ObjectID(rawURL string) (id, ext string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", false
	}
	m := remoteObjectPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func objectKey(rawURL string) (string, bool) {
	id, ext, ok := ObjectID(rawURL)
	if !ok {
		return "", false
	}
	return remoteMarker + "/" + id + "." + ext, true
}
