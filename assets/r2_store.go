package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// objectAPI is the subset of *s3.Client the store uses.
type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// R2Store keeps assets in a Cloudflare R2 bucket, one key prefix per namespace.
type R2Store struct {
	client   objectAPI
	bucket   string
	prefixes map[Namespace]string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	OriginalsPrefix string
	TeasersPrefix   string
}

func NewR2Store(ctx context.Context, cfg R2Config) (*R2Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
	})
	return newR2Store(client, cfg.Bucket, cfg.OriginalsPrefix, cfg.TeasersPrefix), nil
}

func newR2Store(client objectAPI, bucket, originalsPrefix, teasersPrefix string) *R2Store {
	return &R2Store{
		client: client,
		bucket: bucket,
		prefixes: map[Namespace]string{
			Originals: strings.Trim(originalsPrefix, "/") + "/",
			Teasers:   strings.Trim(teasersPrefix, "/") + "/",
		},
	}
}

func (s *R2Store) key(ns Namespace, ref string) (string, error) {
	prefix, ok := s.prefixes[ns]
	if !ok {
		return "", fmt.Errorf("unknown namespace %q", ns)
	}
	clean := path.Clean("/" + ref)
	if ref == "" || clean == "/" {
		return "", fmt.Errorf("empty image ref")
	}
	return prefix + strings.TrimPrefix(clean, "/"), nil
}

func (s *R2Store) Open(ctx context.Context, ns Namespace, ref string) (io.ReadCloser, error) {
	key, err := s.key(ns, ref)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%s/%s: %w", ns, ref, ErrAssetNotFound)
		}
		return nil, fmt.Errorf("failed to fetch %s from R2: %w", key, err)
	}
	return out.Body, nil
}

func (s *R2Store) Save(ctx context.Context, ns Namespace, ref string, body io.Reader, contentType string) error {
	key, err := s.key(ns, ref)
	if err != nil {
		return err
	}

	// PutObject needs a seekable body to compute the payload checksum.
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, body); err != nil {
		return fmt.Errorf("failed to read asset: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to R2: %w", err)
	}
	return nil
}

func (s *R2Store) List(ctx context.Context, ns Namespace) ([]string, error) {
	prefix, ok := s.prefixes[ns]
	if !ok {
		return nil, fmt.Errorf("unknown namespace %q", ns)
	}

	var refs []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list R2 objects: %w", err)
		}
		for _, obj := range page.Contents {
			ref := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if ref == "" || strings.HasSuffix(ref, "/") {
				continue
			}
			refs = append(refs, ref)
		}
	}
	sort.Strings(refs)
	return refs, nil
}
