package fsys

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/autoroute/pkg/discover"
)

// S3API is the subset of the S3 client the lister needs.
// *s3.Client satisfies it.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Lister lists route files stored in an S3 bucket.
//
// Keys are treated as slash-separated paths: "routes/api/users.toml" is the
// file "users" in the directory "routes/api". A directory exists as long as
// at least one key lives under it.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	lister := fsys.NewS3Lister(s3.NewFromConfig(cfg), "my-bucket")
//	d := discover.New(lister, discover.Config{Root: "routes"})
type S3Lister struct {
	client  S3API
	bucket  string
	timeout time.Duration
	opts    options
}

// NewS3Lister creates a lister over bucket.
func NewS3Lister(client S3API, bucket string, opts ...Option) *S3Lister {
	return &S3Lister{
		client:  client,
		bucket:  bucket,
		timeout: 30 * time.Second,
		opts:    buildOptions(opts),
	}
}

// WithTimeout sets the deadline for each listing or read.
func (l *S3Lister) WithTimeout(d time.Duration) *S3Lister {
	l.timeout = d
	return l
}

// ListFiles implements discover.FileLister.
func (l *S3Lister) ListFiles(dir string) ([]discover.File, error) {
	keys, _, err := l.list(dir)
	if err != nil {
		return nil, err
	}

	var out []discover.File
	for _, key := range keys {
		name := key[strings.LastIndex(key, "/")+1:]
		if name == "" || hidden(name) || !l.opts.accept(name) {
			continue
		}
		out = append(out, discover.File{Path: key, Name: BaseName(name)})
	}
	return out, nil
}

// ListDirectories implements discover.FileLister.
func (l *S3Lister) ListDirectories(dir string) ([]string, error) {
	_, prefixes, err := l.list(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		name := p[strings.LastIndex(p, "/")+1:]
		if name == "" || hidden(name) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ReadFile downloads the object stored under key.
func (l *S3Lister) ReadFile(key string) ([]byte, error) {
	ctx, cancel := l.context()
	defer cancel()

	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

// list returns the object keys and common prefixes directly under dir.
func (l *S3Lister) list(dir string) ([]string, []string, error) {
	prefix := strings.Trim(dir, "/")
	if prefix != "" && prefix != "." {
		prefix += "/"
	} else {
		prefix = ""
	}

	ctx, cancel := l.context()
	defer cancel()

	paginator := s3.NewListObjectsV2Paginator(l.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(l.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var keys, prefixes []string
	found := false
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("s3 list %s: %w", dir, err)
		}
		for _, obj := range page.Contents {
			found = true
			// Skip the zero-byte "folder" placeholder some tools create.
			if obj.Key != nil && *obj.Key != prefix {
				keys = append(keys, *obj.Key)
			}
		}
		for _, cp := range page.CommonPrefixes {
			found = true
			if cp.Prefix != nil {
				prefixes = append(prefixes, *cp.Prefix)
			}
		}
	}

	if !found {
		return nil, nil, &fs.PathError{Op: "list", Path: dir, Err: fs.ErrNotExist}
	}

	sort.Strings(keys)
	sort.Strings(prefixes)
	return keys, prefixes, nil
}

func (l *S3Lister) context() (context.Context, context.CancelFunc) {
	if l.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), l.timeout)
}
