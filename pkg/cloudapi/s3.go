package cloudapi

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectInfo describes one listed S3 object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// UploadBytes uploads data to bucket/key — grounded on
// s3_storage.go's Upload/UploadBytes.
func (c *Clients) UploadBytes(ctx context.Context, bucket, key string, data []byte) error {
	_, err := c.S3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return err
}

// UploadFile uploads the contents of reader to bucket/key.
func (c *Clients) UploadFile(ctx context.Context, bucket, key string, reader io.Reader) error {
	_, err := c.S3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   reader,
	})
	return err
}

// DownloadBytes fetches bucket/key in full.
func (c *Clients) DownloadBytes(ctx context.Context, bucket, key string) ([]byte, error) {
	result, err := c.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer result.Body.Close()
	return io.ReadAll(result.Body)
}

// ListObjects lists every object under prefix.
func (c *Clients) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(c.S3, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			objects = append(objects, ObjectInfo{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)})
		}
	}
	return objects, nil
}

// DownloadPrefix mirrors every object under prefix into localDir,
// the Runtime Agent's analogue of `aws s3 sync` for the workflow
// directory (§4.7 phase 3).
func (c *Clients) DownloadPrefix(ctx context.Context, bucket, prefix, localDir string) error {
	objects, err := c.ListObjects(ctx, bucket, prefix)
	if err != nil {
		return err
	}
	for _, obj := range objects {
		rel := strings.TrimPrefix(obj.Key, prefix)
		rel = strings.TrimPrefix(rel, "/")
		if rel == "" {
			continue
		}
		dest := filepath.Join(localDir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		data, err := c.DownloadBytes(ctx, bucket, obj.Key)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// UploadDir walks localDir and uploads every file under keyPrefix,
// skipping any path component that matches one of excludeNames — the
// `snakemake` subcommand's workflow sync, excluding the cache file,
// the config file, and VCS directories (§4.8, §12).
func (c *Clients) UploadDir(ctx context.Context, bucket, keyPrefix, localDir string, excludeNames []string) error {
	return filepath.Walk(localDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		if pathExcluded(rel, excludeNames) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		key := keyPrefix + filepath.ToSlash(rel)
		return c.UploadFile(ctx, bucket, key, f)
	})
}

// pathExcluded reports whether any component of rel matches a name
// in excludeNames.
func pathExcluded(rel string, excludeNames []string) bool {
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		for _, ex := range excludeNames {
			if part == ex {
				return true
			}
		}
	}
	return false
}
