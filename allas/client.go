// allas/client.go
package allas

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/geoharvest/stacsync/config"
)

// Client wraps the object storage connection used for the Sentinel-2
// archive. Buckets are resolved partly from the account listing and partly
// from project bucket lists shipped as CSV files.
type Client struct {
	api        *minio.Client
	publicBase string
	bucketCSVs []string
}

type bucketRow struct {
	Name string `csv:"bucket"`
}

// New creates the object storage client from the s3 configuration section.
func New(cfg config.S3Config) (*Client, error) {
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}
	return &Client{
		api:        api,
		publicBase: strings.TrimSuffix(cfg.PublicBaseURL, "/") + "/",
		bucketCSVs: cfg.BucketListCSVs,
	}, nil
}

// SentinelBuckets resolves the buckets holding Sentinel-2 products: the
// account buckets named Sentinel2* excluding segment buckets, plus the
// buckets listed in the configured project CSV files.
func (c *Client) SentinelBuckets(ctx context.Context) ([]string, error) {
	info, err := c.api.ListBuckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	var buckets []string
	for _, bucket := range info {
		if strings.HasPrefix(bucket.Name, "Sentinel2") && !strings.Contains(bucket.Name, "segments") {
			buckets = append(buckets, bucket.Name)
		}
	}

	for _, csvPath := range c.bucketCSVs {
		listed, err := readBucketCSV(csvPath)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, listed...)
	}

	log.Printf("Allas: %d Sentinel-2 buckets resolved.", len(buckets))
	return buckets, nil
}

// readBucketCSV reads a headerless one-column bucket list.
func readBucketCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket list %s: %w", path, err)
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f), "bucket")
	if err != nil {
		return nil, fmt.Errorf("failed to read bucket list %s: %w", path, err)
	}

	var buckets []string
	for {
		var row bucketRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to parse bucket list %s: %w", path, err)
		}
		if row.Name != "" {
			buckets = append(buckets, row.Name)
		}
	}
	return buckets, nil
}

// ListKeys lists every object key in a bucket.
func (c *Client) ListKeys(ctx context.Context, bucket string) ([]string, error) {
	var keys []string
	opts := minio.ListObjectsOptions{Recursive: true}
	for obj := range c.api.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list bucket %s: %w", bucket, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// ObjectContent downloads one object into memory. Used for the small SAFE
// metadata files only.
func (c *Client) ObjectContent(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := c.api.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s/%s: %w", bucket, key, err)
	}
	defer obj.Close()

	content, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, key, err)
	}
	return content, nil
}

// ObjectURL returns the public URL of an object.
func (c *Client) ObjectURL(bucket, key string) string {
	return c.publicBase + bucket + "/" + key
}
