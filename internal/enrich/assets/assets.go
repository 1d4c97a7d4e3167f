// Package assets mirrors catalog poster/backdrop URLs into MinIO object
// storage so the Enricher (C8) can serve a stable URL even if the
// upstream catalog's own image host becomes unreachable. Uses the usual
// client-construction-plus-bucket-exists-then-create MinIO service shape,
// applied to externally-fetched poster images instead of user-uploaded
// documents, and made best-effort: a mirror failure falls back to the
// original URL rather than failing the enrichment.
package assets

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/nyx-moment/moment/internal/cachekv"
	"github.com/nyx-moment/moment/internal/config"
)

// Mirror fetches an original asset URL once and re-serves it from MinIO
// thereafter, recording the mapping in a cachekv.Store so repeated
// Ensure calls for the same URL skip the network fetch entirely.
type Mirror struct {
	client     *minio.Client
	bucketName string
	publicBase string
	kv         cachekv.Store
	httpClient *http.Client
}

// New connects to MinIO and ensures bucketName exists.
func New(cfg config.MinIOConfig, publicBase string, kv cachekv.Store) (*Mirror, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("assets: initialize MinIO client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("assets: check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("assets: create bucket: %w", err)
		}
	}

	return &Mirror{
		client:     client,
		bucketName: cfg.Bucket,
		publicBase: strings.TrimSuffix(publicBase, "/"),
		kv:         kv,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// cachedAssetTTL bounds how long a mirrored-URL mapping is trusted before
// Ensure re-fetches the original, per the CachedAsset entity's
// fetched-at freshness contract.
const cachedAssetTTL = 7 * 24 * time.Hour

// Ensure returns a stable mirrored URL for originalURL, fetching and
// uploading it to MinIO on first use. On any failure it returns
// originalURL unchanged — mirroring is best-effort.
func (m *Mirror) Ensure(ctx context.Context, originalURL string) (string, error) {
	key := "assets:mirror:" + originalURL
	if raw, ok, err := m.kv.Get(ctx, key); err == nil && ok {
		return string(raw), nil
	}

	objectName := objectNameFor(originalURL)

	resp, err := m.httpClient.Get(originalURL)
	if err != nil {
		return originalURL, fmt.Errorf("fetch original asset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return originalURL, fmt.Errorf("fetch original asset: status %s", resp.Status)
	}

	_, err = m.client.PutObject(ctx, m.bucketName, objectName, resp.Body, resp.ContentLength, minio.PutObjectOptions{
		ContentType: resp.Header.Get("Content-Type"),
	})
	if err != nil {
		return originalURL, fmt.Errorf("upload to MinIO: %w", err)
	}

	mirrored := m.publicBase + "/" + objectName
	if setErr := m.kv.Set(ctx, key, []byte(mirrored), cachedAssetTTL); setErr != nil {
		return mirrored, nil
	}
	return mirrored, nil
}

func objectNameFor(originalURL string) string {
	trimmed := strings.TrimPrefix(originalURL, "https://")
	trimmed = strings.TrimPrefix(trimmed, "http://")
	return "posters/" + strings.ReplaceAll(trimmed, "/", "_")
}
