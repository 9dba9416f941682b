package minio

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// ObjectInfo describes one listed object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
}

// List returns all objects below prefix whose key ends with one of the
// given suffixes. No suffixes means every object.
func (m *Minio) List(ctx context.Context, prefix string, suffixes ...string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for obj := range m.api().ListObjects(ctx, m.cfg.Connection.BucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		if len(suffixes) > 0 && !hasAnySuffix(obj.Key, suffixes) {
			continue
		}
		out = append(out, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ETag:         obj.ETag,
		})
	}
	return out, nil
}

// Put uploads reader under objectKey. size may be -1 when unknown.
func (m *Minio) Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (int64, error) {
	if size < 0 {
		size = unknownSize
	}
	info, err := m.api().PutObject(ctx, m.cfg.Connection.BucketName, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to put object %q: %w", objectKey, err)
	}
	return info.Size, nil
}

// Get downloads an object into memory. Objects above
// DownloadConfig.MaxObjectSize are rejected.
func (m *Minio) Get(ctx context.Context, objectKey string) ([]byte, error) {
	reader, err := m.api().GetObject(ctx, m.cfg.Connection.BucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			m.logger.Error("failed to close object reader", err, map[string]interface{}{"key": objectKey})
		}
	}()

	objectInfo, err := reader.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get object stats: %w", err)
	}

	size := objectInfo.Size
	if size > m.cfg.DownloadConfig.MaxObjectSize {
		return nil, fmt.Errorf("object %q is %d bytes, limit is %d", objectKey, size, m.cfg.DownloadConfig.MaxObjectSize)
	}

	if size < m.cfg.DownloadConfig.SmallFileThreshold {
		data := make([]byte, size)
		if _, err := io.ReadFull(reader, data); err != nil {
			return nil, fmt.Errorf("failed to read object data: %w", err)
		}
		return data, nil
	}

	buffer := m.bufferPool.Get()
	defer m.bufferPool.Put(buffer)
	buffer.Grow(int(size))

	if _, err := io.Copy(buffer, reader); err != nil {
		return nil, fmt.Errorf("failed to read large object: %w", err)
	}

	result := make([]byte, buffer.Len())
	copy(result, buffer.Bytes())
	return result, nil
}

// Delete removes an object. Removing a missing object is not an error.
func (m *Minio) Delete(ctx context.Context, objectKey string) error {
	return m.api().RemoveObject(ctx, m.cfg.Connection.BucketName, objectKey, minio.RemoveObjectOptions{})
}

func hasAnySuffix(key string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(key, s) {
			return true
		}
	}
	return false
}
