// Package storage wraps the S3-compatible object store that holds media bytes.
// The service never moves bytes itself; it only presigns, checks presence and
// derives public URLs.
package storage

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// ObjectStore is the slice of object store behaviour the media lifecycle needs.
type ObjectStore interface {
	// PresignPut issues a URL the client can PUT bytes to until ttl elapses.
	PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Head reports whether key exists and its size. A missing object is
	// found=false with a nil error.
	Head(ctx context.Context, key string) (size int64, found bool, err error)
	// PublicURL returns the URL clients read the object from.
	PublicURL(key string) string
}

// JoinPublicURL appends an escaped object key to base.
func JoinPublicURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
