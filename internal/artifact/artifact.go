// Package artifact persists exported prompt representations (json, yaml,
// markdown) as named artifacts, either to S3-compatible object storage or a
// local directory. The artifact store is optional: the pipeline works
// without one.
package artifact

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Store writes and reads exported artifacts keyed by prompt id + filename.
type Store interface {
	Put(ctx context.Context, promptID, name string, contentType string, body []byte) error
	Get(ctx context.Context, promptID, name string) ([]byte, error)
	List(ctx context.Context, promptID string) ([]string, error)
}

func objectKey(promptID, name string) string {
	return path.Join(strings.TrimSpace(promptID), strings.TrimSpace(name))
}

func checkKey(promptID, name string) error {
	if strings.TrimSpace(promptID) == "" {
		return fmt.Errorf("artifact: prompt id is required")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("artifact: name is required")
	}
	return nil
}
