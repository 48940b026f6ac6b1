package catalog

import (
	"fmt"
	"strings"
)

// ThumbnailMiss is wrapped in ErrNotFound when a thumbnail resolves to no
// record.
type ThumbnailMiss struct {
	SearchedURL   string
	NormalizedURL string
}

func (m *ThumbnailMiss) Error() string {
	return fmt.Sprintf("no file found for thumbnail %s", m.SearchedURL)
}

// DeleteMiss is wrapped in ErrNotFound when a delete request matches no
// record.
type DeleteMiss struct {
	URLs []string
	IDs  []string
}

func (m *DeleteMiss) Error() string {
	return fmt.Sprintf("no matching files found for deletion (urls: %s; ids: %s)",
		strings.Join(m.URLs, ", "), strings.Join(m.IDs, ", "))
}
