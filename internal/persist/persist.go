// Package persist stores the workspace between sessions.
package persist

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/tordrt/schemagen/internal/schema"
)

// Key is the storage key of the workspace
const Key = "schemagen:workspace"

// ErrQuotaExceeded is returned when a workspace does not fit the configured quota
var ErrQuotaExceeded = errors.New("storage quota exceeded")

func encode(ws *schema.Workspace, maxBytes int) ([]byte, error) {
	buf, err := json.Marshal(ws)
	if err != nil {
		return nil, fmt.Errorf("failed to encode workspace: %w", err)
	}
	if maxBytes > 0 && len(buf) > maxBytes {
		return nil, errors.Wrapf(ErrQuotaExceeded, "workspace is %d bytes, limit is %d", len(buf), maxBytes)
	}
	return buf, nil
}

func decode(buf []byte) (*schema.Workspace, error) {
	var ws schema.Workspace
	if err := json.Unmarshal(buf, &ws); err != nil {
		return nil, fmt.Errorf("failed to decode workspace: %w", err)
	}
	return &ws, nil
}
