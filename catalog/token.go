package catalog

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sharingd/sharingd"
)

// Page tokens are opaque to callers: base64 of "<version>&<micros>&<uuid>".
// The uuid is the keyset cursor; the creation timestamp rides along so a
// future format change can migrate tokens in flight. Tokens from this
// backend are never valid against any other backend.
const pageTokenVersion = "v1"

func encodePageToken(createdAt time.Time, id uuid.UUID) string {
	raw := fmt.Sprintf("%s&%d&%s", pageTokenVersion, createdAt.UnixMicro(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodePageToken(token string) (uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return uuid.Nil, sharingd.ErrInvalidPageToken
	}

	parts := strings.Split(string(raw), "&")
	if len(parts) != 3 || parts[0] != pageTokenVersion {
		return uuid.Nil, sharingd.ErrInvalidPageToken
	}
	if _, err := strconv.ParseInt(parts[1], 10, 64); err != nil {
		return uuid.Nil, sharingd.ErrInvalidPageToken
	}

	id, err := uuid.Parse(parts[2])
	if err != nil {
		return uuid.Nil, sharingd.ErrInvalidPageToken
	}
	return id, nil
}
