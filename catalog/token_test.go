package catalog

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sharingd/sharingd"
)

func TestPageTokenRoundTrip(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	token := encodePageToken(time.Now(), id)

	got, err := decodePageToken(token)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestDecodePageTokenRejectsMalformed(t *testing.T) {
	t.Parallel()

	bad := []string{
		"",
		"not base64 at all!!",
		base64.RawURLEncoding.EncodeToString([]byte("v1&123")),
		base64.RawURLEncoding.EncodeToString([]byte("v2&123&" + uuid.NewString())),
		base64.RawURLEncoding.EncodeToString([]byte("v1&abc&" + uuid.NewString())),
		base64.RawURLEncoding.EncodeToString([]byte("v1&123&not-a-uuid")),
		// a raw uuid is a valid cursor for the in-memory backend, not here
		uuid.NewString(),
	}
	for _, token := range bad {
		_, err := decodePageToken(token)
		require.ErrorIs(t, err, sharingd.ErrInvalidPageToken, "token %q", token)
	}
}
