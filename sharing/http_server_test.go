package sharing

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sharingd/sharingd"
	"github.com/sharingd/sharingd/authorizer"
	"github.com/sharingd/sharingd/inmem"
	"github.com/sharingd/sharingd/mock"
)

func newTestHandler(t *testing.T, raw sharingd.ResourceStore, policy sharingd.Policy) *SharingHandler {
	t.Helper()
	svc := NewService(zap.NewNop(), authorizer.NewResourceService(raw, policy))
	return NewHTTPSharingHandler(zap.NewNop(), svc, &mock.Authenticator{Principal: "partner"})
}

func TestHandlerListShares(t *testing.T) {
	t.Parallel()

	raw := inmem.NewResourceStore()
	seedShare(t, raw, "acme", map[string][]string{"sales": {"orders"}})
	h := newTestHandler(t, raw, sharingd.OpenPolicy{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shares", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var body struct {
		Items         []sharingd.Share `json:"items"`
		NextPageToken string           `json:"nextPageToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	require.Equal(t, "acme", body.Items[0].Name)
	require.Empty(t, body.NextPageToken)
}

func TestHandlerGetShare(t *testing.T) {
	t.Parallel()

	raw := inmem.NewResourceStore()
	seedShare(t, raw, "acme", nil)
	h := newTestHandler(t, raw, mock.NewPolicy())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shares/acme", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var share sharingd.Share
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &share))
	require.Equal(t, "acme", share.Name)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shares/ghost", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerDeniedShareIsForbidden(t *testing.T) {
	t.Parallel()

	raw := inmem.NewResourceStore()
	seedShare(t, raw, "acme", nil)
	h := newTestHandler(t, raw, denyNamePrefix(raw, "acme"))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shares/acme", nil))
	require.Equal(t, http.StatusForbidden, w.Code)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "unauthorized", body.Code)
}

func TestHandlerListSchemaTables(t *testing.T) {
	t.Parallel()

	raw := inmem.NewResourceStore()
	seedShare(t, raw, "acme", map[string][]string{"sales": {"orders", "customers"}})
	h := newTestHandler(t, raw, mock.NewPolicy())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shares/acme/schemas/sales/tables", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Items []sharingd.SharingTable `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
}

func TestHandlerBadMaxResults(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, inmem.NewResourceStore(), mock.NewPolicy())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shares?maxResults=bogus", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerAuthenticationFailure(t *testing.T) {
	t.Parallel()

	svc := NewService(zap.NewNop(), authorizer.NewResourceService(inmem.NewResourceStore(), mock.NewPolicy()))
	h := NewHTTPSharingHandler(zap.NewNop(), svc, &mock.Authenticator{
		Err: errors.New("bad token"),
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shares", nil))
	require.Equal(t, http.StatusForbidden, w.Code)
}
