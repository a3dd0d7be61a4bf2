package sharing

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"go.uber.org/zap"

	"github.com/sharingd/sharingd"
	"github.com/sharingd/sharingd/authorizer"
	"github.com/sharingd/sharingd/kit/platform/errors"
)

// Authenticator establishes the caller identity for a request. The actual
// mechanism (bearer token, mTLS, ...) lives outside this core; the resolved
// principal is passed through to policy checks opaquely.
type Authenticator interface {
	Authenticate(r *http.Request) (sharingd.Principal, error)
}

// SharingHandler exposes the discovery endpoints over HTTP.
type SharingHandler struct {
	chi.Router
	log   *zap.Logger
	svc   sharingd.SharingService
	authn Authenticator
}

// NewHTTPSharingHandler constructs the discovery router.
func NewHTTPSharingHandler(log *zap.Logger, svc sharingd.SharingService, authn Authenticator) *SharingHandler {
	h := &SharingHandler{
		log:   log,
		svc:   svc,
		authn: authn,
	}

	r := chi.NewRouter()
	r.Use(h.withPrincipal)
	r.Get("/shares", h.handleListShares)
	r.Get("/shares/{share}", h.handleGetShare)
	r.Get("/shares/{share}/schemas", h.handleListSchemas)
	r.Get("/shares/{share}/schemas/{schema}/tables", h.handleListSchemaTables)
	r.Get("/shares/{share}/all-tables", h.handleListShareTables)

	h.Router = r
	return h
}

// withPrincipal authenticates the request and installs the principal on the
// context for downstream policy checks.
func (h *SharingHandler) withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := h.authn.Authenticate(r)
		if err != nil {
			h.err(w, r, &errors.Error{
				Code: errors.EUnauthorized,
				Msg:  "unable to authenticate request",
				Err:  err,
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(authorizer.WithPrincipal(r.Context(), principal)))
	})
}

// listOptions reads pagination parameters off the query string. The page
// token round-trips verbatim; it is opaque to this layer.
func listOptions(r *http.Request) (sharingd.ListOptions, error) {
	opts := sharingd.ListOptions{
		PageToken: r.URL.Query().Get("pageToken"),
	}
	if raw := r.URL.Query().Get("maxResults"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return opts, &errors.Error{
				Code: errors.EInvalid,
				Msg:  "maxResults must be a non-negative integer",
			}
		}
		opts.MaxResults = n
	}
	return opts, nil
}

type listResponse struct {
	Items         interface{} `json:"items"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

func (h *SharingHandler) handleListShares(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		h.err(w, r, err)
		return
	}

	shares, next, err := h.svc.ListShares(r.Context(), opts)
	if err != nil {
		h.err(w, r, err)
		return
	}
	h.respond(w, r, listResponse{Items: shares, NextPageToken: next})
}

func (h *SharingHandler) handleGetShare(w http.ResponseWriter, r *http.Request) {
	share, err := h.svc.GetShare(r.Context(), chi.URLParam(r, "share"))
	if err != nil {
		h.err(w, r, err)
		return
	}
	h.respond(w, r, share)
}

func (h *SharingHandler) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		h.err(w, r, err)
		return
	}

	schemas, next, err := h.svc.ListSchemas(r.Context(), chi.URLParam(r, "share"), opts)
	if err != nil {
		h.err(w, r, err)
		return
	}
	h.respond(w, r, listResponse{Items: schemas, NextPageToken: next})
}

func (h *SharingHandler) handleListSchemaTables(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		h.err(w, r, err)
		return
	}

	tables, next, err := h.svc.ListSchemaTables(r.Context(), chi.URLParam(r, "share"), chi.URLParam(r, "schema"), opts)
	if err != nil {
		h.err(w, r, err)
		return
	}
	h.respond(w, r, listResponse{Items: tables, NextPageToken: next})
}

func (h *SharingHandler) handleListShareTables(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		h.err(w, r, err)
		return
	}

	tables, next, err := h.svc.ListShareTables(r.Context(), chi.URLParam(r, "share"), opts)
	if err != nil {
		h.err(w, r, err)
		return
	}
	h.respond(w, r, listResponse{Items: tables, NextPageToken: next})
}

func (h *SharingHandler) respond(w http.ResponseWriter, r *http.Request, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("failed to encode discovery response", zap.Error(err), zap.String("path", r.URL.Path))
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *SharingHandler) err(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.ErrorCode(err)
	status := statusCode(code)
	if status >= http.StatusInternalServerError {
		h.log.Error("discovery request failed", zap.Error(err), zap.String("path", r.URL.Path))
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Code:    code,
		Message: errors.ErrorMessage(err),
	})
}

func statusCode(code string) int {
	switch code {
	case errors.ENotFound:
		return http.StatusNotFound
	case errors.EUnauthorized:
		return http.StatusForbidden
	case errors.EConflict:
		return http.StatusConflict
	case errors.EInvalid:
		return http.StatusBadRequest
	case errors.EUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
