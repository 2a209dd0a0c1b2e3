package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fecgate/internal/kyc"
	kycmemory "fecgate/internal/kyc/store/memory"
	"fecgate/pkg/testutil"
)

func newKYCRouter(t *testing.T) chi.Router {
	t.Helper()
	svc := kyc.NewService(kycmemory.New())
	router := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(router)
	return router
}

func TestVerificationLifecycle(t *testing.T) {
	router := newKYCRouter(t)

	testutil.Given(t, "an unknown contributor", func(t *testing.T) {
		rec := testutil.DoRequest(router,
			testutil.NewRequest(t, http.MethodGet, "/kyc/status/donor-lifecycle"))
		require.Equal(t, http.StatusOK, rec.Code)

		resp := testutil.DecodeResponse[StatusResponse](t, rec)
		assert.False(t, resp.Verified)
		assert.Nil(t, resp.VerifiedAt)
	})

	testutil.When(t, "the contributor passes verification", func(t *testing.T) {
		rec := testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPost, "/kyc/verify",
				map[string]string{"contributor_id": "donor-lifecycle"}))
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	testutil.Then(t, "status reports verified with a timestamp", func(t *testing.T) {
		rec := testutil.DoRequest(router,
			testutil.NewRequest(t, http.MethodGet, "/kyc/status/donor-lifecycle"))
		require.Equal(t, http.StatusOK, rec.Code)

		resp := testutil.DecodeResponse[StatusResponse](t, rec)
		assert.Equal(t, "donor-lifecycle", resp.ContributorID)
		assert.True(t, resp.Verified)
		require.NotNil(t, resp.VerifiedAt)
	})
}

func TestVerifyIsIdempotent(t *testing.T) {
	router := newKYCRouter(t)

	first := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{first, first.Add(48 * time.Hour)} {
		rec := testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPost, "/kyc/verify", map[string]any{
				"contributor_id": "donor-repeat",
				"verified_at":    at.Format(time.RFC3339),
			}))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec := testutil.DoRequest(router,
		testutil.NewRequest(t, http.MethodGet, "/kyc/status/donor-repeat"))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := testutil.DecodeResponse[StatusResponse](t, rec)
	require.NotNil(t, resp.VerifiedAt)
	assert.Equal(t, first, resp.VerifiedAt.UTC(), "first verification time wins")
}

func TestVerifyValidation(t *testing.T) {
	router := newKYCRouter(t)

	rec := testutil.DoRequest(router,
		testutil.NewJSONRequest(t, http.MethodPost, "/kyc/verify",
			map[string]string{"contributor_id": ""}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
