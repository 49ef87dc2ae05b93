package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"registrar/internal/platform/logger"
	"registrar/internal/voter/models"
	"registrar/internal/voter/service"
	"registrar/internal/voter/store"
	"registrar/pkg/secrets"
	"registrar/pkg/testutil"
)

// TestVoterLifecycle drives the full workflow over HTTP against the
// in-memory store.
func TestVoterLifecycle(t *testing.T) {
	svc, err := service.New(store.NewInMemory(), secrets.NewBcryptHasher(bcrypt.MinCost))
	require.NoError(t, err)
	router := chi.NewRouter()
	New(svc, logger.Discard(), nil).Register(router)

	in := models.VoterInput{Email: "dana@example.com", Name: "Dana Scully", Password: "trustno1", PasswordConfirm: "trustno1"}
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/v1/voter", in))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	created := testutil.UnmarshalResponse[models.VoterOutput](t, rr)
	path := fmt.Sprintf("/v1/voter/%d", created.ID)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/v1/voter", in))
	testutil.AssertValidationError(t, rr, service.MsgEmailRegistered)

	short := in
	short.Email = "al@example.com"
	short.Name = "Al"
	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/v1/voter", short))
	testutil.AssertValidationError(t, rr, service.MsgNameTooShort)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPut, path,
		models.VoterInput{Email: "dana@fbi.gov", Name: "Dana Katherine Scully"}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	updated := testutil.UnmarshalResponse[models.VoterOutput](t, rr)
	require.Equal(t, "dana@fbi.gov", updated.Email)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/v1/voter"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	all := testutil.UnmarshalResponse[[]models.VoterOutput](t, rr)
	require.Equal(t, []models.VoterOutput{*updated}, *all)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, path))
	testutil.AssertStatus(t, rr, http.StatusOK)
	deleted := testutil.UnmarshalResponse[models.GenericOutput](t, rr)
	require.Equal(t, service.MsgVoterDeleted, deleted.Message)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, path))
	testutil.AssertValidationError(t, rr, service.MsgVoterNotFound)
}
