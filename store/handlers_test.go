package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/provideplatform/counter/state"
	"github.com/provideplatform/counter/store/providers/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestPrivateStateHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	s := NewPrivateStateStore("counter-private-state", memory.NewStore(nil))
	r := gin.New()
	InstallAPI(r, s)

	assert.Equal(t, 404, serve(r, http.MethodGet, "/api/v1/private-state/counterPrivateState").Code)

	subject, err := state.NewCredentialSubject("alice", "liddell", time.Date(1990, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "counterPrivateState", &state.PrivateState{Value: 2, CredentialSubject: subject}))

	w := serve(r, http.MethodGet, "/api/v1/private-state/counterPrivateState")
	require.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"value":2,"credential_subject":{"first_name":"alice","last_name":"liddell","birth_date":"1990-06-01"}}`, w.Body.String())

	assert.Equal(t, 204, serve(r, http.MethodDelete, "/api/v1/private-state/counterPrivateState").Code)
	assert.Equal(t, 404, serve(r, http.MethodGet, "/api/v1/private-state/counterPrivateState").Code)

	require.NoError(t, s.Set(ctx, "other", state.NewPrivateState()))
	assert.Equal(t, 204, serve(r, http.MethodDelete, "/api/v1/private-state").Code)
	assert.Equal(t, 404, serve(r, http.MethodGet, "/api/v1/private-state/other").Code)

	reserved := "/api/v1/private-state/signingKey:" + string(testAddress)
	w = serve(r, http.MethodGet, reserved)
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "may not start with signingKey:")
	assert.Equal(t, 400, serve(r, http.MethodDelete, reserved).Code)
}

func TestSigningKeyHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	s := NewPrivateStateStore("counter-private-state", memory.NewStore(nil))
	r := gin.New()
	InstallAPI(r, s)

	path := "/api/v1/signing-keys/" + string(testAddress)
	assert.Equal(t, 400, serve(r, http.MethodGet, "/api/v1/signing-keys/not-hex").Code)
	assert.Equal(t, 404, serve(r, http.MethodGet, path).Code)

	key, err := state.NewSigningKey()
	require.NoError(t, err)
	require.NoError(t, s.SetSigningKey(ctx, testAddress, key))

	w := serve(r, http.MethodGet, path)
	require.Equal(t, 200, w.Code)
	assert.NotContains(t, w.Body.String(), "key")

	assert.Equal(t, 204, serve(r, http.MethodDelete, path).Code)
	assert.Equal(t, 404, serve(r, http.MethodGet, path).Code)

	require.NoError(t, s.SetSigningKey(ctx, testAddress, key))
	assert.Equal(t, 204, serve(r, http.MethodDelete, "/api/v1/signing-keys").Code)
	assert.Equal(t, 404, serve(r, http.MethodGet, path).Code)
}
