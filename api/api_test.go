package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/config"
	"github.com/provideplatform/counter/counter"
	"github.com/provideplatform/counter/env"
	"github.com/provideplatform/counter/simulator"
	"github.com/provideplatform/counter/store"
	storage "github.com/provideplatform/counter/store/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) (*gin.Engine, *Service) {
	gin.SetMode(gin.TestMode)

	contract := counter.NewContract(counter.NewWitnesses())
	sim := simulator.New(config.NetworkIDUndeployed, contract)

	ps, err := (&store.Store{
		Name:     common.StringOrNil(config.PrivateStateStoreName),
		Provider: common.StringOrNil(storage.StoreProviderMemory),
	}).Open(env.Server())
	require.NoError(t, err)

	p, err := sim.Providers(context.Background(), ps)
	require.NoError(t, err)

	cfg, err := config.Resolve(env.Server(), config.ProfileStandalone, t.TempDir())
	require.NoError(t, err)

	svc := NewService(cfg, contract, p, nil)
	t.Cleanup(svc.Close)

	r := gin.New()
	InstallAPI(r, svc)
	return r, svc
}

func do(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, r *gin.Engine, body interface{}) *sessionResponse {
	w := do(r, http.MethodPost, "/api/v1/sessions", body)
	require.Contains(t, []int{200, 201}, w.Code, w.Body.String())

	resp := &sessionResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), resp))
	return resp
}

func TestStatus(t *testing.T) {
	r, _ := testRouter(t)
	assert.Equal(t, 204, do(r, http.MethodGet, "/status", nil).Code)
}

func TestConfig(t *testing.T) {
	r, _ := testRouter(t)
	w := do(r, http.MethodGet, "/api/v1/config", nil)
	require.Equal(t, 200, w.Code)

	cfg := &config.Config{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), cfg))
	assert.Equal(t, config.ProfileStandalone, cfg.Profile)
	assert.Equal(t, config.NetworkIDUndeployed, cfg.NetworkID)
}

func TestSessionLifecycle(t *testing.T) {
	r, _ := testRouter(t)

	deployed := createSession(t, r, nil)
	assert.NotEmpty(t, deployed.ID)
	assert.NotEmpty(t, deployed.TxID)

	path := "/api/v1/sessions/" + deployed.ID
	w := do(r, http.MethodGet, path, nil)
	require.Equal(t, 200, w.Code)
	info := &counter.CounterInfo{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), info))
	assert.Equal(t, uint64(0), info.Value)
	assert.True(t, info.Found)

	w = do(r, http.MethodPost, path+"/increment", nil)
	require.Equal(t, 200, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/v1/contracts/"+string(deployed.Address), nil)
	require.Equal(t, 200, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), info))
	assert.Equal(t, uint64(1), info.Value)

	address := string(deployed.Address)
	joined := createSession(t, r, &sessionRequest{Address: &address})
	assert.Equal(t, deployed.Address, joined.Address)
	assert.Empty(t, joined.TxID)

	assert.Equal(t, 204, do(r, http.MethodDelete, path, nil).Code)
	assert.Equal(t, 404, do(r, http.MethodGet, path, nil).Code)
}

func TestSessionErrors(t *testing.T) {
	r, _ := testRouter(t)

	assert.Equal(t, 400, do(r, http.MethodGet, "/api/v1/sessions/not-a-uuid", nil).Code)

	w := do(r, http.MethodGet, "/api/v1/contracts/"+strings.Repeat("ab", 32), nil)
	assert.Equal(t, 404, w.Code)
	assert.Contains(t, w.Body.String(), "contract not found")

	w = do(r, http.MethodGet, "/status", nil)
	assert.Equal(t, 204, w.Code)
	assert.Empty(t, w.Body.String())

	missing := strings.Repeat("cd", 32)
	w = do(r, http.MethodPost, "/api/v1/sessions", &sessionRequest{Address: &missing})
	assert.Equal(t, 404, w.Code, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, 422, rec.Code)
}

func TestCredentialVerification(t *testing.T) {
	r, _ := testRouter(t)
	session := createSession(t, r, nil)
	path := "/api/v1/sessions/" + session.ID

	w := do(r, http.MethodGet, path+"/verification", nil)
	assert.Equal(t, 422, w.Code)
	assert.Contains(t, w.Body.String(), "No identity found in private state")

	w = do(r, http.MethodPut, path+"/credential", &credentialRequest{FirstName: "alice", LastName: "liddell", BirthDate: "06/01/1990"})
	assert.Equal(t, 422, w.Code)

	w = do(r, http.MethodPut, path+"/credential", &credentialRequest{FirstName: "alice", LastName: "liddell", BirthDate: "1990-06-01"})
	require.Equal(t, 204, w.Code, w.Body.String())

	w = do(r, http.MethodGet, path+"/verification", nil)
	require.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"verified":true}`, w.Body.String())

	w = do(r, http.MethodPost, path+"/verification/proof", nil)
	assert.Equal(t, 501, w.Code)
}

func TestStateStream(t *testing.T) {
	r, _ := testRouter(t)
	session := createSession(t, r, nil)

	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/sessions/"+session.ID+"/state", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") {
			event = strings.TrimPrefix(line, "event:")
		}
		if strings.HasPrefix(line, "data:") {
			data = strings.TrimPrefix(line, "data:")
			break
		}
	}

	assert.Equal(t, "state", event)
	update := &counter.CounterState{}
	require.NoError(t, json.Unmarshal([]byte(data), update))
	assert.Equal(t, session.Address, update.Address)
	assert.Equal(t, uint64(0), update.Value)
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, 422, statusForError(common.NewError(common.ErrorKindConfiguration, "deploy", "", "bad", nil)))
	assert.Equal(t, 409, statusForError(common.NewError(common.ErrorKindCompatibility, "connect", "", "bad", nil)))
	assert.Equal(t, 502, statusForError(common.NewError(common.ErrorKindConnectivity, "read", "", "bad", nil)))
	assert.Equal(t, 404, statusForError(common.NewError(common.ErrorKindExistence, "read", "", "bad", nil)))
	assert.Equal(t, 500, statusForError(context.Canceled))
}
