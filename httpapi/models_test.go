package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/contenox/orchestrator/cloud"
	"github.com/contenox/orchestrator/controller"
	"github.com/contenox/orchestrator/httpapi"
	"github.com/contenox/orchestrator/orchestrator"
	"github.com/contenox/orchestrator/runearchive"
	"github.com/contenox/orchestrator/store"
	"github.com/contenox/orchestrator/tracker"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (context.Context, *httptest.Server) {
	t.Helper()
	ctx, s := store.SetupStore(t)
	registry := cloud.Registry{orchestrator.CloudDummy: cloud.NewDummy()}
	c := controller.New(s, registry, tracker.NoopTracker{})

	mux := http.NewServeMux()
	httpapi.AddModelRoutes(mux, c)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return ctx, srv
}

func TestCreateAndGetModel(t *testing.T) {
	_, srv := newServer(t)

	body, _ := json.Marshal(map[string]string{"name": "web", "cloud": "dummy"})
	resp, err := http.Post(srv.URL+"/api/v1/models", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created orchestrator.ProjectedModel
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.Equal(t, "web", created.Name)

	getResp, err := http.Get(srv.URL + "/api/v1/models/" + created.ID.String())
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var got orchestrator.ProjectedModel
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&got))
	require.Equal(t, created.ID, got.ID)
}

func TestGetUnknownModelReturns404(t *testing.T) {
	_, srv := newServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/models/00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateDuplicateNameReturns409(t *testing.T) {
	_, srv := newServer(t)

	body, _ := json.Marshal(map[string]string{"name": "dup", "cloud": "dummy"})
	resp1, err := http.Post(srv.URL+"/api/v1/models", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp1.Body.Close()
	require.Equal(t, http.StatusCreated, resp1.StatusCode)

	resp2, err := http.Post(srv.URL+"/api/v1/models", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusConflict, resp2.StatusCode)
}

func TestConfigureModelReturnsRequestID(t *testing.T) {
	_, srv := newServer(t)

	body, _ := json.Marshal(map[string]string{"name": "configurable", "cloud": "dummy"})
	createResp, err := http.Post(srv.URL+"/api/v1/models", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	var model orchestrator.ProjectedModel
	require.NoError(t, json.NewDecoder(createResp.Body).Decode(&model))
	createResp.Body.Close()

	cfgBody, _ := json.Marshal(map[string]string{"foo": "bar"})
	cfgResp, err := http.Post(srv.URL+"/api/v1/models/"+model.ID.String()+"/config", "application/json", bytes.NewReader(cfgBody))
	require.NoError(t, err)
	defer cfgResp.Body.Close()
	require.Equal(t, http.StatusOK, cfgResp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(cfgResp.Body).Decode(&out))
	require.NotEmpty(t, out["requestId"])
}

func TestAddRuneAcceptsZipBody(t *testing.T) {
	_, srv := newServer(t)

	createBody, _ := json.Marshal(map[string]string{"name": "withrune", "cloud": "dummy"})
	createResp, err := http.Post(srv.URL+"/api/v1/models", "application/json", bytes.NewReader(createBody))
	require.NoError(t, err)
	var model orchestrator.ProjectedModel
	require.NoError(t, json.NewDecoder(createResp.Body).Decode(&model))
	createResp.Body.Close()

	bundle := &orchestrator.RuneBundle{
		Metadata: orchestrator.Metadata{
			Name:   "mariadb",
			Config: map[string]orchestrator.ConfigItem{"database": {Kind: orchestrator.ConfigString, Default: "mysql-db"}},
		},
	}
	zipped, err := runearchive.Zip(bundle)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/models/"+model.ID.String()+"/runes?name=mariadb", bytes.NewReader(zipped))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/zip")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeleteModelReturnsRequestID(t *testing.T) {
	_, srv := newServer(t)

	createBody, _ := json.Marshal(map[string]string{"name": "todelete", "cloud": "dummy"})
	createResp, err := http.Post(srv.URL+"/api/v1/models", "application/json", bytes.NewReader(createBody))
	require.NoError(t, err)
	var model orchestrator.ProjectedModel
	require.NoError(t, json.NewDecoder(createResp.Body).Decode(&model))
	createResp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/models/"+model.ID.String(), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
