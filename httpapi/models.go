// Package httpapi wires the controller's public operations onto the
// /api/v1/models HTTP surface from spec §6.
package httpapi

import (
	"fmt"
	"io"
	"net/http"

	"github.com/contenox/orchestrator/apiframework"
	"github.com/contenox/orchestrator/controller"
	"github.com/contenox/orchestrator/orchestrator"
	"github.com/contenox/orchestrator/runearchive"
	"github.com/google/uuid"
)

// AddModelRoutes registers the model surface on mux against c.
func AddModelRoutes(mux *http.ServeMux, c *controller.Controller) {
	m := &modelManager{controller: c}

	mux.HandleFunc("GET /api/v1/models", m.list)
	mux.HandleFunc("GET /api/v1/models/{id}", m.get)
	mux.HandleFunc("POST /api/v1/models", m.create)
	mux.HandleFunc("POST /api/v1/models/{id}/config", m.configure)
	mux.HandleFunc("POST /api/v1/models/{id}/runes", m.addRune)
	mux.HandleFunc("PATCH /api/v1/models/{id}/runes/{name}/config", m.configureRune)
	mux.HandleFunc("DELETE /api/v1/models/{id}", m.delete)
}

type modelManager struct {
	controller *controller.Controller
}

type createModelRequest struct {
	Name  string `json:"name"`
	Cloud string `json:"cloud"`
}

type configureModelRequest struct {
	Foo string `json:"foo"`
}

type configureRuneRequest struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

type requestIDResponse struct {
	RequestID uuid.UUID `json:"requestId"`
}

// parseID wraps a malformed id with ErrDecodeInvalidJSON so it maps to 400.
func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(apiframework.GetPathParam(r, "id", "model id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", apiframework.ErrDecodeInvalidJSON, err)
	}
	return id, nil
}

// list is spec §6's GET /api/v1/models. The controller has no ListModels
// operation (spec §4.4 names only per-id reads), so listing uses the
// controller's ListModelIDs passthrough to the store, then reads and
// projects each one.
func (m *modelManager) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids, err := m.controller.ListModelIDs(ctx)
	if err != nil {
		_ = apiframework.Error(w, r, err, apiframework.ListOperation)
		return
	}

	resp := make([]orchestrator.ProjectedModel, 0, len(ids))
	for _, id := range ids {
		model, err := m.controller.GetModel(ctx, id)
		if err != nil {
			continue
		}
		resp = append(resp, orchestrator.ProjectModel(model))
	}

	_ = apiframework.Encode(w, r, http.StatusOK, resp)
}

func (m *modelManager) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r)
	if err != nil {
		_ = apiframework.Error(w, r, err, apiframework.GetOperation)
		return
	}

	model, err := m.controller.GetModel(ctx, id)
	if err != nil {
		_ = apiframework.Error(w, r, err, apiframework.GetOperation)
		return
	}

	_ = apiframework.Encode(w, r, http.StatusOK, orchestrator.ProjectModel(model))
}

func (m *modelManager) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := apiframework.Decode[createModelRequest](r)
	if err != nil {
		_ = apiframework.Error(w, r, err, apiframework.CreateOperation)
		return
	}

	cloudName := orchestrator.CloudName(req.Cloud)
	model, err := m.controller.CreateModel(ctx, cloudName, req.Name)
	if err != nil {
		_ = apiframework.Error(w, r, err, apiframework.CreateOperation)
		return
	}

	_ = apiframework.Encode(w, r, http.StatusCreated, orchestrator.ProjectModel(model))
}

func (m *modelManager) configure(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r)
	if err != nil {
		_ = apiframework.Error(w, r, err, apiframework.UpdateOperation)
		return
	}

	req, err := apiframework.Decode[configureModelRequest](r)
	if err != nil {
		_ = apiframework.Error(w, r, err, apiframework.UpdateOperation)
		return
	}

	reqID, err := m.controller.ConfigureModel(ctx, id, req.Foo)
	if err != nil {
		_ = apiframework.Error(w, r, err, apiframework.UpdateOperation)
		return
	}

	_ = apiframework.Encode(w, r, http.StatusOK, requestIDResponse{RequestID: reqID})
}

// addRune accepts the rune bundle as a raw application/zip body, per spec §6.
func (m *modelManager) addRune(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r)
	if err != nil {
		_ = apiframework.Error(w, r, err, apiframework.UpdateOperation)
		return
	}

	name := apiframework.GetQueryParam(r, "name", "", "rune key unique within the model")
	if name == "" {
		_ = apiframework.Error(w, r, apiframework.ErrDecodeInvalidJSON, apiframework.UpdateOperation)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		_ = apiframework.Error(w, r, err, apiframework.UpdateOperation)
		return
	}
	defer r.Body.Close()

	bundle, err := runearchive.Unzip(body)
	if err != nil {
		_ = apiframework.Error(w, r, err, apiframework.UpdateOperation)
		return
	}

	reqID, err := m.controller.AddRune(ctx, id, name, bundle)
	if err != nil {
		_ = apiframework.Error(w, r, err, apiframework.UpdateOperation)
		return
	}

	_ = apiframework.Encode(w, r, http.StatusOK, requestIDResponse{RequestID: reqID})
}

func (m *modelManager) configureRune(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r)
	if err != nil {
		_ = apiframework.Error(w, r, err, apiframework.UpdateOperation)
		return
	}
	name := apiframework.GetPathParam(r, "name", "rune key")

	req, err := apiframework.Decode[configureRuneRequest](r)
	if err != nil {
		_ = apiframework.Error(w, r, err, apiframework.UpdateOperation)
		return
	}

	reqID, err := m.controller.ConfigureRune(ctx, id, name, req.Attribute, req.Value)
	if err != nil {
		_ = apiframework.Error(w, r, err, apiframework.UpdateOperation)
		return
	}

	_ = apiframework.Encode(w, r, http.StatusOK, requestIDResponse{RequestID: reqID})
}

func (m *modelManager) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r)
	if err != nil {
		_ = apiframework.Error(w, r, err, apiframework.DeleteOperation)
		return
	}

	reqID, err := m.controller.DeleteModel(ctx, id)
	if err != nil {
		_ = apiframework.Error(w, r, err, apiframework.DeleteOperation)
		return
	}

	_ = apiframework.Encode(w, r, http.StatusOK, requestIDResponse{RequestID: reqID})
}
