// Package handlers provides HTTP request handlers for the Skiff API.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/skiff-cd/skiff/domain"
	"github.com/skiff-cd/skiff/services"
)

// DeploymentRequest is the inbound shape for create and update calls.
type DeploymentRequest struct {
	Name                 string            `json:"name"`
	Description          string            `json:"description"`
	UserID               string            `json:"userId"`
	ProviderName         string            `json:"providerName"`
	UseCaseType          string            `json:"useCaseType"`
	DeploymentParameters map[string]string `json:"deploymentParameters"`
	Configuration        map[string]any    `json:"configuration"`
	APIKey               string            `json:"apiKey,omitempty"`
}

// toUseCase maps the request onto a new use case, generating an ID.
func (r *DeploymentRequest) toUseCase() *domain.UseCase {
	useCase := domain.NewUseCase(r.Name, r.Description, r.UserID, r.ProviderName, r.UseCaseType)
	fillUseCase(useCase, r)
	return useCase
}

// toUseCaseWithID maps the request onto an existing use case for update.
func (r *DeploymentRequest) toUseCaseWithID(id uuid.UUID) *domain.UseCase {
	useCase := &domain.UseCase{
		ID:           id,
		Name:         r.Name,
		Description:  r.Description,
		UserID:       r.UserID,
		ProviderName: r.ProviderName,
		UseCaseType:  r.UseCaseType,
	}
	fillUseCase(useCase, r)
	return useCase
}

func fillUseCase(useCase *domain.UseCase, r *DeploymentRequest) {
	// JSON objects carry no order, so sort keys for a deterministic
	// parameter sequence.
	keys := make([]string, 0, len(r.DeploymentParameters))
	for key := range r.DeploymentParameters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		useCase.DeploymentParameters.Set(key, r.DeploymentParameters[key])
	}

	useCase.Configuration = r.Configuration
	useCase.APIKey = r.APIKey
}

type statusResponse struct {
	UseCaseID string `json:"useCaseId,omitempty"`
	Status    string `json:"status"`
}

// DeploymentHandlers exposes the deployment workflows over HTTP.
type DeploymentHandlers struct {
	manager services.UseCaseManager
}

func NewDeploymentHandlers(manager services.UseCaseManager) *DeploymentHandlers {
	return &DeploymentHandlers{manager: manager}
}

// RegisterRoutes mounts the deployment API.
func (h *DeploymentHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/deployments", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/{useCaseID}", h.Update)
		r.Delete("/{useCaseID}", h.Delete)
		r.Delete("/{useCaseID}/permanent", h.PermanentlyDelete)
	})
}

func parseUseCaseID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "useCaseID"))
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Handler operation failed",
			"layer", "handler",
			"operation", "write_response",
			"error", err)
	}
}

func writeStatus(w http.ResponseWriter, useCaseID string, status domain.OperationStatus, err error) {
	if err != nil {
		slog.Error("Handler operation failed",
			"layer", "handler",
			"use_case_id", useCaseID,
			"error", err)
		writeJSON(w, http.StatusInternalServerError, statusResponse{UseCaseID: useCaseID, Status: status.String()})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{UseCaseID: useCaseID, Status: status.String()})
}

func (h *DeploymentHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req DeploymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	useCase := req.toUseCase()
	status, err := h.manager.Create(r.Context(), useCase)
	writeStatus(w, useCase.ID.String(), status, err)
}

func (h *DeploymentHandlers) Update(w http.ResponseWriter, r *http.Request) {
	useCaseID, err := parseUseCaseID(r)
	if err != nil {
		http.Error(w, "Invalid use case ID", http.StatusBadRequest)
		return
	}

	var req DeploymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	status, err := h.manager.Update(r.Context(), req.toUseCaseWithID(useCaseID))
	writeStatus(w, useCaseID.String(), status, err)
}

func (h *DeploymentHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	useCaseID, err := parseUseCaseID(r)
	if err != nil {
		http.Error(w, "Invalid use case ID", http.StatusBadRequest)
		return
	}

	status, err := h.manager.Delete(r.Context(), useCaseID)
	writeStatus(w, useCaseID.String(), status, err)
}

func (h *DeploymentHandlers) PermanentlyDelete(w http.ResponseWriter, r *http.Request) {
	useCaseID, err := parseUseCaseID(r)
	if err != nil {
		http.Error(w, "Invalid use case ID", http.StatusBadRequest)
		return
	}

	status, err := h.manager.PermanentlyDelete(r.Context(), useCaseID)
	writeStatus(w, useCaseID.String(), status, err)
}

func (h *DeploymentHandlers) List(w http.ResponseWriter, r *http.Request) {
	listing, err := h.manager.List(r.Context(), r.URL.Query().Get("pageToken"))
	if err != nil {
		slog.Error("Handler operation failed",
			"layer", "handler",
			"operation", "list_deployments",
			"error", err)
		http.Error(w, "Failed to list deployments", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, listing)
}
