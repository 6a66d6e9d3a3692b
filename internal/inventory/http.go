package inventory

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"warehouse/internal/platform/auth"
	"warehouse/internal/platform/httpapi"
	"warehouse/internal/platform/observability"
	"warehouse/internal/platform/storage"
)

// AddInventoryRequest is the POST /inventory body.
type AddInventoryRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int64     `json:"quantity"`
}

// API serves the inventory endpoints.
type API struct {
	db       *storage.DB
	service  *Service
	verifier *auth.Verifier
	logger   observability.Logger
}

// NewAPI creates the inventory HTTP API.
func NewAPI(db *storage.DB, service *Service, verifier *auth.Verifier, logger observability.Logger) *API {
	return &API{db: db, service: service, verifier: verifier, logger: logger}
}

// Register mounts the routes on rt.
func (a *API) Register(rt *httpapi.Router) {
	read := a.verifier.RequireRole(auth.RoleRead, httpapi.WriteProblem)
	write := a.verifier.RequireRole(auth.RoleWrite, httpapi.WriteProblem)

	rt.Handle("POST /inventory", write(http.HandlerFunc(a.add)))
	rt.Handle("GET /inventory/{id}", read(http.HandlerFunc(a.get)))
	rt.HandleFunc("GET /health", httpapi.Health(a.db))
}

func (a *API) add(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpapi.WriteProblem(w, r, http.StatusUnauthorized, "authorization header missing")
		return
	}

	var req AddInventoryRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := a.service.AddStock(r.Context(), AddStockCommand{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Principal: principal,
	})
	switch {
	case err == nil:
		w.Header().Set("Location", "/inventory/"+rec.ID.String())
		httpapi.WriteJSON(w, http.StatusCreated, rec)
	case errors.Is(err, ErrValidation), errors.Is(err, ErrProductNotFound):
		httpapi.WriteProblem(w, r, http.StatusBadRequest, err.Error())
	default:
		a.logger.Error("Error adding inventory", zap.Error(err), zap.String("product_id", req.ProductID.String()))
		httpapi.WriteProblem(w, r, http.StatusInternalServerError, "an error occurred while processing your request")
	}
}

func (a *API) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpapi.WriteProblem(w, r, http.StatusBadRequest, "id must be a UUID")
		return
	}
	rec, err := a.service.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		httpapi.WriteProblem(w, r, http.StatusNotFound, "inventory record "+id.String()+" does not exist")
		return
	}
	if err != nil {
		a.logger.Error("Failed to get inventory record", zap.Error(err), zap.String("inventory_id", id.String()))
		httpapi.WriteProblem(w, r, http.StatusInternalServerError, "failed to get inventory record")
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, rec)
}
