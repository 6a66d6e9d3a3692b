package product

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"warehouse/internal/platform/auth"
	"warehouse/internal/platform/httpapi"
	"warehouse/internal/platform/observability"
	"warehouse/internal/platform/storage"
)

// Store is the read and create side used by the HTTP API.
type Store interface {
	Insert(ctx context.Context, q storage.DBTX, p Product) error
	GetByID(ctx context.Context, q storage.DBTX, id uuid.UUID) (Product, error)
	List(ctx context.Context, q storage.DBTX) ([]Product, error)
}

var _ Store = (*Repository)(nil)

// CreateRequest is the POST /products body.
type CreateRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// API serves the product endpoints.
type API struct {
	db       *storage.DB
	store    Store
	verifier *auth.Verifier
	logger   observability.Logger
	now      func() time.Time
}

// NewAPI creates the product HTTP API.
func NewAPI(db *storage.DB, store Store, verifier *auth.Verifier, logger observability.Logger) *API {
	return &API{db: db, store: store, verifier: verifier, logger: logger, now: time.Now}
}

// Register mounts the routes on rt.
func (a *API) Register(rt *httpapi.Router) {
	read := a.verifier.RequireRole(auth.RoleRead, httpapi.WriteProblem)
	write := a.verifier.RequireRole(auth.RoleWrite, httpapi.WriteProblem)

	rt.Handle("POST /products", write(http.HandlerFunc(a.create)))
	rt.Handle("GET /products", read(http.HandlerFunc(a.list)))
	rt.Handle("GET /products/{id}", read(http.HandlerFunc(a.get)))
	rt.HandleFunc("GET /health", httpapi.Health(a.db))
}

func (a *API) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	p, err := NewProduct(req.Name, req.Description, req.Price, a.now())
	if err != nil {
		httpapi.WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.store.Insert(r.Context(), a.db, p); err != nil {
		a.logger.Error("Failed to create product", zap.Error(err))
		httpapi.WriteProblem(w, r, http.StatusInternalServerError, "failed to create product")
		return
	}

	a.logger.Info("Product created", zap.String("product_id", p.ID.String()))
	w.Header().Set("Location", "/products/"+p.ID.String())
	httpapi.WriteJSON(w, http.StatusCreated, p)
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	products, err := a.store.List(r.Context(), a.db)
	if err != nil {
		a.logger.Error("Failed to list products", zap.Error(err))
		httpapi.WriteProblem(w, r, http.StatusInternalServerError, "failed to list products")
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, products)
}

func (a *API) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpapi.WriteProblem(w, r, http.StatusBadRequest, "id must be a UUID")
		return
	}

	p, err := a.store.GetByID(r.Context(), a.db, id)
	if errors.Is(err, ErrNotFound) {
		httpapi.WriteProblem(w, r, http.StatusNotFound, "product "+id.String()+" does not exist")
		return
	}
	if err != nil {
		a.logger.Error("Failed to get product", zap.Error(err), zap.String("product_id", id.String()))
		httpapi.WriteProblem(w, r, http.StatusInternalServerError, "failed to get product")
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, p)
}
