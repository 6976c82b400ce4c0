package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"agritrace/internal/approval"
	"agritrace/internal/audit"
	"agritrace/internal/domain"
	"agritrace/internal/ledger"
	"agritrace/internal/platform/middleware"
	"agritrace/internal/store"
)

const signingKey = "test-signing-key"

type fixture struct {
	router   chi.Router
	products *store.InMemoryProductStore
	actors   *store.InMemoryActorStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	products := store.NewInMemoryProductStore()
	actors := store.NewInMemoryActorStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditor := audit.NewRecorder(audit.NewInMemoryEventStore(), nil, logger)
	svc := approval.New(products, actors, ledger.NewSimulated(), auditor, logger, nil)

	r := chi.NewRouter()
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(middleware.RequireAdmin(middleware.NewJWTAdminVerifier(signingKey), logger))
		New(svc, logger).Register(ar)
	})
	return &fixture{router: r, products: products, actors: actors}
}

func (f *fixture) do(t *testing.T, method, path string, body any, admin *domain.Admin) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if admin != nil {
		token, err := middleware.MintAdminToken(signingKey, *admin)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func seedPendingProduct(t *testing.T, products *store.InMemoryProductStore) {
	t.Helper()
	require.NoError(t, products.Insert(context.Background(), &domain.Product{
		Key:    "key-001",
		ID:     "PROD-001",
		Name:   "Arabica Coffee",
		Status: domain.ProductStatusPending,
	}))
}

func TestAdminTokenRequired(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/admin/products/PROD-001/validate", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidateProductViaHandler(t *testing.T) {
	f := newFixture(t)
	seedPendingProduct(t, f.products)

	admin := domain.Admin{
		ID:          "admin-1",
		Level:       domain.AdminLevelStandard,
		Permissions: domain.Permissions{CanValidateProducts: true},
	}
	rec := f.do(t, http.MethodPost, "/admin/products/PROD-001/validate", nil, &admin)
	require.Equal(t, http.StatusOK, rec.Code)

	var product domain.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&product))
	require.Equal(t, domain.ProductStatusVerified, product.Status)
	require.True(t, product.Attested)
}

func TestValidateProductWithoutPermissionIs403(t *testing.T) {
	f := newFixture(t)
	seedPendingProduct(t, f.products)

	admin := domain.Admin{ID: "admin-2", Level: domain.AdminLevelStandard}
	rec := f.do(t, http.MethodPost, "/admin/products/PROD-001/validate", nil, &admin)
	require.Equal(t, http.StatusForbidden, rec.Code)

	stored, err := f.products.FindByKey(context.Background(), "key-001")
	require.NoError(t, err)
	require.Equal(t, domain.ProductStatusPending, stored.Status)
}

func TestRejectActorRequiresReason(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.actors.Insert(context.Background(), &domain.Actor{
		Key:    "grower-1",
		Name:   "Finca Aurora",
		Role:   domain.RoleGrower,
		Status: domain.ActorStatusPending,
	}))

	admin := domain.Admin{
		ID:          "admin-3",
		Level:       domain.AdminLevelStandard,
		Permissions: domain.Permissions{CanApproveFarmers: true},
	}

	rec := f.do(t, http.MethodPost, "/admin/actors/grower-1/reject", map[string]string{"reason": ""}, &admin)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/actors/grower-1/reject", map[string]string{"reason": "incomplete docs"}, &admin)
	require.Equal(t, http.StatusOK, rec.Code)

	var actor domain.Actor
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&actor))
	require.Equal(t, domain.ActorStatusRejected, actor.Status)
}

func TestApproveUnknownActorIs404(t *testing.T) {
	f := newFixture(t)

	super := domain.Admin{ID: "root", Level: domain.AdminLevelSuper}
	rec := f.do(t, http.MethodPost, "/admin/actors/missing/approve", nil, &super)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
