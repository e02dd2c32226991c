package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ledger-api/internal/application/auth"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/usecase"
	"github.com/jhoicas/ledger-api/internal/infrastructure/eventbus"
	"github.com/jhoicas/ledger-api/internal/infrastructure/memstore"
	"github.com/jhoicas/ledger-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/ledger-api/internal/interfaces/http"
	"github.com/jhoicas/ledger-api/pkg/logger"
)

// ── Helpers ─────────────────────────────────────────────────────────────────

const adminPassword = "clave-admin"

type testServer struct {
	t   *testing.T
	app *fiber.App
	db  *memstore.DB
}

func newTestServer(t *testing.T, refreshRoles bool) *testServer {
	t.Helper()
	db := memstore.New()
	log := logger.Nop()
	events := eventbus.Noop{}

	authUC := auth.NewAuthUseCase(db.Store().Users, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}, log)
	created, err := authUC.EnsureAdmin(context.Background(), "admin", adminPassword)
	require.NoError(t, err)
	require.True(t, created)

	app := apphttp.NewApp(apphttp.AppConfig{Name: "ledger-api-test", Log: log}, apphttp.RouterDeps{
		AuthUC:       authUC,
		UserUC:       usecase.NewUserUseCase(db, log),
		CustomerUC:   usecase.NewCustomerUseCase(db, log),
		CategoryUC:   usecase.NewCategoryUseCase(db, log),
		ProductUC:    usecase.NewProductUseCase(db, events, log),
		InventoryUC:  usecase.NewInventoryUseCase(db, events, log),
		SaleUC:       usecase.NewSaleUseCase(db, events, log),
		ReceiptUC:    usecase.NewReceiptUseCase(db, pdf.NewReceiptGenerator(), "Tienda de prueba"),
		ReportUC:     usecase.NewReportUseCase(db.Reports()),
		AdminUC:      usecase.NewAdminUseCase(db, log),
		JWTSecret:    testJWTSecret,
		RefreshRoles: refreshRoles,
	})
	return &testServer{t: t, app: app, db: db}
}

// do envía la petición y decodifica el JSON de respuesta en out (si no es nil).
func (s *testServer) do(method, path, token string, body interface{}, out interface{}) int {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out), "%s %s", method, path)
	}
	return resp.StatusCode
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	var out dto.LoginResponse
	status := s.do(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: username, Password: password}, &out)
	require.Equal(s.t, http.StatusOK, status)
	require.NotEmpty(s.t, out.Token)
	return out.Token
}

func (s *testServer) createUser(admin, username, role string) {
	s.t.Helper()
	status := s.do(http.MethodPost, "/api/users", admin, dto.CreateUserRequest{Username: username, Password: "secreto", Role: role}, nil)
	require.Equal(s.t, http.StatusCreated, status)
}

func ptr[T any](v T) *T { return &v }

// ── Salud y autenticación ──────────────────────────────────────────────────

func TestApp_Health(t *testing.T) {
	s := newTestServer(t, false)
	var out map[string]string
	status := s.do(http.MethodGet, "/health", "", nil, &out)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", out["status"])
}

func TestApp_LoginCredencialesInvalidas(t *testing.T) {
	s := newTestServer(t, false)
	var out dto.ErrorResponse
	status := s.do(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "admin", Password: "otra"}, &out)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", out.Code)
}

func TestApp_RutaProtegidaSinToken(t *testing.T) {
	s := newTestServer(t, false)
	status := s.do(http.MethodGet, "/api/products", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestApp_Me(t *testing.T) {
	s := newTestServer(t, false)
	token := s.login("admin", adminPassword)
	var me dto.UserResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/me", token, nil, &me))
	assert.Equal(t, "admin", me.Username)
	assert.Equal(t, "admin", me.Role)
}

// ── Roles ──────────────────────────────────────────────────────────────────

func TestApp_LecturaNoPuedeEscribir(t *testing.T) {
	s := newTestServer(t, false)
	admin := s.login("admin", adminPassword)
	s.createUser(admin, "lector", "read")
	reader := s.login("lector", "secreto")

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/products", reader, nil, nil))

	var out dto.ErrorResponse
	status := s.do(http.MethodPost, "/api/products", reader, dto.CreateProductRequest{SKU: "X-1", Name: "X", PriceCents: 100}, &out)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", out.Code)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/users", reader, nil, nil),
		"solo admin gestiona usuarios")
}

func TestApp_DesactivadoNoPuedeIniciarSesion(t *testing.T) {
	s := newTestServer(t, false)
	admin := s.login("admin", adminPassword)
	s.createUser(admin, "baja", "deactivated")

	var out dto.ErrorResponse
	status := s.do(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "baja", Password: "secreto"}, &out)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ROLE_REVOKED", out.Code)
}

func TestApp_RefreshRole_DegradacionInmediata(t *testing.T) {
	s := newTestServer(t, true)
	admin := s.login("admin", adminPassword)
	var u dto.UserResponse
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/users", admin,
		dto.CreateUserRequest{Username: "vendedor", Password: "secreto", Role: "write"}, &u))
	seller := s.login("vendedor", "secreto")

	require.Equal(t, http.StatusOK, s.do(http.MethodPatch, fmt.Sprintf("/api/users/%d", u.ID), admin,
		dto.UpdateUserRequest{Role: ptr("deactivated")}, nil))

	var out dto.ErrorResponse
	status := s.do(http.MethodGet, "/api/products", seller, nil, &out)
	assert.Equal(t, http.StatusForbidden, status, "el token sigue vigente pero el rol ya no")
	assert.Equal(t, "ROLE_REVOKED", out.Code)
}

// ── Flujo de ventas ────────────────────────────────────────────────────────

func TestApp_FlujoCompletoDeVenta(t *testing.T) {
	s := newTestServer(t, false)
	token := s.login("admin", adminPassword)

	var customer dto.CustomerResponse
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/customers", token,
		dto.CustomerRequest{Name: "Ana"}, &customer))

	var product dto.ProductResponse
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/products", token,
		dto.CreateProductRequest{SKU: "CAF-01", Name: "Café", PriceCents: 1500}, &product))
	assert.Equal(t, int64(0), product.Quantity)
	assert.Equal(t, "15.00", product.Price)

	var restock dto.LogMutationResponse
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/logs", token,
		dto.CreateLogRequest{Type: "restock", ProductID: &product.ID, Delta: 10}, &restock))
	require.Len(t, restock.Aggregates, 1)
	assert.Equal(t, int64(10), restock.Aggregates[0].Value)

	var sale dto.SaleMutationResponse
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/sales", token, dto.CreateSaleRequest{
		CustomerID: &customer.ID,
		Details: []dto.SaleDetailRequest{
			{ProductID: &product.ID, Quantity: 3, SubtotalCents: 4500},
			{Quantity: 1, SubtotalCents: 500, Note: "bolsa"},
		},
	}, &sale))
	assert.Equal(t, int64(5000), sale.Sale.TotalCents)
	assert.Equal(t, "50.00", sale.Sale.Total)
	require.Len(t, sale.Sale.Details, 2)
	assert.NotNil(t, sale.Sale.Details[0].LogID, "la línea con producto queda ligada a su registro de salida")
	assert.Nil(t, sale.Sale.Details[1].LogID)

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, fmt.Sprintf("/api/products/%d", product.ID), token, nil, &product))
	assert.Equal(t, int64(7), product.Quantity)

	// El producto está referenciado por una línea de venta: RESTRICT.
	var refErr dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, s.do(http.MethodDelete, fmt.Sprintf("/api/products/%d", product.ID), token, nil, &refErr))
	assert.Equal(t, "REFERENTIAL", refErr.Code)

	// Cambiar la cantidad de la línea sincroniza su registro de salida.
	detailID := sale.Sale.Details[0].ID
	require.Equal(t, http.StatusOK, s.do(http.MethodPatch, fmt.Sprintf("/api/sales/details/%d", detailID), token,
		dto.UpdateDetailRequest{Quantity: ptr(int64(5)), SubtotalCents: ptr(int64(7500))}, nil))
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, fmt.Sprintf("/api/products/%d", product.ID), token, nil, &product))
	assert.Equal(t, int64(5), product.Quantity)

	var got dto.SaleResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, fmt.Sprintf("/api/sales/%d", sale.Sale.ID), token, nil, &got))
	assert.Equal(t, int64(8000), got.TotalCents)

	// Recibo en PDF.
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/sales/%d/receipt", sale.Sale.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	pdfBytes, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF")))

	// Borrar la venta devuelve el stock.
	require.Equal(t, http.StatusOK, s.do(http.MethodDelete, fmt.Sprintf("/api/sales/%d", sale.Sale.ID), token, nil, nil))
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, fmt.Sprintf("/api/products/%d", product.ID), token, nil, &product))
	assert.Equal(t, int64(10), product.Quantity)

	// Sin líneas que lo referencien, el producto ya se puede borrar.
	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, fmt.Sprintf("/api/products/%d", product.ID), token, nil, nil))

	var rec dto.ReconcileResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/admin/reconcile", token, nil, &rec))
	assert.Empty(t, rec.Drifts)
}

func TestApp_BorrarVentaSinRevertirStock(t *testing.T) {
	s := newTestServer(t, false)
	token := s.login("admin", adminPassword)

	var customer dto.CustomerResponse
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/customers", token, dto.CustomerRequest{Name: "Luis"}, &customer))
	var product dto.ProductResponse
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/products", token,
		dto.CreateProductRequest{SKU: "PAN-01", Name: "Pan", PriceCents: 300}, &product))

	var sale dto.SaleMutationResponse
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/sales", token, dto.CreateSaleRequest{
		CustomerID: &customer.ID,
		Details:    []dto.SaleDetailRequest{{ProductID: &product.ID, Quantity: 2, SubtotalCents: 600}},
	}, &sale))

	require.Equal(t, http.StatusOK, s.do(http.MethodDelete, fmt.Sprintf("/api/sales/%d?revert_stock=false", sale.Sale.ID), token, nil, nil))
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, fmt.Sprintf("/api/products/%d", product.ID), token, nil, &product))
	assert.Equal(t, int64(-2), product.Quantity, "los registros de salida se conservan")
}

// ── Mapeo de errores ───────────────────────────────────────────────────────

func TestApp_MapeoDeErrores(t *testing.T) {
	s := newTestServer(t, false)
	token := s.login("admin", adminPassword)

	var out dto.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/products", token,
		dto.CreateProductRequest{SKU: "", Name: "Sin SKU", PriceCents: 100}, &out))
	assert.Equal(t, "CONSTRAINT_VIOLATION", out.Code)
	assert.Equal(t, "sku", out.Field)

	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/products", token,
		dto.CreateProductRequest{SKU: "DUP-1", Name: "Uno", PriceCents: 100}, nil))
	out = dto.ErrorResponse{}
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/products", token,
		dto.CreateProductRequest{SKU: " DUP-1 ", Name: "Dos", PriceCents: 100}, &out), "SKU duplicado tras normalizar")
	assert.Equal(t, "sku", out.Field)

	out = dto.ErrorResponse{}
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/products/999", token, nil, &out))
	assert.Equal(t, "NOT_FOUND", out.Code)

	out = dto.ErrorResponse{}
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/logs", token,
		dto.CreateLogRequest{Type: "restock", ProductID: ptr(int64(999)), Delta: 1}, &out))
	assert.Equal(t, "REFERENTIAL", out.Code)

	out = dto.ErrorResponse{}
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/sales", token,
		dto.CreateSaleRequest{Details: []dto.SaleDetailRequest{{Quantity: 1, SubtotalCents: 100}}}, &out))
	assert.Equal(t, "customer_id", out.Field)

	out = dto.ErrorResponse{}
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPatch, "/api/categories/1", token, map[string]string{}, &out))
}

func TestApp_NoSePuedeBorrarElUltimoAdmin(t *testing.T) {
	s := newTestServer(t, false)
	token := s.login("admin", adminPassword)
	var me dto.UserResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/me", token, nil, &me))

	var out dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", me.ID), token, nil, &out))
	assert.Equal(t, "CONFLICT", out.Code)
}
