package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/inkworks/atelier/internal/config"
	extratodomain "github.com/inkworks/atelier/internal/extrato/domain"
	"github.com/inkworks/atelier/internal/observability"
	obsmetrics "github.com/inkworks/atelier/internal/observability/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testJWTSecret = "test-secret"
const testServiceToken = "service-token"

type stubStatementService struct {
	generateFunc func(ctx context.Context, req extratodomain.GenerateRequest) (extratodomain.Result, error)
	getFunc      func(ctx context.Context, mes, ano int) (*extratodomain.Extrato, error)
	periods      []extratodomain.Periodo
	requests     []extratodomain.GenerateRequest
}

func (s *stubStatementService) Generate(ctx context.Context, req extratodomain.GenerateRequest) (extratodomain.Result, error) {
	s.requests = append(s.requests, req)
	if s.generateFunc != nil {
		return s.generateFunc(ctx, req)
	}
	return extratodomain.Result{
		Outcome: extratodomain.OutcomeGenerated,
		Mes:     req.Mes, Ano: req.Ano, Force: req.Force,
		Message: "ok", CorrelationID: "corr-1",
	}, nil
}

func (s *stubStatementService) Get(ctx context.Context, mes, ano int) (*extratodomain.Extrato, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, mes, ano)
	}
	return nil, extratodomain.ErrNotFound
}

func (s *stubStatementService) ListPeriods(context.Context) ([]extratodomain.Periodo, error) {
	return s.periods, nil
}

func (s *stubStatementService) Recompute(context.Context, int, int) (extratodomain.Totals, error) {
	return extratodomain.Totals{}, extratodomain.ErrNotFound
}

func newTestServer(t *testing.T, svc extratodomain.Service) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metrics := obsmetrics.NewHTTPMetricsWithRegisterer(
		obsmetrics.Config{ServiceName: "test", Environment: "test"},
		prometheus.NewRegistry(),
	)
	engine := NewEngine(observability.Config{}, metrics)

	return NewServer(ServerParams{
		Gin: engine,
		Cfg: config.Config{
			AuthJWTSecret:       testJWTSecret,
			ServiceAccountToken: testServiceToken,
		},
		Log:        zap.NewNop(),
		ExtratoSvc: svc,
	})
}

func adminToken(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "user-1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestGenerateStatementRequiresAuth(t *testing.T) {
	srv := newTestServer(t, &stubStatementService{})

	rec := doJSON(t, srv, http.MethodPost, "/extrato/generate", "", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateStatementRejectsNonAdmin(t *testing.T) {
	srv := newTestServer(t, &stubStatementService{})

	rec := doJSON(t, srv, http.MethodPost, "/extrato/generate", adminToken(t, "artist"), gin.H{})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGenerateStatementSuccess(t *testing.T) {
	svc := &stubStatementService{}
	srv := newTestServer(t, svc)

	rec := doJSON(t, srv, http.MethodPost, "/extrato/generate", adminToken(t, "admin"),
		gin.H{"month": 2, "year": 2025, "force": true})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp generateStatementResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	assert.Equal(t, 2, resp.Data.Month)
	assert.Equal(t, 2025, resp.Data.Year)
	assert.True(t, resp.Data.Force)

	require.Len(t, svc.requests, 1)
	assert.Equal(t, extratodomain.TriggerManual, svc.requests[0].Trigger)
	assert.True(t, svc.requests[0].Force)
}

func TestGenerateStatementInvalidBodyTypes(t *testing.T) {
	srv := newTestServer(t, &stubStatementService{})

	rec := doJSON(t, srv, http.MethodPost, "/extrato/generate", adminToken(t, "admin"),
		gin.H{"force": "yes"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateStatementInvalidPeriod(t *testing.T) {
	svc := &stubStatementService{
		generateFunc: func(_ context.Context, req extratodomain.GenerateRequest) (extratodomain.Result, error) {
			return extratodomain.Result{Outcome: extratodomain.OutcomeFailed, Stage: extratodomain.StageEligibility},
				extratodomain.ErrInvalidPeriod
		},
	}
	srv := newTestServer(t, svc)

	rec := doJSON(t, srv, http.MethodPost, "/extrato/generate", adminToken(t, "admin"),
		gin.H{"month": 13, "year": 2025})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp generateStatementError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}

func TestGenerateStatementInternalFailureMasked(t *testing.T) {
	svc := &stubStatementService{
		generateFunc: func(context.Context, extratodomain.GenerateRequest) (extratodomain.Result, error) {
			return extratodomain.Result{
				Outcome: extratodomain.OutcomeFailed,
				Stage:   extratodomain.StagePersistence,
				CorrelationID: "corr-9",
			}, assert.AnError
		},
	}
	srv := newTestServer(t, svc)

	rec := doJSON(t, srv, http.MethodPost, "/extrato/generate", adminToken(t, "admin"), gin.H{})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp generateStatementError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal error", resp.Error)
	assert.Equal(t, "corr-9", resp.CorrelationID)
	assert.Equal(t, "persistence", resp.Stage)
}

func TestGenerateServiceMissingBackupIs400WithDiagnostics(t *testing.T) {
	svc := &stubStatementService{
		generateFunc: func(context.Context, extratodomain.GenerateRequest) (extratodomain.Result, error) {
			return extratodomain.Result{
				Outcome:        extratodomain.OutcomeFailed,
				Stage:          extratodomain.StageBackup,
				BackupRequired: true,
				BackupExists:   false,
			}, extratodomain.ErrBackupMissing
		},
	}
	srv := newTestServer(t, svc)

	rec := doJSON(t, srv, http.MethodPost, "/extrato/generate_service", testServiceToken, gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, true, resp["backup_required"])
	assert.Equal(t, false, resp["backup_exists"])

	require.Len(t, svc.requests, 1)
	assert.Equal(t, extratodomain.TriggerService, svc.requests[0].Trigger)
}

func TestGenerateServiceRejectsWrongToken(t *testing.T) {
	srv := newTestServer(t, &stubStatementService{})

	rec := doJSON(t, srv, http.MethodPost, "/extrato/generate_service", "wrong", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetStatementNotFound(t *testing.T) {
	srv := newTestServer(t, &stubStatementService{})

	rec := doJSON(t, srv, http.MethodGet, "/extrato/2025/2", adminToken(t, "admin"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetStatementReturnsStoredShape(t *testing.T) {
	svc := &stubStatementService{
		getFunc: func(_ context.Context, mes, ano int) (*extratodomain.Extrato, error) {
			return &extratodomain.Extrato{
				Mes: mes, Ano: ano,
				Pagamentos: []byte("[]"), Sessoes: []byte("[]"),
				Comissoes: []byte("[]"), Gastos: []byte("[]"),
				Totais: []byte(`{"receita_total":"0"}`),
			}, nil
		},
	}
	srv := newTestServer(t, svc)

	rec := doJSON(t, srv, http.MethodGet, "/extrato/2025/2", adminToken(t, "admin"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["mes"])
	assert.Equal(t, float64(2025), resp["ano"])
	assert.Contains(t, resp, "pagamentos")
	assert.Contains(t, resp, "totais")
}

func TestListStatementPeriods(t *testing.T) {
	svc := &stubStatementService{periods: []extratodomain.Periodo{{Mes: 2, Ano: 2025}}}
	srv := newTestServer(t, svc)

	rec := doJSON(t, srv, http.MethodGet, "/extrato", adminToken(t, "admin"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"periodos":[{"mes":2,"ano":2025}]}`, rec.Body.String())
}

func TestFinancialReportSuppressesGenerationInTestMode(t *testing.T) {
	svc := &stubStatementService{}
	srv := newTestServer(t, svc)

	rec := doJSON(t, srv, http.MethodGet, "/financeiro", adminToken(t, "admin"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The page-view hook must not fire under test mode.
	assert.Empty(t, svc.requests)
}
