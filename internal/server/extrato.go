package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	extratodomain "github.com/inkworks/atelier/internal/extrato/domain"
	"github.com/inkworks/atelier/internal/requestctx"
	"go.uber.org/zap"
)

type generateStatementRequest struct {
	Month *int  `json:"month"`
	Year  *int  `json:"year"`
	Force *bool `json:"force"`
}

type generateStatementData struct {
	Month int  `json:"month"`
	Year  int  `json:"year"`
	Force bool `json:"force"`
}

type generateStatementResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    *generateStatementData `json:"data,omitempty"`
}

type generateStatementError struct {
	Success       bool   `json:"success"`
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Stage         string `json:"stage,omitempty"`
}

type generateStatementServiceError struct {
	generateStatementError
	BackupExists   bool `json:"backup_exists"`
	BackupRequired bool `json:"backup_required"`
}

func (r generateStatementRequest) toDomain(trigger extratodomain.Trigger) extratodomain.GenerateRequest {
	req := extratodomain.GenerateRequest{Trigger: trigger}
	if r.Month != nil {
		req.Mes = *r.Month
	}
	if r.Year != nil {
		req.Ano = *r.Year
	}
	if r.Force != nil {
		req.Force = *r.Force
	}
	return req
}

// GenerateStatement handles the admin trigger.
func (s *Server) GenerateStatement(c *gin.Context) {
	var body generateStatementRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, generateStatementError{Error: "invalid request body"})
		return
	}

	res, err := s.extratoSvc.Generate(c.Request.Context(), body.toDomain(extratodomain.TriggerManual))
	if err != nil {
		s.writeGenerateError(c, res, err, false)
		return
	}

	c.JSON(http.StatusOK, generateStatementResponse{
		Success: true,
		Message: res.Message,
		Data:    &generateStatementData{Month: res.Mes, Year: res.Ano, Force: res.Force},
	})
}

// GenerateStatementService handles the service-account trigger. A
// missing required backup is a caller-actionable precondition, so it
// answers 400 with backup diagnostics rather than 500.
func (s *Server) GenerateStatementService(c *gin.Context) {
	var body generateStatementRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, generateStatementError{Error: "invalid request body"})
		return
	}

	res, err := s.extratoSvc.Generate(c.Request.Context(), body.toDomain(extratodomain.TriggerService))
	if err != nil {
		s.writeGenerateError(c, res, err, true)
		return
	}

	c.JSON(http.StatusOK, generateStatementResponse{
		Success: true,
		Message: res.Message,
		Data:    &generateStatementData{Month: res.Mes, Year: res.Ano, Force: res.Force},
	})
}

func (s *Server) writeGenerateError(c *gin.Context, res extratodomain.Result, err error, withBackupDiagnostics bool) {
	payload := generateStatementError{
		Error:         err.Error(),
		CorrelationID: res.CorrelationID,
		Stage:         string(res.Stage),
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, extratodomain.ErrInvalidPeriod):
		status = http.StatusBadRequest
	case errors.Is(err, extratodomain.ErrBackupMissing):
		if withBackupDiagnostics {
			status = http.StatusBadRequest
		}
	default:
		payload.Error = "internal error"
	}

	if withBackupDiagnostics {
		c.JSON(status, generateStatementServiceError{
			generateStatementError: payload,
			BackupExists:           res.BackupExists,
			BackupRequired:         res.BackupRequired,
		})
		return
	}
	c.JSON(status, payload)
}

// GetStatement returns one persisted statement in its stored shape.
func (s *Server) GetStatement(c *gin.Context) {
	ano, err := strconv.Atoi(c.Param("ano"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	mes, err := strconv.Atoi(c.Param("mes"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	extrato, err := s.extratoSvc.Get(c.Request.Context(), mes, ano)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, extrato)
}

// ListStatementPeriods lists the months that already have a statement.
func (s *Server) ListStatementPeriods(c *gin.Context) {
	periods, err := s.extratoSvc.ListPeriods(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if periods == nil {
		periods = []extratodomain.Periodo{}
	}
	c.JSON(http.StatusOK, gin.H{"periodos": periods})
}

// FinancialReport serves the reporting page data and fires the
// self-healing generation attempt off the request path.
func (s *Server) FinancialReport(c *gin.Context) {
	s.firePageViewGeneration()

	periods, err := s.extratoSvc.ListPeriods(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if periods == nil {
		periods = []extratodomain.Periodo{}
	}
	c.JSON(http.StatusOK, gin.H{"periodos": periods})
}

// firePageViewGeneration runs generation asynchronously, coalescing
// concurrent page loads into one in-flight attempt. Suppressed in test
// mode so handler tests never spawn background generations.
func (s *Server) firePageViewGeneration() {
	if gin.Mode() == gin.TestMode {
		return
	}

	go func() {
		_, _, _ = s.pageViewGroup.Do("extrato.generate", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			ctx = requestctx.WithActor(ctx, requestctx.Actor{Type: "system", ID: "pageview"})

			res, err := s.extratoSvc.Generate(ctx, extratodomain.GenerateRequest{Trigger: extratodomain.TriggerPageView})
			if err != nil {
				s.log.Warn("page-view generation attempt failed",
					zap.String("stage", string(res.Stage)),
					zap.String("correlation_id", res.CorrelationID),
					zap.Error(err),
				)
			}
			return res, err
		})
	}()
}
