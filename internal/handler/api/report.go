package api

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"marketpulse/internal/domain/models"
	"marketpulse/internal/domain/repository"
	"marketpulse/internal/usecase"
	xhttp "marketpulse/pkg/http"
	"marketpulse/pkg/logger"
)

// ReportHandler exposes the report builder and the registry over HTTP.
type ReportHandler struct {
	registry repository.Registry
	builder  *usecase.ReportBuilder
	log      *logger.Logger
}

func NewReportHandler(reg repository.Registry, builder *usecase.ReportBuilder, log *logger.Logger) *ReportHandler {
	return &ReportHandler{registry: reg, builder: builder, log: log}
}

func (h *ReportHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/marketplaces", h.listMarketplaces)
	e.GET("/api/reports/:name", h.buildReport)
	e.GET("/healthz", h.health)
}

func (h *ReportHandler) health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *ReportHandler) listMarketplaces(c echo.Context) error {
	marketplaces, err := h.registry.List(c.Request().Context())
	if err != nil {
		h.log.Error("registry list failed", logger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("registry unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, marketplaces)
}

func (h *ReportHandler) buildReport(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("marketplace name is required"))
	}

	ctx := c.Request().Context()
	mp, err := h.registry.Find(ctx, name)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("marketplace %q not found", name))
	}

	started := time.Now()
	report, err := h.builder.BuildReport(ctx, mp)
	if err != nil {
		var authErr *models.AuthError
		if errors.As(err, &authErr) {
			h.log.Error("backend auth failed",
				logger.String("backend", authErr.Backend),
				logger.Error(err),
			)
			return xhttp.AppErrorResponse(c, xhttp.UpstreamAuthError(authErr.Error()).WithError(err))
		}
		h.log.Error("report build failed",
			logger.String("marketplace", name),
			logger.Error(err),
		)
		return xhttp.AppErrorResponse(c, xhttp.InternalError("report build failed").WithError(err))
	}

	h.log.Info("report built",
		logger.String("marketplace", name),
		logger.Duration("took", time.Since(started)),
		logger.Int("degraded_sections", len(report.Degraded)),
	)
	return xhttp.SuccessResponse(c, report)
}
