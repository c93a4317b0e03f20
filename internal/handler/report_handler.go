package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/geolife-tracks/internal/service"
	"github.com/jengzang/geolife-tracks/pkg/response"
)

// ReportHandler handles HTTP requests for the analytical reports
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// ListReports handles GET /api/v1/reports
func (h *ReportHandler) ListReports(c *gin.Context) {
	response.Success(c, service.ReportNames)
}

// GetReport handles GET /api/v1/reports/:name
func (h *ReportHandler) GetReport(c *gin.Context) {
	params, err := parseReportParams(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	report, err := h.reportService.Run(c.Request.Context(), c.Param("name"), params)
	if errors.Is(err, service.ErrUnknownReport) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}

	response.Success(c, report)
}

func parseReportParams(c *gin.Context) (service.ReportParams, error) {
	p := service.ReportParams{
		Mode:   c.Query("mode"),
		UserID: c.Query("user"),
	}

	var err error
	if p.Limit, err = queryInt(c, "limit"); err != nil {
		return p, err
	}
	if p.Year, err = queryInt(c, "year"); err != nil {
		return p, err
	}
	if p.Lat, err = queryFloat(c, "lat"); err != nil {
		return p, err
	}
	if p.Lon, err = queryFloat(c, "lon"); err != nil {
		return p, err
	}
	if p.Tolerance, err = queryFloat(c, "tolerance"); err != nil {
		return p, err
	}
	return p, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("Invalid " + key + " parameter")
	}
	return v, nil
}

func queryFloat(c *gin.Context, key string) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New("Invalid " + key + " parameter")
	}
	return v, nil
}
