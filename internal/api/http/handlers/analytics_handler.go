package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shopfloor-issues/internal/api/dto"
	"github.com/spec-kit/shopfloor-issues/internal/service"
)

// AnalyticsHandler serves keyword search and narrative reports.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Query POST /ai/query.
func (h *AnalyticsHandler) Query(c *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.analytics.Search(c.UserContext(), req.Question)
	if err != nil {
		return err
	}

	resp := dto.QueryResponse{
		Query:        result.Query,
		Keywords:     result.Keywords,
		TotalResults: result.TotalResults,
		Results:      make([]dto.SearchHit, 0, len(result.Results)),
	}
	if resp.Keywords == nil {
		resp.Keywords = []string{}
	}
	for i := range result.Results {
		hit := result.Results[i]
		resp.Results = append(resp.Results, dto.SearchHit{
			IssueResponse:  toIssueResponse(&hit.Issue, nil),
			RelevanceScore: hit.Score,
		})
	}
	return respond(c, http.StatusOK, resp, nil)
}

// Report POST /ai/report.
func (h *AnalyticsHandler) Report(c *fiber.Ctx) error {
	var req dto.ReportRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	report, err := h.analytics.GenerateReport(c.UserContext(), service.ReportRequest{
		ReportType: req.ReportType,
		FromDate:   req.FromDate,
		ToDate:     req.ToDate,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, report, nil)
}
