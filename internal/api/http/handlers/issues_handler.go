package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shopfloor-issues/internal/api/dto"
	"github.com/spec-kit/shopfloor-issues/internal/domain"
	"github.com/spec-kit/shopfloor-issues/internal/service"
	apperrors "github.com/spec-kit/shopfloor-issues/pkg/util/errorutil"
)

// IssuesHandler exposes the issue lifecycle.
type IssuesHandler struct {
	issues *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issues *service.IssueService) *IssuesHandler {
	return &IssuesHandler{issues: issues}
}

// CreateIssue POST /issues.
func (h *IssuesHandler) CreateIssue(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateIssueRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	details, err := h.issues.CreateIssue(c.UserContext(), caller.UserID(), service.IssueCreateInput{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		AreaID:      req.AreaID,
		Priority:    req.Priority,
		Level:       req.Level,
		Source:      req.Source,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, toIssueResponse(details.Issue, details.Suggestion), nil)
}

// ListIssues GET /issues.
func (h *IssuesHandler) ListIssues(c *fiber.Ctx) error {
	filter, err := parseIssueFilter(c)
	if err != nil {
		return err
	}
	page, err := h.issues.ListIssues(c.UserContext(), filter)
	if err != nil {
		return err
	}

	items := make([]dto.IssueResponse, 0, len(page.Issues))
	for i := range page.Issues {
		items = append(items, toIssueResponse(&page.Issues[i], nil))
	}
	return respond(c, http.StatusOK, items, dto.PageMeta{Page: page.Page, PageSize: page.PageSize, Total: page.Total})
}

// GetIssue GET /issues/:id.
func (h *IssuesHandler) GetIssue(c *fiber.Ctx) error {
	details, err := h.issues.GetIssue(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toIssueResponse(details.Issue, details.Suggestion), nil)
}

// EscalateIssue POST /issues/:id/escalate.
func (h *IssuesHandler) EscalateIssue(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.EscalateIssueRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	issue, record, err := h.issues.Escalate(c.UserContext(), caller.UserID(), c.Params("id"), service.EscalateInput{
		TargetLevel: req.TargetLevel,
		Reason:      req.Reason,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.EscalateIssueResponse{
		Issue:      toIssueResponse(issue, nil),
		Escalation: toEscalationResponse(*record),
	}, nil)
}

// ResolveIssue POST /issues/:id/resolve.
func (h *IssuesHandler) ResolveIssue(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ResolveIssueRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	issue, record, err := h.issues.Resolve(c.UserContext(), caller.UserID(), c.Params("id"), service.ResolveInput{
		Resolution:        req.Resolution,
		DowntimePrevented: req.DowntimePrevented,
		DefectsReduced:    req.DefectsReduced,
		CostSavings:       req.CostSavings,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.ResolveIssueResponse{
		Issue:      toIssueResponse(issue, nil),
		Resolution: toResolutionResponse(*record),
	}, nil)
}

// IssueHistory GET /issues/:id/history.
func (h *IssuesHandler) IssueHistory(c *fiber.Ctx) error {
	history, err := h.issues.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	resp := dto.IssueHistoryResponse{Escalations: make([]dto.EscalationResponse, 0, len(history.Escalations))}
	for _, record := range history.Escalations {
		resp.Escalations = append(resp.Escalations, toEscalationResponse(record))
	}
	if history.Resolution != nil {
		resolution := toResolutionResponse(*history.Resolution)
		resp.Resolution = &resolution
	}
	return respond(c, http.StatusOK, resp, nil)
}

// DeleteIssue DELETE /issues/:id.
func (h *IssuesHandler) DeleteIssue(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := h.issues.DeleteIssue(c.UserContext(), caller.UserID(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.DeleteIssueResponse{Deleted: true, ID: id}, nil)
}

func parseIssueFilter(c *fiber.Ctx) (service.IssueListFilter, error) {
	var filter service.IssueListFilter

	for _, raw := range splitCSV(c.Query("status")) {
		status := domain.IssueStatus(raw)
		if !status.Valid() {
			return filter, apperrors.NewValidationError("invalid status", map[string]any{"status": raw})
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, raw := range splitCSV(c.Query("priority")) {
		priority := domain.IssuePriority(raw)
		if !priority.Valid() {
			return filter, apperrors.NewValidationError("invalid priority", map[string]any{"priority": raw})
		}
		filter.Priorities = append(filter.Priorities, priority)
	}
	for _, raw := range splitCSV(c.Query("level")) {
		level, err := strconv.Atoi(raw)
		if err != nil || !domain.ValidLevel(level) {
			return filter, apperrors.NewValidationError("invalid level", map[string]any{"level": raw})
		}
		filter.Levels = append(filter.Levels, level)
	}
	if raw := c.Query("source"); raw != "" {
		source := domain.IssueSource(raw)
		if !source.Valid() {
			return filter, apperrors.NewValidationError("invalid source", map[string]any{"source": raw})
		}
		filter.Source = &source
	}
	filter.CategoryID = optionalString(c, "category_id")
	filter.AreaID = optionalString(c, "area_id")

	rng, err := service.ParseDateRange(c.Query("from_date"), c.Query("to_date"))
	if err != nil {
		return filter, err
	}
	filter.CreatedFrom, filter.CreatedTo = rng.From, rng.To

	if filter.Page, err = queryInt(c, "page"); err != nil {
		return filter, err
	}
	if filter.PageSize, err = queryInt(c, "page_size"); err != nil {
		return filter, err
	}
	return filter, nil
}

func toIssueResponse(issue *domain.Issue, suggestion *domain.AiSuggestion) dto.IssueResponse {
	resp := dto.IssueResponse{
		ID:          issue.ID,
		IssueNumber: issue.IssueNumber,
		Title:       issue.Title,
		Description: issue.Description,
		Status:      issue.Status,
		Level:       issue.Level,
		Priority:    issue.Priority,
		CategoryID:  issue.CategoryID,
		AreaID:      issue.AreaID,
		Source:      issue.Source,
		CreatedBy:   issue.CreatedBy,
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
	}
	if suggestion != nil {
		resp.AiSuggestion = &dto.AiSuggestionResponse{
			SuggestedLevel: suggestion.SuggestedLevel,
			Reason:         suggestion.Reason,
			Confidence:     suggestion.Confidence,
			CreatedAt:      suggestion.CreatedAt,
		}
	}
	return resp
}

func toEscalationResponse(record domain.EscalationRecord) dto.EscalationResponse {
	return dto.EscalationResponse{
		ID:          record.ID,
		IssueID:     record.IssueID,
		FromLevel:   record.FromLevel,
		ToLevel:     record.ToLevel,
		Reason:      record.Reason,
		EscalatedBy: record.EscalatedBy,
		EscalatedAt: record.EscalatedAt,
	}
}

func toResolutionResponse(record domain.ResolutionRecord) dto.ResolutionResponse {
	return dto.ResolutionResponse{
		ID:                record.ID,
		IssueID:           record.IssueID,
		Resolution:        record.Resolution,
		ResolvedBy:        record.ResolvedBy,
		ResolvedAt:        record.ResolvedAt,
		DowntimePrevented: record.DowntimePrevented,
		DefectsReduced:    record.DefectsReduced,
		CostSavings:       record.CostSavings,
	}
}
