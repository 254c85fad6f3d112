package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/akunara/akunara_backend/internal/apperrors"
	portssvc "github.com/akunara/akunara_backend/internal/core/ports/services"
	"github.com/akunara/akunara_backend/internal/core/services"
	"github.com/akunara/akunara_backend/internal/dto"
	"github.com/akunara/akunara_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// approvalHandler handles HTTP requests related to approval workflows
// and approval requests.
type approvalHandler struct {
	approvalService portssvc.ApprovalSvcFacade
}

func newApprovalHandler(as portssvc.ApprovalSvcFacade) *approvalHandler {
	return &approvalHandler{approvalService: as}
}

// RegisterApprovalRoutes registers routes related to approval requests
// plus read-only workflow routes.
func RegisterApprovalRoutes(rg *gin.RouterGroup, approvalService portssvc.ApprovalSvcFacade) {
	h := newApprovalHandler(approvalService)

	approvals := rg.Group("/approvals")
	{
		approvals.GET("/workflows", h.listWorkflows)
		approvals.GET("/workflows/:workflow_id", h.getWorkflowByID)
		approvals.GET("/pending", h.listPendingForUser)

		requests := approvals.Group("/requests")
		{
			requests.POST("", h.createRequest)
			requests.GET("", h.listRequests)
			requests.GET("/:request_id", h.getRequestByID)
			requests.GET("/:request_id/state", h.getRequestState)
			requests.GET("/:request_id/history", h.getHistory)
			requests.POST("/:request_id/action", h.processAction)
			requests.POST("/:request_id/escalate", h.escalateRequest)
			requests.POST("/:request_id/cancel", h.cancelRequest)
		}
	}
}

// registerApprovalWorkflowAdminRoutes registers the workflow mutation
// routes. The caller guards the group with RequireRole(RoleAdmin).
func registerApprovalWorkflowAdminRoutes(rg *gin.RouterGroup, approvalService portssvc.ApprovalSvcFacade) {
	h := newApprovalHandler(approvalService)

	workflows := rg.Group("/approvals/workflows")
	{
		workflows.POST("", h.createWorkflow)
		workflows.PUT("/:workflow_id", h.updateWorkflow)
	}
}

// createWorkflow godoc
// @Summary Create an approval workflow
// @Description Creates a workflow template with its ordered steps (admin only)
// @Tags approvals
// @Accept json
// @Produce json
// @Param workflow body dto.CreateApprovalWorkflowRequest true "Workflow details"
// @Success 201 {object} dto.ApprovalWorkflowResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /approvals/workflows [post]
func (h *approvalHandler) createWorkflow(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateApprovalWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	workflow, err := h.approvalService.CreateWorkflow(c.Request.Context(), req, creatorUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		} else {
			logger.Error("Failed to create workflow", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create workflow"})
		}
		return
	}

	logger.Info("Workflow created", slog.String("workflow_id", workflow.WorkflowID))
	c.JSON(http.StatusCreated, dto.ToApprovalWorkflowResponse(workflow))
}

// updateWorkflow godoc
// @Summary Update an approval workflow
// @Description Updates workflow name or active flag (admin only)
// @Tags approvals
// @Accept json
// @Produce json
// @Param workflow_id path string true "Workflow ID"
// @Param workflow body dto.UpdateApprovalWorkflowRequest true "Fields to update"
// @Success 200 {object} dto.ApprovalWorkflowResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /approvals/workflows/{workflow_id} [put]
func (h *approvalHandler) updateWorkflow(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workflowID := c.Param("workflow_id")

	var req dto.UpdateApprovalWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	requestingUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	workflow, err := h.approvalService.UpdateWorkflow(c.Request.Context(), workflowID, req, requestingUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Workflow not found"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			logger.Error("Failed to update workflow", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to update workflow"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToApprovalWorkflowResponse(workflow))
}

// listWorkflows godoc
// @Summary List approval workflows
// @Description Retrieves all workflow templates with their steps
// @Tags approvals
// @Produce json
// @Success 200 {object} dto.ListApprovalWorkflowsResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /approvals/workflows [get]
func (h *approvalHandler) listWorkflows(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	workflows, err := h.approvalService.ListWorkflows(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list workflows", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list workflows"})
		return
	}

	resp := dto.ListApprovalWorkflowsResponse{Workflows: make([]dto.ApprovalWorkflowResponse, len(workflows))}
	for i := range workflows {
		resp.Workflows[i] = dto.ToApprovalWorkflowResponse(&workflows[i])
	}

	c.JSON(http.StatusOK, resp)
}

// getWorkflowByID godoc
// @Summary Get an approval workflow
// @Description Retrieves a workflow template with its steps
// @Tags approvals
// @Produce json
// @Param workflow_id path string true "Workflow ID"
// @Success 200 {object} dto.ApprovalWorkflowResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /approvals/workflows/{workflow_id} [get]
func (h *approvalHandler) getWorkflowByID(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workflowID := c.Param("workflow_id")

	workflow, err := h.approvalService.GetWorkflowByID(c.Request.Context(), workflowID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Workflow not found"})
		} else {
			logger.Error("Failed to get workflow", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve workflow"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToApprovalWorkflowResponse(workflow))
}

// createRequest godoc
// @Summary Submit an approval request
// @Description Matches the amount to a workflow and creates the request with its step actions
// @Tags approvals
// @Accept json
// @Produce json
// @Param request body dto.CreateApprovalRequestRequest true "Request details"
// @Success 201 {object} dto.ApprovalRequestResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /approvals/requests [post]
func (h *approvalHandler) createRequest(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateApprovalRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	request, err := h.approvalService.CreateRequest(c.Request.Context(), req, requesterID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoMatchingWorkflow):
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			logger.Error("Failed to create approval request", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create approval request"})
		}
		return
	}

	logger.Info("Approval request created", slog.String("request_id", request.RequestID), slog.String("request_code", request.RequestCode))
	c.JSON(http.StatusCreated, dto.ToApprovalRequestResponse(request, time.Now().UTC()))
}

// listRequests godoc
// @Summary List approval requests
// @Description Retrieves a token-paginated list of approval requests
// @Tags approvals
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Pagination token"
// @Param status query string false "Filter by status"
// @Param module query string false "Filter by module"
// @Success 200 {object} dto.ListApprovalRequestsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /approvals/requests [get]
func (h *approvalHandler) listRequests(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListApprovalRequestsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.approvalService.ListRequests(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		logger.Error("Failed to list approval requests", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list approval requests"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// listPendingForUser godoc
// @Summary List requests pending my approval
// @Description Retrieves the requests whose active step matches the caller's role
// @Tags approvals
// @Produce json
// @Success 200 {object} dto.ListApprovalRequestsResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /approvals/pending [get]
func (h *approvalHandler) listPendingForUser(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	requests, err := h.approvalService.ListPendingForUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
			return
		}
		logger.Error("Failed to list pending requests", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list pending requests"})
		return
	}

	now := time.Now().UTC()
	resp := dto.ListApprovalRequestsResponse{Requests: make([]dto.ApprovalRequestResponse, len(requests))}
	for i := range requests {
		resp.Requests[i] = dto.ToApprovalRequestResponse(&requests[i], now)
	}

	c.JSON(http.StatusOK, resp)
}

// getRequestByID godoc
// @Summary Get an approval request
// @Description Retrieves an approval request with its step actions
// @Tags approvals
// @Produce json
// @Param request_id path string true "Request ID"
// @Success 200 {object} dto.ApprovalRequestResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /approvals/requests/{request_id} [get]
func (h *approvalHandler) getRequestByID(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	requestID := c.Param("request_id")

	request, err := h.approvalService.GetRequestByID(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Approval request not found"})
		} else {
			logger.Error("Failed to get approval request", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve approval request"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToApprovalRequestResponse(request, time.Now().UTC()))
}

// getRequestState godoc
// @Summary Get evaluated request state
// @Description Evaluates the request's workflow position and whether the caller can act on it
// @Tags approvals
// @Produce json
// @Param request_id path string true "Request ID"
// @Success 200 {object} dto.ApprovalStateResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /approvals/requests/{request_id}/state [get]
func (h *approvalHandler) getRequestState(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	requestID := c.Param("request_id")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	state, err := h.approvalService.GetRequestState(c.Request.Context(), requestID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Approval request not found"})
		} else {
			logger.Error("Failed to evaluate request state", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to evaluate request state"})
		}
		return
	}

	c.JSON(http.StatusOK, state)
}

// getHistory godoc
// @Summary Get approval request history
// @Description Retrieves the audit trail of a request
// @Tags approvals
// @Produce json
// @Param request_id path string true "Request ID"
// @Success 200 {array} dto.ApprovalHistoryResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /approvals/requests/{request_id}/history [get]
func (h *approvalHandler) getHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	requestID := c.Param("request_id")

	history, err := h.approvalService.GetHistory(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Approval request not found"})
		} else {
			logger.Error("Failed to get request history", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve request history"})
		}
		return
	}

	resp := make([]dto.ApprovalHistoryResponse, len(history))
	for i := range history {
		resp[i] = dto.ToApprovalHistoryResponse(&history[i])
	}

	c.JSON(http.StatusOK, resp)
}

// processAction godoc
// @Summary Act on an approval request
// @Description Applies an approve or reject decision on the request's active step
// @Tags approvals
// @Accept json
// @Produce json
// @Param request_id path string true "Request ID"
// @Param action body dto.ProcessApprovalActionRequest true "Decision"
// @Success 200 {object} dto.ApprovalRequestResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /approvals/requests/{request_id}/action [post]
func (h *approvalHandler) processAction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	requestID := c.Param("request_id")

	var req dto.ProcessApprovalActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	request, err := h.approvalService.ProcessAction(c.Request.Context(), requestID, req, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Approval request not found"})
		case errors.Is(err, apperrors.ErrForbidden):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "Your role may not act on the active step"})
		case errors.Is(err, services.ErrRequestNotPending), errors.Is(err, services.ErrNoActiveStep):
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			logger.Error("Failed to process approval action", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to process approval action"})
		}
		return
	}

	logger.Info("Approval action processed",
		slog.String("request_id", requestID),
		slog.String("action", req.Action),
		slog.String("status", string(request.Status)))
	c.JSON(http.StatusOK, dto.ToApprovalRequestResponse(request, time.Now().UTC()))
}

// escalateRequestBody carries the optional escalation comment.
type escalateRequestBody struct {
	Comments string `json:"comments"`
}

// escalateRequest godoc
// @Summary Escalate an approval request
// @Description Skips the active step and routes the request to a director
// @Tags approvals
// @Accept json
// @Produce json
// @Param request_id path string true "Request ID"
// @Param body body escalateRequestBody false "Escalation comment"
// @Success 200 {object} dto.ApprovalRequestResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /approvals/requests/{request_id}/escalate [post]
func (h *approvalHandler) escalateRequest(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	requestID := c.Param("request_id")

	var body escalateRequestBody
	// Comments are optional; an empty body is fine.
	_ = c.ShouldBindJSON(&body)

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	request, err := h.approvalService.EscalateRequest(c.Request.Context(), requestID, userID, body.Comments)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Approval request not found"})
		case errors.Is(err, apperrors.ErrForbidden):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "Your role may not act on the active step"})
		case errors.Is(err, services.ErrRequestNotPending), errors.Is(err, services.ErrNoActiveStep), errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		default:
			logger.Error("Failed to escalate approval request", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to escalate approval request"})
		}
		return
	}

	logger.Info("Approval request escalated",
		slog.String("request_id", requestID),
		slog.String("user_id", userID))
	c.JSON(http.StatusOK, dto.ToApprovalRequestResponse(request, time.Now().UTC()))
}

// cancelRequestBody carries the optional cancellation reason.
type cancelRequestBody struct {
	Reason string `json:"reason"`
}

// cancelRequest godoc
// @Summary Cancel an approval request
// @Description Cancels a pending request; only the requester or an admin may cancel
// @Tags approvals
// @Accept json
// @Produce json
// @Param request_id path string true "Request ID"
// @Param body body cancelRequestBody false "Cancellation reason"
// @Success 204 "No Content"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /approvals/requests/{request_id}/cancel [post]
func (h *approvalHandler) cancelRequest(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	requestID := c.Param("request_id")

	var body cancelRequestBody
	// Reason is optional; an empty body is fine.
	_ = c.ShouldBindJSON(&body)

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.approvalService.CancelRequest(c.Request.Context(), requestID, userID, body.Reason); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Approval request not found"})
		case errors.Is(err, apperrors.ErrForbidden):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "Only the requester or an admin may cancel"})
		case errors.Is(err, services.ErrRequestNotPending):
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		default:
			logger.Error("Failed to cancel approval request", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to cancel approval request"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
