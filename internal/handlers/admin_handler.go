package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gigsos_backend/internal/services"
	"gigsos_backend/internal/services/dto"
)

// AdminHandler - модерация и админские списки; жалобы на бан принимаются публично
type AdminHandler struct {
	*BaseHandler
	adminService      services.AdminService
	moderationService services.ModerationService
}

func NewAdminHandler(base *BaseHandler, adminService services.AdminService, moderationService services.ModerationService) *AdminHandler {
	return &AdminHandler{
		BaseHandler:       base,
		adminService:      adminService,
		moderationService: moderationService,
	}
}

func (h *AdminHandler) RegisterRoutes(groups RouteGroups) {
	groups.Public.POST("/ban-complaints", h.SubmitBanComplaint)

	admin := groups.Admin
	{
		admin.GET("/dashboard", h.Dashboard)

		admin.GET("/users", h.ListUsers)
		admin.POST("/users/:id/ban", h.BanUser)
		admin.POST("/users/:id/unban", h.UnbanUser)

		admin.GET("/jobs", h.ListJobs)
		admin.POST("/jobs/:id/force-cancel", h.ForceCancelJob)

		admin.GET("/sos", h.ListSOS)

		admin.GET("/reviews", h.ListReviews)
		admin.DELETE("/reviews/:id", h.DeleteReview)

		admin.GET("/ban-complaints", h.ListComplaints)
		admin.POST("/ban-complaints/:id/handle", h.HandleBanComplaint)
	}
}

// ---------------- Публичное ----------------

func (h *AdminHandler) SubmitBanComplaint(c *gin.Context) {
	var req dto.SubmitBanComplaintRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	complaint, err := h.moderationService.SubmitBanComplaint(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Complaint submitted",
		"complaint_id": complaint.ID,
		"status":       complaint.Status,
	})
}

// ---------------- Dashboard / списки ----------------

func (h *AdminHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.adminService.Dashboard(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	var query dto.AdminUserQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	h.respondPage(c)(h.adminService.ListUsers(h.GetDB(c), &query))
}

func (h *AdminHandler) ListJobs(c *gin.Context) {
	var query dto.AdminJobQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	h.respondPage(c)(h.adminService.ListJobs(h.GetDB(c), &query))
}

func (h *AdminHandler) ListSOS(c *gin.Context) {
	var query dto.AdminSOSQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	h.respondPage(c)(h.adminService.ListSOS(h.GetDB(c), &query))
}

func (h *AdminHandler) ListReviews(c *gin.Context) {
	var query dto.AdminReviewQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	h.respondPage(c)(h.adminService.ListReviews(h.GetDB(c), &query))
}

func (h *AdminHandler) ListComplaints(c *gin.Context) {
	var query dto.AdminComplaintQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	h.respondPage(c)(h.adminService.ListComplaints(h.GetDB(c), &query))
}

func (h *AdminHandler) respondPage(c *gin.Context) func(*dto.PaginatedResponse, error) {
	return func(page *dto.PaginatedResponse, err error) {
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// ---------------- Модерация ----------------

func (h *AdminHandler) BanUser(c *gin.Context) {
	adminID, targetID, ok := h.adminAndTarget(c)
	if !ok {
		return
	}

	var req dto.BanUserRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.moderationService.BanUser(h.GetDB(c), adminID, targetID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) UnbanUser(c *gin.Context) {
	adminID, targetID, ok := h.adminAndTarget(c)
	if !ok {
		return
	}

	var req dto.UnbanUserRequest
	if c.Request.ContentLength > 0 && !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.moderationService.UnbanUser(h.GetDB(c), adminID, targetID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User unbanned", "user": user})
}

func (h *AdminHandler) ForceCancelJob(c *gin.Context) {
	adminID, jobID, ok := h.adminAndTarget(c)
	if !ok {
		return
	}

	var req dto.ForceCancelJobRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	job, err := h.moderationService.ForceCancelJob(h.GetDB(c), adminID, jobID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *AdminHandler) DeleteReview(c *gin.Context) {
	adminID, reviewID, ok := h.adminAndTarget(c)
	if !ok {
		return
	}

	var req dto.DeleteReviewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.moderationService.DeleteReview(h.GetDB(c), adminID, reviewID, &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}

func (h *AdminHandler) HandleBanComplaint(c *gin.Context) {
	adminID, complaintID, ok := h.adminAndTarget(c)
	if !ok {
		return
	}

	var req dto.HandleBanComplaintRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	complaint, err := h.moderationService.HandleBanComplaint(h.GetDB(c), adminID, complaintID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, complaint)
}

func (h *AdminHandler) adminAndTarget(c *gin.Context) (uint64, uint64, bool) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return 0, 0, false
	}
	targetID, ok := h.ParseParamID(c, "id")
	if !ok {
		return 0, 0, false
	}
	return adminID, targetID, true
}
