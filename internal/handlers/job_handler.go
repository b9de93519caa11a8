package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gigsos_backend/internal/models"
	"gigsos_backend/internal/services"
	"gigsos_backend/internal/services/dto"
)

type JobHandler struct {
	*BaseHandler
	jobService services.JobService
}

func NewJobHandler(base *BaseHandler, jobService services.JobService) *JobHandler {
	return &JobHandler{
		BaseHandler: base,
		jobService:  jobService,
	}
}

func (h *JobHandler) RegisterRoutes(groups RouteGroups) {
	groups.Public.GET("/jobs", h.ListJobs)

	jobs := groups.Protected.Group("/jobs")
	{
		jobs.GET("/my-jobs", h.MyJobs)
		jobs.GET("/my-assigned-jobs", h.MyAssignedJobs)
		jobs.GET("/my-applications", h.MyApplications)

		jobs.POST("", h.CreateJob)
		jobs.GET("/:id", h.GetJob)
		jobs.PUT("/:id", h.UpdateJob)
		jobs.DELETE("/:id", h.DeleteJob)

		jobs.POST("/:id/apply", h.Apply)
		jobs.GET("/:id/applications", h.JobApplications)
		jobs.POST("/:id/applications/:applicationId/accept", h.AcceptApplication)
		jobs.POST("/:id/applications/:applicationId/reject", h.RejectApplication)
		jobs.POST("/:id/assign", h.AssignWorker)

		jobs.POST("/:id/accept-private", h.AcceptPrivateOrder)
		jobs.POST("/:id/reject-private", h.RejectPrivateOrder)

		jobs.POST("/:id/worker-complete", h.MarkCompleted)
		jobs.POST("/:id/customer-confirm", h.ConfirmCompletion)
		jobs.POST("/:id/complete", h.CompleteLegacy)
		jobs.POST("/:id/dispute", h.Dispute)
		jobs.POST("/:id/cancel", h.Cancel)
	}
}

// ---------------- CRUD ----------------

func (h *JobHandler) ListJobs(c *gin.Context) {
	var query dto.JobListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	jobs, err := h.jobService.ListJobs(h.GetDB(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, jobs)
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateJobRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	job, err := h.jobService.CreateJob(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, ok := h.ParseParamID(c, "id")
	if !ok {
		return
	}

	job, err := h.jobService.GetJob(h.GetDB(c), jobID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) UpdateJob(c *gin.Context) {
	userID, jobID, ok := h.userAndJob(c)
	if !ok {
		return
	}

	var req dto.UpdateJobRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	job, err := h.jobService.UpdateJob(h.GetDB(c), userID, jobID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	userID, jobID, ok := h.userAndJob(c)
	if !ok {
		return
	}

	if err := h.jobService.DeleteJob(h.GetDB(c), userID, jobID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job deleted"})
}

// ---------------- Заявки ----------------

func (h *JobHandler) Apply(c *gin.Context) {
	userID, jobID, ok := h.userAndJob(c)
	if !ok {
		return
	}

	var req dto.ApplyJobRequest
	if c.Request.ContentLength > 0 && !h.BindAndValidate_JSON(c, &req) {
		return
	}

	application, err := h.jobService.Apply(h.GetDB(c), userID, jobID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, application)
}

func (h *JobHandler) JobApplications(c *gin.Context) {
	userID, jobID, ok := h.userAndJob(c)
	if !ok {
		return
	}

	applications, err := h.jobService.JobApplications(h.GetDB(c), userID, jobID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": applications})
}

func (h *JobHandler) AcceptApplication(c *gin.Context) {
	userID, jobID, ok := h.userAndJob(c)
	if !ok {
		return
	}
	applicationID, ok := h.ParseParamID(c, "applicationId")
	if !ok {
		return
	}

	resp, err := h.jobService.AcceptApplication(h.GetDB(c), userID, jobID, applicationID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *JobHandler) RejectApplication(c *gin.Context) {
	userID, jobID, ok := h.userAndJob(c)
	if !ok {
		return
	}
	applicationID, ok := h.ParseParamID(c, "applicationId")
	if !ok {
		return
	}

	application, err := h.jobService.RejectApplication(h.GetDB(c), userID, jobID, applicationID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, application)
}

func (h *JobHandler) AssignWorker(c *gin.Context) {
	userID, jobID, ok := h.userAndJob(c)
	if !ok {
		return
	}

	var req dto.AssignJobRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	job, err := h.jobService.AssignWorker(h.GetDB(c), userID, jobID, req.WorkerID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ---------------- Приватные заказы ----------------

func (h *JobHandler) AcceptPrivateOrder(c *gin.Context) {
	h.jobTransition(c, h.jobService.AcceptPrivateOrder)
}

func (h *JobHandler) RejectPrivateOrder(c *gin.Context) {
	h.jobTransition(c, h.jobService.RejectPrivateOrder)
}

// ---------------- Завершение и споры ----------------

func (h *JobHandler) MarkCompleted(c *gin.Context) {
	h.jobTransition(c, h.jobService.MarkCompleted)
}

func (h *JobHandler) ConfirmCompletion(c *gin.Context) {
	userID, jobID, ok := h.userAndJob(c)
	if !ok {
		return
	}

	resp, err := h.jobService.ConfirmCompletion(h.GetDB(c), userID, jobID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *JobHandler) CompleteLegacy(c *gin.Context) {
	userID, jobID, ok := h.userAndJob(c)
	if !ok {
		return
	}

	resp, err := h.jobService.CompleteLegacy(h.GetDB(c), userID, jobID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *JobHandler) Dispute(c *gin.Context) {
	userID, jobID, ok := h.userAndJob(c)
	if !ok {
		return
	}

	var req dto.DisputeJobRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	job, err := h.jobService.Dispute(h.GetDB(c), userID, jobID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) Cancel(c *gin.Context) {
	userID, jobID, ok := h.userAndJob(c)
	if !ok {
		return
	}

	resp, err := h.jobService.Cancel(h.GetDB(c), userID, jobID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ---------------- Мои списки ----------------

func (h *JobHandler) MyJobs(c *gin.Context) {
	h.myList(c, h.jobService.MyJobs)
}

func (h *JobHandler) MyAssignedJobs(c *gin.Context) {
	h.myList(c, h.jobService.MyAssignedJobs)
}

func (h *JobHandler) MyApplications(c *gin.Context) {
	h.myList(c, h.jobService.MyApplications)
}

// ---------------- helpers ----------------

func (h *JobHandler) userAndJob(c *gin.Context) (uint64, uint64, bool) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return 0, 0, false
	}
	jobID, ok := h.ParseParamID(c, "id")
	if !ok {
		return 0, 0, false
	}
	return userID, jobID, true
}

func (h *JobHandler) jobTransition(c *gin.Context, transition func(db *gorm.DB, userID, jobID uint64) (*models.Job, error)) {
	userID, jobID, ok := h.userAndJob(c)
	if !ok {
		return
	}

	job, err := transition(h.GetDB(c), userID, jobID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) myList(c *gin.Context, list func(db *gorm.DB, userID uint64, pageNum int) (*dto.PaginatedResponse, error)) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	page, err := list(h.GetDB(c), userID, ParsePage(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}
