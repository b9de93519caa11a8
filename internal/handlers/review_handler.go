package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gigsos_backend/internal/services"
	"gigsos_backend/internal/services/dto"
)

type ReviewHandler struct {
	*BaseHandler
	reviewService services.ReviewService
}

func NewReviewHandler(base *BaseHandler, reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler:   base,
		reviewService: reviewService,
	}
}

func (h *ReviewHandler) RegisterRoutes(groups RouteGroups) {
	groups.Public.GET("/ratings/worker/:workerId", h.WorkerReviews)
	groups.Protected.POST("/jobs/:id/review", h.CreateReview)
}

func (h *ReviewHandler) WorkerReviews(c *gin.Context) {
	workerID, ok := h.ParseParamID(c, "workerId")
	if !ok {
		return
	}

	reviews, err := h.reviewService.WorkerReviews(h.GetDB(c), workerID, ParsePage(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// CreateReview - повторная оценка того же заказа обновляет отзыв
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	jobID, ok := h.ParseParamID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateReviewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	review, err := h.reviewService.CreateReview(h.GetDB(c), userID, jobID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}
