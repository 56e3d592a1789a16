package checkin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/recovery-api/internal/handler"
	"github.com/jwalitptl/recovery-api/internal/model"
	"github.com/jwalitptl/recovery-api/internal/service/checkin"
)

type Handler struct {
	service checkin.CheckInService
}

func NewHandler(service checkin.CheckInService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/patients/:id/checkins", h.Submit)
	r.GET("/patients/:id/checkins", h.ListByPatient)
	r.GET("/checkins/:id", h.Get)
	r.PUT("/checkins/:id/review", h.MarkReviewed)
}

// submitResponse carries the admission verdict alongside the stored
// check-in so clients can tell a cooldown rejection from a hard error.
type submitResponse struct {
	Admitted       bool                   `json:"admitted"`
	Reason         model.RejectionReason  `json:"reason,omitempty"`
	HoursRemaining int                    `json:"hoursRemaining,omitempty"`
	CheckIn        *model.SymptomCheckIn  `json:"checkIn,omitempty"`
}

func (h *Handler) Submit(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	var req model.SubmitCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	checkIn, verdict, err := h.service.Submit(c.Request.Context(), patientID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	body := submitResponse{
		Admitted:       verdict.Allowed,
		Reason:         verdict.Reason,
		HoursRemaining: verdict.HoursRemaining,
		CheckIn:        checkIn,
	}
	if !verdict.Allowed {
		c.JSON(http.StatusConflict, handler.NewSuccessResponse(body))
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(body))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid check-in ID"))
		return
	}

	checkIn, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(checkIn))
}

func (h *Handler) ListByPatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	window, err := handler.ParseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid time window"))
		return
	}

	checkIns, err := h.service.ListByPatient(c.Request.Context(), patientID, window)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(checkIns))
}

func (h *Handler) MarkReviewed(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid check-in ID"))
		return
	}

	if err := h.service.MarkReviewed(c.Request.Context(), actor, id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
