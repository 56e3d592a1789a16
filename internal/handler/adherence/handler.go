package adherence

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/recovery-api/internal/handler"
	"github.com/jwalitptl/recovery-api/internal/service/adherence"
)

type Handler struct {
	service adherence.AdherenceService
}

func NewHandler(service adherence.AdherenceService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients/:id")
	{
		patients.GET("/adherence", h.Report)
		patients.GET("/adherence/tasks", h.TaskAdherence)
		patients.GET("/adherence/medications", h.MedicationAdherence)
	}
}

func (h *Handler) Report(c *gin.Context) {
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

	report, err := h.service.Report(c.Request.Context(), patientID, window)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(report))
}

func (h *Handler) TaskAdherence(c *gin.Context) {
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

	score, err := h.service.TaskAdherence(c.Request.Context(), patientID, window)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(score))
}

func (h *Handler) MedicationAdherence(c *gin.Context) {
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

	score, err := h.service.MedicationAdherence(c.Request.Context(), patientID, window)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(score))
}
