package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/assessment-api/internal/dto"
	"github.com/noah-isme/assessment-api/internal/models"
	"github.com/noah-isme/assessment-api/internal/service"
	"github.com/noah-isme/assessment-api/pkg/response"
)

type examService interface {
	Create(ctx context.Context, ownerID string, payload dto.ExamPayload, meta models.RequestMeta) (*models.Exam, error)
	List(ctx context.Context, ownerID string, department, status string) ([]models.ExamSummary, error)
	Get(ctx context.Context, ownerID, id string) (*models.Exam, error)
	Update(ctx context.Context, ownerID, id string, payload dto.ExamPayload, meta models.RequestMeta) (*models.Exam, error)
	Delete(ctx context.Context, ownerID, id string, meta models.RequestMeta) error
}

type examExporter interface {
	Export(ctx context.Context, ownerID, id, format string) (*service.ExportFile, error)
}

// ExamHandler exposes the caller's own exams.
type ExamHandler struct {
	exams    examService
	exporter examExporter
}

// NewExamHandler constructs an ExamHandler.
func NewExamHandler(exams examService, exporter examExporter) *ExamHandler {
	return &ExamHandler{exams: exams, exporter: exporter}
}

// Create godoc
// @Summary Create exam
// @Tags Exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ExamPayload true "Exam payload"
// @Success 201 {object} dto.ExamResponse
// @Failure 400 {object} response.ErrorBody
// @Router /exams [post]
func (h *ExamHandler) Create(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var payload dto.ExamPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, invalidBody(err))
		return
	}

	exam, err := h.exams.Create(c.Request.Context(), user.ID, payload, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ExamResponse{Exam: exam})
}

// List godoc
// @Summary List own exams
// @Description Summaries without questions, most recently updated first
// @Tags Exams
// @Produce json
// @Security BearerAuth
// @Param department query string false "Exact department"
// @Param status query string false "draft or published"
// @Success 200 {object} dto.ExamListResponse
// @Router /exams [get]
func (h *ExamHandler) List(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	exams, err := h.exams.List(c.Request.Context(), user.ID, c.Query("department"), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ExamListResponse{Exams: exams})
}

// Get godoc
// @Summary Get exam
// @Tags Exams
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exam ID"
// @Success 200 {object} dto.ExamResponse
// @Failure 404 {object} response.ErrorBody
// @Router /exams/{id} [get]
func (h *ExamHandler) Get(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	exam, err := h.exams.Get(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ExamResponse{Exam: exam})
}

// Update godoc
// @Summary Update exam
// @Description Applies only the fields present; questions replace the whole list
// @Tags Exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exam ID"
// @Param payload body dto.ExamPayload true "Fields to change"
// @Success 200 {object} dto.ExamResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /exams/{id} [put]
func (h *ExamHandler) Update(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var payload dto.ExamPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, invalidBody(err))
		return
	}

	exam, err := h.exams.Update(c.Request.Context(), user.ID, c.Param("id"), payload, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ExamResponse{Exam: exam})
}

// Delete godoc
// @Summary Delete exam
// @Tags Exams
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exam ID"
// @Success 200 {object} response.OK
// @Failure 404 {object} response.ErrorBody
// @Router /exams/{id} [delete]
func (h *ExamHandler) Delete(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.exams.Delete(c.Request.Context(), user.ID, c.Param("id"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Ack(c)
}

// Export godoc
// @Summary Export exam
// @Description Printable PDF paper or CSV answer key
// @Tags Exams
// @Produce application/pdf
// @Produce text/csv
// @Security BearerAuth
// @Param id path string true "Exam ID"
// @Param format query string false "pdf (default) or csv"
// @Success 200 {file} binary
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /exams/{id}/export [get]
func (h *ExamHandler) Export(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.exporter.Export(c.Request.Context(), user.ID, c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
