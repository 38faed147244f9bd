package courses

import (
	"net/http"

	"academy-api/internal/api/respond"
	"academy-api/internal/app/http/middleware"
	"academy-api/internal/domain/courses"
	"academy-api/internal/platform/apperr"
	"academy-api/internal/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	courses *courses.Service
	log     *logger.Logger
}

func NewHandler(svc *courses.Service, log *logger.Logger) *Handler {
	return &Handler{courses: svc, log: log}
}

type progressRequest struct {
	IsCompleted          *bool `json:"is_completed"`
	WatchTimeSeconds     *int  `json:"watch_time_seconds" binding:"omitempty,min=0"`
	LastPositionSeconds  *int  `json:"last_position_seconds" binding:"omitempty,min=0"`
	CompletionPercentage *int  `json:"completion_percentage" binding:"omitempty,min=0,max=100"`
}

// List is public and shows every published course regardless of tier.
func (h *Handler) List(c *gin.Context) {
	list, err := h.courses.ListCourses(c.Request.Context())
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Get(c *gin.Context) {
	userID, ok := respond.CurrentUser(c)
	if !ok {
		return
	}
	courseID, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}
	course, err := h.courses.GetCourse(c.Request.Context(), courseID, userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *Handler) Enroll(c *gin.Context) {
	userID, ok := respond.CurrentUser(c)
	if !ok {
		return
	}
	courseID, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}
	enrollment, err := h.courses.Enroll(c.Request.Context(), userID, courseID)
	if apperr.Is(err, apperr.KindConflict) {
		// Clients expect a 400 for repeat enrollments.
		c.JSON(http.StatusBadRequest, gin.H{"error": apperr.PublicReason(err), "kind": apperr.KindConflict})
		return
	}
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, enrollment)
}

func (h *Handler) Enrollments(c *gin.Context) {
	userID, ok := respond.CurrentUser(c)
	if !ok {
		return
	}
	list, err := h.courses.ListEnrollments(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Curriculum works for anonymous callers; signed-in callers also get their
// progress per lesson.
func (h *Handler) Curriculum(c *gin.Context) {
	courseID, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}
	var userID *uuid.UUID
	if id, ok := middleware.UserID(c); ok {
		userID = &id
	}
	modules, err := h.courses.Curriculum(c.Request.Context(), courseID, userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, modules)
}

func (h *Handler) GetLesson(c *gin.Context) {
	userID, ok := respond.CurrentUser(c)
	if !ok {
		return
	}
	courseID, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}
	lessonID, ok := respond.ParamUUID(c, "lessonId")
	if !ok {
		return
	}
	lesson, err := h.courses.GetLesson(c.Request.Context(), courseID, lessonID, userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

func (h *Handler) UpdateProgress(c *gin.Context) {
	userID, ok := respond.CurrentUser(c)
	if !ok {
		return
	}
	lessonID, ok := respond.ParamUUID(c, "lessonId")
	if !ok {
		return
	}
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	progress, err := h.courses.UpdateProgress(c.Request.Context(), userID, lessonID, courses.ProgressUpdate{
		IsCompleted:          req.IsCompleted,
		WatchTimeSeconds:     req.WatchTimeSeconds,
		LastPositionSeconds:  req.LastPositionSeconds,
		CompletionPercentage: req.CompletionPercentage,
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *Handler) Complete(c *gin.Context) {
	userID, ok := respond.CurrentUser(c)
	if !ok {
		return
	}
	lessonID, ok := respond.ParamUUID(c, "lessonId")
	if !ok {
		return
	}
	progress, err := h.courses.CompleteLesson(c.Request.Context(), userID, lessonID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lesson marked as complete", "progress": progress})
}
