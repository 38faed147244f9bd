package admin

import (
	"net/http"

	"academy-api/internal/api/respond"
	"academy-api/internal/domain/courses"

	"github.com/gin-gonic/gin"
)

type createCourseRequest struct {
	Title             string `json:"title" binding:"required,max=255"`
	Description       string `json:"description"`
	ShortDescription  string `json:"short_description"`
	ThumbnailURL      string `json:"thumbnail_url" binding:"omitempty,url"`
	InstructorName    string `json:"instructor_name" binding:"max=100"`
	RequiredTierLevel int    `json:"required_tier_level" binding:"required,min=1"`
	DurationMinutes   int    `json:"duration_minutes" binding:"min=0"`
	SortOrder         int    `json:"sort_order" binding:"min=0"`
	IsFeatured        bool   `json:"is_featured"`
	Status            string `json:"status" binding:"omitempty,oneof=draft published archived"`
}

type createModuleRequest struct {
	Title           string `json:"title" binding:"required,max=255"`
	Description     string `json:"description"`
	SortOrder       int    `json:"sort_order" binding:"min=0"`
	DurationMinutes int    `json:"duration_minutes" binding:"min=0"`
}

type createLessonRequest struct {
	Title           string `json:"title" binding:"required,max=255"`
	Content         string `json:"content"`
	LessonType      string `json:"lesson_type" binding:"omitempty,oneof=video text quiz mixed"`
	VideoURL        string `json:"video_url" binding:"omitempty,url"`
	DurationMinutes int    `json:"duration_minutes" binding:"min=0"`
	SortOrder       int    `json:"sort_order" binding:"min=0"`
	IsPreview       bool   `json:"is_preview"`
}

func (h *Handler) CreateCourse(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	course, err := h.courses.CreateCourse(c.Request.Context(), courses.CourseInput{
		Title:             req.Title,
		Description:       req.Description,
		ShortDescription:  req.ShortDescription,
		ThumbnailURL:      req.ThumbnailURL,
		InstructorName:    req.InstructorName,
		RequiredTierLevel: req.RequiredTierLevel,
		DurationMinutes:   req.DurationMinutes,
		SortOrder:         req.SortOrder,
		IsFeatured:        req.IsFeatured,
		Status:            courses.CourseStatus(req.Status),
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (h *Handler) CreateModule(c *gin.Context) {
	courseID, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req createModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	module, err := h.courses.CreateModule(c.Request.Context(), courseID, courses.ModuleInput{
		Title:           req.Title,
		Description:     req.Description,
		SortOrder:       req.SortOrder,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, module)
}

func (h *Handler) CreateLesson(c *gin.Context) {
	moduleID, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req createLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	lesson, err := h.courses.CreateLesson(c.Request.Context(), moduleID, courses.LessonInput{
		Title:           req.Title,
		Content:         req.Content,
		LessonType:      courses.LessonType(req.LessonType),
		VideoURL:        req.VideoURL,
		DurationMinutes: req.DurationMinutes,
		SortOrder:       req.SortOrder,
		IsPreview:       req.IsPreview,
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, lesson)
}

func (h *Handler) PublishCourse(c *gin.Context) {
	courseID, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}
	course, err := h.courses.PublishCourse(c.Request.Context(), courseID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

type updateCourseRequest struct {
	Title             *string `json:"title" binding:"omitempty,max=255"`
	Description       *string `json:"description"`
	ShortDescription  *string `json:"short_description"`
	ThumbnailURL      *string `json:"thumbnail_url" binding:"omitempty,url"`
	InstructorName    *string `json:"instructor_name" binding:"omitempty,max=100"`
	RequiredTierLevel *int    `json:"required_tier_level" binding:"omitempty,min=1"`
	DurationMinutes   *int    `json:"duration_minutes" binding:"omitempty,min=0"`
	SortOrder         *int    `json:"sort_order" binding:"omitempty,min=0"`
	IsFeatured        *bool   `json:"is_featured"`
	Status            *string `json:"status" binding:"omitempty,oneof=draft published archived"`
}

func (h *Handler) UpdateCourse(c *gin.Context) {
	courseID, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req updateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	upd := courses.CourseUpdate{
		Title:             req.Title,
		Description:       req.Description,
		ShortDescription:  req.ShortDescription,
		ThumbnailURL:      req.ThumbnailURL,
		InstructorName:    req.InstructorName,
		RequiredTierLevel: req.RequiredTierLevel,
		DurationMinutes:   req.DurationMinutes,
		SortOrder:         req.SortOrder,
		IsFeatured:        req.IsFeatured,
	}
	if req.Status != nil {
		status := courses.CourseStatus(*req.Status)
		upd.Status = &status
	}
	course, err := h.courses.UpdateCourse(c.Request.Context(), courseID, upd)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *Handler) ArchiveCourse(c *gin.Context) {
	courseID, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}
	course, err := h.courses.ArchiveCourse(c.Request.Context(), courseID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, course)
}
