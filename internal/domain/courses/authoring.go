package courses

import (
	"context"
	"strings"

	"academy-api/internal/domain/tiers"
	"academy-api/internal/platform/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseInput struct {
	Title             string
	Description       string
	ShortDescription  string
	ThumbnailURL      string
	InstructorName    string
	RequiredTierLevel int
	DurationMinutes   int
	SortOrder         int
	IsFeatured        bool
	Status            CourseStatus
}

type ModuleInput struct {
	Title           string
	Description     string
	SortOrder       int
	DurationMinutes int
}

type LessonInput struct {
	Title           string
	Content         string
	LessonType      LessonType
	VideoURL        string
	DurationMinutes int
	SortOrder       int
	IsPreview       bool
}

func (s *Service) CreateCourse(ctx context.Context, in CourseInput) (*Course, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	if in.RequiredTierLevel < tiers.LevelEntry || in.RequiredTierLevel > tiers.LevelPremiumPlus {
		return nil, apperr.Validation("required_tier_level must be between %d and %d", tiers.LevelEntry, tiers.LevelPremiumPlus)
	}
	status := in.Status
	if status == "" {
		status = CourseDraft
	}
	if !status.Valid() {
		return nil, apperr.Validation("unknown course status %q", in.Status)
	}

	course := &Course{
		Title:             title,
		Description:       in.Description,
		ShortDescription:  in.ShortDescription,
		ThumbnailURL:      in.ThumbnailURL,
		InstructorName:    in.InstructorName,
		RequiredTierLevel: in.RequiredTierLevel,
		DurationMinutes:   in.DurationMinutes,
		SortOrder:         in.SortOrder,
		IsFeatured:        in.IsFeatured,
		Status:            status,
	}
	if err := s.db.WithContext(ctx).Create(course).Error; err != nil {
		return nil, apperr.FromDB("create course", err, "")
	}
	s.log.Info("course created", "course_id", course.ID, "status", course.Status)
	return course, nil
}

func (s *Service) CreateModule(ctx context.Context, courseID uuid.UUID, in ModuleInput) (*Module, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Validation("title is required")
	}
	if _, err := s.findCourse(ctx, courseID); err != nil {
		return nil, err
	}

	module := &Module{
		CourseID:        courseID,
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		SortOrder:       in.SortOrder,
		DurationMinutes: in.DurationMinutes,
	}
	if err := s.db.WithContext(ctx).Create(module).Error; err != nil {
		return nil, sortOrderConflict(apperr.FromDB("create module", err, ""), "module", in.SortOrder)
	}
	return module, nil
}

func (s *Service) CreateLesson(ctx context.Context, moduleID uuid.UUID, in LessonInput) (*Lesson, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Validation("title is required")
	}
	kind := in.LessonType
	if kind == "" {
		kind = LessonText
	}
	if !kind.Valid() {
		return nil, apperr.Validation("unknown lesson type %q", in.LessonType)
	}

	var module Module
	if err := s.db.WithContext(ctx).First(&module, "id = ?", moduleID).Error; err != nil {
		return nil, apperr.FromDB("load module", err, "Module not found")
	}

	lesson := &Lesson{
		ModuleID:        moduleID,
		Title:           strings.TrimSpace(in.Title),
		Content:         in.Content,
		LessonType:      kind,
		VideoURL:        in.VideoURL,
		DurationMinutes: in.DurationMinutes,
		SortOrder:       in.SortOrder,
		IsPreview:       in.IsPreview,
	}
	if err := s.db.WithContext(ctx).Create(lesson).Error; err != nil {
		return nil, sortOrderConflict(apperr.FromDB("create lesson", err, ""), "lesson", in.SortOrder)
	}
	return lesson, nil
}

// CourseUpdate carries the course fields to change; nil fields are kept.
type CourseUpdate struct {
	Title             *string
	Description       *string
	ShortDescription  *string
	ThumbnailURL      *string
	InstructorName    *string
	RequiredTierLevel *int
	DurationMinutes   *int
	SortOrder         *int
	IsFeatured        *bool
	Status            *CourseStatus
}

func (s *Service) UpdateCourse(ctx context.Context, courseID uuid.UUID, in CourseUpdate) (*Course, error) {
	updates := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.Validation("title is required")
		}
		updates["title"] = title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.ShortDescription != nil {
		updates["short_description"] = *in.ShortDescription
	}
	if in.ThumbnailURL != nil {
		updates["thumbnail_url"] = *in.ThumbnailURL
	}
	if in.InstructorName != nil {
		updates["instructor_name"] = *in.InstructorName
	}
	if in.RequiredTierLevel != nil {
		level := *in.RequiredTierLevel
		if level < tiers.LevelEntry || level > tiers.LevelPremiumPlus {
			return nil, apperr.Validation("required_tier_level must be between %d and %d", tiers.LevelEntry, tiers.LevelPremiumPlus)
		}
		updates["required_tier_level"] = level
	}
	if in.DurationMinutes != nil {
		updates["duration_minutes"] = *in.DurationMinutes
	}
	if in.SortOrder != nil {
		updates["sort_order"] = *in.SortOrder
	}
	if in.IsFeatured != nil {
		updates["is_featured"] = *in.IsFeatured
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperr.Validation("unknown course status %q", *in.Status)
		}
		updates["status"] = *in.Status
	}

	var course Course
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&course, "id = ?", courseID).Error; err != nil {
			return apperr.FromDB("load course", err, "Course not found")
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&course).Updates(updates).Error; err != nil {
			return apperr.FromDB("update course", err, "")
		}
		return tx.First(&course, "id = ?", courseID).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("course updated", "course_id", courseID, "fields", len(updates))
	return &course, nil
}

// ArchiveCourse hides a course from the listing. Enrolled users keep their
// progress.
func (s *Service) ArchiveCourse(ctx context.Context, courseID uuid.UUID) (*Course, error) {
	return s.SetCourseStatus(ctx, courseID, CourseArchived)
}

// PublishCourse makes a course visible in the public listing.
func (s *Service) PublishCourse(ctx context.Context, courseID uuid.UUID) (*Course, error) {
	return s.SetCourseStatus(ctx, courseID, CoursePublished)
}

func (s *Service) SetCourseStatus(ctx context.Context, courseID uuid.UUID, status CourseStatus) (*Course, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown course status %q", status)
	}
	var course Course
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&course, "id = ?", courseID).Error; err != nil {
			return apperr.FromDB("load course", err, "Course not found")
		}
		if err := tx.Model(&course).Update("status", status).Error; err != nil {
			return apperr.Unexpected("update course status", err)
		}
		course.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("course status changed", "course_id", courseID, "status", status)
	return &course, nil
}

func sortOrderConflict(err error, what string, order int) error {
	if apperr.Is(err, apperr.KindConflict) {
		return apperr.Conflict("A %s with sort order %d already exists", what, order)
	}
	return err
}
