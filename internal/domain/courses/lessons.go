package courses

import (
	"context"
	"errors"
	"math"

	"academy-api/internal/platform/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CurriculumLesson struct {
	Lesson
	Progress    *LessonProgress `json:"progress"`
	IsCompleted bool            `json:"is_completed"`
}

type CurriculumModule struct {
	Module
	Lessons []CurriculumLesson `json:"lessons"`
}

type LessonRef struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type Navigation struct {
	Previous *LessonRef `json:"previous"`
	Next     *LessonRef `json:"next"`
}

type LessonView struct {
	Lesson
	Progress   LessonProgress `json:"progress"`
	Navigation Navigation     `json:"navigation"`
}

// ProgressUpdate carries the fields a client wants to change. Nil fields are
// left untouched.
type ProgressUpdate struct {
	IsCompleted          *bool `json:"is_completed"`
	WatchTimeSeconds     *int  `json:"watch_time_seconds"`
	LastPositionSeconds  *int  `json:"last_position_seconds"`
	CompletionPercentage *int  `json:"completion_percentage"`
}

func (u ProgressUpdate) Validate() error {
	if u.WatchTimeSeconds != nil && *u.WatchTimeSeconds < 0 {
		return apperr.Validation("watch_time_seconds must not be negative")
	}
	if u.LastPositionSeconds != nil && *u.LastPositionSeconds < 0 {
		return apperr.Validation("last_position_seconds must not be negative")
	}
	if p := u.CompletionPercentage; p != nil && (*p < 0 || *p > 100) {
		return apperr.Validation("completion_percentage must be between 0 and 100")
	}
	return nil
}

// Curriculum returns the course's modules with their lessons, both ordered by
// sort order. With a user, each lesson carries that user's progress.
func (s *Service) Curriculum(ctx context.Context, courseID uuid.UUID, userID *uuid.UUID) ([]CurriculumModule, error) {
	if _, err := s.findCourse(ctx, courseID); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var modules []Module
	if err := db.Where("course_id = ?", courseID).Order("sort_order ASC").Find(&modules).Error; err != nil {
		return nil, apperr.Unexpected("load modules", err)
	}
	out := make([]CurriculumModule, len(modules))
	if len(modules) == 0 {
		return out, nil
	}

	moduleIDs := make([]uuid.UUID, len(modules))
	index := make(map[uuid.UUID]int, len(modules))
	for i, m := range modules {
		moduleIDs[i] = m.ID
		index[m.ID] = i
		out[i] = CurriculumModule{Module: m, Lessons: []CurriculumLesson{}}
	}

	var lessons []Lesson
	if err := db.Where("module_id IN ?", moduleIDs).Order("sort_order ASC").Find(&lessons).Error; err != nil {
		return nil, apperr.Unexpected("load lessons", err)
	}

	progress := map[uuid.UUID]*LessonProgress{}
	if userID != nil && len(lessons) > 0 {
		lessonIDs := make([]uuid.UUID, len(lessons))
		for i, l := range lessons {
			lessonIDs[i] = l.ID
		}
		var rows []LessonProgress
		if err := db.Where("user_id = ? AND lesson_id IN ?", *userID, lessonIDs).Find(&rows).Error; err != nil {
			return nil, apperr.Unexpected("load lesson progress", err)
		}
		for i := range rows {
			progress[rows[i].LessonID] = &rows[i]
		}
	}

	for _, l := range lessons {
		p := progress[l.ID]
		i := index[l.ModuleID]
		out[i].Lessons = append(out[i].Lessons, CurriculumLesson{
			Lesson:      l,
			Progress:    p,
			IsCompleted: p != nil && p.IsCompleted,
		})
	}
	return out, nil
}

// GetLesson opens a lesson for an enrolled user: progress is created on first
// access and the enrollment's last access is stamped.
func (s *Service) GetLesson(ctx context.Context, courseID, lessonID, userID uuid.UUID) (*LessonView, error) {
	db := s.db.WithContext(ctx)

	var enrollment Enrollment
	err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Forbidden("You must be enrolled in this course to access lessons")
	}
	if err != nil {
		return nil, apperr.Unexpected("load enrollment", err)
	}

	lesson, module, err := s.findLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if module.CourseID != courseID {
		return nil, apperr.Forbidden("Lesson does not belong to this course")
	}

	view := &LessonView{Lesson: *lesson}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := ensureProgress(tx, userID, lessonID); err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&view.Progress).Error; err != nil {
			return apperr.Unexpected("load lesson progress", err)
		}
		if err := tx.Model(&Enrollment{}).
			Where("id = ?", enrollment.ID).
			Update("last_accessed_at", s.now()).Error; err != nil {
			return apperr.Unexpected("touch enrollment", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	nav, err := s.navigation(ctx, lesson, module)
	if err != nil {
		return nil, err
	}
	view.Navigation = nav
	return view, nil
}

// UpdateProgress writes the supplied fields and recomputes the course
// progress of the user in the same transaction.
func (s *Service) UpdateProgress(ctx context.Context, userID, lessonID uuid.UUID, upd ProgressUpdate) (*LessonProgress, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	_, module, err := s.findLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	var progress LessonProgress
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureProgress(tx, userID, lessonID); err != nil {
			return err
		}

		updates := map[string]any{}
		if upd.WatchTimeSeconds != nil {
			updates["watch_time_seconds"] = *upd.WatchTimeSeconds
		}
		if upd.LastPositionSeconds != nil {
			updates["last_position_seconds"] = *upd.LastPositionSeconds
		}
		if upd.CompletionPercentage != nil {
			updates["completion_percentage"] = *upd.CompletionPercentage
		}
		if upd.IsCompleted != nil {
			updates["is_completed"] = *upd.IsCompleted
			if *upd.IsCompleted {
				updates["completed_at"] = gorm.Expr("COALESCE(completed_at, ?)", s.now())
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(&LessonProgress{}).
				Where("user_id = ? AND lesson_id = ?", userID, lessonID).
				Updates(updates).Error; err != nil {
				return apperr.Unexpected("update lesson progress", err)
			}
		}

		if _, err := s.recompute(tx, userID, module.CourseID); err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&progress).Error; err != nil {
			return apperr.Unexpected("load lesson progress", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (s *Service) CompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (*LessonProgress, error) {
	done, full := true, 100
	return s.UpdateProgress(ctx, userID, lessonID, ProgressUpdate{
		IsCompleted:          &done,
		CompletionPercentage: &full,
	})
}

// RecomputeProgress recounts the user's completed lessons of the course and
// stores the percentage on the enrollment. It returns the percentage.
func (s *Service) RecomputeProgress(ctx context.Context, userID, courseID uuid.UUID) (int, error) {
	var pct int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		pct, err = s.recompute(tx, userID, courseID)
		return err
	})
	return pct, err
}

func (s *Service) recompute(tx *gorm.DB, userID, courseID uuid.UUID) (int, error) {
	courseLessons := tx.Model(&Lesson{}).
		Select("course_lessons.id").
		Joins("JOIN course_modules ON course_modules.id = course_lessons.module_id").
		Where("course_modules.course_id = ?", courseID)

	var total int64
	if err := courseLessons.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, apperr.Unexpected("count course lessons", err)
	}

	var completed int64
	if err := tx.Model(&LessonProgress{}).
		Where("user_id = ? AND is_completed = ? AND lesson_id IN (?)", userID, true, courseLessons).
		Count(&completed).Error; err != nil {
		return 0, apperr.Unexpected("count completed lessons", err)
	}

	pct := 0
	if total > 0 {
		pct = int(math.Round(100 * float64(completed) / float64(total)))
	}

	enrollment := tx.Model(&Enrollment{}).Where("user_id = ? AND course_id = ?", userID, courseID)
	if err := enrollment.Session(&gorm.Session{}).Update("progress_percentage", pct).Error; err != nil {
		return 0, apperr.Unexpected("update course progress", err)
	}
	if pct == 100 {
		if err := enrollment.Session(&gorm.Session{}).
			Update("completed_at", gorm.Expr("COALESCE(completed_at, ?)", s.now())).Error; err != nil {
			return 0, apperr.Unexpected("stamp course completion", err)
		}
		if err := enrollment.Session(&gorm.Session{}).
			Where("status = ?", EnrollmentActive).
			Update("status", EnrollmentCompleted).Error; err != nil {
			return 0, apperr.Unexpected("complete enrollment", err)
		}
	}
	return pct, nil
}

// navigation links to the neighbouring lessons. Previous stays inside the
// module; next falls through to the first lesson of the next module that has
// any.
func (s *Service) navigation(ctx context.Context, lesson *Lesson, module *Module) (Navigation, error) {
	db := s.db.WithContext(ctx)
	var nav Navigation

	var siblings []Lesson
	if err := db.Select("id", "title", "sort_order").
		Where("module_id = ?", module.ID).
		Order("sort_order ASC").
		Find(&siblings).Error; err != nil {
		return nav, apperr.Unexpected("load module lessons", err)
	}

	at := -1
	for i := range siblings {
		if siblings[i].ID == lesson.ID {
			at = i
			break
		}
	}
	if at > 0 {
		nav.Previous = &LessonRef{ID: siblings[at-1].ID, Title: siblings[at-1].Title}
	}
	if at >= 0 && at < len(siblings)-1 {
		nav.Next = &LessonRef{ID: siblings[at+1].ID, Title: siblings[at+1].Title}
		return nav, nil
	}

	var next Lesson
	err := db.Model(&Lesson{}).
		Select("course_lessons.id", "course_lessons.title").
		Joins("JOIN course_modules ON course_modules.id = course_lessons.module_id").
		Where("course_modules.course_id = ? AND course_modules.sort_order > ?", module.CourseID, module.SortOrder).
		Order("course_modules.sort_order ASC").
		Order("course_lessons.sort_order ASC").
		Take(&next).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nav, nil
	}
	if err != nil {
		return nav, apperr.Unexpected("load next lesson", err)
	}
	nav.Next = &LessonRef{ID: next.ID, Title: next.Title}
	return nav, nil
}

func (s *Service) findLesson(ctx context.Context, id uuid.UUID) (*Lesson, *Module, error) {
	db := s.db.WithContext(ctx)

	var lesson Lesson
	if err := db.First(&lesson, "id = ?", id).Error; err != nil {
		return nil, nil, apperr.FromDB("load lesson", err, "Lesson not found")
	}
	var module Module
	if err := db.First(&module, "id = ?", lesson.ModuleID).Error; err != nil {
		return nil, nil, apperr.FromDB("load module", err, "Lesson not found")
	}
	return &lesson, &module, nil
}

// ensureProgress creates the (user, lesson) progress row unless it exists.
func ensureProgress(tx *gorm.DB, userID, lessonID uuid.UUID) error {
	row := &LessonProgress{UserID: userID, LessonID: lessonID}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoNothing: true,
	}).Create(row).Error
	if err != nil {
		return apperr.Unexpected("create lesson progress", err)
	}
	return nil
}
