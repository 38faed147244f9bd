package courses

import (
	"context"
	"time"

	"academy-api/internal/domain/access"
	"academy-api/internal/platform/apperr"
	"academy-api/internal/platform/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessChecker is the tier gate applied to course detail and enrollment.
type AccessChecker interface {
	CheckFor(ctx context.Context, userID uuid.UUID, requiredLevel int, subject string) (access.Decision, error)
}

type Service struct {
	db     *gorm.DB
	access AccessChecker
	log    *logger.Logger
	now    func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, checker AccessChecker, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		db:     db,
		access: checker,
		log:    log.With("component", "CourseService"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListCourses returns every published course. The list is not tier gated.
func (s *Service) ListCourses(ctx context.Context) ([]Course, error) {
	var list []Course
	if err := s.db.WithContext(ctx).
		Where("status = ?", CoursePublished).
		Order("sort_order ASC").
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, apperr.Unexpected("list courses", err)
	}
	return list, nil
}

// GetCourse loads a course the user's tier is entitled to.
func (s *Service) GetCourse(ctx context.Context, courseID, userID uuid.UUID) (*Course, error) {
	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(ctx, userID, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *Service) Enroll(ctx context.Context, userID, courseID uuid.UUID) (*Enrollment, error) {
	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(ctx, userID, course); err != nil {
		return nil, err
	}

	now := s.now()
	enrollment := &Enrollment{
		UserID:         userID,
		CourseID:       courseID,
		Status:         EnrollmentActive,
		LastAccessedAt: &now,
		EnrolledAt:     now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&Enrollment{}).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			Count(&existing).Error; err != nil {
			return apperr.Unexpected("check enrollment", err)
		}
		if existing > 0 {
			return errAlreadyEnrolled
		}
		if err := tx.Create(enrollment).Error; err != nil {
			if apperr.Is(apperr.FromDB("create enrollment", err, ""), apperr.KindConflict) {
				return errAlreadyEnrolled
			}
			return apperr.Unexpected("create enrollment", err)
		}
		if err := tx.Model(&Course{}).
			Where("id = ?", courseID).
			Update("enrollment_count", gorm.Expr("enrollment_count + 1")).Error; err != nil {
			return apperr.Unexpected("increment enrollment count", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user enrolled", "user_id", userID, "course_id", courseID)
	return enrollment, nil
}

var errAlreadyEnrolled = apperr.Conflict("Already enrolled in this course")

// ListEnrollments returns the user's enrollments newest first with their
// course.
func (s *Service) ListEnrollments(ctx context.Context, userID uuid.UUID) ([]Enrollment, error) {
	var list []Enrollment
	if err := s.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").
		Find(&list).Error; err != nil {
		return nil, apperr.Unexpected("list enrollments", err)
	}
	return list, nil
}

func (s *Service) findCourse(ctx context.Context, id uuid.UUID) (*Course, error) {
	var c Course
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, apperr.FromDB("load course", err, "Course not found")
	}
	return &c, nil
}

func (s *Service) checkAccess(ctx context.Context, userID uuid.UUID, course *Course) error {
	decision, err := s.access.CheckFor(ctx, userID, course.RequiredTierLevel, "course")
	if err != nil {
		return err
	}
	return decision.Err()
}
