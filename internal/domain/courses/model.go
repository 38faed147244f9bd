package courses

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseStatus string

const (
	CourseDraft     CourseStatus = "draft"
	CoursePublished CourseStatus = "published"
	CourseArchived  CourseStatus = "archived"
)

func (s CourseStatus) Valid() bool {
	return s == CourseDraft || s == CoursePublished || s == CourseArchived
}

type LessonType string

const (
	LessonVideo LessonType = "video"
	LessonText  LessonType = "text"
	LessonQuiz  LessonType = "quiz"
	LessonMixed LessonType = "mixed"
)

func (t LessonType) Valid() bool {
	switch t {
	case LessonVideo, LessonText, LessonQuiz, LessonMixed:
		return true
	}
	return false
}

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

type Course struct {
	ID                uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Title             string       `gorm:"type:varchar(255);not null" json:"title"`
	Description       string       `gorm:"type:text" json:"description"`
	ShortDescription  string       `gorm:"type:text" json:"short_description,omitempty"`
	ThumbnailURL      string       `gorm:"type:varchar(255)" json:"thumbnail_url,omitempty"`
	InstructorName    string       `gorm:"type:varchar(100)" json:"instructor_name,omitempty"`
	DurationMinutes   int          `gorm:"not null;default:0" json:"duration_minutes"`
	RequiredTierLevel int          `gorm:"not null" json:"required_tier_level"`
	Status            CourseStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	EnrollmentCount   int          `gorm:"not null;default:0" json:"enrollment_count"`
	IsFeatured        bool         `gorm:"not null;default:false" json:"is_featured"`
	SortOrder         int          `gorm:"not null;default:0" json:"sort_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Course) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Module struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_course_modules_order,priority:1" json:"course_id"`
	Title           string    `gorm:"type:varchar(255);not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description,omitempty"`
	SortOrder       int       `gorm:"not null;uniqueIndex:idx_course_modules_order,priority:2" json:"sort_order"`
	DurationMinutes int       `gorm:"not null;default:0" json:"duration_minutes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Module) TableName() string { return "course_modules" }

func (m *Module) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type Lesson struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_course_lessons_order,priority:1" json:"module_id"`
	Title           string     `gorm:"type:varchar(255);not null" json:"title"`
	Content         string     `gorm:"type:text" json:"content,omitempty"`
	LessonType      LessonType `gorm:"type:varchar(20);not null" json:"lesson_type"`
	VideoURL        string     `gorm:"type:varchar(500)" json:"video_url,omitempty"`
	DurationMinutes int        `gorm:"not null;default:0" json:"duration_minutes"`
	SortOrder       int        `gorm:"not null;uniqueIndex:idx_course_lessons_order,priority:2" json:"sort_order"`
	IsPreview       bool       `gorm:"not null;default:false" json:"is_preview"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Lesson) TableName() string { return "course_lessons" }

func (l *Lesson) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type Enrollment struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_user_course,priority:1" json:"user_id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_user_course,priority:2;index" json:"course_id"`
	Course   *Course   `gorm:"foreignKey:CourseID" json:"course,omitempty"`

	Status EnrollmentStatus `gorm:"type:varchar(20);not null" json:"status"`
	// Derived from lesson progress; only recompute writes it.
	ProgressPercentage int        `gorm:"not null;default:0" json:"progress_percentage"`
	LastAccessedAt     *time.Time `json:"last_accessed_at"`
	CompletedAt        *time.Time `json:"completed_at"`
	EnrolledAt         time.Time  `gorm:"not null" json:"enrolled_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (e *Enrollment) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type LessonProgress struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_progress_user_lesson,priority:1" json:"user_id"`
	LessonID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_progress_user_lesson,priority:2;index" json:"lesson_id"`

	IsCompleted          bool `gorm:"not null;default:false" json:"is_completed"`
	WatchTimeSeconds     int  `gorm:"not null;default:0" json:"watch_time_seconds"`
	LastPositionSeconds  int  `gorm:"not null;default:0" json:"last_position_seconds"`
	CompletionPercentage int  `gorm:"not null;default:0" json:"completion_percentage"`
	// Set the first time the lesson is completed and never cleared.
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }

func (p *LessonProgress) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
