package models

import "time"

// Course status values.
const (
	CourseStatusDraft     = "draft"
	CourseStatusPublished = "published"
	CourseStatusArchived  = "archived"
)

// Course is the catalog entry whose curriculum defines what 100% means.
type Course struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Title         string          `gorm:"size:255;not null" json:"title"`
	InstructorID  uint            `gorm:"index;not null" json:"instructor_id"`
	Status        string          `gorm:"size:16;not null;default:draft" json:"status"`
	TotalStudents int             `gorm:"not null;default:0" json:"total_students"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Sections      []CourseSection `gorm:"foreignKey:CourseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"sections"`
}

// CourseSection is an ordered group of lectures.
type CourseSection struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	CourseID uint            `gorm:"index;not null" json:"course_id"`
	Title    string          `gorm:"size:255;not null" json:"title"`
	Position int             `gorm:"not null;default:0" json:"position"`
	Lectures []CourseLecture `gorm:"foreignKey:SectionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"lectures"`
}

// CourseLecture is a single unit of curriculum, optionally backed by a content item.
type CourseLecture struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	SectionID uint   `gorm:"index;not null" json:"section_id"`
	Title     string `gorm:"size:255;not null" json:"title"`
	Position  int    `gorm:"not null;default:0" json:"position"`
	ContentID *uint  `json:"content_id"`
}

// TotalLectures counts lectures across all sections.
func (c Course) TotalLectures() int {
	total := 0
	for _, section := range c.Sections {
		total += len(section.Lectures)
	}
	return total
}
