package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/repository"
)

// Curriculum is the read-only shape of a course the engine measures progress against.
type Curriculum struct {
	CourseID     uint                `json:"course_id"`
	InstructorID uint                `json:"instructor_id"`
	Title        string              `json:"title"`
	Sections     []CurriculumSection `json:"sections"`
}

// CurriculumSection is an ordered group of lectures.
type CurriculumSection struct {
	ID       uint                `json:"id"`
	Title    string              `json:"title"`
	Lectures []CurriculumLecture `json:"lectures"`
}

// CurriculumLecture is one lecture of a section.
type CurriculumLecture struct {
	ID        uint   `json:"id"`
	SectionID uint   `json:"section_id"`
	Title     string `json:"title"`
	ContentID *uint  `json:"content_id,omitempty"`
}

// TotalLectures is the denominator of curriculum-based progress.
func (c Curriculum) TotalLectures() int {
	total := 0
	for _, section := range c.Sections {
		total += len(section.Lectures)
	}
	return total
}

// FindLecture locates a lecture in any section.
func (c Curriculum) FindLecture(lectureID uint) (CurriculumLecture, bool) {
	for _, section := range c.Sections {
		for _, lecture := range section.Lectures {
			if lecture.ID == lectureID {
				return lecture, true
			}
		}
	}
	return CurriculumLecture{}, false
}

// HasLecture reports whether the lecture belongs to the given section.
func (c Curriculum) HasLecture(sectionID, lectureID uint) bool {
	lecture, ok := c.FindLecture(lectureID)
	return ok && lecture.SectionID == sectionID
}

// CourseCatalog is the read side of course structure used by the engine.
type CourseCatalog interface {
	GetCurriculum(ctx context.Context, courseID uint) (Curriculum, error)
	LectureExists(ctx context.Context, courseID, sectionID, lectureID uint) (bool, error)
}

// CatalogService serves curricula from the database through a redis cache.
type CatalogService interface {
	CourseCatalog
	Invalidate(ctx context.Context, courseID uint) error
}

type catalogService struct {
	courses  repository.CourseRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewCatalogService constructs the catalog service. A nil redis client disables caching.
func NewCatalogService(courses repository.CourseRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) CatalogService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &catalogService{
		courses:  courses,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "catalog_service").Logger(),
	}
}

func curriculumCacheKey(courseID uint) string {
	return fmt.Sprintf("catalog:curriculum:%d", courseID)
}

func (s *catalogService) GetCurriculum(ctx context.Context, courseID uint) (Curriculum, error) {
	cacheKey := curriculumCacheKey(courseID)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		switch {
		case err == nil:
			var curriculum Curriculum
			if unmarshalErr := json.Unmarshal([]byte(cached), &curriculum); unmarshalErr == nil {
				s.logger.Debug().Uint("course_id", courseID).Msg("curriculum cache hit")
				return curriculum, nil
			}
		case !errors.Is(err, redis.Nil):
			s.logger.Warn().Err(err).Uint("course_id", courseID).Msg("failed to read curriculum cache")
		}
	}

	course, err := s.courses.GetWithCurriculum(ctx, courseID)
	if err != nil {
		return Curriculum{}, storeError("catalog.GetCurriculum", err, ErrCourseNotFound)
	}

	curriculum := Curriculum{
		CourseID:     course.ID,
		InstructorID: course.InstructorID,
		Title:        course.Title,
		Sections:     make([]CurriculumSection, 0, len(course.Sections)),
	}
	for _, section := range course.Sections {
		entry := CurriculumSection{ID: section.ID, Title: section.Title, Lectures: make([]CurriculumLecture, 0, len(section.Lectures))}
		for _, lecture := range section.Lectures {
			entry.Lectures = append(entry.Lectures, CurriculumLecture{
				ID:        lecture.ID,
				SectionID: section.ID,
				Title:     lecture.Title,
				ContentID: lecture.ContentID,
			})
		}
		curriculum.Sections = append(curriculum.Sections, entry)
	}

	if s.cache != nil {
		payload, err := json.Marshal(curriculum)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Uint("course_id", courseID).Msg("failed to store curriculum cache")
			}
		}
	}

	return curriculum, nil
}

func (s *catalogService) LectureExists(ctx context.Context, courseID, sectionID, lectureID uint) (bool, error) {
	curriculum, err := s.GetCurriculum(ctx, courseID)
	if err != nil {
		return false, err
	}
	return curriculum.HasLecture(sectionID, lectureID), nil
}

func (s *catalogService) Invalidate(ctx context.Context, courseID uint) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, curriculumCacheKey(courseID)).Err()
}
