package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/observability"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

// BadgeHistory is the student history the evaluator reads.
type BadgeHistory struct {
	Held             map[uint]struct{}
	CompletedCourses []models.CompletedCourse
	Results          []models.AssessmentResult
}

// QualifyingBadges returns the ids of active badges not yet held whose criteria the history meets.
func QualifyingBadges(catalog []models.Badge, history BadgeHistory) []uint {
	qualifying := make([]uint, 0)
	for _, badge := range catalog {
		if !badge.IsActive {
			continue
		}
		if _, held := history.Held[badge.ID]; held {
			continue
		}
		if badgeQualifies(badge, history) {
			qualifying = append(qualifying, badge.ID)
		}
	}
	return qualifying
}

func badgeQualifies(badge models.Badge, history BadgeHistory) bool {
	switch badge.Criteria {
	case models.BadgeCriteriaCourseCompletion:
		if badge.CourseID != nil {
			for _, completed := range history.CompletedCourses {
				if completed.CourseID == *badge.CourseID {
					return true
				}
			}
			return false
		}
		if badge.Threshold == nil {
			return false
		}
		return len(history.CompletedCourses) >= *badge.Threshold

	case models.BadgeCriteriaAssessmentScore:
		if badge.Threshold == nil {
			return false
		}
		count := 0
		for _, result := range history.Results {
			if !result.Passed || result.TotalPoints <= 0 {
				continue
			}
			if badge.MinScore != nil && result.Percentage() < *badge.MinScore {
				continue
			}
			if badge.CourseID != nil && result.CourseID != *badge.CourseID {
				continue
			}
			count++
		}
		return count >= *badge.Threshold

	default:
		return false
	}
}

// BadgeService evaluates and lists student badges.
type BadgeService interface {
	CheckAndAssignBadges(ctx context.Context, studentID uint) (dto.BadgeCheckResult, error)
	ListStudentBadges(ctx context.Context, studentID uint) ([]dto.BadgeResponse, error)
}

type badgeService struct {
	badges   repository.BadgeRepository
	users    repository.UserRepository
	notifier Notifier
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewBadgeService constructs the badge evaluator.
func NewBadgeService(badges repository.BadgeRepository, users repository.UserRepository, notifier Notifier, logger zerolog.Logger) BadgeService {
	return &badgeService{
		badges:   badges,
		users:    users,
		notifier: notifier,
		logger:   logger.With().Str("component", "badge_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/gema-lms-api/internal/service/badge"),
		now:      time.Now,
	}
}

// CheckAndAssignBadges grants every newly qualifying badge in one batch. Grants
// have set semantics, so repeated calls never duplicate or revoke a badge.
func (s *badgeService) CheckAndAssignBadges(ctx context.Context, studentID uint) (dto.BadgeCheckResult, error) {
	ctx, span := s.tracer.Start(ctx, "badges.check_and_assign", trace.WithAttributes(
		attribute.Int64("badge.student_id", int64(studentID)),
	))
	defer span.End()

	fail := func(status string, err error) (dto.BadgeCheckResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return dto.BadgeCheckResult{}, err
	}

	if err := requireStudent(ctx, s.users, studentID); err != nil {
		return fail("student_not_found", err)
	}

	catalog, err := s.badges.ListActive(ctx)
	if err != nil {
		return fail("catalog_failed", fmt.Errorf("badge.Check: %w", err))
	}

	history, err := s.history(ctx, studentID)
	if err != nil {
		return fail("history_failed", err)
	}

	result := dto.BadgeCheckResult{StudentID: studentID, Granted: []dto.BadgeResponse{}}
	qualifying := QualifyingBadges(catalog, history)
	if len(qualifying) == 0 {
		return result, nil
	}

	now := s.now().UTC()
	granted, err := s.users.GrantBadges(ctx, studentID, qualifying, now)
	if err != nil {
		return fail("grant_failed", fmt.Errorf("badge.Check: %w", err))
	}

	byID := make(map[uint]models.Badge, len(catalog))
	for _, badge := range catalog {
		byID[badge.ID] = badge
	}

	for _, badgeID := range granted {
		badge := byID[badgeID]
		observability.BadgesGranted().Inc()
		result.Granted = append(result.Granted, dto.NewBadgeResponse(models.UserBadge{
			UserID:    studentID,
			BadgeID:   badgeID,
			GrantedAt: now,
			Badge:     badge,
		}))
		s.notifyGrant(ctx, &result.Outcome, studentID, badge)
	}

	span.SetAttributes(attribute.Int("badge.granted", len(granted)))
	s.logger.Info().Uint("student_id", studentID).Int("granted", len(granted)).Msg("badges granted")
	return result, nil
}

func (s *badgeService) history(ctx context.Context, studentID uint) (BadgeHistory, error) {
	held, err := s.users.ListBadges(ctx, studentID)
	if err != nil {
		return BadgeHistory{}, fmt.Errorf("badge.History: %w", err)
	}
	completed, err := s.users.ListCompletedCourses(ctx, studentID)
	if err != nil {
		return BadgeHistory{}, fmt.Errorf("badge.History: %w", err)
	}
	results, err := s.users.ListAssessmentResults(ctx, studentID)
	if err != nil {
		return BadgeHistory{}, fmt.Errorf("badge.History: %w", err)
	}

	history := BadgeHistory{
		Held:             make(map[uint]struct{}, len(held)),
		CompletedCourses: completed,
		Results:          results,
	}
	for _, grant := range held {
		history.Held[grant.BadgeID] = struct{}{}
	}
	return history, nil
}

func (s *badgeService) notifyGrant(ctx context.Context, outcome *dto.Outcome, studentID uint, badge models.Badge) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.Notify(ctx, dto.NotificationCreateRequest{
		UserID:  studentID,
		Title:   "New badge earned",
		Message: fmt.Sprintf("You earned the %s badge.", badge.Name),
		Type:    string(models.NotificationTypeSystem),
		Related: &dto.RelatedEntityPayload{Kind: string(models.RelatedBadge), ID: badge.ID},
	})
	if err != nil {
		observability.SideEffectFailures().WithLabelValues("notification").Inc()
		s.logger.Warn().Err(err).Uint("student_id", studentID).Uint("badge_id", badge.ID).Msg("failed to send badge notification")
		warnOutcome(outcome, "notification", err)
	}
}

func (s *badgeService) ListStudentBadges(ctx context.Context, studentID uint) ([]dto.BadgeResponse, error) {
	grants, err := s.users.ListBadges(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("badge.List: %w", err)
	}

	responses := make([]dto.BadgeResponse, 0, len(grants))
	for _, grant := range grants {
		responses = append(responses, dto.NewBadgeResponse(grant))
	}
	return responses, nil
}

// BadgeListener evaluates badges after course completions and assessment submissions.
type BadgeListener struct {
	badges BadgeService
}

// NewBadgeListener wraps the badge service as a progress listener.
func NewBadgeListener(badges BadgeService) *BadgeListener {
	return &BadgeListener{badges: badges}
}

// Name identifies the listener in logs and metrics.
func (l *BadgeListener) Name() string { return "badge_evaluator" }

// HandleProgressEvent runs the evaluator for events that can change badge qualification.
func (l *BadgeListener) HandleProgressEvent(ctx context.Context, event ProgressEvent) error {
	switch event.Type {
	case EventCourseCompleted, EventAssessmentSubmitted:
		_, err := l.badges.CheckAndAssignBadges(ctx, event.StudentID)
		return err
	default:
		return nil
	}
}
