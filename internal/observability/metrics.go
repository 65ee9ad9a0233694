package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	enrollmentsTotal     *prometheus.CounterVec
	lecturesCompleted    prometheus.Counter
	assessmentsSubmitted *prometheus.CounterVec
	assessmentsGraded    prometheus.Counter
	badgesGranted        prometheus.Counter
	courseCompletions    prometheus.Counter
	sideEffectFailures   *prometheus.CounterVec
	notificationsSent    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API and the progress engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lms_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		enrollmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_enrollments_total",
			Help: "Enrollment attempts partitioned by result.",
		}, []string{"result"})

		lecturesCompleted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lms_lectures_completed_total",
			Help: "Lecture completions recorded.",
		})

		assessmentsSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_assessments_submitted_total",
			Help: "Assessment submissions partitioned by pass state.",
		}, []string{"passed"})

		assessmentsGraded = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lms_assessments_graded_total",
			Help: "Assessment submissions graded by instructors.",
		})

		badgesGranted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lms_badges_granted_total",
			Help: "Badges granted to students.",
		})

		courseCompletions = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lms_course_completions_total",
			Help: "Enrollments that transitioned to completed.",
		})

		sideEffectFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_side_effect_failures_total",
			Help: "Post-commit side effects that failed.",
		}, []string{"effect"})

		notificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_notifications_sent_total",
			Help: "Notifications persisted, partitioned by type.",
		}, []string{"type"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			enrollmentsTotal,
			lecturesCompleted,
			assessmentsSubmitted,
			assessmentsGraded,
			badgesGranted,
			courseCompletions,
			sideEffectFailures,
			notificationsSent,
		)
	})
}

// MetricsHandler serves the engine and API collectors in the Prometheus text format.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Enrollments counts enrollment attempts by result.
func Enrollments() *prometheus.CounterVec {
	RegisterMetrics()
	return enrollmentsTotal
}

// LecturesCompleted counts lecture completions.
func LecturesCompleted() prometheus.Counter {
	RegisterMetrics()
	return lecturesCompleted
}

// AssessmentsSubmitted counts submissions by pass state.
func AssessmentsSubmitted() *prometheus.CounterVec {
	RegisterMetrics()
	return assessmentsSubmitted
}

// AssessmentsGraded counts grading transitions.
func AssessmentsGraded() prometheus.Counter {
	RegisterMetrics()
	return assessmentsGraded
}

// BadgesGranted counts badge grants.
func BadgesGranted() prometheus.Counter {
	RegisterMetrics()
	return badgesGranted
}

// CourseCompletions counts enrollment completion transitions.
func CourseCompletions() prometheus.Counter {
	RegisterMetrics()
	return courseCompletions
}

// SideEffectFailures counts failed post-commit side effects by name.
func SideEffectFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return sideEffectFailures
}

// NotificationsSent counts persisted notifications by type.
func NotificationsSent() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsSent
}
