package handler_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
)

func TestProgressResponseContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("testdata", "progress.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)

	a := setupApp(t)
	instructor := a.seedUser(t, models.UserRoleInstructor, "instructor@example.com")
	student := a.seedUser(t, models.UserRoleStudent, "student@example.com")
	course := a.seedCourse(t, instructor.id, 3)
	payment := a.seedPayment(t, student.id, course.ID)
	quiz := a.seedQuiz(t, course.ID, instructor.id)

	resp := a.do(t, &student, http.MethodPost, "/api/v1/student/enrollments", dto.EnrollRequest{CourseID: course.ID, PaymentID: payment.ID})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	base := fmt.Sprintf("/api/v1/student/courses/%d", course.ID)
	section := course.Sections[0]
	resp = a.do(t, &student, http.MethodPost, base+"/progress", dto.LectureTouchRequest{SectionID: section.ID, LectureID: section.Lectures[2].ID, TimeSpent: 45})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = a.do(t, &student, http.MethodPost, fmt.Sprintf("%s/lectures/%d/complete", base, section.Lectures[0].ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = a.do(t, &student, http.MethodPost, fmt.Sprintf("%s/assessments/%d/submit", base, quiz.ID), dto.SubmitAssessmentRequest{
		Answers: map[string]string{strconv.FormatUint(uint64(quiz.Questions[0].ID), 10): "0"},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = a.do(t, &student, http.MethodGet, base+"/progress", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
