package devserver

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/edugen-ai/edugen-go/internal/dto"
	"github.com/edugen-ai/edugen-go/internal/middleware"
	"github.com/edugen-ai/edugen-go/internal/utils"
	"github.com/edugen-ai/edugen-go/pkg/edugen"
)

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "EduGen AI backend is running"})
}

func (s *Server) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validator.Struct(payload); err != nil {
		return utils.SendDetail(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	if _, err := s.store.UserByEmail(c.Context(), payload.Email); err == nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, "Email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return s.internalError(c, err)
	}

	hashed, err := hashPassword(payload.Password)
	if err != nil {
		return s.internalError(c, err)
	}

	user := UserRecord{Email: payload.Email, HashedPassword: hashed, Role: payload.Role}
	if err := s.store.CreateUser(c.Context(), &user); err != nil {
		return s.internalError(c, err)
	}

	s.requestLogger(c).Info().Int("user_id", user.ID).Str("role", user.Role).Msg("account registered")

	return c.JSON(userResponse(user))
}

func (s *Server) token(c *fiber.Ctx) error {
	var payload dto.TokenRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validator.Struct(payload); err != nil {
		return utils.SendDetail(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	user, err := s.store.UserByEmail(c.Context(), payload.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return badCredentials(c)
		}
		return s.internalError(c, err)
	}
	if !verifyPassword(user.HashedPassword, payload.Password) {
		return badCredentials(c)
	}

	token, err := s.issuer.Issue(user.Email)
	if err != nil {
		return s.internalError(c, err)
	}

	return c.JSON(dto.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) me(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	return c.JSON(userResponse(user))
}

func (s *Server) generate(c *fiber.Ctx) error {
	var payload dto.GenerateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validator.Struct(payload); err != nil {
		return utils.SendDetail(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	questions := s.engine.Generate(payload.Topic, payload.Type, payload.Difficulty)

	return c.JSON(questions)
}

func (s *Server) createAssignment(c *fiber.Ctx) error {
	var payload edugen.Assignment
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(payload.ID) == "" || strings.TrimSpace(payload.Title) == "" {
		return utils.SendDetail(c, fiber.StatusUnprocessableEntity, "Assignment id and title are required")
	}
	if payload.Status == "" {
		payload.Status = edugen.StatusDraft
	}

	record, err := assignmentRecordFrom(payload)
	if err != nil {
		return s.internalError(c, err)
	}
	if err := s.store.CreateAssignment(c.Context(), &record); err != nil {
		return s.internalError(c, err)
	}

	s.requestLogger(c).Info().Str("assignment_id", record.ID).Msg("assignment saved")

	saved, err := record.Assignment()
	if err != nil {
		return s.internalError(c, err)
	}

	return c.JSON(saved)
}

func (s *Server) listAssignments(c *fiber.Ctx) error {
	records, err := s.store.ListAssignments(c.Context())
	if err != nil {
		return s.internalError(c, err)
	}

	assignments := make([]edugen.Assignment, 0, len(records))
	for _, record := range records {
		assignment, err := record.Assignment()
		if err != nil {
			return s.internalError(c, err)
		}
		assignments = append(assignments, assignment)
	}

	return c.JSON(assignments)
}

func (s *Server) getAssignment(c *fiber.Ctx) error {
	record, err := s.store.AssignmentByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendDetail(c, fiber.StatusNotFound, "Assignment not found")
		}
		return s.internalError(c, err)
	}

	assignment, err := record.Assignment()
	if err != nil {
		return s.internalError(c, err)
	}

	return c.JSON(assignment)
}

func (s *Server) analyze(c *fiber.Ctx) error {
	record, err := s.store.AssignmentByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendDetail(c, fiber.StatusNotFound, "Assignment not found")
		}
		return s.internalError(c, err)
	}

	assignment, err := record.Assignment()
	if err != nil {
		return s.internalError(c, err)
	}

	return c.JSON(dto.AnalysisResponse{Text: s.engine.Audit(assignment)})
}

func (s *Server) grade(c *fiber.Ctx) error {
	var payload dto.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validator.Struct(payload); err != nil {
		return utils.SendDetail(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	if _, err := s.store.AssignmentByID(c.Context(), payload.AssignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendDetail(c, fiber.StatusNotFound, "Assignment not found")
		}
		return s.internalError(c, err)
	}

	feedback := s.engine.Grade(payload.AnswerText)

	submission := SubmissionRecord{
		AssignmentID: payload.AssignmentID,
		StudentID:    payload.StudentID,
		AnswerText:   payload.AnswerText,
		Score:        feedback.Score,
		Feedback:     feedback.Feedback,
	}
	if err := s.store.CreateSubmission(c.Context(), &submission); err != nil {
		return s.internalError(c, err)
	}

	s.requestLogger(c).Info().
		Str("assignment_id", payload.AssignmentID).
		Int("student_id", payload.StudentID).
		Float64("score", feedback.Score).
		Msg("submission graded")

	return c.JSON(feedback)
}

func userResponse(user UserRecord) dto.UserResponse {
	return dto.UserResponse{ID: user.ID, Email: user.Email, Role: user.Role}
}

func badCredentials(c *fiber.Ctx) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return utils.SendDetail(c, fiber.StatusUnauthorized, "Incorrect email or password")
}

func (s *Server) requestLogger(c *fiber.Ctx) *zerolog.Logger {
	logger := s.logger
	if correlation := middleware.GetCorrelationID(c); correlation != "" {
		logger = s.logger.With().Str("correlation_id", correlation).Logger()
	}
	return &logger
}

func (s *Server) internalError(c *fiber.Ctx, err error) error {
	s.requestLogger(c).Error().Err(err).Msg("internal server error")
	return utils.SendDetail(c, fiber.StatusInternalServerError, "Internal server error")
}
