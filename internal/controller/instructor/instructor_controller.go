package instructor

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nmthanh/tutorhub/internal/controller"
	"github.com/nmthanh/tutorhub/internal/dto"
	"github.com/nmthanh/tutorhub/internal/service"
	"github.com/rs/zerolog/log"
)

type InstructorController struct {
	quizSvc     service.QuizService
	attemptSvc  service.AttemptService
	scheduleSvc service.ScheduleService
}

func NewInstructorController(quizSvc service.QuizService, attemptSvc service.AttemptService, scheduleSvc service.ScheduleService) *InstructorController {
	return &InstructorController{quizSvc: quizSvc, attemptSvc: attemptSvc, scheduleSvc: scheduleSvc}
}

func (c *InstructorController) RegisterRoutes(api *gin.RouterGroup) {
	instructor := api.Group("/instructor")
	{
		instructor.POST("/quizzes", c.CreateQuiz)
		instructor.POST("/quizzes/:quiz_id/publish", c.PublishQuiz)
		instructor.POST("/quizzes/:quiz_id/close", c.CloseQuiz)
		instructor.GET("/quizzes/:quiz_id/statistics", c.QuizStatistics)
		instructor.GET("/quizzes/:quiz_id/attempts", c.ListAttempts)
		instructor.POST("/attempts/:attempt_id/grade", c.GradeAttempt)

		instructor.POST("/sessions", c.CreateSession)
		instructor.PUT("/sessions/:session_id", c.UpdateSession)
		instructor.POST("/sessions/conflicts", c.CheckConflicts)
	}
}

// CreateQuiz godoc
// @Summary (Instructor) Create a new quiz draft
// @Description Creates a quiz in draft status, optionally with its questions.
// @Tags Instructor - Quizzes
// @Accept json
// @Produce json
// @Param quiz body dto.QuizCreateDTO true "Quiz data including optional questions"
// @Success 201 {object} dto.QuizResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 422 {object} dto.ErrorResponse "Validation failed"
// @Router /instructor/quizzes [post]
func (c *InstructorController) CreateQuiz(ctx *gin.Context) {
	ident, ok := controller.RequireRole(ctx, controller.RoleInstructor)
	if !ok {
		return
	}
	var req dto.QuizCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("CreateQuiz: failed to bind request body")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.quizSvc.Create(ident.UserID, req)
	if err != nil {
		log.Error().Err(err).Uint("creatorID", ident.UserID).Msg("CreateQuiz: service error")
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// PublishQuiz godoc
// @Summary (Instructor) Publish a draft quiz
// @Description Validates the quiz and moves it draft -> published. Validation collects every violation before refusing. Publishing fans a notification out to enrolled students.
// @Tags Instructor - Quizzes
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Success 200 {object} dto.QuizResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Quiz not found"
// @Failure 409 {object} dto.ErrorResponse "Quiz is not in draft status"
// @Failure 422 {object} dto.ErrorResponse "Validation failed; details lists every violation"
// @Router /instructor/quizzes/{quiz_id}/publish [post]
func (c *InstructorController) PublishQuiz(ctx *gin.Context) {
	if _, ok := controller.RequireRole(ctx, controller.RoleInstructor); !ok {
		return
	}
	quizID, ok := controller.UintParam(ctx, "quiz_id")
	if !ok {
		return
	}
	resp, err := c.quizSvc.Publish(quizID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CloseQuiz godoc
// @Summary (Instructor) Close a published quiz
// @Description Moves the quiz published -> closed. Closed is terminal.
// @Tags Instructor - Quizzes
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Success 200 {object} dto.QuizResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Quiz not found"
// @Failure 409 {object} dto.ErrorResponse "Quiz is not in published status"
// @Router /instructor/quizzes/{quiz_id}/close [post]
func (c *InstructorController) CloseQuiz(ctx *gin.Context) {
	if _, ok := controller.RequireRole(ctx, controller.RoleInstructor); !ok {
		return
	}
	quizID, ok := controller.UintParam(ctx, "quiz_id")
	if !ok {
		return
	}
	resp, err := c.quizSvc.Close(quizID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// QuizStatistics godoc
// @Summary (Instructor) Aggregate statistics for a quiz
// @Description Aggregates over graded attempts only. With no graded attempts every field is zero.
// @Tags Instructor - Quizzes
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Success 200 {object} dto.QuizStatisticsDTO
// @Failure 404 {object} dto.ErrorResponse "Quiz not found"
// @Router /instructor/quizzes/{quiz_id}/statistics [get]
func (c *InstructorController) QuizStatistics(ctx *gin.Context) {
	if _, ok := controller.RequireRole(ctx, controller.RoleInstructor); !ok {
		return
	}
	quizID, ok := controller.UintParam(ctx, "quiz_id")
	if !ok {
		return
	}
	stats, err := c.quizSvc.Statistics(quizID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, stats)
}

// ListAttempts godoc
// @Summary (Instructor) List all attempts for a quiz
// @Tags Instructor - Attempts
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Success 200 {array} dto.AttemptSummaryDTO
// @Router /instructor/quizzes/{quiz_id}/attempts [get]
func (c *InstructorController) ListAttempts(ctx *gin.Context) {
	if _, ok := controller.RequireRole(ctx, controller.RoleInstructor); !ok {
		return
	}
	quizID, ok := controller.UintParam(ctx, "quiz_id")
	if !ok {
		return
	}
	attempts, err := c.attemptSvc.ListForQuiz(quizID)
	if err != nil {
		log.Error().Err(err).Uint("quizID", quizID).Msg("ListAttempts: service error")
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// GradeAttempt godoc
// @Summary (Instructor) Grade a submitted attempt
// @Description Moves the attempt submitted -> graded and notifies the student. Only submitted attempts can be graded; graded is terminal.
// @Tags Instructor - Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param grade body dto.GradeAttemptDTO true "Marks obtained"
// @Success 200 {object} dto.AttemptResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Attempt is not in submitted status"
// @Router /instructor/attempts/{attempt_id}/grade [post]
func (c *InstructorController) GradeAttempt(ctx *gin.Context) {
	if _, ok := controller.RequireRole(ctx, controller.RoleInstructor); !ok {
		return
	}
	attemptID, ok := controller.UintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.GradeAttemptDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	if req.MarksObtained == nil || *req.MarksObtained < 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "marks_obtained must be a non-negative number"})
		return
	}

	resp, err := c.attemptSvc.Grade(attemptID, *req.MarksObtained)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CreateSession godoc
// @Summary (Instructor) Book a timetable session
// @Description Books the slot only if the conflict check inside the storage transaction comes back clean. A conflicting request returns 409 with the complete conflict list.
// @Tags Instructor - Timetable
// @Accept json
// @Produce json
// @Param session body dto.SessionRequestDTO true "Session slot"
// @Success 201 {object} dto.SessionResponseDTO
// @Failure 409 {object} dto.ConflictCheckResponseDTO "Slot conflicts with existing sessions"
// @Failure 422 {object} dto.ErrorResponse "Validation failed"
// @Failure 503 {object} dto.ErrorResponse "Conflict lookup unavailable; not clear to book"
// @Router /instructor/sessions [post]
func (c *InstructorController) CreateSession(ctx *gin.Context) {
	if _, ok := controller.RequireRole(ctx, controller.RoleInstructor); !ok {
		return
	}
	var req dto.SessionRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	session, conflicts, err := c.scheduleSvc.CreateSession(req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	if conflicts.HasConflicts {
		ctx.JSON(http.StatusConflict, conflicts)
		return
	}
	ctx.JSON(http.StatusCreated, session)
}

// UpdateSession godoc
// @Summary (Instructor) Move or edit a timetable session
// @Description Re-runs the conflict check against all other sessions, excluding the session being moved from its own check.
// @Tags Instructor - Timetable
// @Accept json
// @Produce json
// @Param session_id path int true "Session ID"
// @Param session body dto.SessionRequestDTO true "New session slot"
// @Success 200 {object} dto.SessionResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ConflictCheckResponseDTO "Slot conflicts with existing sessions"
// @Router /instructor/sessions/{session_id} [put]
func (c *InstructorController) UpdateSession(ctx *gin.Context) {
	if _, ok := controller.RequireRole(ctx, controller.RoleInstructor); !ok {
		return
	}
	sessionID, ok := controller.UintParam(ctx, "session_id")
	if !ok {
		return
	}
	var req dto.SessionRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	// the moved session never conflicts with itself
	req.ExcludeID = sessionID

	session, conflicts, err := c.scheduleSvc.UpdateSession(sessionID, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	if conflicts.HasConflicts {
		ctx.JSON(http.StatusConflict, conflicts)
		return
	}
	ctx.JSON(http.StatusOK, session)
}

// CheckConflicts godoc
// @Summary (Instructor) Dry-run conflict check for a candidate slot
// @Description Advisory preview: returns the complete conflict list without booking anything. A 503 means the check could not run, which is not the same as no conflicts.
// @Tags Instructor - Timetable
// @Accept json
// @Produce json
// @Param session body dto.SessionRequestDTO true "Candidate slot"
// @Success 200 {object} dto.ConflictCheckResponseDTO
// @Failure 422 {object} dto.ErrorResponse "Validation failed"
// @Failure 503 {object} dto.ErrorResponse "Conflict lookup unavailable"
// @Router /instructor/sessions/conflicts [post]
func (c *InstructorController) CheckConflicts(ctx *gin.Context) {
	if _, ok := controller.RequireRole(ctx, controller.RoleInstructor); !ok {
		return
	}
	var req dto.SessionRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.scheduleSvc.CheckConflicts(req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
