package student

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nmthanh/tutorhub/internal/controller"
	"github.com/nmthanh/tutorhub/internal/dto"
	"github.com/nmthanh/tutorhub/internal/service"
	"github.com/rs/zerolog/log"
)

type StudentController struct {
	quizSvc    service.QuizService
	attemptSvc service.AttemptService
}

func NewStudentController(quizSvc service.QuizService, attemptSvc service.AttemptService) *StudentController {
	return &StudentController{quizSvc: quizSvc, attemptSvc: attemptSvc}
}

func (c *StudentController) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/quizzes", c.ListQuizzes)
	api.GET("/quizzes/:quiz_id", c.GetQuiz)
	api.GET("/quizzes/:quiz_id/eligibility", c.AttemptEligibility)
	api.POST("/quizzes/:quiz_id/attempts", c.StartAttempt)
	api.GET("/quizzes/:quiz_id/my-attempts", c.MyAttempts)
	api.PUT("/attempts/:attempt_id/answers", c.SaveAnswer)
	api.POST("/attempts/:attempt_id/submit", c.SubmitAttempt)
	api.GET("/attempts/:attempt_id", c.GetAttempt)
}

// ListQuizzes godoc
// @Summary (Student) List quizzes for a class
// @Tags Student - Quizzes
// @Produce json
// @Param class_id query int true "Class ID"
// @Success 200 {array} dto.QuizSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid class_id"
// @Router /quizzes [get]
func (c *StudentController) ListQuizzes(ctx *gin.Context) {
	if _, ok := controller.CallerIdentity(ctx); !ok {
		return
	}
	classID, err := strconv.ParseUint(ctx.Query("class_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "class_id query parameter is required"})
		return
	}
	quizzes, err := c.quizSvc.ListByClass(uint(classID))
	if err != nil {
		log.Error().Err(err).Uint64("classID", classID).Msg("ListQuizzes: service error")
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, quizzes)
}

// GetQuiz godoc
// @Summary (Student) Get a quiz with its questions
// @Tags Student - Quizzes
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Success 200 {object} dto.QuizResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Quiz not found"
// @Router /quizzes/{quiz_id} [get]
func (c *StudentController) GetQuiz(ctx *gin.Context) {
	if _, ok := controller.CallerIdentity(ctx); !ok {
		return
	}
	quizID, ok := controller.UintParam(ctx, "quiz_id")
	if !ok {
		return
	}
	resp, err := c.quizSvc.Get(quizID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// AttemptEligibility godoc
// @Summary (Student) Check whether a new attempt may start
// @Description Answers the gate without starting anything: canAttempt plus a reason and the attempts left. A refusal here is a regular answer, not an error.
// @Tags Student - Attempts
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Success 200 {object} dto.AttemptEligibilityDTO
// @Failure 404 {object} dto.ErrorResponse "Quiz not found"
// @Failure 503 {object} dto.ErrorResponse "Attempt count lookup unavailable"
// @Router /quizzes/{quiz_id}/eligibility [get]
func (c *StudentController) AttemptEligibility(ctx *gin.Context) {
	ident, ok := controller.CallerIdentity(ctx)
	if !ok {
		return
	}
	quizID, ok := controller.UintParam(ctx, "quiz_id")
	if !ok {
		return
	}
	resp, err := c.attemptSvc.CanAttempt(quizID, ident.UserID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// StartAttempt godoc
// @Summary (Student) Start a new attempt
// @Description Starts an in_progress attempt when the quiz is active and the student has attempts left. For timed quizzes the response carries the remaining seconds and an MM:SS clock.
// @Tags Student - Attempts
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Success 201 {object} dto.AttemptResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Quiz not found"
// @Failure 409 {object} dto.ErrorResponse "Quiz not active or attempts exhausted"
// @Router /quizzes/{quiz_id}/attempts [post]
func (c *StudentController) StartAttempt(ctx *gin.Context) {
	ident, ok := controller.CallerIdentity(ctx)
	if !ok {
		return
	}
	quizID, ok := controller.UintParam(ctx, "quiz_id")
	if !ok {
		return
	}
	resp, err := c.attemptSvc.Start(quizID, ident.UserID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// MyAttempts godoc
// @Summary (Student) List the caller's attempts for a quiz
// @Tags Student - Attempts
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Success 200 {array} dto.AttemptSummaryDTO
// @Router /quizzes/{quiz_id}/my-attempts [get]
func (c *StudentController) MyAttempts(ctx *gin.Context) {
	ident, ok := controller.CallerIdentity(ctx)
	if !ok {
		return
	}
	quizID, ok := controller.UintParam(ctx, "quiz_id")
	if !ok {
		return
	}
	attempts, err := c.attemptSvc.ListForStudent(quizID, ident.UserID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// SaveAnswer godoc
// @Summary (Student) Autosave an answer
// @Description Upserts the answer for one question, keyed by (attempt, question). Saving the same question again replaces the previous answer. Expired timed attempts are auto-submitted instead of accepting the write.
// @Tags Student - Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param answer body dto.SaveAnswerDTO true "Answer payload"
// @Success 200 {object} dto.AnswerResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Attempt not found or not owned by caller"
// @Failure 409 {object} dto.ErrorResponse "Attempt is no longer in progress"
// @Router /attempts/{attempt_id}/answers [put]
func (c *StudentController) SaveAnswer(ctx *gin.Context) {
	ident, ok := controller.CallerIdentity(ctx)
	if !ok {
		return
	}
	attemptID, ok := controller.UintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.SaveAnswerDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.attemptSvc.SaveAnswer(attemptID, ident.UserID, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SubmitAttempt godoc
// @Summary (Student) Submit an attempt
// @Description Transitions in_progress -> submitted exactly once. Submitting an already-submitted attempt returns 200 with already_submitted set, never an error.
// @Tags Student - Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.SubmitResultDTO
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id}/submit [post]
func (c *StudentController) SubmitAttempt(ctx *gin.Context) {
	if _, ok := controller.CallerIdentity(ctx); !ok {
		return
	}
	attemptID, ok := controller.UintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	resp, err := c.attemptSvc.Submit(attemptID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetAttempt godoc
// @Summary (Student) Get an attempt with its answers
// @Description For in-progress timed attempts the response carries the remaining seconds, recomputed from the wall clock on every call.
// @Tags Student - Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id} [get]
func (c *StudentController) GetAttempt(ctx *gin.Context) {
	if _, ok := controller.CallerIdentity(ctx); !ok {
		return
	}
	attemptID, ok := controller.UintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	resp, err := c.attemptSvc.Get(attemptID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
