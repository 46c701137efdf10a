package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tutor-bot/internal/evaluation"
)

// Evaluate godoc
// @ID          evaluate
// @Summary     Grade a translation
// @Description Evaluates a user's translation of a question sentence with the configured serving provider.
// @Tags        Evaluation
// @Accept      json
// @Produce     json
//
// @Param       body  body  evaluation.Request  true  "Answer to grade"
//
// @Success     200  {object}  domain.Evaluation
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     501  {object}  handlers.ErrorResponse  "Provider not implemented"
// @Failure     502  {object}  handlers.ErrorResponse  "Provider failed"
// @Router      /v1/evaluate [post]
func (h *Handlers) Evaluate(c *gin.Context) {
	if h.evaluator == nil {
		fail(c, http.StatusNotImplemented, ErrCodeNotImplemented, "evaluation provider not implemented")
		return
	}

	var req evaluation.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "qid, direction (IT|EN), source and user_answer are required")
		return
	}
	req.UserAnswer = strings.TrimSpace(req.UserAnswer)
	if req.UserAnswer == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_answer must not be blank")
		return
	}

	res, err := h.evaluator.Evaluate(c.Request.Context(), req)
	if err != nil {
		fail(c, http.StatusBadGateway, ErrCodeEvaluationFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}
