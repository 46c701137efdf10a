package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tbourn/go-tutor-bot/internal/http/middleware"
	"github.com/tbourn/go-tutor-bot/internal/transport/telegram"
)

// Webhook godoc
// @ID          telegramWebhook
// @Summary     Receive a Telegram update
// @Description Accepts one Update from Telegram. Any well-formed update is acknowledged with 200,
// @Description including updates the bot ignores and updates whose processing failed (those are logged).
// @Tags        Telegram
// @Accept      json
// @Produce     json
//
// @Param       secret                           path    string  true   "Webhook path secret"
// @Param       X-Telegram-Bot-Api-Secret-Token  header  string  false  "Secret token registered with setWebhook"
//
// @Success     200  {object}  handlers.WebhookAck
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed update"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid secret token"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown webhook"
// @Router      /webhook/{secret} [post]
func (h *Handlers) Webhook(c *gin.Context) {
	var u tgbotapi.Update
	if err := c.ShouldBindJSON(&u); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid update JSON")
		return
	}

	in, isText := telegram.NewInbound(u)
	if !isText {
		ok(c, http.StatusOK, WebhookAck{OK: true})
		return
	}

	// Telegram retries on timeouts; the update must finish even if the
	// delivery connection drops.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.webhookTimeout)
	defer cancel()

	if err := h.updates.Handle(ctx, in); err != nil {
		_ = c.Error(err)
		middleware.LoggerFrom(c).Error().
			Err(err).
			Int("update_id", u.UpdateID).
			Str("chat", in.ChatRef).
			Msg("update failed")
	}
	ok(c, http.StatusOK, WebhookAck{OK: true})
}
