// Admin HTTP handlers.
//
// These endpoints are mounted only when an admin token is configured. They
// inspect the pending store and the event mirror and can trigger a question
// for a chat, which is how scheduled "good morning" questions are sent.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tutor-bot/internal/domain"
	"github.com/tbourn/go-tutor-bot/internal/services"
	"github.com/tbourn/go-tutor-bot/internal/transport/telegram"
	"github.com/tbourn/go-tutor-bot/internal/utils"
)

// pendingETag derives a weak validator from the size and the time span of
// the pending set.
func pendingETag(items []domain.Exchange) string {
	var oldest, newest int64
	if n := len(items); n > 0 {
		oldest = items[0].AskedAt.UnixNano()
		newest = items[n-1].AskedAt.UnixNano()
	}
	return fmt.Sprintf(`W/"pending:%d:%d:%d"`, len(items), oldest, newest)
}

// sortedPending returns the snapshot ordered by AskedAt, then key.
func sortedPending(snap map[string]domain.Exchange) []domain.Exchange {
	out := make([]domain.Exchange, 0, len(snap))
	for _, ex := range snap {
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AskedAt.Equal(out[j].AskedAt) {
			return out[i].AskedAt.Before(out[j].AskedAt)
		}
		return out[i].CorrelationKey < out[j].CorrelationKey
	})
	return out
}

// ListPending godoc
// @ID          listPending
// @Summary     List outstanding questions (paginated)
// @Description Returns questions that were asked and not answered yet, oldest first.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"pending:2:1:2\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListPendingResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /pending [get]
func (h *Handlers) ListPending(c *gin.Context) {
	snap, err := h.pending.Snapshot(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	items := sortedPending(snap)

	etag := pendingETag(items)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}

	page, pageSize := utils.ClampPage(c.Query("page"), c.Query("page_size"))
	start, end, totalPages := utils.PageWindow(len(items), page, pageSize)
	ok(c, http.StatusOK, ListPendingResponse{
		Pending: items[start:end],
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int64(len(items)),
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// TriggerAsk godoc
// @ID          triggerAsk
// @Summary     Send a question to a chat
// @Description Picks a question and sends it to the chat exactly like /ask would.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       chat_id  path  string               true   "Telegram chat id"  example(42)
// @Param       body     body  handlers.AskRequest  false  "Requester snapshot"
//
// @Success     201  {object}  domain.Exchange
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     409  {object}  handlers.ErrorResponse  "Correlation key already pending"
// @Failure     502  {object}  handlers.ErrorResponse  "Chat transport failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chats/{chat_id}/ask [post]
func (h *Handlers) TriggerAsk(c *gin.Context) {
	chatRef := strings.TrimSpace(c.Param("chat_id"))
	if _, err := telegram.ParseChat(chatRef); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat_id must be an integer")
		return
	}

	var req AskRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	who := domain.Requester{
		UserID:       req.UserID,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		LanguageCode: req.LanguageCode,
	}

	ex, err := h.asker.Ask(c.Request.Context(), chatRef, who)
	switch {
	case err == nil:
		ok(c, http.StatusCreated, ex)
	case errors.Is(err, services.ErrTransport):
		fail(c, http.StatusBadGateway, ErrCodeAskFailed, err.Error())
	case errors.Is(err, services.ErrDuplicateKey):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// Stats godoc
// @ID          stats
// @Summary     Pending and event counters
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.StatsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stats [get]
func (h *Handlers) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	var resp StatsResponse
	if st, isStatter := h.pending.(pendingStatter); isStatter {
		n, oldest, err := st.Stats(ctx)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
			return
		}
		resp.Pending, resp.OldestAskedAt = n, oldest
	} else {
		snap, err := h.pending.Snapshot(ctx)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
			return
		}
		resp.Pending = int64(len(snap))
		if items := sortedPending(snap); len(items) > 0 {
			t := items[0].AskedAt
			resp.OldestAskedAt = &t
		}
	}
	if resp.OldestAskedAt != nil {
		t := resp.OldestAskedAt.UTC()
		resp.OldestAskedAt = &t
	}

	if h.events != nil {
		counts, err := h.events.Counts(ctx)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
			return
		}
		resp.Events = counts
	}
	ok(c, http.StatusOK, resp)
}

// QuestionEvents godoc
// @ID          questionEvents
// @Summary     Audit trail of one question
// @Description Returns the mirrored asked/answered events of a question. Requires EVENT_LOG_MIRROR.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
//
// @Param       qid  path  string  true  "Question id"  format(uuid)
//
// @Success     200  {object}  handlers.QuestionEventsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "No events for this question"
// @Failure     501  {object}  handlers.ErrorResponse  "Event mirror disabled"
// @Router      /questions/{qid}/events [get]
func (h *Handlers) QuestionEvents(c *gin.Context) {
	if h.events == nil {
		fail(c, http.StatusNotImplemented, ErrCodeNotImplemented, "event mirror disabled")
		return
	}
	qid := strings.TrimSpace(c.Param("qid"))
	evs, err := h.events.ByQuestion(c.Request.Context(), qid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if len(evs) == 0 {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no events for question")
		return
	}
	ok(c, http.StatusOK, QuestionEventsResponse{QuestionID: qid, Events: evs})
}
