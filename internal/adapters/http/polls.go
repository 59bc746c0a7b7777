package http

import (
	"net/http"
	"strconv"

	"github.com/dkeye/livepoll/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type optionRequest struct {
	Text  string `json:"text" binding:"required,max=200"`
	Order *int   `json:"order" binding:"omitempty,min=0"`
}

type createPollRequest struct {
	Question  string          `json:"question" binding:"required,max=500"`
	Options   []optionRequest `json:"options" binding:"required,min=2,max=20,dive"`
	Published bool            `json:"published"`
}

type updatePollRequest struct {
	Question  *string `json:"question" binding:"omitempty,max=500"`
	Published *bool   `json:"published"`
}

type voteRequest struct {
	OptionID string `json:"optionId" binding:"required,max=64"`
}

// POST /api/polls
func (h *handlers) createPoll(c *gin.Context) {
	id, _ := identityOf(c)
	var req createPollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	drafts := make([]domain.OptionDraft, len(req.Options))
	for i, o := range req.Options {
		drafts[i] = domain.OptionDraft{Text: o.Text, Order: o.Order}
	}
	p, err := h.Polls.Create(c.Request.Context(), id.UserID, req.Question, drafts, req.Published)
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// GET /api/polls?limit=&offset=&mine=true
func (h *handlers) listPolls(c *gin.Context) {
	limit, offset, err := page(c)
	if err != nil {
		abortError(c, err)
		return
	}

	var polls []*domain.Poll
	if c.Query("mine") == "true" {
		id, ok := identityOf(c)
		if !ok {
			abortError(c, domain.ErrUnauthenticated)
			return
		}
		polls, err = h.Polls.ListMine(c.Request.Context(), id.UserID, limit, offset)
	} else {
		polls, err = h.Polls.List(c.Request.Context(), limit, offset)
	}
	if err != nil {
		abortError(c, err)
		return
	}
	if polls == nil {
		polls = []*domain.Poll{}
	}
	c.JSON(http.StatusOK, gin.H{"polls": polls, "limit": limit, "offset": offset})
}

// GET /api/polls/:id
func (h *handlers) getPoll(c *gin.Context) {
	id, _ := identityOf(c)
	p, t, err := h.Polls.Get(c.Request.Context(), domain.PollID(c.Param("id")), id.UserID)
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"poll": p, "tally": t})
}

// PATCH /api/polls/:id
func (h *handlers) updatePoll(c *gin.Context) {
	id, _ := identityOf(c)
	var req updatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Question == nil && req.Published == nil {
		abortError(c, domain.Invalid("nothing to update"))
		return
	}
	p, err := h.Polls.Update(c.Request.Context(), domain.PollID(c.Param("id")), id.UserID,
		domain.PollUpdate{Question: req.Question, Published: req.Published})
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /api/polls/:id/votes
func (h *handlers) castVote(c *gin.Context) {
	id, _ := identityOf(c)
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !h.Limiter.Allow(id.UserID) {
		abortError(c, domain.ErrRateLimited)
		return
	}
	t, err := h.Votes.Cast(c.Request.Context(), id.UserID, domain.PollID(c.Param("id")), domain.OptionID(req.OptionID), nil)
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func page(c *gin.Context) (limit, offset int, err error) {
	limit, offset = defaultPageSize, 0
	if v := c.Query("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			return 0, 0, domain.Invalid("limit must be a positive integer")
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
	}
	if v := c.Query("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, domain.Invalid("offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}
