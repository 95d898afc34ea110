package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/planline/backend/api/transport"
	"github.com/planline/backend/domain"
	"github.com/planline/backend/pkg/httpcontext"
	eventUC "github.com/planline/backend/usecase/event"
)

type EventHandler struct {
	baseHandler
	uc *eventUC.UseCase
}

func NewEventHandler(uc *eventUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Get one event
// @Tags events
// @Router /api/v1/events/{id} [get]
func (h *EventHandler) GetEvent(ctx *fasthttp.RequestCtx) {
	if h.authUserID(ctx) == "" {
		return
	}
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing event id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	event, err := h.uc.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, event)
}

// @Summary Month calendar for the authenticated user
// @Tags events
// @Router /api/v1/events/calendar [get]
func (h *EventHandler) GetCalendar(ctx *fasthttp.RequestCtx) {
	userID := h.authUserID(ctx)
	if userID == "" {
		return
	}

	year := parseInt(string(ctx.QueryArgs().Peek("year")), 0)
	month := parseInt(string(ctx.QueryArgs().Peek("month")), 0)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	events, err := h.uc.Calendar(stdCtx, userID, year, month)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, events)
}

// @Summary Update event status
// @Tags events
// @Router /api/v1/events/{id}/status [patch]
func (h *EventHandler) UpdateStatus(ctx *fasthttp.RequestCtx) {
	if h.authUserID(ctx) == "" {
		return
	}
	id, _ := ctx.UserValue("id").(string)

	var req transport.EventStatusRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || !domain.EventStatus(req.Status).IsValid() {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid status", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	event, err := h.uc.UpdateStatus(stdCtx, id, domain.EventStatus(req.Status))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, event)
}

// @Summary Delete one event
// @Tags events
// @Router /api/v1/events/{id} [delete]
func (h *EventHandler) DeleteEvent(ctx *fasthttp.RequestCtx) {
	if h.authUserID(ctx) == "" {
		return
	}
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing event id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Add a collaborator to an event
// @Tags events
// @Router /api/v1/events/{id}/collaborators [post]
func (h *EventHandler) AddCollaborator(ctx *fasthttp.RequestCtx) {
	userID := h.authUserID(ctx)
	if userID == "" {
		return
	}
	id, _ := ctx.UserValue("id").(string)

	var req transport.CollaboratorRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.CollaboratorID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	event, err := h.uc.AssignCollaborator(stdCtx, userID, id, req.CollaboratorID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, event)
}

// @Summary Remove a collaborator from an event
// @Tags events
// @Router /api/v1/events/{id}/collaborators/{collaboratorId} [delete]
func (h *EventHandler) RemoveCollaborator(ctx *fasthttp.RequestCtx) {
	userID := h.authUserID(ctx)
	if userID == "" {
		return
	}
	id, _ := ctx.UserValue("id").(string)
	collaboratorID, _ := ctx.UserValue("collaboratorId").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	event, err := h.uc.RemoveCollaborator(stdCtx, userID, id, collaboratorID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, event)
}
