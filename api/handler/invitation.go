package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/planline/backend/api/transport"
	"github.com/planline/backend/domain"
	"github.com/planline/backend/pkg/httpcontext"
	invitationUC "github.com/planline/backend/usecase/invitation"
)

type InvitationHandler struct {
	baseHandler
	uc *invitationUC.UseCase
}

func NewInvitationHandler(uc *invitationUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *InvitationHandler {
	return &InvitationHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List invitations involving the authenticated user
// @Tags invitations
// @Router /api/v1/invitations [get]
func (h *InvitationHandler) GetInvitations(ctx *fasthttp.RequestCtx) {
	userID := h.authUserID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	invitations, err := h.uc.ListForUser(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, invitations)
}

// @Summary Send a contact invitation by email
// @Tags invitations
// @Router /api/v1/invitations [post]
func (h *InvitationHandler) SendInvitation(ctx *fasthttp.RequestCtx) {
	userID := h.authUserID(ctx)
	if userID == "" {
		return
	}

	var req transport.InvitationRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Email == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "email is required", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	invitation, err := h.uc.Send(stdCtx, userID, req.Email)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, invitation)
}

// @Summary Accept an invitation
// @Tags invitations
// @Router /api/v1/invitations/{id}/accept [post]
func (h *InvitationHandler) AcceptInvitation(ctx *fasthttp.RequestCtx) {
	h.resolve(ctx, domain.InvitationStatusAccepted)
}

// @Summary Reject an invitation
// @Tags invitations
// @Router /api/v1/invitations/{id}/reject [post]
func (h *InvitationHandler) RejectInvitation(ctx *fasthttp.RequestCtx) {
	h.resolve(ctx, domain.InvitationStatusRejected)
}

func (h *InvitationHandler) resolve(ctx *fasthttp.RequestCtx, status domain.InvitationStatus) {
	userID := h.authUserID(ctx)
	if userID == "" {
		return
	}
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing invitation id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var (
		invitation *domain.Invitation
		err        error
	)
	if status == domain.InvitationStatusAccepted {
		invitation, err = h.uc.Accept(stdCtx, id, userID)
	} else {
		invitation, err = h.uc.Reject(stdCtx, id, userID)
	}
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, invitation)
}
