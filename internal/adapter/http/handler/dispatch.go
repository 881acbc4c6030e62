package handler

import (
	"context"
	"net/http"

	"github.com/hubride/ride-pool-system/internal/adapter/http/handler/dto"
	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/internal/service/dispatch"
	"github.com/hubride/ride-pool-system/internal/service/settlement"
	"github.com/hubride/ride-pool-system/pkg/logger"
	wrap "github.com/hubride/ride-pool-system/pkg/logger/wrapper"
	"github.com/hubride/ride-pool-system/pkg/uuid"
	"github.com/hubride/ride-pool-system/pkg/validator"
)

type DispatchService interface {
	Accept(ctx context.Context, nodeID, driverID uuid.UUID, negotiatedTotal *types.Money) (*models.RideNode, error)
	StartBroadcast(ctx context.Context, cmd dispatch.BroadcastCommand) (*models.RideNode, error)
	Start(ctx context.Context, nodeID, driverID uuid.UUID) (*models.RideNode, error)
	Unassign(ctx context.Context, nodeID, driverID uuid.UUID) (*models.RideNode, error)
}

type SettlementService interface {
	Verify(ctx context.Context, nodeID, driverID uuid.UUID, presentedCode string) (*settlement.Result, error)
}

// Dispatch is the driver-facing surface: accepting nodes, broadcasting
// routes, and settling trips with a verification code.
type Dispatch struct {
	dispatch   DispatchService
	settlement SettlementService
	l          logger.Logger
}

func NewDispatch(dispatchSvc DispatchService, settlementSvc SettlementService, l logger.Logger) *Dispatch {
	return &Dispatch{
		dispatch:   dispatchSvc,
		settlement: settlementSvc,
		l:          l,
	}
}

// Accept godoc
// @Summary      Accept a qualified node
// @Tags         Dispatch
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        node_id path string true "node id"
// @Param        request body dto.AcceptNodeRequest false "optional negotiated total"
// @Success      200 {object} dto.NodeResponse
// @Router       /dispatch/{node_id}/accept [post]
func (h *Dispatch) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "accept_node")
	driver := models.UserFromContext(ctx)

	nodeID, err := uuid.Parse(r.PathValue("node_id"))
	if err != nil {
		badRequestResponse(w, "node_id must be a valid UUID")
		return
	}

	req := &dto.AcceptNodeRequest{}
	if r.ContentLength > 0 {
		if err := readJSON(w, r, req); err != nil {
			badRequestResponse(w, err.Error())
			return
		}
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	var negotiated *types.Money
	if req.NegotiatedTotalFare != nil {
		total := types.Money(*req.NegotiatedTotalFare)
		negotiated = &total
	}

	n, err := h.dispatch.Accept(ctx, nodeID, driver.ID, negotiated)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to accept node", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"node": dto.ToNodeResponse(n, driver)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Broadcast godoc
// @Summary      Open a driver-owned route node
// @Tags         Dispatch
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.BroadcastRequest true "route payload"
// @Success      201 {object} dto.NodeResponse
// @Router       /dispatch/broadcast [post]
func (h *Dispatch) Broadcast(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "broadcast_route")
	driver := models.UserFromContext(ctx)

	req := &dto.BroadcastRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	n, err := h.dispatch.StartBroadcast(ctx, dispatch.BroadcastCommand{
		DriverID:      driver.ID,
		Origin:        req.Origin,
		Destination:   req.Destination,
		Capacity:      req.Capacity,
		FarePerPerson: types.Money(req.FarePerPerson),
	})
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to broadcast route", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"node": dto.ToNodeResponse(n, driver)}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Start godoc
// @Summary      Dispatch a quorate broadcast node
// @Tags         Dispatch
// @Produce      json
// @Security     BearerAuth
// @Param        node_id path string true "node id"
// @Success      200 {object} dto.NodeResponse
// @Router       /dispatch/{node_id}/start [post]
func (h *Dispatch) Start(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "start_broadcast_node")
	driver := models.UserFromContext(ctx)

	nodeID, err := uuid.Parse(r.PathValue("node_id"))
	if err != nil {
		badRequestResponse(w, "node_id must be a valid UUID")
		return
	}

	n, err := h.dispatch.Start(ctx, nodeID, driver.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to start node", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"node": dto.ToNodeResponse(n, driver)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Unassign godoc
// @Summary      Step away from a dispatched node before pickup
// @Tags         Dispatch
// @Produce      json
// @Security     BearerAuth
// @Param        node_id path string true "node id"
// @Success      200 {object} dto.NodeResponse
// @Router       /dispatch/{node_id}/unassign [post]
func (h *Dispatch) Unassign(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "unassign_node")
	driver := models.UserFromContext(ctx)

	nodeID, err := uuid.Parse(r.PathValue("node_id"))
	if err != nil {
		badRequestResponse(w, "node_id must be a valid UUID")
		return
	}

	n, err := h.dispatch.Unassign(ctx, nodeID, driver.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to unassign node", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"node": dto.ToNodeResponse(n, driver)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Verify godoc
// @Summary      Settle a dispatched node with a verification code
// @Tags         Dispatch
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        node_id path string true "node id"
// @Param        request body dto.VerifyRequest true "code payload"
// @Success      200 {object} dto.SettlementResponse
// @Router       /dispatch/{node_id}/verify [post]
func (h *Dispatch) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "verify_settlement")
	driver := models.UserFromContext(ctx)

	nodeID, err := uuid.Parse(r.PathValue("node_id"))
	if err != nil {
		badRequestResponse(w, "node_id must be a valid UUID")
		return
	}

	req := &dto.VerifyRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	result, err := h.settlement.Verify(ctx, nodeID, driver.ID, req.Code)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to verify settlement", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"settlement": dto.ToSettlementResponse(result)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}
