package handler

import (
	"context"
	"net/http"

	"github.com/hubride/ride-pool-system/internal/adapter/http/handler/dto"
	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/internal/service/review"
	"github.com/hubride/ride-pool-system/pkg/logger"
	wrap "github.com/hubride/ride-pool-system/pkg/logger/wrapper"
	"github.com/hubride/ride-pool-system/pkg/passhash"
	"github.com/hubride/ride-pool-system/pkg/uuid"
	"github.com/hubride/ride-pool-system/pkg/validator"
)

type ClaimService interface {
	RequestRegistration(ctx context.Context, cmd review.RegistrationCommand) (*models.RegistrationRequest, error)
	ReportNoShow(ctx context.Context, nodeID, driverID, passengerID uuid.UUID, reason string) (*models.RefundRequest, error)
}

type MissionService interface {
	Join(ctx context.Context, missionID, driverID uuid.UUID) error
	List(ctx context.Context, activeOnly bool) ([]models.HubMission, error)
}

// Driver is the partner self-service surface: applying to join,
// hotspot missions and no-show claims.
type Driver struct {
	claims   ClaimService
	missions MissionService
	l        logger.Logger
}

func NewDriver(claims ClaimService, missions MissionService, l logger.Logger) *Driver {
	return &Driver{
		claims:   claims,
		missions: missions,
		l:        l,
	}
}

// Apply godoc
// @Summary      Apply to register as a driver
// @Tags         Drivers
// @Accept       json
// @Produce      json
// @Param        request body dto.ApplyRegistrationRequest true "application payload"
// @Success      201 {object} map[string]any
// @Router       /drivers/apply [post]
func (h *Driver) Apply(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "apply_registration")

	req := &dto.ApplyRegistrationRequest{}
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

	hash, err := passhash.HashPassword(req.PIN)
	if err != nil {
		h.l.Error(ctx, "failed to hash PIN", err)
		internalErrorResponse(w, "could not process application")
		return
	}

	class, _ := types.ParseVehicleClass(req.VehicleClass)
	created, err := h.claims.RequestRegistration(ctx, review.RegistrationCommand{
		Name:         req.Name,
		Phone:        req.Phone,
		VehicleClass: class,
		PINHash:      hash,
		Deposit:      types.Money(req.Deposit),
	})
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to create registration request", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"id": created.ID, "status": created.Status}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// ReportNoShow godoc
// @Summary      Claim a no-show refund against a passenger seat
// @Tags         Drivers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        node_id path string true "node id"
// @Param        request body dto.NoShowRequest true "claim payload"
// @Success      201 {object} map[string]any
// @Router       /dispatch/{node_id}/no-show [post]
func (h *Driver) ReportNoShow(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "report_no_show")
	driver := models.UserFromContext(ctx)

	nodeID, err := uuid.Parse(r.PathValue("node_id"))
	if err != nil {
		badRequestResponse(w, "node_id must be a valid UUID")
		return
	}

	req := &dto.NoShowRequest{}
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

	passengerID, _ := uuid.Parse(req.PassengerID)
	claim, err := h.claims.ReportNoShow(ctx, nodeID, driver.ID, passengerID, req.Reason)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to report no-show", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"id": claim.ID, "status": claim.Status, "amount": int64(claim.Amount)}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// ListMissions godoc
// @Summary      Browse active hotspot missions
// @Tags         Missions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.MissionResponse
// @Router       /missions [get]
func (h *Driver) ListMissions(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_missions")

	missions, err := h.missions.List(ctx, true)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list missions", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"missions": dto.ToMissionResponses(missions)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// JoinMission godoc
// @Summary      Join a hotspot mission, paying the entry fee
// @Tags         Missions
// @Security     BearerAuth
// @Param        mission_id path string true "mission id"
// @Success      204
// @Router       /missions/{mission_id}/join [post]
func (h *Driver) JoinMission(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "join_mission")
	driver := models.UserFromContext(ctx)

	missionID, err := uuid.Parse(r.PathValue("mission_id"))
	if err != nil {
		badRequestResponse(w, "mission_id must be a valid UUID")
		return
	}

	if err := h.missions.Join(ctx, missionID, driver.ID); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to join mission", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
