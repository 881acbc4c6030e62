package handler

import (
	"context"
	"net/http"

	"github.com/hubride/ride-pool-system/internal/adapter/http/handler/dto"
	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/internal/service/mission"
	"github.com/hubride/ride-pool-system/internal/service/settlement"
	"github.com/hubride/ride-pool-system/pkg/logger"
	wrap "github.com/hubride/ride-pool-system/pkg/logger/wrapper"
	"github.com/hubride/ride-pool-system/pkg/uuid"
	"github.com/hubride/ride-pool-system/pkg/validator"
)

type ReviewService interface {
	ReviewTopup(ctx context.Context, requestID uuid.UUID, approve bool) error
	ReviewRegistration(ctx context.Context, requestID uuid.UUID, approve bool) (*models.Driver, error)
	ReviewRefund(ctx context.Context, requestID uuid.UUID, approve bool) error
	PendingTopups(ctx context.Context) ([]models.TopupRequest, error)
	PendingRegistrations(ctx context.Context) ([]models.RegistrationRequest, error)
	PendingRefunds(ctx context.Context) ([]models.RefundRequest, error)
	GetSettings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, settings models.Settings) error
	RemoveDriver(ctx context.Context, driverID uuid.UUID) error
}

type AdminMissionService interface {
	Create(ctx context.Context, cmd mission.CreateMissionCommand) (*models.HubMission, error)
	List(ctx context.Context, activeOnly bool) ([]models.HubMission, error)
	Close(ctx context.Context, id uuid.UUID) error
}

type RevenueService interface {
	HubRevenue(ctx context.Context) (types.Money, error)
}

type ForceCompleteService interface {
	ForceComplete(ctx context.Context, nodeID uuid.UUID) (*settlement.Result, error)
}

// Admin is the operator surface: claim review, settings, missions,
// revenue and manual interventions.
type Admin struct {
	review   ReviewService
	missions AdminMissionService
	revenue  RevenueService
	force    ForceCompleteService
	l        logger.Logger
}

func NewAdmin(reviewSvc ReviewService, missionSvc AdminMissionService, revenueSvc RevenueService, forceSvc ForceCompleteService, l logger.Logger) *Admin {
	return &Admin{
		review:   reviewSvc,
		missions: missionSvc,
		revenue:  revenueSvc,
		force:    forceSvc,
		l:        l,
	}
}

// PendingTopups godoc
// @Summary      Pending top-up claims
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.TopupRequestView
// @Router       /admin/topups [get]
func (h *Admin) PendingTopups(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_pending_topups")

	reqs, err := h.review.PendingTopups(ctx)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list pending topups", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	h.writeOK(ctx, w, envelope{"requests": dto.ToTopupRequestViews(reqs)})
}

// ReviewTopup godoc
// @Summary      Approve or reject a top-up claim
// @Tags         Admin
// @Accept       json
// @Security     BearerAuth
// @Param        request_id path string true "request id"
// @Param        request body dto.ReviewDecisionRequest true "decision"
// @Success      204
// @Router       /admin/topups/{request_id}/review [post]
func (h *Admin) ReviewTopup(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "review_topup")

	requestID, err := uuid.Parse(r.PathValue("request_id"))
	if err != nil {
		badRequestResponse(w, "request_id must be a valid UUID")
		return
	}

	req := &dto.ReviewDecisionRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	if err := h.review.ReviewTopup(ctx, requestID, req.Approve); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to review topup", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PendingRegistrations godoc
// @Summary      Pending driver applications
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.RegistrationRequestView
// @Router       /admin/registrations [get]
func (h *Admin) PendingRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_pending_registrations")

	reqs, err := h.review.PendingRegistrations(ctx)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list pending registrations", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	h.writeOK(ctx, w, envelope{"requests": dto.ToRegistrationRequestViews(reqs)})
}

// ReviewRegistration godoc
// @Summary      Approve or reject a driver application
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request_id path string true "request id"
// @Param        request body dto.ReviewDecisionRequest true "decision"
// @Success      200 {object} map[string]any
// @Router       /admin/registrations/{request_id}/review [post]
func (h *Admin) ReviewRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "review_registration")

	requestID, err := uuid.Parse(r.PathValue("request_id"))
	if err != nil {
		badRequestResponse(w, "request_id must be a valid UUID")
		return
	}

	req := &dto.ReviewDecisionRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	driver, err := h.review.ReviewRegistration(ctx, requestID, req.Approve)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to review registration", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"approved": req.Approve}
	if driver != nil {
		response["driver_id"] = driver.ID
	}
	h.writeOK(ctx, w, response)
}

// PendingRefunds godoc
// @Summary      Pending no-show refund claims
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.RefundRequestView
// @Router       /admin/refunds [get]
func (h *Admin) PendingRefunds(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_pending_refunds")

	reqs, err := h.review.PendingRefunds(ctx)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list pending refunds", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	h.writeOK(ctx, w, envelope{"requests": dto.ToRefundRequestViews(reqs)})
}

// ReviewRefund godoc
// @Summary      Approve or reject a no-show refund claim
// @Tags         Admin
// @Accept       json
// @Security     BearerAuth
// @Param        request_id path string true "request id"
// @Param        request body dto.ReviewDecisionRequest true "decision"
// @Success      204
// @Router       /admin/refunds/{request_id}/review [post]
func (h *Admin) ReviewRefund(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "review_refund")

	requestID, err := uuid.Parse(r.PathValue("request_id"))
	if err != nil {
		badRequestResponse(w, "request_id must be a valid UUID")
		return
	}

	req := &dto.ReviewDecisionRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	if err := h.review.ReviewRefund(ctx, requestID, req.Approve); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to review refund", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetSettings godoc
// @Summary      Current fare and commission settings
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.SettingsResponse
// @Router       /admin/settings [get]
func (h *Admin) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_settings")

	settings, err := h.review.GetSettings(ctx)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get settings", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	h.writeOK(ctx, w, envelope{"settings": dto.ToSettingsResponse(settings)})
}

// UpdateSettings godoc
// @Summary      Update fare and commission settings
// @Tags         Admin
// @Accept       json
// @Security     BearerAuth
// @Param        request body dto.SettingsRequest true "settings payload"
// @Success      204
// @Router       /admin/settings [put]
func (h *Admin) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_settings")

	req := &dto.SettingsRequest{}
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

	if err := h.review.UpdateSettings(ctx, req.ToModel()); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to update settings", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Revenue godoc
// @Summary      Total hub commission revenue
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]int64
// @Router       /admin/revenue [get]
func (h *Admin) Revenue(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_hub_revenue")

	revenue, err := h.revenue.HubRevenue(ctx)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get hub revenue", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	h.writeOK(ctx, w, envelope{"revenue": int64(revenue)})
}

// CreateMission godoc
// @Summary      Open a hotspot mission
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateMissionRequest true "mission payload"
// @Success      201 {object} dto.MissionResponse
// @Router       /admin/missions [post]
func (h *Admin) CreateMission(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_mission")

	req := &dto.CreateMissionRequest{}
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

	created, err := h.missions.Create(ctx, mission.CreateMissionCommand{
		Location:    req.Location,
		Description: req.Description,
		EntryFee:    types.Money(req.EntryFee),
	})
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to create mission", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"mission": dto.ToMissionResponse(created)}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// ListMissions godoc
// @Summary      All missions, active and closed
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.MissionResponse
// @Router       /admin/missions [get]
func (h *Admin) ListMissions(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_all_missions")

	missions, err := h.missions.List(ctx, false)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list missions", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	h.writeOK(ctx, w, envelope{"missions": dto.ToMissionResponses(missions)})
}

// CloseMission godoc
// @Summary      Close a mission to new joins
// @Tags         Admin
// @Security     BearerAuth
// @Param        mission_id path string true "mission id"
// @Success      204
// @Router       /admin/missions/{mission_id}/close [post]
func (h *Admin) CloseMission(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "close_mission")

	missionID, err := uuid.Parse(r.PathValue("mission_id"))
	if err != nil {
		badRequestResponse(w, "mission_id must be a valid UUID")
		return
	}

	if err := h.missions.Close(ctx, missionID); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to close mission", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveDriver godoc
// @Summary      Remove a driver with no active trips
// @Tags         Admin
// @Security     BearerAuth
// @Param        driver_id path string true "driver id"
// @Success      204
// @Router       /admin/drivers/{driver_id} [delete]
func (h *Admin) RemoveDriver(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "remove_driver")

	driverID, err := uuid.Parse(r.PathValue("driver_id"))
	if err != nil {
		badRequestResponse(w, "driver_id must be a valid UUID")
		return
	}

	if err := h.review.RemoveDriver(ctx, driverID); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to remove driver", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ForceComplete godoc
// @Summary      Settle a dispatched node without a code
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        node_id path string true "node id"
// @Success      200 {object} dto.SettlementResponse
// @Router       /admin/nodes/{node_id}/force-complete [post]
func (h *Admin) ForceComplete(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "force_complete_node")

	nodeID, err := uuid.Parse(r.PathValue("node_id"))
	if err != nil {
		badRequestResponse(w, "node_id must be a valid UUID")
		return
	}

	result, err := h.force.ForceComplete(ctx, nodeID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to force complete node", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	h.writeOK(ctx, w, envelope{"settlement": dto.ToSettlementResponse(result)})
}

func (h *Admin) writeOK(ctx context.Context, w http.ResponseWriter, response envelope) {
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}
