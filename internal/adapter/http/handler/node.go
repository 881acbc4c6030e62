package handler

import (
	"context"
	"net/http"

	"github.com/hubride/ride-pool-system/internal/adapter/http/handler/dto"
	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/internal/service/node"
	"github.com/hubride/ride-pool-system/pkg/logger"
	wrap "github.com/hubride/ride-pool-system/pkg/logger/wrapper"
	"github.com/hubride/ride-pool-system/pkg/uuid"
	"github.com/hubride/ride-pool-system/pkg/validator"
)

type NodeService interface {
	Create(ctx context.Context, cmd node.CreateNodeCommand) (*models.RideNode, error)
	Join(ctx context.Context, nodeID, userID uuid.UUID) (*models.RideNode, error)
	Leave(ctx context.Context, nodeID, userID uuid.UUID) error
	ForceQualify(ctx context.Context, nodeID, callerID uuid.UUID) (*models.RideNode, error)
	Delete(ctx context.Context, nodeID, callerID uuid.UUID) error
	Get(ctx context.Context, nodeID uuid.UUID) (*models.RideNode, error)
	ListOpen(ctx context.Context) ([]models.NodeEventMessage, error)
	ListByPassenger(ctx context.Context, userID uuid.UUID) ([]models.RideNode, error)
}

type Node struct {
	nodes NodeService
	l     logger.Logger
}

func NewNode(service NodeService, l logger.Logger) *Node {
	return &Node{
		nodes: service,
		l:     l,
	}
}

// Create godoc
// @Summary      Open a new ride node
// @Tags         Nodes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateNodeRequest true "node payload"
// @Success      201 {object} dto.NodeResponse
// @Router       /nodes [post]
func (h *Node) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_node")
	user := models.UserFromContext(ctx)

	req := &dto.CreateNodeRequest{}
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

	class, _ := types.ParseVehicleClass(req.VehicleClass)
	created, err := h.nodes.Create(ctx, node.CreateNodeCommand{
		LeaderID:     user.ID,
		Origin:       req.Origin,
		Destination:  req.Destination,
		VehicleClass: class,
		Solo:         req.Solo,
		Capacity:     req.Capacity,
		Offer:        types.Money(req.OfferedFare),
	})
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to create node", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"node": dto.ToNodeResponse(created, user)}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Join godoc
// @Summary      Join an open node
// @Tags         Nodes
// @Produce      json
// @Security     BearerAuth
// @Param        node_id path string true "node id"
// @Success      200 {object} dto.NodeResponse
// @Router       /nodes/{node_id}/join [post]
func (h *Node) Join(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "join_node")
	user := models.UserFromContext(ctx)

	nodeID, err := uuid.Parse(r.PathValue("node_id"))
	if err != nil {
		badRequestResponse(w, "node_id must be a valid UUID")
		return
	}

	joined, err := h.nodes.Join(ctx, nodeID, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to join node", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"node": dto.ToNodeResponse(joined, user)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Leave godoc
// @Summary      Leave a node before dispatch
// @Tags         Nodes
// @Security     BearerAuth
// @Param        node_id path string true "node id"
// @Success      204
// @Router       /nodes/{node_id}/leave [post]
func (h *Node) Leave(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "leave_node")
	user := models.UserFromContext(ctx)

	nodeID, err := uuid.Parse(r.PathValue("node_id"))
	if err != nil {
		badRequestResponse(w, "node_id must be a valid UUID")
		return
	}

	if err := h.nodes.Leave(ctx, nodeID, user.ID); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to leave node", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ForceQualify godoc
// @Summary      Leader closes the pool early at the current headcount
// @Tags         Nodes
// @Produce      json
// @Security     BearerAuth
// @Param        node_id path string true "node id"
// @Success      200 {object} dto.NodeResponse
// @Router       /nodes/{node_id}/force-qualify [post]
func (h *Node) ForceQualify(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "force_qualify_node")
	user := models.UserFromContext(ctx)

	nodeID, err := uuid.Parse(r.PathValue("node_id"))
	if err != nil {
		badRequestResponse(w, "node_id must be a valid UUID")
		return
	}

	qualified, err := h.nodes.ForceQualify(ctx, nodeID, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to force qualify node", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"node": dto.ToNodeResponse(qualified, user)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Delete godoc
// @Summary      Leader deletes an undispatched node
// @Tags         Nodes
// @Security     BearerAuth
// @Param        node_id path string true "node id"
// @Success      204
// @Router       /nodes/{node_id} [delete]
func (h *Node) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "delete_node")
	user := models.UserFromContext(ctx)

	nodeID, err := uuid.Parse(r.PathValue("node_id"))
	if err != nil {
		badRequestResponse(w, "node_id must be a valid UUID")
		return
	}

	if err := h.nodes.Delete(ctx, nodeID, user.ID); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to delete node", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get godoc
// @Summary      Fetch one node
// @Tags         Nodes
// @Produce      json
// @Security     BearerAuth
// @Param        node_id path string true "node id"
// @Success      200 {object} dto.NodeResponse
// @Router       /nodes/{node_id} [get]
func (h *Node) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_node")
	user := models.UserFromContext(ctx)

	nodeID, err := uuid.Parse(r.PathValue("node_id"))
	if err != nil {
		badRequestResponse(w, "node_id must be a valid UUID")
		return
	}

	n, err := h.nodes.Get(ctx, nodeID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get node", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"node": dto.ToNodeResponse(n, user)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// ListOpen godoc
// @Summary      Browse forming and qualified nodes
// @Tags         Nodes
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.BoardNodeResponse
// @Router       /nodes [get]
func (h *Node) ListOpen(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_open_nodes")

	rows, err := h.nodes.ListOpen(ctx)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list open nodes", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"nodes": dto.ToBoardResponses(rows)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// ListMine godoc
// @Summary      Nodes the caller rides on
// @Tags         Nodes
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.NodeResponse
// @Router       /nodes/mine [get]
func (h *Node) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_my_nodes")
	user := models.UserFromContext(ctx)

	nodes, err := h.nodes.ListByPassenger(ctx, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list nodes", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"nodes": dto.ToNodeResponses(nodes, user)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}
