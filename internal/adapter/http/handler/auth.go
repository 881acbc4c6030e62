package handler

import (
	"context"
	"net/http"

	"github.com/hubride/ride-pool-system/internal/adapter/http/handler/dto"
	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/service/auth"
	"github.com/hubride/ride-pool-system/pkg/logger"
	wrap "github.com/hubride/ride-pool-system/pkg/logger/wrapper"
	"github.com/hubride/ride-pool-system/pkg/uuid"
	"github.com/hubride/ride-pool-system/pkg/validator"
)

type AuthService interface {
	Register(ctx context.Context, cmd auth.RegisterCommand) (uuid.UUID, error)
	Login(ctx context.Context, phone, pin string) (*models.TokenPair, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type Auth struct {
	auth AuthService
	l    logger.Logger
}

func NewAuth(service AuthService, l logger.Logger) *Auth {
	return &Auth{
		auth: service,
		l:    l,
	}
}

// Register godoc
// @Summary      Register a passenger account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body dto.RegisterRequest true "registration payload"
// @Success      201 {object} map[string]string
// @Router       /auth/register [post]
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "register_passenger")

	req := &dto.RegisterRequest{}
	if err := readJSON(w, r, req); err != nil {
		h.l.Error(ctx, "failed to read request JSON data", err)
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	id, err := h.auth.Register(ctx, auth.RegisterCommand{
		Name:  req.Name,
		Phone: req.Phone,
		PIN:   req.PIN,
	})
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to register passenger", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusCreated, envelope{"id": id}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Login godoc
// @Summary      Log in with phone and PIN
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body dto.LoginRequest true "login payload"
// @Success      200 {object} map[string]string
// @Router       /auth/login [post]
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "login")

	req := &dto.LoginRequest{}
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

	tokens, err := h.auth.Login(ctx, req.Phone, req.PIN)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to login", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"access_token": tokens.AccessToken,
		"expires_at":   tokens.ExpiresAt,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Profile godoc
// @Summary      Current principal
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]any
// @Router       /auth/me [get]
func (h *Auth) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_profile")

	user := models.UserFromContext(ctx)
	if user == nil || user.IsAnonymous() {
		errorResponse(w, http.StatusUnauthorized, "authorization required")
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"user": user}, nil); err != nil {
		h.l.Error(ctx, "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}
