package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hubride/ride-pool-system/internal/adapter/http/handler/dto"
	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/internal/service/wallet"
	"github.com/hubride/ride-pool-system/pkg/logger"
	wrap "github.com/hubride/ride-pool-system/pkg/logger/wrapper"
	"github.com/hubride/ride-pool-system/pkg/validator"
)

type WalletService interface {
	Balance(ctx context.Context, acc wallet.Account) (types.Money, error)
	History(ctx context.Context, acc wallet.Account, limit, offset int) ([]models.Transaction, error)
}

type TopupService interface {
	RequestTopup(ctx context.Context, acc wallet.Account, amount types.Money, reference string) (*models.TopupRequest, error)
}

type Wallet struct {
	wallet WalletService
	topups TopupService
	l      logger.Logger
}

func NewWallet(walletSvc WalletService, topupSvc TopupService, l logger.Logger) *Wallet {
	return &Wallet{
		wallet: walletSvc,
		topups: topupSvc,
		l:      l,
	}
}

// accountOf derives the ledger account from the authenticated principal.
func accountOf(u *models.User) wallet.Account {
	accType := types.PassengerAccount
	if u.Role == types.RoleDriver {
		accType = types.DriverAccount
	}
	return wallet.Account{ID: u.ID, Type: accType}
}

// Balance godoc
// @Summary      Current wallet balance
// @Tags         Wallet
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]int64
// @Router       /wallet/balance [get]
func (h *Wallet) Balance(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_balance")
	user := models.UserFromContext(ctx)

	balance, err := h.wallet.Balance(ctx, accountOf(user))
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get balance", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"balance": int64(balance)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// History godoc
// @Summary      Wallet transaction history
// @Tags         Wallet
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "page size"
// @Param        offset query int false "page offset"
// @Success      200 {array} dto.TransactionView
// @Router       /wallet/transactions [get]
func (h *Wallet) History(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_wallet_history")
	user := models.UserFromContext(ctx)

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	txs, err := h.wallet.History(ctx, accountOf(user), limit, offset)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get wallet history", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"transactions": dto.ToTransactionViews(txs)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// RequestTopup godoc
// @Summary      File a top-up claim for operator review
// @Tags         Wallet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.TopupRequest true "topup payload"
// @Success      201 {object} map[string]any
// @Router       /wallet/topups [post]
func (h *Wallet) RequestTopup(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "request_topup")
	user := models.UserFromContext(ctx)

	req := &dto.TopupRequest{}
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

	created, err := h.topups.RequestTopup(ctx, accountOf(user), types.Money(req.Amount), req.Reference)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to create topup request", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"id": created.ID, "status": created.Status}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
