package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hubride/ride-pool-system/config"
	"github.com/hubride/ride-pool-system/internal/adapter/http/handler"
	"github.com/hubride/ride-pool-system/internal/adapter/http/middleware"
	wshandler "github.com/hubride/ride-pool-system/internal/adapter/http/ws"
	"github.com/hubride/ride-pool-system/pkg/logger"
	wrap "github.com/hubride/ride-pool-system/pkg/logger/wrapper"
)

const serviceName = "hub-api"

// API is the single HTTP surface of the hub: passenger, driver, admin
// and feed routes behind one mux.
type API struct {
	mux    *http.ServeMux
	server *http.Server
	routes *handlers
	m      *middleware.Middleware

	addr string
	log  logger.Logger
}

type handlers struct {
	health   *handler.Health
	auth     *handler.Auth
	node     *handler.Node
	dispatch *handler.Dispatch
	wallet   *handler.Wallet
	driver   *handler.Driver
	admin    *handler.Admin
	feed     *wshandler.Feed
}

type Handlers struct {
	Auth     *handler.Auth
	Node     *handler.Node
	Dispatch *handler.Dispatch
	Wallet   *handler.Wallet
	Driver   *handler.Driver
	Admin    *handler.Admin
	Feed     *wshandler.Feed
}

func New(cfg config.ServerConfig, h Handlers, authService middleware.AuthService, log logger.Logger) (*API, error) {
	if authService == nil {
		return nil, errors.New("auth service is required")
	}
	if h.Auth == nil || h.Node == nil || h.Dispatch == nil || h.Wallet == nil || h.Driver == nil || h.Admin == nil {
		return nil, errors.New("all handlers are required")
	}

	api := &API{
		mux: http.NewServeMux(),
		routes: &handlers{
			health:   handler.NewHealth(serviceName, log),
			auth:     h.Auth,
			node:     h.Node,
			dispatch: h.Dispatch,
			wallet:   h.Wallet,
			driver:   h.Driver,
			admin:    h.Admin,
			feed:     h.Feed,
		},
		m:    middleware.NewMiddleware(authService, log),
		addr: fmt.Sprintf("0.0.0.0:%s", cfg.Port),
		log:  log,
	}

	api.server = &http.Server{
		Addr:    api.addr,
		Handler: api.withMiddleware(),
	}

	api.setupRoutes()

	return api, nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

// withMiddleware applies middlewares to the mux
func (a *API) withMiddleware() http.Handler {
	return a.m.Recover(a.m.RequestID(a.m.Metrics(serviceName)(a.m.Logging(a.m.Auth(a.mux)))))
}
