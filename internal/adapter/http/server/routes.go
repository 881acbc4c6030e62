package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/hubride/ride-pool-system/internal/domain/types"
)

// setupRoutes - setups http routes
func (a *API) setupRoutes() {
	mux, routes, m := a.mux, a.routes, a.m

	// System Health
	mux.HandleFunc("/health", routes.health.HealthCheck)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/swagger/", httpSwagger.Handler())

	// Public
	mux.HandleFunc("POST /auth/register", routes.auth.Register)
	mux.HandleFunc("POST /auth/login", routes.auth.Login)
	mux.HandleFunc("POST /drivers/apply", routes.driver.Apply)

	// Any authenticated principal
	mux.Handle("GET /auth/me", m.RequireRoles(routes.auth.Profile))
	mux.Handle("GET /wallet/balance", m.RequireRoles(routes.wallet.Balance))
	mux.Handle("GET /wallet/transactions", m.RequireRoles(routes.wallet.History))
	mux.Handle("POST /wallet/topups", m.RequireRoles(routes.wallet.RequestTopup))
	if routes.feed != nil {
		mux.Handle("GET /ws", m.RequireRoles(routes.feed.Serve))
	}

	// The open board is visible to both sides of the market.
	mux.Handle("GET /nodes", m.RequireRoles(routes.node.ListOpen, types.RolePassenger, types.RoleDriver, types.RoleAdmin))
	mux.Handle("GET /nodes/{node_id}", m.RequireRoles(routes.node.Get, types.RolePassenger, types.RoleDriver, types.RoleAdmin))

	// Passengers
	mux.Handle("POST /nodes", m.RequireRoles(routes.node.Create, types.RolePassenger))
	mux.Handle("GET /nodes/mine", m.RequireRoles(routes.node.ListMine, types.RolePassenger))
	mux.Handle("POST /nodes/{node_id}/join", m.RequireRoles(routes.node.Join, types.RolePassenger))
	mux.Handle("POST /nodes/{node_id}/leave", m.RequireRoles(routes.node.Leave, types.RolePassenger))
	mux.Handle("POST /nodes/{node_id}/force-qualify", m.RequireRoles(routes.node.ForceQualify, types.RolePassenger))
	mux.Handle("DELETE /nodes/{node_id}", m.RequireRoles(routes.node.Delete, types.RolePassenger))

	// Drivers
	mux.Handle("POST /dispatch/broadcast", m.RequireRoles(routes.dispatch.Broadcast, types.RoleDriver))
	mux.Handle("POST /dispatch/{node_id}/accept", m.RequireRoles(routes.dispatch.Accept, types.RoleDriver))
	mux.Handle("POST /dispatch/{node_id}/start", m.RequireRoles(routes.dispatch.Start, types.RoleDriver))
	mux.Handle("POST /dispatch/{node_id}/unassign", m.RequireRoles(routes.dispatch.Unassign, types.RoleDriver))
	mux.Handle("POST /dispatch/{node_id}/verify", m.RequireRoles(routes.dispatch.Verify, types.RoleDriver))
	mux.Handle("POST /dispatch/{node_id}/no-show", m.RequireRoles(routes.driver.ReportNoShow, types.RoleDriver))
	mux.Handle("GET /missions", m.RequireRoles(routes.driver.ListMissions, types.RoleDriver))
	mux.Handle("POST /missions/{mission_id}/join", m.RequireRoles(routes.driver.JoinMission, types.RoleDriver))

	// Operators
	mux.Handle("GET /admin/topups", m.RequireRoles(routes.admin.PendingTopups, types.RoleAdmin))
	mux.Handle("POST /admin/topups/{request_id}/review", m.RequireRoles(routes.admin.ReviewTopup, types.RoleAdmin))
	mux.Handle("GET /admin/registrations", m.RequireRoles(routes.admin.PendingRegistrations, types.RoleAdmin))
	mux.Handle("POST /admin/registrations/{request_id}/review", m.RequireRoles(routes.admin.ReviewRegistration, types.RoleAdmin))
	mux.Handle("GET /admin/refunds", m.RequireRoles(routes.admin.PendingRefunds, types.RoleAdmin))
	mux.Handle("POST /admin/refunds/{request_id}/review", m.RequireRoles(routes.admin.ReviewRefund, types.RoleAdmin))
	mux.Handle("GET /admin/settings", m.RequireRoles(routes.admin.GetSettings, types.RoleAdmin))
	mux.Handle("PUT /admin/settings", m.RequireRoles(routes.admin.UpdateSettings, types.RoleAdmin))
	mux.Handle("GET /admin/revenue", m.RequireRoles(routes.admin.Revenue, types.RoleAdmin))
	mux.Handle("POST /admin/missions", m.RequireRoles(routes.admin.CreateMission, types.RoleAdmin))
	mux.Handle("GET /admin/missions", m.RequireRoles(routes.admin.ListMissions, types.RoleAdmin))
	mux.Handle("POST /admin/missions/{mission_id}/close", m.RequireRoles(routes.admin.CloseMission, types.RoleAdmin))
	mux.Handle("DELETE /admin/drivers/{driver_id}", m.RequireRoles(routes.admin.RemoveDriver, types.RoleAdmin))
	mux.Handle("POST /admin/nodes/{node_id}/force-complete", m.RequireRoles(routes.admin.ForceComplete, types.RoleAdmin))
}
