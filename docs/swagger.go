package docs

// @title           Hub Ride Pooling API
// @version         1.0
// @description     Ride pooling, dispatch and settlement engine for the hub marketplace. Passengers form ride nodes, drivers accept or broadcast routes, and completed trips settle through the wallet ledger with a verification code.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
