package bootstrap

import (
	"net/http"

	"greenledger-backend/internal/config"
	"greenledger-backend/internal/interfaces/router"
)

// NewHandler creates the app for serverless runtimes (the api handler imports this package, not internal).
// Database and Redis handles live as long as the process.
func NewHandler() (http.Handler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	app, _, _, err := router.CreateApp(cfg)
	if err != nil {
		return nil, err
	}
	return router.Handler(app), nil
}
