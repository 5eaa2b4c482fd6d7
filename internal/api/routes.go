package api

import (
	"net/http"

	"github.com/JaimeStill/autolot/internal/config"
	"github.com/JaimeStill/autolot/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) {
	routes.Register(
		mux,
		domain.Auth.Handler().Routes(),
		domain.Records.Handler(cfg.API.MaxUploadSizeBytes(), domain.Auth.RequireAdmin).Routes(),
	)
}
