package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/linkboard/pkg/adapters/handler"
	"github.com/wadjakorntonsri/linkboard/pkg/adapters/repository"
	"github.com/wadjakorntonsri/linkboard/pkg/config"
	"github.com/wadjakorntonsri/linkboard/pkg/core/services"
	"github.com/wadjakorntonsri/linkboard/pkg/logger"
	"go.uber.org/zap"
)

var mux http.Handler

func init() {
	cfg := config.MustLoad("")

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(log)

	// Note: On Vercel, a file DATABASE_URL is ephemeral; use a libsql:// (Turso) URL to persist
	repo, err := repository.Open(cfg)
	if err != nil {
		panic(err)
	}

	mux = handler.NewRouter(cfg, services.NewLinkService(repo), log.Named("http"))
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
