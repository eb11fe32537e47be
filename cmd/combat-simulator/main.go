package main

import (
	"context"
	"os"
	"time"

	"github.com/20q2/5e-combat-simulator-sub003/internal/api"
	"github.com/20q2/5e-combat-simulator-sub003/internal/constants"
	"github.com/20q2/5e-combat-simulator-sub003/internal/dice"
	"github.com/20q2/5e-combat-simulator-sub003/internal/engine"
	"github.com/20q2/5e-combat-simulator-sub003/internal/logging"
	"github.com/20q2/5e-combat-simulator-sub003/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	checkEnvVars([]string{constants.EnvSessionSecret, constants.EnvGoogleClientID, constants.EnvGoogleClientSecret})

	// Load server configuration (required). Path may be provided via
	// COMBAT_CONFIG env var or defaults to ./combat_config.json in the
	// current working directory.
	configPath := os.Getenv("COMBAT_CONFIG")
	if configPath == "" {
		configPath = "./combat_config.json"
	}
	cfg := loadConfigOrExit(configPath)

	repo := createRepositoryOrExit(cfg.DatabasePath)

	// Load the rules catalog eagerly so a broken file fails the boot, not
	// the first request. The store keeps serving the parsed catalog after.
	store, cat := loadCatalogOrExit(cfg.CatalogPath)

	seed := cfg.DiceSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	eng := engine.NewResolver(cat, dice.NewRoller(seed))
	svc := service.New(repo, eng, time.Duration(cfg.ActionTimeoutSeconds)*time.Second)

	handler := api.NewEncounterHandler(repo, svc, store, cfg.GridWidth, cfg.GridHeight)
	authHandler := api.NewAuthHandler(repo)

	ctx := context.Background()
	startTimeoutScanner(ctx, repo, svc)

	router := gin.Default()

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		// Public endpoints
		apiRoutes.GET(constants.RouteVersion, api.Version)
		apiRoutes.GET(constants.RouteMonsters, handler.ListMonsters)
		apiRoutes.GET(constants.RouteEncountersOpen, handler.ListOpenEncounters)
		apiRoutes.GET(constants.RouteLeaderboard, handler.ListLeaderboard)
		apiRoutes.POST(constants.RouteAuthGoogleCallBack, authHandler.GoogleOAuthCallback)
		apiRoutes.POST(constants.RouteAuthLogout, authHandler.Logout)

		// Authenticated endpoints
		protected := apiRoutes.Group("")
		protected.Use(api.AuthRequired())

		// Player profile: GET returns stats, POST updates display name
		protected.GET(constants.RoutePlayerStats, handler.GetPlayerStats)
		protected.POST(constants.RoutePlayerStats, handler.UpdatePlayerProfile)

		protected.POST(constants.RouteEncounters, handler.CreateEncounter)
		protected.POST(constants.RouteEncountersJoin, handler.JoinEncounter)
		protected.GET(constants.RouteEncounterByID, handler.GetEncounter)
		protected.DELETE(constants.RouteEncounterByID, handler.DeleteEncounter)
		protected.POST(constants.RouteEncounterStart, handler.StartEncounter)
		protected.POST(constants.RouteEncounterEnd, handler.EndEncounter)
		protected.POST(constants.RouteEncounterAction, handler.SubmitAction)
		protected.GET(constants.RouteEncounterLog, handler.GetEncounterLog)
		protected.GET(constants.RouteEncounterLogStream, handler.StreamEncounterLog)
	}

	// Serve on the configured address until interrupted.
	if err := runServer(ctx, router, cfg.ServerAddress); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
	logging.Info("Server stopped", nil)
}

func checkEnvVars(vars []string) {
	for _, v := range vars {
		if os.Getenv(v) == "" {
			logging.Fatal("Required environment variable not set", nil, logging.Fields{"var": v})
		}
	}
}
