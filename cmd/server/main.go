package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"ironfront/internal/api"
	"ironfront/internal/config"
	"ironfront/internal/rts"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("no .env file found, using environment variables only")
		}
	} else {
		log.Println("loaded environment from ../.env")
	}

	log.Println("================================")
	log.Println(" IRONFRONT - RTS GAME SERVER")
	log.Println("================================")

	appConfig := config.Load()
	serverCfg := appConfig.Server

	port := strconv.Itoa(serverCfg.Port)
	log.Printf("config: %d TPS, %d max games, vision radius %.0f",
		appConfig.Sim.TickRate, serverCfg.MaxGames, appConfig.Sim.VisionRadius)

	// Debug server (pprof + metrics), localhost-only.
	debugCfg := api.DefaultObservabilityConfig()
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(debugCfg); err != nil {
			log.Printf("debug server disabled: %v", err)
		}
	}

	// Matchmaking games get their world size from the lobby
	// (worldSizeForPlayers); games created directly through the API keep
	// this template's 3000x3000 world, tick rate, vision radius, limits,
	// and economy.
	cfgTemplate := appConfig.GameConfig(3000, 3000)
	lobby := rts.NewLobby(serverCfg.MaxGames, cfgTemplate)

	operatorKey := os.Getenv("OPERATOR_KEY")
	if operatorKey != "" {
		log.Println("operator authentication ENABLED")
	} else {
		log.Println("operator authentication DISABLED (set OPERATOR_KEY to enable)")
	}

	server := api.NewServerWithAuth(lobby, cfgTemplate, operatorKey)

	go func() {
		addr := ":" + port
		log.Printf("API server on http://localhost%s", addr)
		log.Printf("admin panel: http://localhost%s/admin", addr)
		if err := server.Start(addr); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("server ready, press Ctrl+C to stop")
	<-quit

	log.Println("shutting down...")
	server.Stop()
	log.Println("goodbye")
}
