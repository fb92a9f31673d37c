package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/crisis-audit/internal/api"
	"github.com/wonny/crisis-audit/internal/api/handlers"
	"github.com/wonny/crisis-audit/internal/api/ws"
	"github.com/wonny/crisis-audit/internal/narrative"
	"github.com/wonny/crisis-audit/internal/scheduler"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health           - Health check
  GET  /metrics          - Prometheus metrics
  GET  /ws/status        - WebSocket status stream
  GET  /api/status       - Latest run
  GET  /api/narrative    - Latest run explained (?lang=en|ja, ?format=text)
  POST /api/evaluate     - Run one evaluation now
  GET  /api/history      - Run summaries (?limit=20)
  GET  /api/stress       - Unit fee sweep (?fees=0,329.17,1000)
  GET  /api/thresholds   - Thresholds of the latest run

Example:
  go run ./cmd/audit api
  go run ./cmd/audit api --port 8080 --schedule`,
	RunE: runAPIServer,
}

var (
	apiPort     string
	apiSchedule bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
	apiCmd.Flags().BoolVar(&apiSchedule, "schedule", false, "run evaluations on AUDIT_SCHEDULE in-process")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Structural Crisis Audit API Server ===")

	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	// 1. Status stream
	hub := ws.NewHub(a.log)
	defer hub.Close()
	a.brain.AddPublisher(hub)

	// 2. Handlers and router
	auditHandler := handlers.NewAuditHandler(a.brain, narrative.Default(), a.lang, a.log)
	router := api.NewRouter(auditHandler, hub, a.metricsHandler(), a.log)
	server := api.New(a.cfg, a.log, router)

	// 3. Optional in-process scheduler
	var sched *scheduler.Scheduler
	if apiSchedule {
		sched, err = newScheduler(a)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// 4. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	if sched != nil {
		fmt.Printf("   Scheduled jobs: %v\n", sched.GetAllJobs())
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}

	a.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
