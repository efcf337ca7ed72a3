package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/daylog-app/daylog/internal/api"
	"github.com/daylog-app/daylog/internal/audit"
	"github.com/daylog-app/daylog/internal/config"
	"github.com/daylog-app/daylog/internal/profile"
	"github.com/daylog-app/daylog/internal/rangecache"
	"github.com/daylog-app/daylog/internal/series"
	"github.com/daylog-app/daylog/internal/storage"
	"github.com/daylog-app/daylog/internal/tracker"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daylog server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daylog server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daylog system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidPath(dataDir string) string {
	return filepath.Join(dataDir, "daylog.pid")
}

func writePID(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPID(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(raw)))
}

// healthOK reports whether a daylog server answers on the given port.
func healthOK(client *http.Client, port int) bool {
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "daylog version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Ensure the API token exists in the platform secret store.
	apiToken, err := config.EnsureAPIToken()
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	// Refuse to start twice. A live health endpoint wins over a stale
	// PID file.
	pidFile := pidPath(cfg.Storage.DataDir)
	probe := &http.Client{Timeout: 2 * time.Second}
	if healthOK(probe, cfg.Server.Port) {
		if pid, err := readPID(pidFile); err == nil {
			printWarning("daylog is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("daylog is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePID(pidFile); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer os.Remove(pidFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Wire services.
	profileMgr := profile.NewManager(store)
	cache := rangecache.New()
	fetcher := series.NewFetcher(store, profileMgr, cache)
	svc := tracker.NewService(store, cache)

	// Start the summary consistency sweep.
	interval, err := time.ParseDuration(cfg.Audit.Interval)
	if err != nil {
		slog.Warn("invalid audit interval, using default 1h", "value", cfg.Audit.Interval, "error", err)
		interval = time.Hour
	}
	worker := audit.NewWorker(store, interval, cfg.Audit.Window)
	go worker.Run(ctx)

	appHandler := api.NewAppHandler(api.AppDeps{
		Tracker: svc,
		Series:  fetcher,
		Profile: profileMgr,
		Token:   apiToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: appHandler,
	}

	// MCP server on stdio, alongside the HTTP listener.
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Tracker:     svc,
		Series:      fetcher,
		Profile:     profileMgr,
		DefaultUser: cfg.User.ID,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	serveErr := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "daylog listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout. Queued summary refreshes drain
	// before the store closes.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	svc.Wait()
	return err
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidFile := pidPath(cfg.Storage.DataDir)
	pid, err := readPID(pidFile)
	if err != nil {
		printError("daylog is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop daylog (PID %d): %v", pid, err)
		os.Remove(pidFile)
		return err
	}

	printSuccess("Sent stop signal to daylog (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client := &http.Client{Timeout: 2 * time.Second}
	up := healthOK(client, cfg.Server.Port)
	if up {
		printStatus("Server", "running on port %d", cfg.Server.Port)
	} else {
		printStatus("Server", "stopped")
	}

	if cfg.User.ID != "" {
		printStatus("Default user", "%s", cfg.User.ID)
	} else {
		printStatus("Default user", "not set (daylog config set user.id <id>)")
	}
	printStatus("Sweep", "every %s over the last %d days", cfg.Audit.Interval, cfg.Audit.Window)

	// Show today's tallies when the server is up and a default user is set.
	apiToken, tokenErr := config.EnsureAPIToken()
	if up && tokenErr == nil && cfg.User.ID != "" {
		serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
		resp, err := authedGet(client, serverURL+"/overview?user="+url.QueryEscape(cfg.User.ID), apiToken)
		if err == nil {
			printTodayTallies(resp)
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

// printTodayTallies pulls today's row out of an overview response. Rows
// arrive newest day first, so index 0 is today.
func printTodayTallies(resp *http.Response) {
	defer resp.Body.Close()

	var ov struct {
		Meds []struct {
			Day       string
			MedCount  int
			SuppCount int
		}
		Consumed []struct {
			Day      string
			Status   string
			Calories float64
		}
		Weights []struct {
			Day      string
			WeightKg *float64
		}
	}
	if json.NewDecoder(resp.Body).Decode(&ov) != nil {
		return
	}

	if len(ov.Meds) > 0 {
		printStatus("Meds today", "%d med, %d supp", ov.Meds[0].MedCount, ov.Meds[0].SuppCount)
	}
	if len(ov.Consumed) > 0 {
		printStatus("Food today", "%s, %.0f kcal", ov.Consumed[0].Status, ov.Consumed[0].Calories)
	}
	if len(ov.Weights) > 0 && ov.Weights[0].WeightKg != nil {
		printStatus("Weight", "%.1f kg", *ov.Weights[0].WeightKg)
	}
}

func authedGet(client *http.Client, url, token string) (*http.Response, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return client.Do(req)
}
