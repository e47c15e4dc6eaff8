package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vetwatch/vetwatch/internal/agent"
	"github.com/vetwatch/vetwatch/internal/api"
	"github.com/vetwatch/vetwatch/internal/chat"
	"github.com/vetwatch/vetwatch/internal/config"
	"github.com/vetwatch/vetwatch/internal/conversation"
	"github.com/vetwatch/vetwatch/internal/gateway"
	"github.com/vetwatch/vetwatch/internal/storage"
)

var serveMCP bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the vetwatch server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also serve MCP tools over stdio")
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "vetwatch version %s\n", version)

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing storage", "error", err)
		}
	}()

	client := gateway.NewClient(gateway.Config{
		BaseURL:     cfg.Gateway.BaseURL,
		APIKey:      cfg.Gateway.APIKey,
		Model:       cfg.Gateway.Model,
		Temperature: &cfg.Gateway.Temperature,
		MaxTokens:   cfg.Gateway.MaxTokens,
	})
	if client.Simulated() {
		slog.Info("no gateway configured, expert chat runs in offline simulation mode")
	} else {
		slog.Info("completion gateway configured", "base_url", cfg.Gateway.BaseURL, "model", cfg.Gateway.Model)
	}

	registry := agent.NewRegistry()
	conv := conversation.NewManager(store)
	svc := chat.NewService(registry, client, conv)

	handler := api.NewHandler(api.Deps{
		Registry: registry,
		Chat:     svc,
		Store:    store,
		Token:    cfg.Server.AuthToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("vetwatch listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if serveMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{Registry: registry, Chat: svc, Store: store})
		stdioSrv := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			slog.Info("MCP server started (stdio transport)")
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("MCP stdio server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
