package main

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vtcore/termhost/internal/config"
	"github.com/vtcore/termhost/internal/expose"
	"github.com/vtcore/termhost/pkg/api"
	"github.com/vtcore/termhost/pkg/termsocket"
)

func newServeCommand() *cobra.Command {
	var listenAddr string
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the termhost server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd, "serve")
			defer logger.Sync()

			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = loaded
			}
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}

			sessions := newManager(cmd, logger)
			defer sessions.Close()
			sockets := termsocket.NewManager(sessions, logger)
			defer sockets.Shutdown()

			router := api.NewRouter(sessions, sockets, sessionConfigFromDefaults(cfg, "", nil), logger)

			if cfg.Ngrok.Enabled {
				ln, err := expose.Ngrok(context.Background(), expose.NgrokConfig{AuthToken: cfg.Ngrok.Authtoken}, logger)
				if err != nil {
					return fmt.Errorf("expose via ngrok: %w", err)
				}
				return http.Serve(ln, router)
			}

			if cfg.TLS.Enabled {
				ln, err := expose.TLS(expose.TLSConfig{Domains: cfg.TLS.Domains, Email: cfg.TLS.Email, Addr: cfg.ListenAddr})
				if err != nil {
					return fmt.Errorf("expose via TLS: %w", err)
				}
				logger.Info("termhost listening over TLS", zap.String("addr", cfg.ListenAddr))
				return http.Serve(ln, router)
			}

			logger.Info("termhost listening", zap.String("addr", cfg.ListenAddr))
			ln, err := net.Listen("tcp", cfg.ListenAddr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
			}
			return http.Serve(ln, router)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "address to listen on (default: from config or 127.0.0.1:4023)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	return cmd
}
