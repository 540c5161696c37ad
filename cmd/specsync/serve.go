package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/stellarlink/specsync/internal/web"
)

var servePort int

// listenServe is replaceable in tests.
var listenServe = http.ListenAndServe

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a read-only status page over the mapping file",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default SPECSYNC_PORT or 8090)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	tk, err := newToolkit()
	if err != nil {
		return err
	}

	port := servePort
	if port == 0 {
		port = tk.cfg.Port
	}
	if port <= 0 || port > 65535 {
		return usageErrorf("--port must be between 1 and 65535, got %d", port)
	}

	handler, err := web.NewHandler(tk.store)
	if err != nil {
		return fmt.Errorf("initialize status handler: %w", err)
	}

	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", port)
	log.Printf("[Serve] Status server listening on %s", addr)
	log.Printf("[Serve] Overview: http://localhost%s/", addr)
	log.Printf("[Serve] API: http://localhost%s/api/specs", addr)

	if err := listenServe(addr, r); err != nil {
		return fmt.Errorf("status server failed: %w", err)
	}
	return nil
}
