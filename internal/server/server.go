package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"k8s.io/klog/v2"

	"github.com/couchbrawl/couchbrawl/internal/auth"
	"github.com/couchbrawl/couchbrawl/internal/config"
	"github.com/couchbrawl/couchbrawl/internal/game"
	"github.com/couchbrawl/couchbrawl/internal/points"
	"github.com/couchbrawl/couchbrawl/internal/storage"
)

// Run starts the server and blocks until the context is canceled. When
// cfg.Addr is empty it listens on an auto-assigned localhost port. The
// ServerState, with its final Address, is sent on started once the listener
// is up; started may be nil.
func Run(ctx context.Context, cfg config.Config, started chan<- *ServerState) error {
	var recorder game.RoomRecorder
	if cfg.DBPath != "" {
		store, err := storage.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		recorder = store
	}

	serverState := NewServerState(recorder)

	mux := http.NewServeMux()

	// Room/session core
	mux.HandleFunc("/ws", serverState.HandleWS)

	// Twitch OAuth routes
	authHandler := auth.NewHandler(auth.Config{
		ClientID:     cfg.TwitchClientID,
		ClientSecret: cfg.TwitchClientSecret,
		RedirectURI:  cfg.TwitchRedirectURI,
		StateSecret:  cfg.OAuthStateSecret,
	})
	authHandler.Register(mux)

	// Channel-points proxy
	pointsHandler := points.NewHandler(points.NewClient(cfg.TwitchClientID, ""), cfg.TwitchBroadcasterID)
	mux.Handle("/twitch/channel-points", pointsHandler)

	// The eventual client build is served as static files
	mux.Handle("/web/", http.StripPrefix("/web/", http.FileServer(http.Dir(cfg.WebDir))))

	addr := cfg.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	serverState.Address = ln.Addr().String()
	if started != nil {
		started <- serverState
	}

	srv := &http.Server{Handler: mux}
	go func() {
		klog.Infof("Server started on %s", serverState.Address)
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			klog.Errorf("Server error: %v", err)
		}
	}()

	<-ctx.Done()

	// Graceful shutdown with 5 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	klog.Info("Shutting down server...")
	return srv.Shutdown(shutdownCtx)
}
