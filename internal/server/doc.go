// Package server provides the HTTP server exposing the shared database demo API.
//
// # Architecture Overview
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                         HTTP Server                           │
//	├───────────────────────────────────────────────────────────────┤
//	│                       Middleware Stack                        │
//	│  ┌─────────────────────────────────────────────────────────┐  │
//	│  │  ginzap.Ginzap (request logging, "http" logger)         │  │
//	│  │  ginzap.RecoveryWithZap (panic recovery, stack trace)   │  │
//	│  └─────────────────────────────────────────────────────────┘  │
//	├───────────────────────────────────────────────────────────────┤
//	│  /metrics        prometheus gatherer (WithGatherer)           │
//	│  /api/v1/*       handlers registered via callback             │
//	│  anything else   404 JSON error                               │
//	└───────────────────────────────────────────────────────────────┘
//
// # Server Modes
//
// Development Mode (ServerMode = "dev"): gin runs in debug mode.
//
// Production Mode (ServerMode = "prod"): gin runs in release mode.
//
// # Server Lifecycle
//
//	srv, err := server.NewServer(cfg, func(router *gin.RouterGroup) {
//	    handlers.RegisterHandlers(router, h)
//	}, server.WithGatherer(reg))
//
//	go func() {
//	    if err := srv.Start(ctx); !errors.Is(err, http.ErrServerClosed) {
//	        zap.S().Errorw("server error", "error", err)
//	    }
//	}()
//
//	<-shutdownCh
//	srv.Stop(ctx)
//
// Stop performs a graceful shutdown, waiting for in-flight requests to complete.
// Serve is the same as Start on a listener bound by the caller; the live test server
// uses it to pick a free port.
package server
