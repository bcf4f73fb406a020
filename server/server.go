// Package server assembles the reminder service: the HTTP command surface,
// the sweeper, and the daily janitor.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/hearthbot/remindd/internal/observability"
	"github.com/hearthbot/remindd/internal/profile"
	"github.com/hearthbot/remindd/server/chat"
	"github.com/hearthbot/remindd/server/router/apiv1"
	"github.com/hearthbot/remindd/server/service/reminder"
	"github.com/hearthbot/remindd/server/timeparse"
	"github.com/hearthbot/remindd/server/timezone"
	"github.com/hearthbot/remindd/store"
)

// Server is the composed reminder service.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	scheduler  *reminder.Scheduler
	metrics    *observability.Metrics
}

// NewServer wires every component over the given store and transport.
func NewServer(p *profile.Profile, st *store.Store, transport chat.Transport) *Server {
	metrics := observability.NewMetrics()
	registry := timezone.NewRegistry(st)
	parser := timeparse.NewParser()
	service := reminder.NewService(p, st, registry, parser, metrics)
	dispatcher := reminder.NewDispatcher(transport, p)

	echoServer := echo.New()
	echoServer.Debug = p.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))

	apiv1.NewAPIV1Service(p, st, service, metrics).RegisterRoutes(echoServer)

	return &Server{
		Profile:    p,
		Store:      st,
		echoServer: echoServer,
		scheduler:  reminder.NewScheduler(p, st, dispatcher, registry, metrics),
		metrics:    metrics,
	}
}

// Start runs the HTTP listener and the sweeper until ctx is cancelled, then
// shuts both down, letting in-flight work finish.
func (s *Server) Start(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
		slog.Info("command API listening", "address", address, "version", s.Profile.Version)
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		return s.scheduler.Run(groupCtx)
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echoServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
