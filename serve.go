package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nstehr/warren/colony"
	"github.com/nstehr/warren/config"
	"github.com/nstehr/warren/goals"
	"github.com/nstehr/warren/ipc"
	"github.com/nstehr/warren/metrics"
	"github.com/nstehr/warren/observer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func (c *cli) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	fmt.Println(banner)
	slog.Info("starting warren", "socket", c.cfg.Socket, "goals", len(c.cfg.Goals))

	engine, err := goals.FromTemplates(c.cfg.Goals)
	if err != nil {
		slog.Error("invalid goal templates", "error", err)
		return err
	}
	deps := colony.Deps{
		Scheduler:  c.cfg.Scheduler,
		Spawn:      c.cfg.Spawn,
		Goals:      engine,
		Metrics:    metrics.MustNewMetrics(prometheus.DefaultRegisterer),
		Hub:        observer.NewHub(),
		JournalDir: c.cfg.JournalDir,
	}

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(c.cfg.Socket); err != nil {
		slog.Error("failed to clean up socket", "path", c.cfg.Socket, "error", err)
		return err
	}
	listener, err := net.Listen("unix", c.cfg.Socket)
	if err != nil {
		slog.Error("failed to listen on socket", "path", c.cfg.Socket, "error", err)
		return err
	}
	defer os.Remove(c.cfg.Socket)
	slog.Info("listening on domain socket", "path", c.cfg.Socket)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	reloader := colony.NewReloader(engine)
	g.Go(func() error {
		reloader.Start(ctx)
		return nil
	})
	err = c.loader.Watch(func(cfg config.Config) { reloader.Update(cfg.Goals) })
	if err != nil && !errors.Is(err, config.ErrNoFile) {
		return err
	}

	sessions := &sessionSet{conns: make(map[net.Conn]struct{})}
	g.Go(func() error { return acceptLoop(ctx, listener, sessions, deps) })

	servers := []*http.Server{
		httpServer(c.cfg.MetricsAddr, "/metrics", promhttp.Handler()),
		httpServer(c.cfg.ObserverAddr, "/", deps.Hub.Handler()),
	}
	for _, srv := range servers {
		if srv == nil {
			continue
		}
		g.Go(func() error {
			slog.Info("http listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		_ = listener.Close()
		sessions.closeAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			if srv != nil {
				_ = srv.Shutdown(shutdownCtx)
			}
		}
		return nil
	})

	return g.Wait()
}

func httpServer(addr, pattern string, h http.Handler) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle(pattern, h)
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

func acceptLoop(ctx context.Context, listener net.Listener, sessions *sessionSet, deps colony.Deps) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Error("failed to accept connection", "error", err)
			continue
		}
		slog.Info("new connection accepted")
		sessions.add(conn)
		go func() {
			defer sessions.remove(conn)
			handleConn(conn, deps)
		}()
	}
}

func handleConn(conn net.Conn, deps colony.Deps) {
	c := ipc.NewConnection(conn, nil)
	col := colony.New(c, deps)
	c.RegisterHandler(ipc.TypeHello, func(env ipc.Envelope) (*ipc.Envelope, error) {
		resp, err := col.HandleHello(env)
		c.Player = col.Player
		return resp, err
	})
	c.RegisterHandler(ipc.TypeWorldState, col.HandleWorldState)
	c.ReadLoop()

	if err := col.Close(); err != nil {
		slog.Error("closing session", "player", col.Player, "error", err)
	}
	slog.Info("session ended", "player", col.Player, "session", col.Session)
}

// sessionSet tracks open connections so shutdown can close them.
type sessionSet struct {
	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

func (s *sessionSet) add(c net.Conn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *sessionSet) remove(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *sessionSet) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
	}
}
