package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	gracefulEnvKey     = "IS_GRACEFUL"
	gracefulEnvValue   = gracefulEnvKey + "=1"
	gracefulListenerFD = 3
)

// ServerOptions carries the http.Server timeouts.
type ServerOptions struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server wraps http.Server with signal driven graceful shutdown.
// SIGTERM and SIGINT drain in-flight requests; SIGUSR2 hands the listening
// socket to a freshly exec'd copy of the binary and then drains.
type Server struct {
	*http.Server

	log             *zap.Logger
	shutdownTimeout time.Duration
	listener        net.Listener
	isGraceful      bool
	signalChan      chan os.Signal
	shutdownChan    chan struct{}
	shutdownOnce    sync.Once
}

func NewServer(addr string, handler http.Handler, opts ServerOptions, log *zap.Logger) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 30 * time.Second
	}
	return &Server{
		Server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			IdleTimeout:  opts.IdleTimeout,
		},
		log:             log,
		shutdownTimeout: opts.ShutdownTimeout,
		isGraceful:      os.Getenv(gracefulEnvKey) != "",
		signalChan:      make(chan os.Signal, 1),
		shutdownChan:    make(chan struct{}),
	}
}

// ListenAndServe serves until a shutdown signal has been handled.
// It returns nil after a clean shutdown.
func (srv *Server) ListenAndServe() error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := srv.getNetListener(addr)
	if err != nil {
		return err
	}
	srv.listener = ln
	return srv.serve()
}

// GracefulStop drains the server with the configured timeout. Safe to call more than once.
func (srv *Server) GracefulStop() {
	srv.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), srv.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			srv.log.Error("HTTP server shutdown error", zap.Error(err))
		} else {
			srv.log.Info("HTTP server shutdown success")
		}
		close(srv.shutdownChan)
	})
}

func (srv *Server) serve() error {
	go srv.handleSignals()
	srv.log.Info("HTTP server listening", zap.String("addr", srv.listener.Addr().String()), zap.Bool("inherited", srv.isGraceful))
	err := srv.Server.Serve(srv.listener)
	if errors.Is(err, http.ErrServerClosed) {
		// Wait until Shutdown finished
		<-srv.shutdownChan
		return nil
	}
	return err
}

func (srv *Server) getNetListener(addr string) (net.Listener, error) {
	if srv.isGraceful {
		file := os.NewFile(gracefulListenerFD, "")
		ln, err := net.FileListener(file)
		if err != nil {
			return nil, fmt.Errorf("net.FileListener error: %w", err)
		}
		return ln, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.Listen error: %w", err)
	}
	return ln, nil
}

func (srv *Server) handleSignals() {
	signal.Notify(srv.signalChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGUSR2)
	defer signal.Stop(srv.signalChan)

	for {
		select {
		case <-srv.shutdownChan:
			return
		case sig := <-srv.signalChan:
			switch sig {
			case syscall.SIGTERM, syscall.SIGINT:
				srv.log.Info("graceful shutting down HTTP server", zap.String("signal", sig.String()))
				srv.GracefulStop()
				return
			case syscall.SIGUSR2:
				srv.log.Info("received SIGUSR2, graceful restarting HTTP server")
				pid, err := srv.startNewProcess()
				if err != nil {
					srv.log.Error("start new process failed, continue serving", zap.Error(err))
					continue
				}
				srv.log.Info("new process started, closing old HTTP server", zap.Int("pid", pid))
				srv.GracefulStop()
				return
			}
		}
	}
}

// startNewProcess execs the current binary with the listener as fd 3.
func (srv *Server) startNewProcess() (int, error) {
	tcpLn, ok := srv.listener.(*net.TCPListener)
	if !ok {
		return 0, fmt.Errorf("listener is not *net.TCPListener")
	}
	file, err := tcpLn.File()
	if err != nil {
		return 0, fmt.Errorf("get listener file: %w", err)
	}
	defer file.Close()

	envs := []string{}
	for _, e := range os.Environ() {
		if e != gracefulEnvValue {
			envs = append(envs, e)
		}
	}
	envs = append(envs, gracefulEnvValue)

	attr := &syscall.ProcAttr{
		Env:   envs,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), file.Fd()},
	}
	pid, err := syscall.ForkExec(os.Args[0], os.Args, attr)
	if err != nil {
		return 0, fmt.Errorf("forkexec: %w", err)
	}
	return pid, nil
}
