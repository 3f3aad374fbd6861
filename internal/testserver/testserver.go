// Package testserver runs an http.Handler on a real port for live tests.
//
// The address is "host:ports", where ports is a comma separated list of ports or
// inclusive ranges, e.g. "localhost:8000-8010,8080". The first free port wins.
package testserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	srvErrors "github.com/kubev2v/shareddb/pkg/errors"
)

const (
	AddressEnv     = "SHAREDDB_LIVE_TEST_SERVER_ADDRESS"
	DefaultAddress = "localhost:8081"

	readyTimeout = 5 * time.Second
)

// AddressFromEnv returns the address set in AddressEnv, or DefaultAddress.
func AddressFromEnv() string {
	if addr := os.Getenv(AddressEnv); addr != "" {
		return addr
	}
	return DefaultAddress
}

// ParseAddress splits address into its host and the candidate ports, in order.
func ParseAddress(address string) (string, []int, error) {
	invalid := srvErrors.NewImproperlyConfiguredError("invalid address (%q) for live server", address)

	host, portRanges, ok := strings.Cut(address, ":")
	if !ok || strings.Contains(portRanges, ":") {
		return "", nil, invalid
	}

	var ports []int
	for _, portRange := range strings.Split(portRanges, ",") {
		extremes := strings.Split(portRange, "-")
		if len(extremes) > 2 {
			return "", nil, invalid
		}
		bounds := make([]int, 0, len(extremes))
		for _, e := range extremes {
			p, err := strconv.Atoi(strings.TrimSpace(e))
			if err != nil || p < 0 || p > 65535 {
				return "", nil, invalid
			}
			bounds = append(bounds, p)
		}
		if len(bounds) == 1 {
			ports = append(ports, bounds[0])
			continue
		}
		// An inverted range is empty.
		for p := bounds[0]; p <= bounds[1]; p++ {
			ports = append(ports, p)
		}
	}
	return host, ports, nil
}

type Server struct {
	host     string
	port     int
	srv      *http.Server
	serveErr chan error
}

// Start binds the first free candidate port of address, serves handler on it in the
// background and returns once the port answers.
func Start(ctx context.Context, handler http.Handler, address string) (*Server, error) {
	host, ports, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	var (
		l       net.Listener
		bindErr error
	)
	for _, port := range ports {
		l, bindErr = net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if bindErr == nil {
			break
		}
	}
	if l == nil {
		if bindErr == nil {
			bindErr = errors.New("no candidate port")
		}
		return nil, fmt.Errorf("failed to bind live server on %s: %w", address, bindErr)
	}

	s := &Server{
		host:     host,
		port:     l.Addr().(*net.TCPAddr).Port,
		srv:      &http.Server{Handler: handler, ReadHeaderTimeout: readyTimeout},
		serveErr: make(chan error, 1),
	}
	go func() {
		s.serveErr <- s.srv.Serve(l)
	}()

	if err := s.waitReady(ctx); err != nil {
		_ = s.srv.Close()
		return nil, err
	}
	zap.S().Named("testserver").Debugw("live server started", "url", s.URL())
	return s, nil
}

func (s *Server) Port() int { return s.port }

func (s *Server) URL() string {
	return "http://" + net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// Stop shuts the server down and waits for Serve to return.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	if err := <-s.serveErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) waitReady(ctx context.Context) error {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		select {
		case err := <-s.serveErr:
			return struct{}{}, backoff.Permanent(fmt.Errorf("live server exited: %w", err))
		default:
		}
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, conn.Close()
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(readyTimeout),
	)
	return err
}
