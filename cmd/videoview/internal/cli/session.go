package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/go-drift/videoview/internal/config"
	"github.com/go-drift/videoview/internal/log"
	"github.com/go-drift/videoview/pkg/backend/sim"
	"github.com/go-drift/videoview/pkg/lifecycle"
	"github.com/go-drift/videoview/pkg/loop"
	"github.com/go-drift/videoview/pkg/platform"
	"github.com/go-drift/videoview/pkg/playback"
	"github.com/go-drift/videoview/pkg/source"
	"github.com/go-drift/videoview/pkg/videoview"
)

// session wires one event loop, a console host and a view factory backed by
// the simulated media backend.
type session struct {
	loop        *loop.Loop
	registry    *platform.Registry
	host        *consoleBridge
	factory     *videoview.Factory
	unsubscribe func()
	metricsAddr string
	log         zerolog.Logger
}

type sessionOptions struct {
	resolved    *config.Resolved
	fs          afero.Fs
	out         io.Writer
	metricsAddr string
}

func newSession(opts sessionOptions) (*session, error) {
	res := opts.resolved
	s := &session{
		loop:        loop.New(),
		host:        newConsoleBridge(opts.out),
		metricsAddr: opts.metricsAddr,
		log:         log.WithComponent("cli"),
	}
	s.registry = platform.NewRegistry(s.host)

	volume := res.Volume
	factory, err := videoview.NewFactory(videoview.Config{
		Registry: s.registry,
		Executor: s.loop,
		Backend: sim.Factory(sim.Config{
			ReadyLatency: res.ReadyLatency,
			Duration:     res.Duration,
			FailURIs:     res.FailURIs,
		}),
		Resolver: source.NewResolver(opts.fs, res.AssetRoot),
		Volume:   &volume,
	})
	if err != nil {
		return nil, err
	}
	s.factory = factory
	s.unsubscribe = factory.ListenLifecycle(platform.NewLifecycleStream(s.registry))
	return s, nil
}

// run drains the loop while drive issues host calls. The loop stops once
// drive returns.
func (s *session) run(ctx context.Context, drive func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.loop.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if s.metricsAddr != "" {
		srv := &http.Server{
			Addr:              s.metricsAddr,
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return gctx },
		}
		g.Go(func() error {
			s.log.Info().Str("addr", s.metricsAddr).Msg("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()
		defer s.shutdown()
		return drive(gctx)
	})

	return g.Wait()
}

func (s *session) shutdown() {
	s.unsubscribe()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.factory.Close(ctx); err != nil {
		s.log.Warn().Err(err).Msg("closing views")
	}
}

// call sends a method call to Go as the host would and prints the reply.
func (s *session) call(channel, method string, args any) (json.RawMessage, error) {
	data, err := platform.DefaultCodec.Encode(args)
	if err != nil {
		return nil, err
	}
	out, err := s.registry.HandleMethodCall(channel, method, data)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", channel, method, err)
	}
	if len(out) > 0 && string(out) != "null" {
		s.host.print(hostMessage{Channel: channel, Method: method, Result: out})
	}
	return out, nil
}

// createView asks the factory for a new view and returns its channel.
func (s *session) createView(instance lifecycle.InstanceID, hostState lifecycle.Signal) (string, error) {
	args := map[string]any{"instance": string(instance)}
	if hostState != lifecycle.SignalUnknown {
		args["hostState"] = hostState.String()
	}
	out, err := s.call(videoview.FactoryChannel, "create", args)
	if err != nil {
		return "", err
	}
	var reply struct {
		Channel string `json:"channel"`
	}
	if err := json.Unmarshal(out, &reply); err != nil {
		return "", err
	}
	return reply.Channel, nil
}

// signal publishes a host lifecycle transition.
func (s *session) signal(instance lifecycle.InstanceID, sig lifecycle.Signal) error {
	data, err := platform.DefaultCodec.Encode(map[string]any{
		"instance": string(instance),
		"signal":   sig.String(),
	})
	if err != nil {
		return err
	}
	return s.registry.HandleEvent(platform.LifecycleChannel, data)
}

// await blocks until Go sends one of methods on channel.
func (s *session) await(ctx context.Context, channel string, methods ...string) (hostMessage, error) {
	for {
		select {
		case <-ctx.Done():
			return hostMessage{}, fmt.Errorf("waiting for %v: %w", methods, ctx.Err())
		case msg := <-s.host.events:
			if msg.Channel != channel {
				continue
			}
			for _, m := range methods {
				if msg.Method == m {
					return msg, nil
				}
			}
		}
	}
}

// errorFromEvent converts an onError message into an error.
func errorFromEvent(msg hostMessage) error {
	var ev struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(msg.Args, &ev)
	if ev.Code == "" {
		ev.Code = playback.ErrCodePlaybackFailed
	}
	return fmt.Errorf("playback error %s: %s", ev.Code, ev.Message)
}
