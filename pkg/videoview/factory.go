package videoview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/go-drift/videoview/internal/log"
	verrors "github.com/go-drift/videoview/pkg/errors"
	"github.com/go-drift/videoview/pkg/lifecycle"
	"github.com/go-drift/videoview/pkg/platform"
	"github.com/go-drift/videoview/pkg/playback"
)

// FactoryChannel is the method channel on which the host creates and
// disposes views.
const FactoryChannel = "native_video_view/views"

// Config configures a Factory.
type Config struct {
	// Registry carries view channels. Required.
	Registry *platform.Registry
	// Executor runs controllers. Required.
	Executor Executor
	// Backend constructs media backends. Required.
	Backend playback.BackendFactory
	// Resolver maps sources to backend URIs. Optional.
	Resolver playback.Resolver
	// Volume is the initial volume for new views. Optional.
	Volume *playback.Volume
}

// CreateParams describes a view the host is embedding.
type CreateParams struct {
	// Instance is the host container the view lives in.
	Instance lifecycle.InstanceID
	// HostState is the container's lifecycle state at creation, applied once.
	HostState lifecycle.Signal
}

// Factory creates views and routes host lifecycle signals to them.
type Factory struct {
	cfg     Config
	channel *platform.MethodChannel
	nextID  atomic.Int64
	log     zerolog.Logger

	mu    sync.RWMutex
	views map[int64]*View
}

// NewFactory creates a factory and starts serving FactoryChannel.
func NewFactory(cfg Config) (*Factory, error) {
	switch {
	case cfg.Registry == nil:
		return nil, errors.New("videoview: Registry is required")
	case cfg.Executor == nil:
		return nil, errors.New("videoview: Executor is required")
	case cfg.Backend == nil:
		return nil, errors.New("videoview: Backend is required")
	}
	f := &Factory{
		cfg:     cfg,
		channel: cfg.Registry.MethodChannel(FactoryChannel),
		log:     log.WithComponent("videoview"),
		views:   make(map[int64]*View),
	}
	f.channel.SetHandler(f.handleMethodCall)
	return f, nil
}

// Create builds a view with its own controller and channel. The host's
// current lifecycle state is applied to the new controller before Create
// returns.
func (f *Factory) Create(ctx context.Context, params CreateParams) (*View, error) {
	if params.Instance == "" {
		return nil, fmt.Errorf("%w: view requires a host instance", platform.ErrInvalidArguments)
	}
	id := f.nextID.Add(1)
	v := &View{
		id:       id,
		instance: params.Instance,
		channel:  f.cfg.Registry.MethodChannel(ChannelName(id)),
		exec:     f.cfg.Executor,
		log:      f.log.With().Int64("view", id).Logger(),
	}

	ctrlLog := log.WithComponent("playback").With().Int64("view", id).Logger()
	err := f.cfg.Executor.Do(ctx, func() {
		v.ctrl = playback.NewController(playback.Config{
			Backend:    f.cfg.Backend,
			Dispatcher: f.cfg.Executor,
			Resolver:   f.cfg.Resolver,
			Sink:       v,
			Volume:     f.cfg.Volume,
			Logger:     &ctrlLog,
		})
		v.bridge = lifecycle.NewBridge(params.Instance, v.ctrl, params.HostState)
	})
	if err != nil {
		f.cfg.Registry.RemoveMethodChannel(v.channel.Name())
		return nil, err
	}

	v.channel.SetHandler(v.handleCall)
	f.mu.Lock()
	f.views[id] = v
	f.mu.Unlock()

	v.log.Debug().
		Str("instance", string(params.Instance)).
		Stringer("host_state", params.HostState).
		Msg("view created")
	return v, nil
}

// View returns a view by ID, or nil.
func (f *Factory) View(id int64) *View {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.views[id]
}

// Len returns the number of live views.
func (f *Factory) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.views)
}

// Dispose tears a view down and removes its channel. Disposing an unknown
// view is a no-op.
func (f *Factory) Dispose(ctx context.Context, id int64) error {
	f.mu.Lock()
	v, ok := f.views[id]
	delete(f.views, id)
	f.mu.Unlock()
	if !ok {
		return nil
	}

	v.disposed.Store(true)
	f.cfg.Registry.RemoveMethodChannel(v.channel.Name())
	err := f.cfg.Executor.Do(ctx, v.teardown)
	v.log.Debug().Msg("view disposed")
	return err
}

// Close disposes every view.
func (f *Factory) Close(ctx context.Context) error {
	f.mu.RLock()
	ids := make([]int64, 0, len(f.views))
	for id := range f.views {
		ids = append(ids, id)
	}
	f.mu.RUnlock()

	var errs []error
	for _, id := range ids {
		if err := f.Dispose(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	f.channel.SetHandler(nil)
	return errors.Join(errs...)
}

// HandleLifecycle schedules ev for every view. Views bound to other host
// instances ignore it. A view whose host is destroyed is disposed with it.
func (f *Factory) HandleLifecycle(ev platform.LifecycleEvent) {
	f.mu.RLock()
	views := make([]*View, 0, len(f.views))
	for _, v := range f.views {
		views = append(views, v)
	}
	f.mu.RUnlock()

	f.cfg.Executor.Dispatch(func() {
		for _, v := range views {
			if v.handleLifecycle(ev.Instance, ev.Signal) && v.bridge.Detached() {
				f.forget(v)
			}
		}
	})
}

// forget unregisters a view whose host went away. Runs on the executor, so it
// tears down in place instead of going through Do.
func (f *Factory) forget(v *View) {
	f.mu.Lock()
	if f.views[v.id] == v {
		delete(f.views, v.id)
	}
	f.mu.Unlock()

	v.disposed.Store(true)
	f.cfg.Registry.RemoveMethodChannel(v.channel.Name())
	v.teardown()
	v.log.Debug().Str("instance", string(v.bridge.Instance())).Msg("view disposed with its host")
}

// ListenLifecycle forwards events from stream to HandleLifecycle until the
// returned function is called.
func (f *Factory) ListenLifecycle(stream *platform.Stream[platform.LifecycleEvent]) (unsubscribe func()) {
	return stream.Listen(f.HandleLifecycle)
}

func (f *Factory) handleMethodCall(method string, args any) (any, error) {
	m := platform.ParseMap(args)
	switch method {
	case "create":
		params := CreateParams{
			Instance:  lifecycle.InstanceID(platform.ParseString(m["instance"])),
			HostState: lifecycle.SignalUnknown,
		}
		if raw := platform.ParseString(m["hostState"]); raw != "" {
			sig, err := lifecycle.ParseSignal(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", platform.ErrInvalidArguments, err)
			}
			params.HostState = sig
		}
		v, err := f.Create(context.Background(), params)
		if err != nil {
			return nil, err
		}
		return map[string]any{"viewId": v.ID(), "channel": v.Channel()}, nil

	case "dispose":
		id, ok := platform.ToInt64(m["viewId"])
		if !ok {
			return nil, fmt.Errorf("%w: dispose requires viewId", platform.ErrInvalidArguments)
		}
		return nil, f.Dispose(context.Background(), id)

	default:
		verrors.Report(&verrors.Error{
			Op:      "videoview.factory",
			Kind:    verrors.KindPlatform,
			Channel: FactoryChannel,
			Err:     fmt.Errorf("%w: %s", platform.ErrMethodNotFound, method),
		})
		return nil, platform.ErrMethodNotFound
	}
}
