// Package videoview binds playback controllers to embedded host views.
//
// Each view owns one playback.Controller and one per-view method channel
// named native_video_view_<id>. Host commands arriving on that channel are
// decoded and executed on the shared event loop; controller events are sent
// back on the same channel. The controller and its lifecycle bridge live as
// long as the view; backends come and go underneath them.
package videoview

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	verrors "github.com/go-drift/videoview/pkg/errors"
	"github.com/go-drift/videoview/pkg/lifecycle"
	"github.com/go-drift/videoview/pkg/platform"
	"github.com/go-drift/videoview/pkg/playback"
)

// ErrDisposed is returned for commands sent to a disposed view.
var ErrDisposed = errors.New("videoview: view disposed")

// Executor runs work on the controller's thread. *loop.Loop implements it.
type Executor interface {
	Dispatch(fn func()) bool
	Do(ctx context.Context, fn func()) error
}

// ChannelName returns the method channel name for a view.
func ChannelName(viewID int64) string {
	return fmt.Sprintf("native_video_view_%d", viewID)
}

// View is one embedded video view.
type View struct {
	id       int64
	instance lifecycle.InstanceID
	channel  *platform.MethodChannel
	exec     Executor
	log      zerolog.Logger
	disposed atomic.Bool

	// loop-only
	ctrl   *playback.Controller
	bridge *lifecycle.Bridge
}

// ID returns the view ID.
func (v *View) ID() int64 {
	return v.id
}

// Instance returns the host container the view belongs to.
func (v *View) Instance() lifecycle.InstanceID {
	return v.instance
}

// Channel returns the name of the view's method channel.
func (v *View) Channel() string {
	return v.channel.Name()
}

// Controller returns the view's controller. It must only be used on the
// executor's thread.
func (v *View) Controller() *playback.Controller {
	return v.ctrl
}

// Execute runs cmd on the executor and returns its reply payload.
func (v *View) Execute(ctx context.Context, cmd Command) (any, error) {
	if v.disposed.Load() {
		return nil, ErrDisposed
	}
	var result any
	err := v.exec.Do(ctx, func() {
		if v.disposed.Load() {
			return
		}
		result = cmd.apply(v.ctrl)
	})
	return result, err
}

// Emit sends a controller event to the host. It runs on the executor and
// blocks until the bridge returns, so native must not call back into the
// view synchronously from its event handler.
func (v *View) Emit(ev playback.Event) {
	method, args := encodeEvent(ev)
	if _, err := v.channel.Invoke(method, args); err != nil {
		verrors.Report(&verrors.Error{
			Op:      "videoview.emit",
			Kind:    verrors.KindPlatform,
			Channel: v.channel.Name(),
			ViewID:  v.id,
			Err:     err,
		})
	}
}

// handleLifecycle forwards a lifecycle signal. Runs on the executor.
func (v *View) handleLifecycle(instance lifecycle.InstanceID, sig lifecycle.Signal) bool {
	if v.disposed.Load() {
		return false
	}
	return v.bridge.Handle(instance, sig)
}

func (v *View) handleCall(method string, args any) (any, error) {
	cmd, err := DecodeCommand(method, args)
	if err != nil {
		if errors.Is(err, platform.ErrInvalidArguments) {
			verrors.Report(&verrors.Error{
				Op:      "videoview.decode",
				Kind:    verrors.KindParsing,
				Channel: v.channel.Name(),
				ViewID:  v.id,
				Err:     err,
			})
		}
		return nil, err
	}
	v.log.Debug().Stringer("command", cmd.Kind).Msg("command")
	return v.Execute(context.Background(), cmd)
}

// teardown releases the controller. Runs on the executor.
func (v *View) teardown() {
	v.bridge.Detach()
	v.ctrl.Teardown()
}
