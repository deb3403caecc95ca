package videoview

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/go-drift/videoview/pkg/platform"
	"github.com/go-drift/videoview/pkg/playback"
)

// CommandKind identifies a host command.
type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandSetSource
	CommandStart
	CommandPause
	CommandStop
	CommandSeekTo
	CommandToggleMute
	CommandSetVolume
	CommandCurrentPosition
	CommandIsPlaying
)

// Wire method names understood on a view channel. The logical names
// (setSource, toggleMute, ...) are accepted as aliases.
const (
	MethodSetVideoSource  = "player#setVideoSource"
	MethodStart           = "player#start"
	MethodPause           = "player#pause"
	MethodStop            = "player#stop"
	MethodSeekTo          = "player#seekTo"
	MethodToggleSound     = "player#toggleSound"
	MethodSetVolume       = "player#setVolume"
	MethodCurrentPosition = "player#currentPosition"
	MethodIsPlaying       = "player#isPlaying"

	MethodOnPrepared   = "player#onPrepared"
	MethodOnCompletion = "player#onCompletion"
	MethodOnError      = "player#onError"
)

var commandMethods = map[string]CommandKind{
	MethodSetVideoSource:  CommandSetSource,
	MethodStart:           CommandStart,
	MethodPause:           CommandPause,
	MethodStop:            CommandStop,
	MethodSeekTo:          CommandSeekTo,
	MethodToggleSound:     CommandToggleMute,
	MethodSetVolume:       CommandSetVolume,
	MethodCurrentPosition: CommandCurrentPosition,
	MethodIsPlaying:       CommandIsPlaying,

	"setSource":       CommandSetSource,
	"start":           CommandStart,
	"pause":           CommandPause,
	"stop":            CommandStop,
	"seekTo":          CommandSeekTo,
	"toggleMute":      CommandToggleMute,
	"setVolume":       CommandSetVolume,
	"currentPosition": CommandCurrentPosition,
	"isPlaying":       CommandIsPlaying,
}

var commandNames = [...]string{
	CommandUnknown:         "unknown",
	CommandSetSource:       "setSource",
	CommandStart:           "start",
	CommandPause:           "pause",
	CommandStop:            "stop",
	CommandSeekTo:          "seekTo",
	CommandToggleMute:      "toggleMute",
	CommandSetVolume:       "setVolume",
	CommandCurrentPosition: "currentPosition",
	CommandIsPlaying:       "isPlaying",
}

// String returns the logical command name.
func (k CommandKind) String() string {
	if k < 0 || int(k) >= len(commandNames) {
		return "unknown"
	}
	return commandNames[k]
}

// Command is a decoded host command.
type Command struct {
	Kind           CommandKind
	Source         playback.Source // CommandSetSource
	PositionMillis int64           // CommandSeekTo
	Volume         float64         // CommandSetVolume
}

// DecodeCommand parses a method call received on a view channel. Unknown
// methods yield platform.ErrMethodNotFound; malformed arguments yield an
// error wrapping platform.ErrInvalidArguments.
func DecodeCommand(method string, args any) (Command, error) {
	kind, ok := commandMethods[method]
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", platform.ErrMethodNotFound, method)
	}
	cmd := Command{Kind: kind}
	m := platform.ParseMap(args)

	switch kind {
	case CommandSetSource:
		src, err := decodeSource(args)
		if err != nil {
			return Command{}, err
		}
		cmd.Source = src
	case CommandSeekTo:
		pos, ok := platform.ToInt64(m["position"])
		if !ok {
			return Command{}, fmt.Errorf("%w: seekTo requires a numeric position", platform.ErrInvalidArguments)
		}
		cmd.PositionMillis = pos
	case CommandSetVolume:
		vol, ok := platform.ToFloat64(m["volume"])
		if !ok {
			return Command{}, fmt.Errorf("%w: setVolume requires a numeric volume", platform.ErrInvalidArguments)
		}
		cmd.Volume = vol
	}
	return cmd, nil
}

// sourceArgs is the setSource payload. id and kind are the logical aliases
// of videoSource and sourceType.
type sourceArgs struct {
	VideoSource       string `json:"videoSource"`
	ID                string `json:"id"`
	SourceType        string `json:"sourceType"`
	Kind              string `json:"kind"`
	RequestAudioFocus bool   `json:"requestAudioFocus"`
}

func decodeSource(args any) (playback.Source, error) {
	var in sourceArgs
	if err := platform.DecodeArgs(args, &in); err != nil {
		return playback.Source{}, fmt.Errorf("%w: setSource: %v", platform.ErrInvalidArguments, err)
	}
	id := lo.CoalesceOrEmpty(in.VideoSource, in.ID)
	if id == "" {
		return playback.Source{}, fmt.Errorf("%w: setSource requires videoSource", platform.ErrInvalidArguments)
	}
	kind := playback.SourceNetwork
	if raw := lo.CoalesceOrEmpty(in.SourceType, in.Kind); raw != "" {
		k, err := playback.ParseSourceKind(raw)
		if err != nil {
			return playback.Source{}, fmt.Errorf("%w: %v", platform.ErrInvalidArguments, err)
		}
		kind = k
	}
	return playback.Source{
		ID:                id,
		Kind:              kind,
		RequestAudioFocus: in.RequestAudioFocus,
	}, nil
}

// apply runs cmd against ctrl and returns the reply payload, if any.
func (cmd Command) apply(ctrl *playback.Controller) any {
	switch cmd.Kind {
	case CommandSetSource:
		ctrl.SetSource(cmd.Source)
	case CommandStart:
		ctrl.Start()
	case CommandPause:
		ctrl.Pause()
	case CommandStop:
		ctrl.Stop()
	case CommandSeekTo:
		ctrl.SeekTo(cmd.PositionMillis)
	case CommandToggleMute:
		ctrl.ToggleMute()
	case CommandSetVolume:
		ctrl.SetVolume(cmd.Volume)
	case CommandCurrentPosition:
		return map[string]any{"currentPosition": ctrl.Position()}
	case CommandIsPlaying:
		return map[string]any{"isPlaying": ctrl.IsPlaying()}
	}
	return nil
}

// encodeEvent returns the outbound method and payload for ev.
func encodeEvent(ev playback.Event) (string, any) {
	switch ev.Kind {
	case playback.EventPrepared:
		return MethodOnPrepared, map[string]any{
			"width":    ev.Width,
			"height":   ev.Height,
			"duration": ev.DurationMillis,
		}
	case playback.EventCompleted:
		return MethodOnCompletion, nil
	default:
		return MethodOnError, map[string]any{
			"code":    ev.Code,
			"message": ev.Message,
		}
	}
}
