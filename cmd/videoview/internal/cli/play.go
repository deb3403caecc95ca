package cli

import (
	"context"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/go-drift/videoview/pkg/lifecycle"
	"github.com/go-drift/videoview/pkg/playback"
	"github.com/go-drift/videoview/pkg/videoview"
)

type playOptions struct {
	kind     string
	instance string
	seek     int64
	volume   float64
	muted    bool
	timeout  time.Duration
}

func newPlayCommand(root *rootOptions) *cobra.Command {
	opts := &playOptions{}
	cmd := &cobra.Command{
		Use:   "play SOURCE",
		Short: "Load a source, play it to completion and print every host event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := playback.ParseSourceKind(opts.kind)
			if err != nil {
				return err
			}
			s, err := newSession(sessionOptions{
				resolved:    root.resolved,
				fs:          afero.NewOsFs(),
				out:         cmd.OutOrStdout(),
				metricsAddr: root.metricsAddr,
			})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if opts.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.timeout)
				defer cancel()
			}
			return s.run(ctx, func(ctx context.Context) error {
				return play(ctx, s, args[0], kind, opts, root.resolved.RequestAudioFocus)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "network", "Source kind: network, file or asset")
	cmd.Flags().StringVar(&opts.instance, "instance", "cli", "Host container instance the view belongs to")
	cmd.Flags().Int64Var(&opts.seek, "seek", 0, "Seek to this position (ms) once prepared")
	cmd.Flags().Float64Var(&opts.volume, "volume", -1, "Set the volume (0..1) once prepared")
	cmd.Flags().BoolVar(&opts.muted, "mute", false, "Toggle mute once prepared")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Give up after this long (0 waits for completion)")
	return cmd
}

func play(ctx context.Context, s *session, id string, kind playback.SourceKind, opts *playOptions, audioFocus bool) error {
	instance := lifecycle.InstanceID(opts.instance)
	ch, err := s.createView(instance, lifecycle.SignalResumed)
	if err != nil {
		return err
	}

	if _, err := s.call(ch, videoview.MethodSetVideoSource, map[string]any{
		"videoSource":       id,
		"sourceType":        kind.String(),
		"requestAudioFocus": audioFocus,
	}); err != nil {
		return err
	}
	msg, err := s.await(ctx, ch, videoview.MethodOnPrepared, videoview.MethodOnError)
	if err != nil {
		return err
	}
	if msg.Method == videoview.MethodOnError {
		return errorFromEvent(msg)
	}

	if opts.volume >= 0 {
		if _, err := s.call(ch, videoview.MethodSetVolume, map[string]any{"volume": opts.volume}); err != nil {
			return err
		}
	}
	if opts.muted {
		if _, err := s.call(ch, videoview.MethodToggleSound, nil); err != nil {
			return err
		}
	}
	if opts.seek > 0 {
		if _, err := s.call(ch, videoview.MethodSeekTo, map[string]any{"position": opts.seek}); err != nil {
			return err
		}
	}
	if _, err := s.call(ch, videoview.MethodStart, nil); err != nil {
		return err
	}

	msg, err = s.await(ctx, ch, videoview.MethodOnCompletion, videoview.MethodOnError)
	if err != nil {
		return err
	}
	if msg.Method == videoview.MethodOnError {
		return errorFromEvent(msg)
	}
	return nil
}
