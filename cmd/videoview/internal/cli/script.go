package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/videoview/pkg/lifecycle"
)

// Script is a scripted host session.
//
//	instance: main
//	hostState: resumed
//	steps:
//	  - command: player#setVideoSource
//	    args: {videoSource: intro.mp4, sourceType: asset}
//	  - await: player#onPrepared
//	  - command: start
//	  - wait: 500ms
//	  - lifecycle: paused
//	  - command: isPlaying
type Script struct {
	Instance  string `yaml:"instance"`
	HostState string `yaml:"hostState"`
	Steps     []Step `yaml:"steps"`
}

// Step is one scripted action. Exactly one of Command, Lifecycle, Wait and
// Await is set.
type Step struct {
	Command   string         `yaml:"command,omitempty"`
	Args      map[string]any `yaml:"args,omitempty"`
	Lifecycle string         `yaml:"lifecycle,omitempty"`
	Instance  string         `yaml:"instance,omitempty"`
	Wait      string         `yaml:"wait,omitempty"`
	Await     string         `yaml:"await,omitempty"`
	Timeout   string         `yaml:"timeout,omitempty"`
}

// ParseScript decodes and validates a script.
func ParseScript(data []byte) (*Script, error) {
	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if strings.TrimSpace(sc.Instance) == "" {
		sc.Instance = "script"
	}
	if sc.HostState != "" {
		if _, err := lifecycle.ParseSignal(sc.HostState); err != nil {
			return nil, fmt.Errorf("hostState: %w", err)
		}
	}
	for i, st := range sc.Steps {
		set := 0
		for _, f := range []string{st.Command, st.Lifecycle, st.Wait, st.Await} {
			if f != "" {
				set++
			}
		}
		if set != 1 {
			return nil, fmt.Errorf("step %d: exactly one of command, lifecycle, wait or await is required", i+1)
		}
		if st.Lifecycle != "" {
			if _, err := lifecycle.ParseSignal(st.Lifecycle); err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		for _, d := range []string{st.Wait, st.Timeout} {
			if d == "" {
				continue
			}
			if _, err := time.ParseDuration(d); err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}
	return &sc, nil
}

func newScriptCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "script FILE",
		Short: "Replay a YAML script of host commands and lifecycle signals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()
			data, err := afero.ReadFile(fs, args[0])
			if err != nil {
				return err
			}
			sc, err := ParseScript(data)
			if err != nil {
				return err
			}
			s, err := newSession(sessionOptions{
				resolved:    root.resolved,
				fs:          fs,
				out:         cmd.OutOrStdout(),
				metricsAddr: root.metricsAddr,
			})
			if err != nil {
				return err
			}
			return s.run(cmd.Context(), func(ctx context.Context) error {
				return runScript(ctx, s, sc)
			})
		},
	}
}

const defaultAwaitTimeout = 10 * time.Second

func runScript(ctx context.Context, s *session, sc *Script) error {
	instance := lifecycle.InstanceID(sc.Instance)
	hostState := lifecycle.SignalUnknown
	if sc.HostState != "" {
		hostState, _ = lifecycle.ParseSignal(sc.HostState)
	}
	ch, err := s.createView(instance, hostState)
	if err != nil {
		return err
	}

	for i, st := range sc.Steps {
		if err := runStep(ctx, s, ch, instance, st); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func runStep(ctx context.Context, s *session, ch string, instance lifecycle.InstanceID, st Step) error {
	switch {
	case st.Command != "":
		var args any
		if len(st.Args) > 0 {
			args = st.Args
		}
		_, err := s.call(ch, st.Command, args)
		return err

	case st.Lifecycle != "":
		sig, _ := lifecycle.ParseSignal(st.Lifecycle)
		target := instance
		if st.Instance != "" {
			target = lifecycle.InstanceID(st.Instance)
		}
		if err := s.signal(target, sig); err != nil {
			return err
		}
		// Lifecycle signals are applied asynchronously; wait for the loop.
		return s.loop.Do(ctx, func() {})

	case st.Wait != "":
		d, _ := time.ParseDuration(st.Wait)
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}

	default:
		timeout := defaultAwaitTimeout
		if st.Timeout != "" {
			timeout, _ = time.ParseDuration(st.Timeout)
		}
		actx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		_, err := s.await(actx, ch, awaitMethods(st.Await)...)
		return err
	}
}

// awaitMethods accepts wire names and the short event names.
func awaitMethods(name string) []string {
	if strings.Contains(name, "#") {
		return []string{name}
	}
	return []string{"player#" + name}
}
