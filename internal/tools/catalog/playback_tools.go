package catalog

import (
	"context"
	"fmt"

	"github.com/recall-labs/immersive/internal/tools"
	"github.com/recall-labs/immersive/pkg/playback"
	"github.com/recall-labs/immersive/pkg/toolsystem"
)

// PlayIntervalToolBuilder builds the tool that plays a specific time window.
type PlayIntervalToolBuilder struct{}

func (b *PlayIntervalToolBuilder) Build(deps *tools.Dependencies) (toolsystem.Tool, error) {
	return toolsystem.NewToolBuilder("play_video_for_interval",
		"Play the video from a start time until an end time. Times are in seconds and may be fractional.").
		AddNumberParameter("start", "The start time in seconds", true).
		AddNumberParameter("end", "The end time in seconds, must not be before start", true).
		SetHandler(func(ctx context.Context, args map[string]any) (string, error) {
			start := args["start"].(float64)
			end := args["end"].(float64)
			if start < 0 {
				return "", fmt.Errorf("start must not be negative, got %v", start)
			}
			if end < start {
				return "", fmt.Errorf("end %v is before start %v", end, start)
			}
			if err := deps.Playback.SendToLatest(playback.UpdateInterval{Start: start, End: end}); err != nil {
				return "", err
			}
			return fmt.Sprintf("playing from start = %v until end = %v", start, end), nil
		}).
		Build()
}

// PauseToolBuilder builds the pause tool.
type PauseToolBuilder struct{}

func (b *PauseToolBuilder) Build(deps *tools.Dependencies) (toolsystem.Tool, error) {
	return toolsystem.NewToolBuilder("pause_video", "Pause the video on the display.").
		SetHandler(func(ctx context.Context, args map[string]any) (string, error) {
			if err := deps.Playback.SendToLatest(playback.Pause{}); err != nil {
				return "", err
			}
			return "video paused", nil
		}).
		Build()
}

// PlayToolBuilder builds the resume tool.
type PlayToolBuilder struct{}

func (b *PlayToolBuilder) Build(deps *tools.Dependencies) (toolsystem.Tool, error) {
	return toolsystem.NewToolBuilder("play_video", "Resume playing the video on the display.").
		SetHandler(func(ctx context.Context, args map[string]any) (string, error) {
			if err := deps.Playback.SendToLatest(playback.Play{}); err != nil {
				return "", err
			}
			return "video playing", nil
		}).
		Build()
}

// SetFullscreenToolBuilder builds the enter-fullscreen tool.
type SetFullscreenToolBuilder struct{}

func (b *SetFullscreenToolBuilder) Build(deps *tools.Dependencies) (toolsystem.Tool, error) {
	return toolsystem.NewToolBuilder("set_fullscreen_for_video", "Put the video display into fullscreen.").
		SetHandler(func(ctx context.Context, args map[string]any) (string, error) {
			if err := deps.Playback.SendToLatest(playback.SetFullscreen{}); err != nil {
				return "", err
			}
			return "video set to fullscreen", nil
		}).
		Build()
}

// UnsetFullscreenToolBuilder builds the exit-fullscreen tool.
type UnsetFullscreenToolBuilder struct{}

func (b *UnsetFullscreenToolBuilder) Build(deps *tools.Dependencies) (toolsystem.Tool, error) {
	return toolsystem.NewToolBuilder("unset_fullscreen_for_video", "Exit fullscreen on the video display.").
		SetHandler(func(ctx context.Context, args map[string]any) (string, error) {
			if err := deps.Playback.SendToLatest(playback.UnsetFullscreen{}); err != nil {
				return "", err
			}
			return "video fullscreen unset", nil
		}).
		Build()
}

// FastForwardToolBuilder builds the skip tool.
type FastForwardToolBuilder struct{}

func (b *FastForwardToolBuilder) Build(deps *tools.Dependencies) (toolsystem.Tool, error) {
	return toolsystem.NewToolBuilder("fast_forward_video",
		"Skip the video forward by a number of seconds. A negative value skips backwards.").
		AddNumberParameter("time_delta", "Seconds to skip, may be negative", true).
		SetHandler(func(ctx context.Context, args map[string]any) (string, error) {
			delta := args["time_delta"].(float64)
			if err := deps.Playback.SendToLatest(playback.FastForward{Delta: delta}); err != nil {
				return "", err
			}
			return fmt.Sprintf("fast forwarded video by %v seconds", delta), nil
		}).
		Build()
}
