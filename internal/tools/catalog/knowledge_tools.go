package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/recall-labs/immersive/internal/domains/knowledge"
	"github.com/recall-labs/immersive/internal/tools"
	"github.com/recall-labs/immersive/pkg/toolsystem"
)

// LookupEventsToolBuilder builds the tool that enumerates knowledge-base
// labels for the conversation.
type LookupEventsToolBuilder struct{}

func (b *LookupEventsToolBuilder) Build(deps *tools.Dependencies) (toolsystem.Tool, error) {
	return toolsystem.NewToolBuilder("lookup_events_in_kb",
		"List the media events available in the knowledge base.").
		SetHandler(func(ctx context.Context, args map[string]any) (string, error) {
			entries, err := deps.Knowledge.List(ctx)
			if err != nil {
				return "", fmt.Errorf("list knowledge base: %w", err)
			}
			if len(entries) == 0 {
				return "The knowledge base has no events yet.", nil
			}

			labels := make([]string, 0, len(entries))
			for _, entry := range entries {
				labels = append(labels, entry.Label)
				if entry.TitleImagePath != "" && deps.Surface != nil {
					deps.Surface.Image(entry.TitleImagePath)
				}
			}
			return "Available events: " + strings.Join(labels, ", "), nil
		}).
		Build()
}

// SelectEventToolBuilder builds the tool that picks the session's current
// event.
type SelectEventToolBuilder struct{}

func (b *SelectEventToolBuilder) Build(deps *tools.Dependencies) (toolsystem.Tool, error) {
	return toolsystem.NewToolBuilder("select_event",
		"Select a media event from the knowledge base as the current topic of conversation.").
		AddStringParameter("media_label", "The label of the event to select", true).
		SetHandler(func(ctx context.Context, args map[string]any) (string, error) {
			label := args["media_label"].(string)

			entry, err := deps.Knowledge.Get(ctx, label)
			if err != nil {
				return "", fmt.Errorf("select %q: %w", label, err)
			}

			deps.State.SetCurrentEvent(entry.Label)
			if entry.TitleImagePath != "" && deps.Surface != nil {
				deps.Surface.Image(entry.TitleImagePath)
			}
			return fmt.Sprintf("Selected event %q. Ask me anything about it, or ask to play a part of it.", entry.Label), nil
		}).
		Build()
}

// QueryEventToolBuilder builds the tool that answers questions from indexed
// media content.
type QueryEventToolBuilder struct{}

func (b *QueryEventToolBuilder) Build(deps *tools.Dependencies) (toolsystem.Tool, error) {
	return toolsystem.NewToolBuilder("query_event",
		"Answer a user's question using the indexed content of a media event. "+
			"Defaults to the currently selected event when media_label is omitted.").
		AddStringParameter("query", "The user's question", true).
		AddStringParameter("media_label", "The event to query, optional", false).
		SetHandler(func(ctx context.Context, args map[string]any) (string, error) {
			query := args["query"].(string)

			label, _ := args["media_label"].(string)
			if label == "" {
				label = deps.State.CurrentEvent()
			}
			if label == "" {
				return "No event selected. Use select_event or pass media_label.", nil
			}

			snippet, err := deps.Knowledge.Query(ctx, label, query)
			if err != nil {
				if err == knowledge.ErrUnknownLabel {
					return fmt.Sprintf("There is no event labelled %q in the knowledge base.", label), nil
				}
				return "", fmt.Errorf("query %q: %w", label, err)
			}

			return fmt.Sprintf(
				"The answer is in this snippet of %q: %s. Use tool calling to play the video from %.2f to %.2f.",
				label, snippet.Text, snippet.Start, snippet.End,
			), nil
		}).
		Build()
}

// RegisterAll builds the full catalogue against one session's dependencies
// and registers it atomically: either every tool registers or the session
// setup fails before any call can arrive.
func RegisterAll(registry toolsystem.Registry, deps *tools.Dependencies) error {
	builders := map[string]tools.Builder{
		"play_interval":    &PlayIntervalToolBuilder{},
		"pause":            &PauseToolBuilder{},
		"play":             &PlayToolBuilder{},
		"set_fullscreen":   &SetFullscreenToolBuilder{},
		"unset_fullscreen": &UnsetFullscreenToolBuilder{},
		"fast_forward":     &FastForwardToolBuilder{},
		"lookup_events":    &LookupEventsToolBuilder{},
		"select_event":     &SelectEventToolBuilder{},
		"query_event":      &QueryEventToolBuilder{},
	}

	for name, builder := range builders {
		tool, err := builder.Build(deps)
		if err != nil {
			return fmt.Errorf("failed to build %s tool: %w", name, err)
		}
		if err := registry.Register(tool); err != nil {
			return fmt.Errorf("failed to register %s tool: %w", name, err)
		}
	}
	return nil
}
