package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jinjor/desktop-synth/src/audio"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type paramInfo struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

func describeParams(params *audio.Params) []paramInfo {
	all := audio.AllParams()
	infos := make([]paramInfo, len(all))
	for n, i := range all {
		infos[n] = paramInfo{
			ID:    i.ID(),
			Name:  i.Name(),
			Value: params.Value(i),
			Text:  params.Text(i),
		}
	}
	return infos
}

func newMCPServer(a *audio.Audio, presets *audio.PresetManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Desktop Synth MCP",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	getParamsTool := mcp.NewTool("synth_get-params",
		mcp.WithDescription("Returns every synth parameter with its id, display name, value and display text."),
	)
	s.AddTool(getParamsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Println("[mcp]Handling get params request.")
		asJson, err := json.MarshalIndent(describeParams(a.Params), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		return mcp.NewToolResultText(string(asJson)), nil
	})

	setParamTool := mcp.NewTool("synth_set-param",
		mcp.WithDescription("Sets a synth parameter. Values are clamped to the parameter's range; choice parameters also accept their labels."),
		mcp.WithString("id", mcp.Required(), mcp.Description("The parameter id, e.g. filterFreq or polyMode.")),
		mcp.WithString("value", mcp.Required(), mcp.Description("The new value, e.g. 42.5 or Mono.")),
	)
	s.AddTool(setParamTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Println("[mcp]Handling set param request.")
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		value, err := request.RequireString("value")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := a.Exec([]string{"set", id, value}); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		i, _ := audio.LookupParam(id)
		return mcp.NewToolResultText(fmt.Sprintf("%s = %s", id, a.Params.Text(i))), nil
	})

	playNoteTool := mcp.NewTool("synth_play-note",
		mcp.WithDescription("Plays a single note on the synth."),
		mcp.WithNumber("note", mcp.Required(), mcp.Description("MIDI note number (0-127), 60 is middle C.")),
		mcp.WithNumber("velocity", mcp.Description("MIDI velocity (1-127), defaults to 100.")),
		mcp.WithNumber("duration", mcp.Description("Milliseconds until the note is released, defaults to 500.")),
	)
	s.AddTool(playNoteTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Println("[mcp]Handling play note request.")
		note, err := request.RequireInt("note")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		velocity := request.GetInt("velocity", 100)
		duration := request.GetInt("duration", 500)
		if err := a.Exec([]string{"note_on", strconv.Itoa(note), strconv.Itoa(velocity)}); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		time.AfterFunc(time.Duration(duration)*time.Millisecond, func() {
			if err := a.Exec([]string{"note_off", strconv.Itoa(note)}); err != nil {
				log.Printf("[mcp]failed to release note: %v\n", err)
			}
		})
		return mcp.NewToolResultText("Note played successfully."), nil
	})

	listPresetsTool := mcp.NewTool("synth_list-presets",
		mcp.WithDescription("Lists the presets in the preset directory."),
	)
	s.AddTool(listPresetsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Println("[mcp]Handling list presets request.")
		names, err := presets.List()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		asJson, err := json.Marshal(names)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal presets: %w", err)
		}
		return mcp.NewToolResultText(string(asJson)), nil
	})

	loadPresetTool := mcp.NewTool("synth_load-preset",
		mcp.WithDescription("Loads a preset into the synth."),
		mcp.WithString("name", mcp.Required(), mcp.Description("The preset name as returned by synth_list-presets.")),
	)
	s.AddTool(loadPresetTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Println("[mcp]Handling load preset request.")
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := a.Exec([]string{"preset", name}); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("Preset loaded successfully."), nil
	})

	savePresetTool := mcp.NewTool("synth_save-preset",
		mcp.WithDescription("Saves the current parameters as a preset."),
		mcp.WithString("name", mcp.Required(), mcp.Description("The preset name.")),
	)
	s.AddTool(savePresetTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Println("[mcp]Handling save preset request.")
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := presets.Save(name, a.Params); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("Preset saved successfully."), nil
	})

	return s
}

// serveMCP serves tools on stdin/stdout until the client disconnects.
func serveMCP(ctx context.Context, a *audio.Audio, presets *audio.PresetManager) error {
	s := newMCPServer(a, presets)
	log.Println("Starting Desktop Synth MCP server...")
	stdio := server.NewStdioServer(s)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("MCP server error: %w", err)
	}
	log.Println("MCP server ended.")
	return errQuit
}
