// Package mcp exposes the live workout to MCP clients over stdio.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/meltforce/liftlog/internal/live"
)

// New creates an MCP server with all tools and resources registered.
// sessions may be nil when no backend is configured.
func New(host *live.Host, sessions SessionSource, version string, log *slog.Logger) *server.MCPServer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog live workout tracker. Start or resume a workout, add exercises, log sets (plain, superset or dropset), run the rest timer and finish to commit the session."),
	)

	h := &handlers{host: host, sessions: sessions, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolStartWorkout, Handler: h.startWorkout},
		server.ServerTool{Tool: toolResumeWorkout, Handler: h.resumeWorkout},
		server.ServerTool{Tool: toolGetWorkout, Handler: h.getWorkout},
		server.ServerTool{Tool: toolAddExercise, Handler: h.addExercise},
		server.ServerTool{Tool: toolRemoveExercise, Handler: h.removeExercise},
		server.ServerTool{Tool: toolLogSet, Handler: h.logSet},
		server.ServerTool{Tool: toolToggleSet, Handler: h.toggleSet},
		server.ServerTool{Tool: toolDeleteSet, Handler: h.deleteSet},
		server.ServerTool{Tool: toolSuggestSuperset, Handler: h.suggestSuperset},
		server.ServerTool{Tool: toolSelectSuperset, Handler: h.selectSuperset},
		server.ServerTool{Tool: toolCancelSuperset, Handler: h.cancelSuperset},
		server.ServerTool{Tool: toolSuggestDrops, Handler: h.suggestDrops},
		server.ServerTool{Tool: toolStartRest, Handler: h.startRest},
		server.ServerTool{Tool: toolSkipRest, Handler: h.skipRest},
		server.ServerTool{Tool: toolFinishWorkout, Handler: h.finishWorkout},
		server.ServerTool{Tool: toolSaveForLater, Handler: h.saveForLater},
		server.ServerTool{Tool: toolCancelWorkout, Handler: h.cancelWorkout},
	)
	if sessions != nil {
		s.AddTools(
			server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
			server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		)
	}

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resTemplates, Handler: h.templates},
		server.ServerResource{Resource: resCurrentWorkout, Handler: h.currentWorkout},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	host     *live.Host
	sessions SessionSource
	log      *slog.Logger
}

// --- Resource definitions ---

var resTemplates = mcp.NewResource(
	"liftlog://templates",
	"Workout Templates",
	mcp.WithResourceDescription("Predefined workouts that seed exercises with empty sets"),
	mcp.WithMIMEType("application/json"),
)

var resCurrentWorkout = mcp.NewResource(
	"liftlog://current_workout",
	"Current Workout",
	mcp.WithResourceDescription("The live workout with its exercises, sets, elapsed time and rest timer"),
	mcp.WithMIMEType("application/json"),
)
