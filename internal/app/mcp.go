package app

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/luminahq/lumina/internal/mcptools"
	"github.com/luminahq/lumina/internal/services"
)

// MustServeMCP runs the MCP server over stdio. The task service runs
// without the broker and the cache here: the stdio process is a
// short-lived sidecar of the MCP client.
func MustServeMCP() {
	tasks := services.NewTaskService(globalLogger, globalPostgresPool, nil, nil)

	s := mcptools.NewServer(tasks)
	err := server.ServeStdio(s)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("mcp server stopped")
		panic(err)
	}
}
