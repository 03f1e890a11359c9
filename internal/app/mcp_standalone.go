package app

import (
	mcpserver "stationcsv/internal/mcp"
)

// ServeMCP serves the transform tools over stdin/stdout until the client
// disconnects. Stdout belongs to the protocol, so the app must have been
// built with echo pointed elsewhere.
func (a *App) ServeMCP(version string) error {
	srv := mcpserver.New(a.transform, version)
	return srv.ServeStdio()
}
