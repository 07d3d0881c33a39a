// ABOUTME: MCP server subcommand
// ABOUTME: Serves the forms tools and snapshot resources on stdio
package cli

import (
	"context"
	"database/sql"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/formsync/config"
	"github.com/harperreed/formsync/db"
	"github.com/harperreed/formsync/handlers"
	"github.com/harperreed/formsync/resolver"
)

// MCPCommand starts the MCP server on stdio. Without API access the tools
// work on the local snapshot only.
func MCPCommand(database *sql.DB, cfg *config.Config, version string) error {
	logger := log.WithPrefix("mcp")
	logger.Info("starting formsync MCP server", "project", cfg.ProjectID)

	history, err := db.OpenHistory(cfg.HistoryDir())
	if err != nil {
		return err
	}
	defer func() { _ = history.Close() }()

	var saver handlers.FieldSaver
	var resolve *handlers.ResolveHandlers
	if client, err := NewClient(cfg); err != nil {
		logger.Warn("API unavailable, serving the local snapshot only", "err", err)
	} else {
		project := client.Project(cfg.ProjectID)
		saver = project
		r := resolver.New(project, resolver.NewCache(cfg.Resolver.CacheLimit),
			resolver.WithBatchSize(cfg.Resolver.BatchSize),
			resolver.WithConcurrency(cfg.Resolver.Concurrency),
			resolver.WithWaveDelay(cfg.Resolver.WaveDelay),
		)
		resolve = handlers.NewResolveHandlers(r)
	}

	formHandlers := handlers.NewFormHandlers(database, cfg.ProjectID, history, saver)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "formsync",
		Version: version,
	}, nil)
	handlers.Register(server, formHandlers, handlers.NewCodecHandlers(), resolve)
	handlers.RegisterResources(server, formHandlers)

	return server.Run(context.Background(), &mcp.StdioTransport{})
}
