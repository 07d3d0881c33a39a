// ABOUTME: Entry point for the formsync CLI and MCP server
// ABOUTME: Routes to MCP server or CLI commands based on arguments
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/harperreed/formsync/cli"
	"github.com/harperreed/formsync/config"
	"github.com/harperreed/formsync/db"
)

const version = "0.1.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/formsync/formsync.db)")
	project := flag.String("project", "", "Project ID (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("formsync version %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}
	if *project != "" {
		cfg.ProjectID = *project
	}
	cfg.ApplyLogLevel()
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	// Commands that do not touch the snapshot.
	switch command {
	case "version":
		fmt.Printf("formsync version %s\n", version)
		return
	case "login":
		run(cli.LoginCommand(cfg, commandArgs))
		return
	case "serve":
		run(cli.ServeCommand(commandArgs))
		return
	case "place":
		run(cli.PlaceCommand(cfg, commandArgs))
		return
	case "move":
		run(cli.MoveCommand(cfg, commandArgs))
		return
	case "resolve":
		sub, subArgs := subcommand(command, commandArgs)
		switch sub {
		case "guids":
			run(cli.ResolveGUIDsCommand(cfg, subArgs))
		case "ids":
			run(cli.ResolveIDsCommand(cfg, subArgs))
		default:
			unknown(command, sub)
		}
		return
	}

	path := *dbPath
	if path == "" {
		path = cfg.DatabasePath()
	}
	database, err := db.OpenDatabase(path)
	if err != nil {
		log.Fatal("failed to open database", "path", path, "err", err)
	}
	defer func() { _ = database.Close() }()

	switch command {
	case "mcp":
		run(cli.MCPCommand(database, cfg, version))

	case "templates":
		sub, subArgs := subcommand(command, commandArgs)
		switch sub {
		case "list":
			run(cli.ListTemplatesCommand(database, cfg, subArgs))
		case "show":
			run(cli.ShowTemplateCommand(database, cfg, subArgs))
		case "delete":
			run(cli.DeleteTemplateCommand(database, cfg, subArgs))
		default:
			unknown(command, sub)
		}

	case "forms":
		sub, subArgs := subcommand(command, commandArgs)
		switch sub {
		case "list":
			run(cli.ListFormsCommand(database, cfg, subArgs))
		case "state":
			run(cli.FormStateCommand(database, cfg, subArgs))
		case "pull":
			run(cli.PullCommand(database, cfg, subArgs))
		default:
			unknown(command, sub)
		}

	case "browse":
		run(cli.BrowseCommand(database, cfg, commandArgs))

	default:
		_ = database.Close()
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func subcommand(command string, args []string) (string, []string) {
	if len(args) == 0 {
		fmt.Printf("Error: %s requires a subcommand\n\n", command)
		printUsage()
		os.Exit(1)
	}
	return args[0], args[1:]
}

func unknown(command, sub string) {
	fmt.Printf("Unknown %s command: %s\n\n", command, sub)
	printUsage()
	os.Exit(1)
}

func run(err error) {
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`formsync v%s - forms sync for BIM scenes

USAGE:
  formsync [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/formsync/formsync.db)
  --project <id>         Project ID (overrides config and FORMSYNC_PROJECT)
  --debug                Enable debug logging

COMMANDS:
  login                  Save the API location and token
    --url <url>              Forms API base URL
    --project <id>           Project ID
    --assets <url>           Marker asset index URL
    --verify                 Check the token before saving (default: true)

  forms pull             Download every template and form into the local snapshot
    --timeout <duration>     Give up after this long (default: 2m)
  forms list             List forms of the snapshot
    --template <id>          Only forms of this template
    --object <guid>          Only forms attached to this object
    --name <text>            Filter by title
    --states <list>          Comma separated states (default: new,ongoing,finished)
    --limit <n>              Max results (default: 50)
  forms state [id]       Completion counts per template

  place <template-id>    Create a location form at a point
    --x, --y, --z            Coordinates of the picked point
  move <template-id> <form-id>
                         Edit the transform of a location form and save it
    --x, --y, --z            Position components to replace
    --roll, --pitch, --yaw   Angles in degrees, clamped to [-180, 180]
    --scale <n>              Uniform scale

  templates list         List templates
    --name <text>            Filter by title
    --kind <kind>            search or location
  templates show <id>    Show a template and its fields
  templates delete <id>  Delete a template
    --remote                 Also delete it on the server

  resolve guids <guid>...  Map object GUIDs to scene object ids
  resolve ids <id>...      Look up scene objects by id

  browse                 Browse templates and forms in the terminal
  mcp                    Start MCP server on stdio
  serve                  Run an in-memory forms API for development
    --addr <addr>            Listen address (default: localhost:8585)
    --project <id>           Project to seed (default: demo)
    --seed <file>            JSON seed fixture
  version                Show version

EXAMPLES:
  # Try everything against the development server
  formsync serve &
  formsync login --url http://localhost:8585 --project demo
  formsync forms pull
  formsync forms list --states new,ongoing

`, version)
}
