// ABOUTME: Development API server command
// ABOUTME: Serves an in-memory forms API seeded from a fixture or the demo project
package cli

import (
	"flag"
	"fmt"

	"github.com/harperreed/formsync/web"
)

// ServeCommand runs the in-memory forms API until it fails.
func ServeCommand(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8585", "Listen address")
	project := fs.String("project", "demo", "Project ID to seed")
	seedPath := fs.String("seed", "", "JSON seed fixture (default: built-in demo project)")
	_ = fs.Parse(args)

	seed := web.DemoSeed()
	if *seedPath != "" {
		var err error
		if seed, err = web.ReadSeed(*seedPath); err != nil {
			return err
		}
	}

	server := web.NewServer()
	server.Load(*project, seed)

	fmt.Printf("Forms API for project %q on http://%s\n", *project, *addr)
	fmt.Printf("  formsync login --url http://%s --project %s\n", *addr, *project)
	return server.Start(*addr)
}
