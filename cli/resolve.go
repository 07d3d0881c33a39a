// ABOUTME: Resolve CLI commands
// ABOUTME: Maps object GUIDs to ids and ids to objects through the batched resolver
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/harperreed/formsync/config"
	"github.com/harperreed/formsync/resolver"
)

func newResolver(cfg *config.Config) (*resolver.Resolver, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return resolver.New(client.Project(cfg.ProjectID), resolver.NewCache(cfg.Resolver.CacheLimit),
		resolver.WithBatchSize(cfg.Resolver.BatchSize),
		resolver.WithConcurrency(cfg.Resolver.Concurrency),
		resolver.WithWaveDelay(cfg.Resolver.WaveDelay),
	), nil
}

// ResolveGUIDsCommand prints the object id of each GUID
func ResolveGUIDsCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("resolve guids", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: formsync resolve guids <guid>...")
	}

	r, err := newResolver(cfg)
	if err != nil {
		return err
	}
	ids, err := r.MapGUIDsToIDs(context.Background(), fs.Args())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "GUID\tID")
	for _, guid := range fs.Args() {
		id := "-"
		if v, ok := ids[guid]; ok {
			id = strconv.FormatUint(uint64(v), 10)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", guid, id)
	}
	_ = w.Flush()

	stats := r.Stats()
	fmt.Printf("\n%d batch(es) in %d wave(s), %d failed\n", stats.Batches, stats.Waves, stats.FailedBatches)
	return nil
}

// ResolveIDsCommand prints the object behind each numeric id
func ResolveIDsCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("resolve ids", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: formsync resolve ids <id>...")
	}

	ids := make([]uint32, 0, fs.NArg())
	for _, arg := range fs.Args() {
		v, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid object id %q: %w", arg, err)
		}
		ids = append(ids, uint32(v))
	}

	r, err := newResolver(cfg)
	if err != nil {
		return err
	}
	objects, err := r.IDsToObjects(context.Background(), ids)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tGUID\tNAME\tPOSITION")
	for _, o := range objects {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%.2f, %.2f, %.2f\n", o.ID, o.GUID, orDash(o.Name), o.Position.X, o.Position.Y, o.Position.Z)
	}
	_ = w.Flush()

	fmt.Printf("\nResolved %d of %d id(s)\n", len(objects), len(ids))
	return nil
}
