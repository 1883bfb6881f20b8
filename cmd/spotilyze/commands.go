package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/spf13/pflag"

	"github.com/ewilliams-labs/spotilyze/internal/adapters/console"
	"github.com/ewilliams-labs/spotilyze/internal/adapters/csvfile"
	"github.com/ewilliams-labs/spotilyze/internal/bootstrap"
	"github.com/ewilliams-labs/spotilyze/internal/config"
	"github.com/ewilliams-labs/spotilyze/internal/core/analysis"
	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
)

// loadConfig is swapped in tests.
var loadConfig = func() (*config.Config, error) { return config.Load() }

func openApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg)
}

func closeApp(app *bootstrap.App) {
	if err := app.Close(); err != nil {
		log.Printf("close error: %v", err)
	}
}

// configuredRockArtists reads ROCK_ARTISTS for commands that do not need
// the rest of the app. A broken config falls back to the default list.
func configuredRockArtists() []string {
	cfg, err := loadConfig()
	if err != nil {
		log.Printf("WARN config unavailable, using default rock artists: %v", err)
		return nil
	}
	return cfg.RockArtists
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func oneArg(fs *pflag.FlagSet) (string, error) {
	if len(fs.Args()) != 1 {
		fs.Usage()
		return "", errUsage
	}
	return fs.Args()[0], nil
}

func runPlaylist(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("playlist", "<playlist id|uri|url>", stdout)
	limit := fs.IntP("limit", "n", 20, "rows to print, 0 for all")
	export := fs.Bool("csv", false, "write the table as CSV to --out")
	out := fs.StringP("out", "o", "", "CSV path (default $DATA_DIR/raw/spotify.csv)")
	asJSON := fs.Bool("json", false, "print the table as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ref, err := oneArg(fs)
	if err != nil {
		return err
	}

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(app)

	t, err := app.Service.PlaylistTable(ctx, ref)
	if err != nil {
		return err
	}

	if *export || *out != "" {
		path := *out
		if path == "" {
			path = app.Config.RawCSVPath()
		}
		if err := csvfile.WriteFile(path, t); err != nil {
			return err
		}
		log.Printf("wrote %d tracks to %s", t.Len(), path)
	}

	if *asJSON {
		return writeJSON(stdout, t)
	}
	console.RenderTable(stdout, t, nil, *limit)
	return nil
}

func runAnalyze(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("analyze", "[<playlist id|uri|url>]", stdout)
	fromCSV := fs.String("from-csv", "", "analyze an exported CSV instead of fetching")
	top := fs.Int("top", 10, "size of the top artist and track lists")
	bins := fs.Int("bins", 10, "histogram bins")
	rock := fs.StringSlice("rock", nil, "artists counted as rock (default reference list)")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := analysis.Options{TopN: *top, HistogramBins: *bins, RockArtists: *rock}

	var t domain.Table
	switch {
	case *fromCSV != "" && fs.NArg() == 0:
		tbl, err := csvfile.ReadFile(*fromCSV)
		if err != nil {
			return err
		}
		t = tbl
		if opts.RockArtists == nil {
			opts.RockArtists = configuredRockArtists()
		}
	case *fromCSV == "" && fs.NArg() == 1:
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)
		if opts.RockArtists == nil {
			opts.RockArtists = app.Config.RockArtists
		}
		tbl, err := app.Service.PlaylistTable(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		t = tbl
	default:
		fs.Usage()
		return errUsage
	}

	report := analysis.Summarize(t, opts)
	if *asJSON {
		return writeJSON(stdout, report)
	}
	console.RenderReport(stdout, report)
	return nil
}

func runSearch(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("search", "", stdout)
	artist := fs.StringP("artist", "a", "", "artist name")
	track := fs.StringP("track", "t", "", "track name")
	asJSON := fs.Bool("json", false, "print results as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *artist == "" && *track == "" {
		fs.Usage()
		return errUsage
	}

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(app)

	res, err := app.Service.Search(ctx, *artist, *track)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(stdout, res)
	}
	console.RenderSearch(stdout, res)
	return nil
}

func runSnapshot(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("snapshot", "<playlist id|uri|url>", stdout)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ref, err := oneArg(fs)
	if err != nil {
		return err
	}

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(app)

	s, err := app.Service.SnapshotPlaylist(ctx, ref)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "snapshot %s: playlist %s, %d tracks, features %v\n",
		s.ID, s.PlaylistID, s.Table.Len(), s.Table.Schema.HasFeatures)
	return nil
}

func runPreviews(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("previews", "<snapshot id>", stdout)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := oneArg(fs)
	if err != nil {
		return err
	}

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(app)

	queued, err := app.Service.SubmitPreviewAnalysis(ctx, id)
	if err != nil {
		return err
	}
	log.Printf("submitted %d previews", queued)
	// Stop drains the queue; the later Close is a no-op for the pool.
	app.Pool.Stop()

	s, err := app.Service.GetSnapshot(ctx, id)
	if err != nil {
		return err
	}
	return writeJSON(stdout, s.PreviewEnergy)
}
