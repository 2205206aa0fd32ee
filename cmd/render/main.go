// Command render turns listing files into poster PNGs without running the API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"
	"gopkg.in/yaml.v3"

	"mars_poster/internal/adapters/chrome"
	"mars_poster/internal/adapters/observability"
	"mars_poster/internal/app"
	"mars_poster/internal/assets"
	"mars_poster/internal/domain"
	"mars_poster/internal/layout"
	"mars_poster/internal/raster"
	"mars_poster/internal/shared"
	"mars_poster/internal/upload"
)

var (
	outDir     string
	workers    int
	scale      float64
	rasterizer string
	chromeURL  string
	assetsDir  string
	asJSON     bool
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger("dev", cfg.LogLevel)

	root := &cobra.Command{
		Use:           "render",
		Short:         "Render property listing posters to PNG",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	renderCmd := &cobra.Command{
		Use:   "render [file...]",
		Short: "Render listing files (YAML or JSON) into PNG posters",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRender,
	}
	renderCmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	renderCmd.Flags().IntVarP(&workers, "workers", "w", cfg.ExportWorkers, "concurrent renders")
	renderCmd.Flags().Float64Var(&scale, "scale", 0, "scale factor 1-4 (overrides the file)")
	renderCmd.Flags().StringVar(&rasterizer, "rasterizer", cfg.Rasterizer, "native or chrome")
	renderCmd.Flags().StringVar(&chromeURL, "chrome-url", cfg.ChromeURL, "DevTools websocket URL (chrome rasterizer)")
	renderCmd.Flags().StringVar(&assetsDir, "assets", cfg.AssetsDir, "static asset directory")

	layoutsCmd := &cobra.Command{
		Use:   "layouts",
		Short: "List poster layouts",
		Args:  cobra.NoArgs,
		RunE:  runLayouts,
	}
	layoutsCmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	deriveCmd := &cobra.Command{
		Use:   "derive [file]",
		Short: "Print the display tokens derived from a listing file",
		Args:  cobra.ExactArgs(1),
		RunE:  runDerive,
	}

	root.AddCommand(renderCmd, layoutsCmd, deriveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRasterizer(static *assets.Dir) (domain.Rasterizer, func()) {
	if rasterizer == "chrome" {
		c := chrome.New(chromeURL, static.DataURL)
		return c, func() { _ = c.Close() }
	}
	return raster.NewNative(static), func() {}
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if workers <= 0 {
		workers = 1
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	static := assets.New(assetsDir)
	rz, closeRz := newRasterizer(static)
	defer closeRz()
	ex := app.NewExportService(nil, rz, nil, nil, workers, 0, 2)
	dec := upload.New(0)

	var out names
	failed, err := renderAll(ctx, workers, args, func(ctx context.Context, path string) (string, error) {
		return renderOne(ctx, ex, dec, path, &out)
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

// renderAll runs render over paths with at most workers in flight. It
// returns only after every started render has finished, even when ctx is
// cancelled part way.
func renderAll(ctx context.Context, workers int, paths []string, render func(context.Context, string) (string, error)) (int, error) {
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)
	for _, path := range paths {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return int(failed.Load()), err
		}
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer sem.Release(1)

			file, err := render(ctx, path)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("file", path).Err(err).Msg("render failed")
				return
			}
			log.Info().Str("file", path).Str("out", file).Msg("render ok")
		}(path)
	}
	wg.Wait()
	return int(failed.Load()), nil
}

func renderOne(ctx context.Context, ex *app.ExportService, dec *upload.Decoder, path string, out *names) (string, error) {
	j, err := loadJob(path, dec)
	if err != nil {
		return "", err
	}
	s := j.scale
	if scale != 0 {
		s = scale
	}
	if s, err = ex.Scale(s); err != nil {
		return "", err
	}
	res, err := ex.Render(ctx, j.layout, j.record, j.image, s)
	if err != nil {
		return "", err
	}
	file := filepath.Join(outDir, out.claim(res.FileName))
	if err := os.WriteFile(file, res.PNG, 0o644); err != nil {
		return "", err
	}
	return file, nil
}

func runLayouts(cmd *cobra.Command, args []string) error {
	ls := layout.Catalog()
	w := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ls)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tBULLETS")
	for _, l := range ls {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", l.ID, l.Name, l.Category, l.BulletPolicy)
	}
	return tw.Flush()
}

func runDerive(cmd *cobra.Command, args []string) error {
	j, err := loadJob(args[0], upload.New(0))
	if err != nil {
		return err
	}
	d, err := app.NewPreviewService(nil, nil).Derive(j.layout, j.record)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	defer enc.Close()
	return enc.Encode(d)
}
