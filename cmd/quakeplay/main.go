package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/quakeplay/internal/archive"
	"github.com/san-kum/quakeplay/internal/automation"
	"github.com/san-kum/quakeplay/internal/config"
	"github.com/san-kum/quakeplay/internal/control"
	"github.com/san-kum/quakeplay/internal/export"
	"github.com/san-kum/quakeplay/internal/feed"
	"github.com/san-kum/quakeplay/internal/playback"
	"github.com/san-kum/quakeplay/internal/policy"
	"github.com/san-kum/quakeplay/internal/quake"
	"github.com/san-kum/quakeplay/internal/render"
	"github.com/san-kum/quakeplay/internal/server"
	"github.com/san-kum/quakeplay/internal/storage"
	"github.com/san-kum/quakeplay/internal/viz"
)

var (
	dataDir    string
	configFile string
	envFile    string
	preset     string
	// Source selection
	feedURL    string
	inputFile  string
	snapshotID string
	useArchive bool
	days       int
	// Playback
	mode       string
	speedMs    int64
	loop       bool
	windowDays int
	// Region filter
	near     string
	radiusKm float64
	// Output
	frameRate int
	theme     string
	addr      string
	outPath   string
	at        string
	svgWidth  int
	activity  string
	retries   int
	timeout   time.Duration
	noSave    bool
)

// main registers commands and flags, runs the player when no subcommand is
// given and exits with status 1 if the command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:   "quakeplay",
		Short: "replay a month of earthquakes on a terminal map",
		RunE:  runPlay,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	addSourceFlags(rootCmd)
	addPlaybackFlags(rootCmd)
	rootCmd.Flags().IntVar(&frameRate, "fps", config.DefaultFrameRate, "frame rate")
	rootCmd.Flags().StringVar(&theme, "theme", "classic", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "play back earthquakes in the terminal",
		RunE:  runPlay,
	}
	addSourceFlags(playCmd)
	addPlaybackFlags(playCmd)
	playCmd.Flags().IntVar(&frameRate, "fps", config.DefaultFrameRate, "frame rate")
	playCmd.Flags().StringVar(&theme, "theme", "classic", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "download the feed and save a snapshot",
		RunE:  runFetch,
	}
	fetchCmd.Flags().StringVar(&feedURL, "url", "", "feed url")
	fetchCmd.Flags().BoolVar(&useArchive, "archive", false, "also upsert events into the archive")
	fetchCmd.Flags().BoolVar(&noSave, "no-save", false, "do not write a snapshot")
	fetchCmd.Flags().IntVar(&retries, "retries", 0, "retry count on server errors")
	fetchCmd.Flags().DurationVar(&timeout, "timeout", config.DefaultTimeout, "request timeout")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list snapshots",
		RunE:  listSnapshots,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [snapshot_id]",
		Short: "plot events per day",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotSnapshot,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [snapshot_id]",
		Short: "export snapshot events to CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [snapshot_id]",
		Short: "export snapshot events to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "render one frame to SVG",
		RunE:  renderSnapshot,
	}
	addSourceFlags(snapshotCmd)
	addPlaybackFlags(snapshotCmd)
	snapshotCmd.Flags().StringVar(&at, "at", "", "frame time (2006-01-02 or RFC3339, default now)")
	snapshotCmd.Flags().StringVar(&outPath, "out", "frame.svg", "output file")
	snapshotCmd.Flags().IntVar(&svgWidth, "width", 1440, "image width in pixels")
	snapshotCmd.Flags().StringVar(&activity, "activity", "", "also write events per day as SVG to this file")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "run a scripted playback scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	addSourceFlags(scriptCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve frames and controls over HTTP and websocket",
		RunE:  runServe,
	}
	addSourceFlags(serveCmd)
	addPlaybackFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-14s %s, %d ms/day, window %dd, loop %v\n",
					name, p.Playback.Mode, p.Playback.SpeedMs, p.Playback.WindowDays, p.Playback.Loop)
			}
			return nil
		},
	}

	rootCmd.AddCommand(playCmd, fetchCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, snapshotCmd, scriptCmd, serveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&feedURL, "url", "", "feed url")
	cmd.Flags().StringVar(&inputFile, "file", "", "read a saved GeoJSON feed instead of fetching")
	cmd.Flags().StringVar(&snapshotID, "snapshot", "", "replay a saved snapshot (id or \"latest\")")
	cmd.Flags().BoolVar(&useArchive, "archive", false, "replay from the event archive")
	cmd.Flags().IntVar(&days, "days", 30, "days of archive to replay")
	cmd.Flags().StringVar(&near, "near", "", "only events near lat,lng")
	cmd.Flags().Float64Var(&radiusKm, "radius-km", config.DefaultRadiusKm, "radius for --near")
}

func addPlaybackFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&mode, "mode", "cumulative", "playback mode (cumulative, window)")
	cmd.Flags().Int64Var(&speedMs, "speed", config.DefaultSpeedMs, "ms per simulated day")
	cmd.Flags().BoolVar(&loop, "loop", false, "restart at the end")
	cmd.Flags().IntVar(&windowDays, "window", config.DefaultWindowDays, "window width in days")
}

// loadConfig layers defaults, preset, config file, environment and flags,
// in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadEnv(envFile); err != nil {
		return nil, err
	}

	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if !flags.Changed("data") && cfg.DataDir != "" {
		dataDir = cfg.DataDir
	}
	if flags.Changed("url") {
		cfg.Feed.URL = feedURL
	}
	if flags.Changed("retries") {
		cfg.Feed.RetryCount = retries
	}
	if flags.Changed("timeout") {
		cfg.Feed.Timeout = timeout
	}
	if flags.Changed("mode") {
		cfg.Playback.Mode = mode
	}
	if flags.Changed("speed") {
		cfg.Playback.SpeedMs = speedMs
	}
	if flags.Changed("loop") {
		cfg.Playback.Loop = loop
	}
	if flags.Changed("window") {
		cfg.Playback.WindowDays = windowDays
	}
	if flags.Changed("fps") {
		cfg.Playback.FrameRate = frameRate
	}
	if flags.Changed("near") {
		cfg.Region.Near = near
	}
	if flags.Changed("radius-km") {
		cfg.Region.RadiusKm = radiusKm
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	return cfg, nil
}

// loadEvents picks the event source. A failed fetch is not fatal: it is
// logged, reported once through the returned notice and playback continues
// with no events.
func loadEvents(ctx context.Context, cfg *config.Config) (*quake.Collection, string, error) {
	var (
		events *quake.Collection
		notice string
		err    error
	)

	switch {
	case inputFile != "":
		events, err = feed.LoadFile(inputFile)
		if err != nil {
			return nil, "", err
		}
	case snapshotID != "":
		st := storage.New(dataDir)
		id := snapshotID
		if id == "latest" {
			if id, err = st.Latest(); err != nil {
				return nil, "", err
			}
		}
		if events, err = st.LoadFeed(id); err != nil {
			return nil, "", err
		}
	case useArchive:
		a, err := archive.Open(archivePath(cfg))
		if err != nil {
			return nil, "", err
		}
		defer a.Close()
		now := time.Now()
		events, err = a.Range(ctx, now.Add(-time.Duration(days)*24*time.Hour).UnixMilli(), now.UnixMilli())
		if err != nil {
			return nil, "", err
		}
	default:
		res, ferr := feed.NewClient(cfg.FeedOptions()).Fetch(ctx)
		if ferr != nil {
			log.Printf("fetch failed: %v", ferr)
			notice = "could not load earthquake data: " + ferr.Error()
			events = quake.Empty()
		} else {
			events = res.Events
		}
	}

	if cfg.Region.Near != "" {
		region, err := quake.ParseRegion(cfg.Region.Near, cfg.Region.RadiusKm)
		if err != nil {
			return nil, "", err
		}
		events = events.Within(region)
	}
	return events, notice, nil
}

// archivePath resolves a bare archive file name inside the data directory.
func archivePath(cfg *config.Config) string {
	if filepath.Dir(cfg.Archive) != "." {
		return cfg.Archive
	}
	return filepath.Join(dataDir, cfg.Archive)
}

func newSurface(cfg *config.Config, events *quake.Collection) (*control.Surface, error) {
	opts, err := cfg.PlaybackOptions()
	if err != nil {
		return nil, err
	}
	return control.NewSurface(playback.New(events, opts)), nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	events, notice, err := loadEvents(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	surface, err := newSurface(cfg, events)
	if err != nil {
		return err
	}

	return viz.Run(viz.NewModel(surface, viz.Options{
		FrameRate: cfg.Playback.FrameRate,
		Theme:     theme,
		Notice:    notice,
	}))
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	res, err := feed.NewClient(cfg.FeedOptions()).Fetch(cmd.Context())
	if err != nil {
		return err
	}
	first, last, _ := res.Events.Bounds()
	fmt.Printf("fetched %d events (%d skipped)\n", res.Events.Len(), res.Events.Skipped())
	if res.Events.Len() > 0 {
		fmt.Printf("range: %s to %s\n", playback.FormatDate(first), playback.FormatDate(last))
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(res)
		if err != nil {
			return err
		}
		fmt.Printf("snapshot: %s\n", id)
	}

	if useArchive {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return err
		}
		a, err := archive.Open(archivePath(cfg))
		if err != nil {
			return err
		}
		defer a.Close()
		if _, err := a.Upsert(cmd.Context(), res.Events.Events()); err != nil {
			return err
		}
		n, err := a.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("archive: %d events\n", n)
	}
	return nil
}

func listSnapshots(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	snaps, err := st.List()
	if err != nil {
		return err
	}

	if len(snaps) == 0 {
		fmt.Println("no snapshots found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFETCHED\tEVENTS\tSKIPPED\tFIRST\tLAST")

	for _, s := range snaps {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			s.ID,
			s.FetchedAt.Format("2006-01-02 15:04:05"),
			s.Events,
			s.Skipped,
			playback.FormatDate(s.FirstMs),
			playback.FormatDate(s.LastMs),
		)
	}

	return w.Flush()
}

// openStore resolves the data dir from config, environment and flags.
func openStore(cmd *cobra.Command) (*storage.Store, error) {
	if _, err := loadConfig(cmd); err != nil {
		return nil, err
	}
	return storage.New(dataDir), nil
}

// resolveSnapshot returns the id in args, or the latest snapshot.
func resolveSnapshot(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 && args[0] != "latest" {
		return args[0], nil
	}
	id, err := st.Latest()
	if errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("no snapshots in %s, run fetch first", dataDir)
	}
	return id, err
}

func plotSnapshot(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	id, err := resolveSnapshot(st, args)
	if err != nil {
		return err
	}
	meta, err := st.Load(id)
	if err != nil {
		return err
	}
	events, err := st.LoadEvents(id)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("no data to plot")
	}

	col := quake.NewCollection(events)
	first, last, _ := col.Bounds()
	daily := col.DailyCounts(first, last)

	fmt.Printf("snapshot: %s\n", meta.ID)
	fmt.Printf("events: %d\n", meta.Events)
	fmt.Printf("days: %d (%s to %s)\n\n", len(daily), playback.FormatDate(first), playback.FormatDate(last))

	if len(daily) < 2 {
		fmt.Printf("%d events on %s\n", len(events), playback.FormatDate(first))
		return nil
	}
	graph := asciigraph.Plot(daily,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("events per day"),
	)
	fmt.Println(graph)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	id, err := resolveSnapshot(st, args)
	if err != nil {
		return err
	}

	w := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := st.ExportCSV(id, w); err != nil {
		return err
	}
	if outPath != "" {
		fmt.Printf("exported to %s\n", outPath)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	id, err := resolveSnapshot(st, args)
	if err != nil {
		return err
	}
	if err := st.ExportJSON(id, outPath); err != nil {
		return err
	}
	if outPath != "" {
		fmt.Printf("exported to %s\n", outPath)
	}
	return nil
}

func parseAt(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: want 2006-01-02 or RFC3339", s)
	}
	return t.Add(24*time.Hour - time.Millisecond), nil
}

func renderSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	frameAt, err := parseAt(at)
	if err != nil {
		return err
	}
	events, notice, err := loadEvents(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if notice != "" {
		fmt.Fprintln(os.Stderr, notice)
	}
	surface, err := newSurface(cfg, events)
	if err != nil {
		return err
	}
	ctrl := surface.Controller()
	defer ctrl.Close()

	surface.Timeline(frameAt.UnixMilli())
	svg := export.NewSVG(svgWidth, 0)
	svg.Title = "Earthquakes " + ctrl.Labels().Current
	markers := render.NewBridge(ctrl, svg).Redraw()

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := svg.WriteTo(f); err != nil {
		return err
	}

	counts := render.Counts(markers)
	fmt.Printf("%s: %d markers (red %d, orange %d, yellow %d, white %d) -> %s\n",
		ctrl.Labels().Current, len(markers),
		counts[policy.Red], counts[policy.Orange], counts[policy.Yellow], counts[policy.White], outPath)

	if activity != "" {
		first, _, ok := events.Bounds()
		if !ok {
			return nil
		}
		series := export.SeriesToSVG(events.DailyCounts(first, frameAt.UnixMilli()), 800, 200, "#ff9500")
		if err := os.WriteFile(activity, []byte(series), 0644); err != nil {
			return err
		}
		fmt.Printf("activity -> %s\n", activity)
	}
	return nil
}

func runScript(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	events, notice, err := loadEvents(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if notice != "" {
		fmt.Fprintln(os.Stderr, notice)
	}

	if sc.Name != "" {
		fmt.Printf("scenario: %s\n", sc.Name)
	}
	if sc.Description != "" {
		fmt.Printf("%s\n", sc.Description)
	}
	frames, err := automation.RunScenario(cmd.Context(), sc, events)
	for _, f := range frames {
		fmt.Println(f)
	}
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events, notice, err := loadEvents(ctx, cfg)
	if err != nil {
		return err
	}
	if notice != "" {
		fmt.Fprintln(os.Stderr, notice)
	}
	surface, err := newSurface(cfg, events)
	if err != nil {
		return err
	}
	defer surface.Controller().Close()

	return server.New(surface).Run(ctx, cfg.Server.Addr)
}
