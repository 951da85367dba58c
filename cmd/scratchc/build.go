package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scratchc/internal/diag"
	"scratchc/internal/driver"
	"scratchc/internal/project"
)

const noManifestMessage = "no inputs given and no " + project.ManifestName + " found (run `scratchc init` or pass .sb3 files)"

var buildCmd = &cobra.Command{
	Use:   "build [flags] [inputs...]",
	Short: "Compile Scratch projects to C",
	Long: `Compile each input project to <stem>.h and <stem>.c. Without inputs the
project described by the nearest scratchc.toml is built.`,
	RunE: buildExecution,
}

func init() {
	buildCmd.Flags().StringP("output", "o", "", "output stem (single input only)")
	buildCmd.Flags().String("out-dir", "", "directory for generated files")
	buildCmd.Flags().Int("jobs", 0, "max parallel compilations (0 = GOMAXPROCS)")
	buildCmd.Flags().Bool("no-cache", false, "do not read or write the IR cache")
	buildCmd.Flags().String("ui", "off", "progress view (auto|on|off)")
}

type buildSettings struct {
	inputs []string
	outDir string
	stem   string
	jobs   int
	cache  bool
	trace  *project.TraceConfig
}

func buildExecution(cmd *cobra.Command, args []string) error {
	settings, err := resolveBuildSettings(cmd, args)
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	tracer, cleanup, err := setupTracing(cmd, settings.trace)
	if err != nil {
		return err
	}
	defer cleanup()

	var cache *driver.Cache
	if settings.cache {
		disk, cacheErr := driver.OpenDiskCache("scratchc")
		if cacheErr != nil && !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: disk cache disabled: %v\n", cacheErr)
		}
		cache = driver.NewCache(disk)
	}

	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	uiMode, err := readSwitchMode("ui", uiValue)
	if err != nil {
		return err
	}

	req := driver.BatchRequest{
		Inputs:         settings.inputs,
		OutDir:         settings.outDir,
		Stem:           settings.stem,
		Jobs:           settings.jobs,
		Cache:          cache,
		MaxDiagnostics: maxDiagnostics,
		Timings:        timings,
	}
	var batch *driver.BatchResult
	if !quiet && uiMode.enabledFor(os.Stdout) {
		batch, err = runBuildWithUI(cmd.Context(), "scratchc build", req)
	} else {
		batch, err = driver.BuildAll(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	useColor, err := colorEnabled(cmd, os.Stderr)
	if err != nil {
		return err
	}
	diag.FormatBag(cmd.ErrOrStderr(), batch.Bag, diag.FormatOptions{Color: useColor})

	built := 0
	for _, res := range batch.Results {
		if res == nil {
			continue
		}
		built++
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s, %s\n", res.HeaderPath, res.SourcePath)
		}
	}
	if batch.Bag.HasErrors() {
		dumpRing(cmd, tracer)
		return fmt.Errorf("%d of %d inputs failed", len(settings.inputs)-built, len(settings.inputs))
	}
	return nil
}

// resolveBuildSettings merges command-line flags over the manifest. The
// manifest is consulted only when no inputs are given.
func resolveBuildSettings(cmd *cobra.Command, args []string) (buildSettings, error) {
	flags := cmd.Flags()
	var s buildSettings
	var err error
	if s.stem, err = flags.GetString("output"); err != nil {
		return s, err
	}
	if s.outDir, err = flags.GetString("out-dir"); err != nil {
		return s, err
	}
	if s.jobs, err = flags.GetInt("jobs"); err != nil {
		return s, err
	}
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return s, err
	}
	s.cache = !noCache

	if len(args) > 0 {
		s.inputs = args
		return s, nil
	}

	manifest, found, err := project.Load(".")
	if err != nil {
		return s, err
	}
	if !found {
		return s, errors.New(noManifestMessage)
	}
	s.inputs = manifest.Inputs()
	if !flags.Changed("out-dir") {
		s.outDir = manifest.OutDir()
	}
	if !flags.Changed("jobs") {
		s.jobs = manifest.Config.Build.Jobs
	}
	if !flags.Changed("no-cache") {
		s.cache = manifest.Config.Build.Cache
	}
	s.trace = &manifest.Config.Trace
	return s, nil
}
