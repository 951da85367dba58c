package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"scratchc/internal/driver"
	"scratchc/internal/ir"
)

var headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] <input>",
	Short: "Print the linearized program or the generated C",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().String("format", "ir", "what to print (ir|c|h)")
}

func runDump(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	switch format {
	case "ir", "c", "h":
	default:
		return fmt.Errorf("unsupported format %q (must be ir, c or h)", format)
	}

	tracer, cleanup, err := setupTracing(cmd, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := driver.Compile(cmd.Context(), driver.Request{Input: args[0]})
	if err != nil {
		dumpRing(cmd, tracer)
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "c":
		_, err = io.WriteString(out, res.Files.Source)
	case "h":
		_, err = io.WriteString(out, res.Files.Header)
	default:
		var opts ir.DumpOptions
		if f, ok := out.(*os.File); ok && isTerminal(f) {
			opts.Heading = func(s string) string { return headingStyle.Render(s) }
		}
		err = ir.DumpProgram(out, res.Program, opts)
	}
	if err != nil {
		return err
	}

	if timings, _ := cmd.Root().PersistentFlags().GetBool("timings"); timings {
		fmt.Fprint(cmd.ErrOrStderr(), res.Timer.Summary())
	}
	return nil
}
