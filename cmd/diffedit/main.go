// Command diffedit applies, tests, converts, reverses, and repairs diff
// documents in the unified, context, and normal dialects.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mrtimdog/diffedit"
	"github.com/mrtimdog/diffedit/apply"
	"github.com/mrtimdog/diffedit/convert"
	"github.com/mrtimdog/diffedit/fs"
	"github.com/mrtimdog/diffedit/gitdiff"
	"github.com/mrtimdog/diffedit/hunk"
	"github.com/mrtimdog/diffedit/refine"
	"github.com/mrtimdog/diffedit/worddiff"
)

var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "diffedit",
	Short: "Apply, test, convert, and repair diffs",
	Long: `diffedit is a diff/patch engine for unified, context, and normal diff
text: it locates hunks in (possibly drifted) target files, applies or
reverse-applies them with fuzzy matching, converts between dialects, and
repairs hunk headers after hand edits.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(viper.GetString("log_level"))); err != nil {
			return fmt.Errorf("parsing log level: %w", err)
		}
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		logger = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("directory", "C", "", "directory targets are resolved against")
	rootCmd.PersistentFlags().String("log-level", "warn", "zap log level")
	viper.SetDefault("log_level", "warn")
	_ = viper.BindPFlag("directory", rootCmd.PersistentFlags().Lookup("directory"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.SetEnvPrefix("DIFFEDIT")
	viper.AutomaticEnv()

	rootCmd.AddCommand(applyCmd(), testCmd(), convertCmd(), reverseCmd(), fixupCmd(), refineCmd())
}

// readDiff loads the diff document from the file argument or stdin.
func readDiff(args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// scanDiff parses the document and layers in git metadata when present.
func scanDiff(src string) (*diffedit.Document, error) {
	doc, err := hunk.Scan(src)
	if err != nil {
		return nil, err
	}
	if err := gitdiff.Enrich(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed)
)

func printResult(target string, n int, res *diffedit.ApplyResult) {
	c := okColor
	note := ""
	switch res.Status {
	case diffedit.StatusAlreadyApplied:
		c = warnColor
	case diffedit.StatusNotFound, diffedit.StatusMalformed:
		c = failColor
	}
	if res.LineOffset != 0 {
		note = fmt.Sprintf(" (offset %+d lines)", res.LineOffset)
	}
	if res.Fuzzy {
		note += " (fuzzy)"
	}
	if res.Deleted {
		note += " (file removed)"
	}
	c.Printf("%s: hunk %d %s%s\n", target, n, res.Status, note)
}

func applyCmd() *cobra.Command {
	var reverse bool
	cmd := &cobra.Command{
		Use:   "apply [diff-file]",
		Short: "Apply all hunks of a diff to their targets",
		Long: `Applies every hunk of the diff. The run is all-or-nothing: if any hunk
fails to locate, no target file is changed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readDiff(args)
			if err != nil {
				return err
			}
			doc, err := scanDiff(src)
			if err != nil {
				return err
			}
			applier := apply.New(fs.NewStore(viper.GetString("directory")), logger)
			batch, err := applier.ApplyAll(doc, reverse)
			if err != nil {
				return err
			}
			for i := range batch.Results {
				printResult(batch.Results[i].Target, i+1, &batch.Results[i])
			}
			if batch.Failures > 0 {
				return fmt.Errorf("%d hunks failed; no files changed", batch.Failures)
			}
			for si := range doc.Sections {
				sec := &doc.Sections[si]
				if len(sec.Hunks) == 0 {
					continue
				}
				added, removed := hunk.Stats(sec)
				fmt.Printf("%s: +%d -%d\n", sec.TargetPath(), added, removed)
			}
			fmt.Printf("patched %d file(s)\n", len(batch.Touched))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&reverse, "reverse", "R", false, "reverse-apply the diff")
	return cmd
}

func testCmd() *cobra.Command {
	var reverse bool
	cmd := &cobra.Command{
		Use:   "test [diff-file]",
		Short: "Dry-run: report where each hunk would apply",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readDiff(args)
			if err != nil {
				return err
			}
			doc, err := scanDiff(src)
			if err != nil {
				return err
			}
			store := fs.NewStore(viper.GetString("directory"))
			applier := apply.New(store, logger)
			failures := 0
			n := 0
			for si := range doc.Sections {
				sec := &doc.Sections[si]
				target := sec.TargetPath()
				text, err := store.Open(target)
				if err != nil {
					failColor.Printf("%s: %v\n", target, err)
					failures += len(sec.Hunks)
					n += len(sec.Hunks)
					continue
				}
				for hi := range sec.Hunks {
					n++
					res := applier.Test(&sec.Hunks[hi], target, text, reverse)
					printResult(target, n, res)
					if res.Status != diffedit.StatusApplied {
						failures++
					}
				}
			}
			if failures > 0 {
				return fmt.Errorf("%d hunks would fail", failures)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&reverse, "reverse", "R", false, "test reverse application")
	return cmd
}

// emit writes converted output to stdout or back to the input file.
func emit(cmd *cobra.Command, args []string, inPlace bool, out string) error {
	if inPlace {
		if len(args) == 0 || args[0] == "-" {
			return fmt.Errorf("--in-place requires a file argument")
		}
		return os.WriteFile(args[0], []byte(out), 0o644)
	}
	_, err := io.WriteString(cmd.OutOrStdout(), out)
	return err
}

func convertCmd() *cobra.Command {
	var to string
	var inPlace bool
	cmd := &cobra.Command{
		Use:   "convert [diff-file]",
		Short: "Convert a diff between the unified and context dialects",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readDiff(args)
			if err != nil {
				return err
			}
			var out string
			switch to {
			case "context":
				var reversible bool
				out, reversible, err = convert.UnifiedToContext(src)
				if err == nil && !reversible {
					warnColor.Fprintln(os.Stderr, "conversion is not reversible")
				}
			case "unified":
				out, err = convert.ContextToUnified(src)
			default:
				return fmt.Errorf("unknown target dialect %q", to)
			}
			if err != nil {
				return err
			}
			return emit(cmd, args, inPlace, out)
		},
	}
	cmd.Flags().StringVarP(&to, "to", "t", "unified", "target dialect: unified or context")
	cmd.Flags().BoolVarP(&inPlace, "in-place", "i", false, "rewrite the input file")
	return cmd
}

func reverseCmd() *cobra.Command {
	var inPlace bool
	cmd := &cobra.Command{
		Use:   "reverse [diff-file]",
		Short: "Swap the old and new sides of a diff",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readDiff(args)
			if err != nil {
				return err
			}
			out, err := convert.Reverse(src)
			if err != nil {
				return err
			}
			return emit(cmd, args, inPlace, out)
		},
	}
	cmd.Flags().BoolVarP(&inPlace, "in-place", "i", false, "rewrite the input file")
	return cmd
}

func fixupCmd() *cobra.Command {
	var inPlace bool
	cmd := &cobra.Command{
		Use:   "fixup [diff-file]",
		Short: "Recompute hunk header counts after hand edits",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readDiff(args)
			if err != nil {
				return err
			}
			out, err := hunk.Fixup(src, 0, len(src))
			if err != nil {
				return err
			}
			return emit(cmd, args, inPlace, out)
		},
	}
	cmd.Flags().BoolVarP(&inPlace, "in-place", "i", false, "rewrite the input file")
	return cmd
}

func refineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refine [diff-file]",
		Short: "Show sub-line changes within each hunk",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readDiff(args)
			if err != nil {
				return err
			}
			doc, err := scanDiff(src)
			if err != nil {
				return err
			}
			differ := worddiff.NewDiffer()
			changed := color.New(color.FgRed, color.Bold)
			n := 0
			for si := range doc.Sections {
				sec := &doc.Sections[si]
				for hi := range sec.Hunks {
					n++
					refs, err := refine.Hunk(&sec.Hunks[hi], differ)
					if err != nil {
						return err
					}
					fmt.Printf("%s: hunk %d\n", sec.TargetPath(), n)
					for _, r := range refs {
						printSegs("-", r.OldSegs, changed)
						printSegs("+", r.NewSegs, changed)
					}
				}
			}
			return nil
		},
	}
}

func printSegs(marker string, segs []diffedit.Segment, changed *color.Color) {
	if len(segs) == 0 {
		return
	}
	fmt.Print(marker, " ")
	for _, s := range segs {
		if s.Changed {
			changed.Print(s.Text)
		} else {
			fmt.Print(s.Text)
		}
	}
	fmt.Println()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
