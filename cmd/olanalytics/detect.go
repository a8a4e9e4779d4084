package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/OctaveLauby/olanalytics/internal/detect"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errNoValues = errors.New("input holds no values")

type detectFlags struct {
	input  string
	output string
}

// sequenceFile is the JSON accepted by every detect subcommand: either a bare
// array of numbers or an object with y (or values) and an optional x.
type sequenceFile struct {
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	Values []float64 `json:"values"`
}

type regionOut struct {
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
	Level string `json:"level" yaml:"level"`
}

func newDetectCmd() *cobra.Command {
	flags := &detectFlags{}
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Run one detection over a JSON sequence read from a file or stdin",
	}
	cmd.PersistentFlags().StringVarP(&flags.input, "input", "i", "-", "input file, - for stdin")
	cmd.PersistentFlags().StringVarP(&flags.output, "output", "o", "json", "output format: json or yaml")

	cmd.AddCommand(
		newGroupCmd(flags),
		newBoundsCmd(flags),
		newLinearizeCmd(flags),
		newElbowCmd(flags),
		newIsoCmd(flags),
		newLeapCmd(flags),
	)
	return cmd
}

func newGroupCmd(flags *detectFlags) *cobra.Command {
	var step float64
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Group step-consecutive values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seq, err := readSequence(cmd, flags)
			if err != nil {
				return err
			}
			return writeResult(cmd, flags, map[string]any{
				"groups": detect.GroupConsecutives(seq.Y, step),
			})
		},
	}
	cmd.Flags().Float64Var(&step, "step", 1, "difference between consecutive members of a group")
	return cmd
}

func newBoundsCmd(flags *detectFlags) *cobra.Command {
	var (
		bot, top float64
		mode     string
	)
	cmd := &cobra.Command{
		Use:   "bounds",
		Short: "Cut the sequence into regions below, within or above a threshold pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seq, err := readSequence(cmd, flags)
			if err != nil {
				return err
			}

			var regions []detect.Region
			switch mode {
			case "value":
				regions, err = detect.Regions(seq.Y, bot, top)
			case "step":
				regions, err = detect.StepRegions(seq.Y, bot, top)
			default:
				return fmt.Errorf("unknown mode %q: want value or step", mode)
			}
			if err != nil {
				return err
			}

			boundaries := make([]int, 0, len(regions))
			out := make([]regionOut, len(regions))
			for i, r := range regions {
				if i > 0 {
					boundaries = append(boundaries, r.Start)
				}
				out[i] = regionOut{Start: r.Start, End: r.End, Level: string(r.Level)}
			}
			return writeResult(cmd, flags, map[string]any{
				"boundaries": boundaries,
				"regions":    out,
			})
		},
	}
	cmd.Flags().Float64Var(&bot, "bot", 0, "lower threshold, ignored when not positive")
	cmd.Flags().Float64Var(&top, "top", detect.Unbounded, "upper threshold")
	cmd.Flags().StringVar(&mode, "mode", "value", "value or step")
	return cmd
}

func newLinearizeCmd(flags *detectFlags) *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "linearize",
		Short: "Approximate the sequence by one or two straight segments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seq, err := readSequence(cmd, flags)
			if err != nil {
				return err
			}
			return writeResult(cmd, flags, map[string]any{
				"values": detect.Linearize(seq.Y, index),
			})
		},
	}
	cmd.Flags().IntVar(&index, "index", detect.NoSplit, "split index, out-of-range values give a single segment")
	return cmd
}

func newElbowCmd(flags *detectFlags) *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "elbow",
		Short: "Locate the elbow of the sequence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := detect.ParseElbowMethod(method)
			if err != nil {
				return err
			}
			seq, err := readSequence(cmd, flags)
			if err != nil {
				return err
			}
			index, err := detect.DetectElbow(seq.Y, m)
			if err != nil {
				return err
			}
			return writeResult(cmd, flags, map[string]any{"index": index, "method": string(m)})
		},
	}
	cmd.Flags().StringVar(&method, "method", string(detect.SingleLine), "singleline or doubleline")
	return cmd
}

func newIsoCmd(flags *detectFlags) *cobra.Command {
	var deltaR, level, percentile float64
	cmd := &cobra.Command{
		Use:   "iso",
		Short: "Find isolated points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seq, err := readSequence(cmd, flags)
			if err != nil {
				return err
			}

			var ref detect.LevelReference
			switch {
			case cmd.Flags().Changed("level") && cmd.Flags().Changed("percentile"):
				return errors.New("--level and --percentile are mutually exclusive")
			case cmd.Flags().Changed("level"):
				ref = detect.LiteralLevel(level)
			case cmd.Flags().Changed("percentile"):
				ref = detect.PercentileLevel(percentile)
			}

			indexes, err := detect.DetectIso(seq.Y, deltaR, ref)
			if err != nil {
				return err
			}
			return writeResult(cmd, flags, map[string]any{"indexes": indexes})
		},
	}
	cmd.Flags().Float64Var(&deltaR, "delta-r", detect.DefaultDeltaR, "minimum relative deviation from both neighbours")
	cmd.Flags().Float64Var(&level, "level", 0, "reference level")
	cmd.Flags().Float64Var(&percentile, "percentile", 90, "reference level as a percentile of the values")
	return cmd
}

func newLeapCmd(flags *detectFlags) *cobra.Command {
	var threshold, levelThreshold, onspan, fading float64
	cmd := &cobra.Command{
		Use:   "leap",
		Short: "Find level shifts between consecutive samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seq, err := readSequence(cmd, flags)
			if err != nil {
				return err
			}

			opts := detect.LeapOptions{OnSpan: onspan, FadingWeight: fading}
			if cmd.Flags().Changed("level-threshold") {
				opts.LevelThreshold = &levelThreshold
			}
			x := seq.X
			if x == nil && onspan > 0 {
				x = positions(len(seq.Y))
			}

			indexes, err := detect.DetectLeap(x, seq.Y, threshold, opts)
			if err != nil {
				return err
			}
			return writeResult(cmd, flags, map[string]any{
				"indexes": indexes,
				"leaps":   detect.DescribeLeaps(seq.Y, indexes),
			})
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "minimum rise, or maximum fall when negative")
	cmd.Flags().Float64Var(&levelThreshold, "level-threshold", 0, "bound on the value right after the leap")
	cmd.Flags().Float64Var(&onspan, "onspan", 0, "confirmation window on the x axis, 0 disables")
	cmd.Flags().Float64Var(&fading, "fading", 0, "fading weight in [0, 1] for the confirmation window")
	_ = cmd.MarkFlagRequired("threshold")
	return cmd
}

func readSequence(cmd *cobra.Command, flags *detectFlags) (sequenceFile, error) {
	var r io.Reader = cmd.InOrStdin()
	if flags.input != "" && flags.input != "-" {
		f, err := os.Open(flags.input)
		if err != nil {
			return sequenceFile{}, err
		}
		defer f.Close()
		r = f
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return sequenceFile{}, fmt.Errorf("read input: %w", err)
	}
	raw = bytes.TrimSpace(raw)

	var seq sequenceFile
	if bytes.HasPrefix(raw, []byte("[")) {
		err = json.Unmarshal(raw, &seq.Y)
	} else {
		err = json.Unmarshal(raw, &seq)
	}
	if err != nil {
		return sequenceFile{}, fmt.Errorf("decode input: %w", err)
	}

	if seq.Y == nil {
		seq.Y = seq.Values
	}
	if seq.Y == nil {
		return sequenceFile{}, errNoValues
	}
	if seq.X != nil && len(seq.X) != len(seq.Y) {
		return sequenceFile{}, detect.ErrLengthMismatch
	}
	return seq, nil
}

func writeResult(cmd *cobra.Command, flags *detectFlags, result map[string]any) error {
	w := cmd.OutOrStdout()
	switch strings.ToLower(flags.output) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q: want json or yaml", flags.output)
	}
}

func positions(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}
