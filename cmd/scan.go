// cmd/scan.go
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/govad/internal/pipeline"
	"github.com/ColonelBlimp/govad/internal/segment"
	"github.com/ColonelBlimp/govad/internal/vad"
	"github.com/ColonelBlimp/govad/internal/wavfile"
)

var scanFrames bool

var scanCmd = &cobra.Command{
	Use:   "scan FILE.wav",
	Short: "Detect speech segments in a mono 16-bit WAV file",
	Long: `Scan classifies every frame of a WAV file and prints the speech segments.
The file's own sample rate is used; --sample-rate is ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanFrames, "frames", false, "print the decision for every frame")
}

func runScan(cmd *cobra.Command, args []string) error {
	r, err := wavfile.Open(args[0], settings.FrameMs)
	if err != nil {
		return err
	}
	defer r.Close()

	info := r.Info()
	if info.SampleRate != settings.Rate() {
		logger.Debug("using file sample rate", "file", info.SampleRate.Hz(), "configured", settings.SampleRate)
	}

	det, err := vad.New(info.SampleRate.Hz(), settings.VADMode())
	if err != nil {
		return err
	}
	defer det.Close()

	seg, err := segment.NewSegmenter(segment.Config{
		FrameDuration: settings.FrameDuration(),
		StartFrames:   settings.StartFrames,
		EndFrames:     settings.EndFrames,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	p := pipeline.New(det, seg, logger)
	if scanFrames {
		p.OnFrame(func(res pipeline.Result) {
			fmt.Fprintf(out, "frame %d %.3f %d\n", res.Index, res.Offset.Seconds(), boolToInt(res.Voice))
		})
	}

	logger.Info("scanning",
		"file", args[0],
		"sample_rate", info.SampleRate.Hz(),
		"frame_length", info.FrameLength,
		"mode", settings.VADMode().String(),
		"duration", info.Duration)

	sum, err := p.Run(cmd.Context(), r)
	if err != nil {
		return fmt.Errorf("scan %s: %w", args[0], err)
	}
	if n := r.Dropped(); n > 0 {
		logger.Debug("dropped trailing samples", "samples", n)
	}

	printSegments(out, sum)
	return nil
}

func printSegments(w io.Writer, sum pipeline.Summary) {
	for i, s := range sum.Segments {
		fmt.Fprintf(w, "segment %d %.3f %.3f %.3f\n", i+1, s.Start.Seconds(), s.End.Seconds(), s.Duration().Seconds())
	}
	fmt.Fprintf(w, "frames %d voice %d ratio %.3f segments %d\n",
		sum.Frames, sum.VoiceFrames, sum.VoiceRatio(), len(sum.Segments))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
