// cmd/listen.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/govad/internal/audio"
	"github.com/ColonelBlimp/govad/internal/pipeline"
	"github.com/ColonelBlimp/govad/internal/segment"
	"github.com/ColonelBlimp/govad/internal/vad"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Detect speech from a capture device until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runListen,
}

func runListen(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	det, err := vad.New(settings.SampleRate, settings.VADMode())
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
	seg.SetCallback(func(e segment.Event) {
		if e.Start {
			fmt.Fprintf(out, "speech start %.3f\n", e.Offset.Seconds())
		} else {
			fmt.Fprintf(out, "speech end %.3f %.3f\n", e.Offset.Seconds(), e.Duration.Seconds())
		}
	})

	capture := audio.New(audio.Config{
		DeviceIndex: settings.DeviceIndex,
		SampleRate:  uint32(settings.SampleRate),
		FrameLength: uint32(settings.FrameLength()),
	})
	defer capture.Close()

	if err := capture.Init(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	if err := capture.Start(ctx); err != nil {
		return fmt.Errorf("audio: %w", err)
	}

	logger.Info("listening",
		"device", settings.DeviceIndex,
		"sample_rate", settings.SampleRate,
		"frame_ms", settings.FrameMs,
		"mode", settings.VADMode().String())

	sum, err := pipeline.New(det, seg, logger).Run(ctx, pipeline.NewChannelSource(ctx, capture.Frames))
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if n := capture.Dropped(); n > 0 {
		logger.Warn("frames dropped", "count", n)
	}

	printSegments(out, sum)
	return nil
}
