package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kozaktomas/portfolio/internal/config"
	"github.com/kozaktomas/portfolio/internal/format"
	"github.com/kozaktomas/portfolio/internal/imageopt"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Image utilities",
}

var imageOptimizeCmd = &cobra.Command{
	Use:   "optimize <file> [file...]",
	Short: "Shrink images to the upload limit",
	Long: `Optimize images the same way the server does before storing them.

Files already under the limit are copied unchanged. Output files get the
extension of the chosen format (.webp or .jpg) and are written to --out.

Example:
  portfolio image optimize ./shots/*.png --out ./optimized
  portfolio image optimize cover.jpg --max-bytes 500000 --max-dimension 1600`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImageOptimize,
}

func init() {
	rootCmd.AddCommand(imageCmd)
	imageCmd.AddCommand(imageOptimizeCmd)

	imageOptimizeCmd.Flags().StringP("out", "o", ".", "Output directory")
	imageOptimizeCmd.Flags().Int("max-bytes", 0, "Size limit in bytes (default from config)")
	imageOptimizeCmd.Flags().Int("max-dimension", 0, "Longest side in pixels (default from config)")
	imageOptimizeCmd.Flags().Float64("min-quality", 0, "Lowest encoder quality, 0-1 (default from config)")
	imageOptimizeCmd.Flags().IntP("concurrency", "c", 2, "Images optimized in parallel")
}

func imageOptionsFromFlags(cmd *cobra.Command) imageopt.Options {
	opts := config.Load().Images
	if v := mustGetInt(cmd, "max-bytes"); v > 0 {
		opts.MaxBytes = int64(v)
		opts.TargetBytes = opts.MaxBytes * 24 / 25
	}
	if v := mustGetInt(cmd, "max-dimension"); v > 0 {
		opts.MaxDimension = v
	}
	if cmd.Flags().Changed("min-quality") {
		opts.MinQuality = imageopt.Quality(mustGetFloat64(cmd, "min-quality"))
	}
	return opts.WithDefaults()
}

func runImageOptimize(cmd *cobra.Command, args []string) error {
	outDir := mustGetString(cmd, "out")
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", outDir, err)
	}
	opts := imageOptionsFromFlags(cmd)
	optimizer := imageopt.New()

	bar := progressbar.NewOptions(len(args),
		progressbar.OptionSetDescription("Optimizing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	var (
		mu      sync.Mutex
		lines   []string
		failed  []string
		written int
	)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(1, mustGetInt(cmd, "concurrency")))
	for _, path := range args {
		g.Go(func() error {
			defer bar.Add(1)

			line, err := optimizeOne(ctx, optimizer, opts, path, outDir)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, fmt.Sprintf("%s: %s", path, err))
				return nil
			}
			lines = append(lines, line)
			written++
			return nil
		})
	}
	_ = g.Wait()
	fmt.Println()

	for _, line := range lines {
		fmt.Println(line)
	}
	for _, msg := range failed {
		errorColor.Printf("Failed: %s\n", msg)
	}

	if written == 0 {
		return errors.New("no images were optimized")
	}
	successColor.Printf("\n%d of %d image(s) written to %s\n", written, len(args), outDir)
	return nil
}

// optimizeOne writes the optimized copy of path and returns a summary line.
// Errors carry the user-facing message of the optimizer.
func optimizeOne(ctx context.Context, optimizer *imageopt.Optimizer, opts imageopt.Options, path, outDir string) (string, error) {
	file, err := imageopt.OpenFile(path)
	if err != nil {
		return "", err
	}

	res, err := optimizer.Optimize(ctx, file, opts)
	if err != nil {
		return "", errors.New(imageopt.UserMessage(err, file.Size(), opts.MaxBytes))
	}

	data, err := res.File.Bytes()
	if err != nil {
		return "", err
	}
	target := filepath.Join(outDir, res.File.Name)
	if err := os.WriteFile(target, data, 0o644); err != nil { //nolint:gosec // output images are public
		return "", fmt.Errorf("cannot write %s: %w", target, err)
	}

	if !res.WasOptimized {
		return fmt.Sprintf("%s: %s, unchanged", file.Name, format.ByteSize(res.OriginalBytes)), nil
	}
	return fmt.Sprintf("%s: %s -> %s (%dx%d %s)", file.Name,
		format.ByteSize(res.OriginalBytes), format.ByteSize(res.FinalBytes), res.Width, res.Height, res.MIMEType), nil
}
