package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facematch/internal/face"
)

var importConcurrency int

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Enroll every image in a directory, using the file name without extension as employee_id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context(), comps, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], importConcurrency)
	},
}

func init() {
	importCmd.Flags().IntVarP(&importConcurrency, "concurrency", "c", 4, "Number of images enrolled in parallel")
	rootCmd.AddCommand(importCmd)
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".bmp":  true,
}

type importFailure struct {
	path string
	err  error
}

func runImport(ctx context.Context, c *face.Components, out, progress io.Writer, dir string, concurrency int) error {
	paths, err := listImages(dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintf(out, "No images found in %s.\n", dir)
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("Enrolling faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)

	var (
		mu       sync.Mutex
		enrolled int
		failures []importFailure
		wg       sync.WaitGroup
	)
	sem := make(chan struct{}, concurrency)

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()

			key := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			err := enrollFile(ctx, c, key, path)

			mu.Lock()
			if err != nil {
				failures = append(failures, importFailure{path: path, err: err})
			} else {
				enrolled++
			}
			mu.Unlock()
			_ = bar.Add(1)
		}(path)
	}
	wg.Wait()
	_ = bar.Finish()

	fmt.Fprintf(out, "\nenrolled %d of %d images\n", enrolled, len(paths))
	sort.Slice(failures, func(i, j int) bool { return failures[i].path < failures[j].path })
	for _, f := range failures {
		fmt.Fprintf(out, "  %s: %v\n", filepath.Base(f.path), f.err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d images failed", len(failures), len(paths))
	}
	return nil
}

func enrollFile(ctx context.Context, c *face.Components, key, path string) error {
	data, err := readImageFile(c, path)
	if err != nil {
		return err
	}
	if _, err := c.Service.Register(ctx, key, data); err != nil {
		return err
	}
	c.Archive.SaveBestEffort(key, data)
	return nil
}

// listImages returns the image files directly inside dir, sorted by name
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}
