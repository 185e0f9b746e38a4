package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/face"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Identify the largest face in an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecognize(cmd.Context(), comps, cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
}

func runRecognize(ctx context.Context, c *face.Components, out io.Writer, path string) error {
	data, err := readImageFile(c, path)
	if err != nil {
		return err
	}

	result, err := c.Service.Recognize(ctx, data)
	if errors.Is(err, domain.ErrNoFaceDetected) {
		fmt.Fprintln(out, "no face detected")
		return nil
	}
	if err != nil {
		return err
	}

	if !result.IsMatch {
		fmt.Fprintf(out, "no match (best similarity %.4f, threshold %.2f)\n", result.Score, c.Service.Threshold())
		return nil
	}

	fmt.Fprintf(out, "%s (similarity %.4f)\n", result.IdentityKey, result.Score)
	return nil
}
