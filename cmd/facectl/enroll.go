package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facematch/internal/face"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <employee_id> <image>",
	Short: "Enroll the largest face in an image, replacing any previous enrollment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnroll(cmd.Context(), comps, cmd.OutOrStdout(), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(ctx context.Context, c *face.Components, out io.Writer, key, path string) error {
	data, err := readImageFile(c, path)
	if err != nil {
		return err
	}

	detection, err := c.Service.Register(ctx, key, data)
	if err != nil {
		return err
	}
	c.Archive.SaveBestEffort(key, data)

	box := detection.BoundingBox.Corners()
	fmt.Fprintf(out, "enrolled %s (confidence %.3f, bbox %.0f,%.0f,%.0f,%.0f)\n",
		key, detection.Confidence, box[0], box[1], box[2], box[3])
	return nil
}

// readImageFile loads path and applies the same checks as an upload
func readImageFile(c *face.Components, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if _, err := c.Limits.Validate(data, ""); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}
