package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/comigor/jack-go/internal/pdf"
)

var flagOutput string

func init() {
	rootCmd.AddCommand(pdfCmd)

	pdfCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "copy the PDF to this file instead of keeping the temporary copy")
}

var pdfCmd = &cobra.Command{
	Use:   "pdf [resource-id]",
	Short: "Download the PDF behind a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := pdf.NewLoader(client, cfg.Resources)
		if err != nil {
			return err
		}
		h, err := loader.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		summary := fmt.Sprintf("%s, %d pages", humanize.Bytes(uint64(h.Size)), h.Pages)

		if flagOutput == "" {
			fmt.Fprintf(out, "%s (%s)\n", h.URL(), summary)
			return nil
		}
		defer h.Release()
		if err := copyFile(h.Path, flagOutput); err != nil {
			return fmt.Errorf("save %s: %w", flagOutput, err)
		}
		fmt.Fprintf(out, "saved %s (%s)\n", flagOutput, summary)
		return nil
	},
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
