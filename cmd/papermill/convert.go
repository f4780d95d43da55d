package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsawler/papermill"
	"github.com/tsawler/papermill/convert"
	"github.com/tsawler/papermill/format"
)

var convertCmd = &cobra.Command{
	Use:   "convert --to KIND [files...]",
	Short: "Convert documents between formats",
	Long: `Convert runs one conversion over the given input files.

Most conversions take a single input file; images-to-pdf accepts
several and assembles them in argument order. When the conversion
produces more than one artifact the output file is a ZIP archive.

Supported kinds:
  pdf-to-docx    pdf-to-xlsx   pdf-to-pptx   pdf-to-images
  pdf-to-text    pdf-to-html   pdf-to-xml
  images-to-pdf  office-to-pdf html-to-pdf   text-to-pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("to")
		out, _ := cmd.Flags().GetString("out")
		pages, _ := cmd.Flags().GetString("pages")
		dpi, _ := cmd.Flags().GetInt("dpi")
		imgFormat, _ := cmd.Flags().GetString("image-format")
		pageSize, _ := cmd.Flags().GetString("page-size")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		if kind == "" {
			return fmt.Errorf("--to is required")
		}

		var files []convert.NamedFile
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			files = append(files, convert.NamedFile{Name: path, Data: data})
		}
		input := papermill.FileInput(files[0].Name, files[0].Data)
		input.Files = files

		opts := convert.Options{DPI: dpi, Pages: pages, PageSize: pageSize}
		switch imgFormat {
		case "", "png":
		case "jpeg", "jpg":
			opts.ImageFormat = format.JPEG
		default:
			return fmt.Errorf("unsupported image format %q", imgFormat)
		}

		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		eng := papermill.New()
		res, err := eng.Convert(ctx, papermill.Request{
			Kind:    convert.Kind(kind),
			Input:   input,
			Options: opts,
		})
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}

		if out == "" {
			out = res.Files[0].Name
			if len(res.Files) > 1 {
				out = "output.zip"
			}
		}
		if err := res.WriteToFile(out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s (%s)\n", out, res.PackagedMIME())
		return nil
	},
}

func init() {
	convertCmd.Flags().String("to", "", "conversion kind, e.g. pdf-to-docx")
	convertCmd.Flags().String("out", "", "output path (default: derived from the input name)")
	convertCmd.Flags().String("pages", "", "1-based page range, e.g. 1-3,7")
	convertCmd.Flags().Int("dpi", 0, "rasterization resolution (default 150)")
	convertCmd.Flags().String("image-format", "", "raster output format: png or jpeg")
	convertCmd.Flags().String("page-size", "", "page size for text-to-pdf: letter or a4")
	convertCmd.Flags().Duration("timeout", 2*time.Minute, "overall conversion timeout")

	rootCmd.AddCommand(convertCmd)
}
