package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/consultancysite/internal/services"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Upload images into the folder for a section",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUpload,
}

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "Inspect the upload audit log",
}

var uploadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the newest uploads",
	Args:  cobra.NoArgs,
	RunE:  runUploadsList,
}

var (
	uploadSection     string
	uploadConcurrency int
	listLimit         int
)

func init() {
	uploadCmd.Flags().StringVar(&uploadSection, "section", "", "Section the images belong to (testimonials, projects, logos)")
	uploadCmd.Flags().IntVar(&uploadConcurrency, "concurrency", 4, "Parallel uploads")
	uploadsListCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum records to show")

	uploadsCmd.AddCommand(uploadsListCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(uploadsCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	b, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	if b.uploader == nil {
		return errNoUploads
	}

	results := make([]*services.UploadResult, len(args))
	eg, gctx := errgroup.WithContext(cmd.Context())
	eg.SetLimit(max(uploadConcurrency, 1))
	for i, name := range args {
		i, name := i, name
		eg.Go(func() error {
			f, err := os.Open(name)
			if err != nil {
				return err
			}
			defer f.Close()
			res, err := b.uploader.Upload(gctx, services.UploadRequest{
				File:     f,
				Filename: filepath.Base(name),
				Section:  uploadSection,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			results[i] = res
			return nil
		})
	}
	err = eg.Wait()

	for i, res := range results {
		if res != nil {
			cmd.Printf("%s -> %s\n", args[i], res.URL)
		}
	}
	return err
}

func runUploadsList(cmd *cobra.Command, _ []string) error {
	b, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	if b.uploads == nil {
		return errNoUploads
	}

	recs, err := b.uploads.List(cmd.Context(), listLimit)
	if err != nil {
		return fmt.Errorf("failed to list uploads: %w", err)
	}
	if len(recs) == 0 {
		cmd.Println("No uploads recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UPLOADED\tPATH\tSECTION\tSIZE\tSOURCE")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.UploadedAt.Format("2006-01-02 15:04"), r.Path, r.Section, r.Size, r.Source)
	}
	return tw.Flush()
}
