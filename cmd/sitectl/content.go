package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
	"github.com/Lllllllleong/consultancysite/internal/auth"
	"github.com/Lllllllleong/consultancysite/internal/editor"
	"github.com/Lllllllleong/consultancysite/internal/models"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Read and write the content document",
}

var contentGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the stored document",
	Args:  cobra.NoArgs,
	RunE:  runContentGet,
}

var contentPutCmd = &cobra.Command{
	Use:   "put [file]",
	Short: "Replace the stored document with a JSON or YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runContentPut,
}

var contentSetCmd = &cobra.Command{
	Use:   "set [path] [value]",
	Short: "Edit one field and save, e.g. set hero.title \"Hello\"",
	Long: `Opens an editor session, applies one edit and saves the whole document.
Paths are dotted: hero.title, services.items.0.description,
projects.items.2.testimonial.quote. List fields take comma separated values.`,
	Args: cobra.ExactArgs(2),
	RunE: runContentSet,
}

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Write the bundled document, or the given file, to the store",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSeed,
}

var (
	getAsYAML bool
	seedForce bool
)

func init() {
	contentGetCmd.Flags().BoolVar(&getAsYAML, "yaml", false, "Print YAML instead of JSON")
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "Overwrite existing content")

	contentCmd.AddCommand(contentGetCmd)
	contentCmd.AddCommand(contentPutCmd)
	contentCmd.AddCommand(contentSetCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(seedCmd)
}

// readDocumentFile decodes YAML for .yaml/.yml files and JSON otherwise.
func readDocumentFile(path string) (*models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return models.DecodeYAML(data)
	default:
		return models.DecodeDocument(data)
	}
}

func runContentGet(cmd *cobra.Command, _ []string) error {
	b, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	doc, err := b.content.Read(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	if getAsYAML {
		out, err := models.EncodeYAML(doc)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func runContentPut(cmd *cobra.Command, args []string) error {
	doc, err := readDocumentFile(args[0])
	if err != nil {
		return err
	}
	b, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	ack, err := b.content.Save(cmd.Context(), doc)
	if err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	cmd.Printf("%s at %s\n", ack.Message, ack.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runContentSet(cmd *cobra.Command, args []string) error {
	p, err := editor.ParsePath(args[0])
	if err != nil {
		return err
	}
	if err := cfg.ValidateAdmin(); err != nil {
		return err
	}
	b, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	sess := editor.NewSession(auth.NewGate(cfg.AdminPassword), b.content)
	defer sess.Close()
	if err := sess.Authenticate(cmd.Context(), cfg.AdminPassword); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	if err := sess.Set(p, args[1]); err != nil {
		return err
	}
	if err := sess.Save(cmd.Context()); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	cmd.Printf("Set %s\n", p)
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	var (
		doc *models.Document
		err error
	)
	if len(args) == 1 {
		doc, err = readDocumentFile(args[0])
	} else {
		doc, err = models.DefaultDocument()
	}
	if err != nil {
		return err
	}

	b, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	if !seedForce {
		_, err := b.content.Read(cmd.Context())
		switch {
		case err == nil:
			return errors.New("content already exists; pass --force to overwrite it")
		case !errors.Is(err, apperr.ErrNotFound):
			return fmt.Errorf("failed to check existing content: %w", err)
		}
	}
	ack, err := b.content.Save(cmd.Context(), doc)
	if err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	cmd.Printf("Seeded content at %s\n", ack.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
