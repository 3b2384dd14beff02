package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"valvx/internal/domain/models"
	"valvx/internal/repository/postgres"
	"valvx/internal/service/library"
	"valvx/internal/storage"
)

const formatFlag = "format"

var foldersFlags = map[string]cobraflags.Flag{
	formatFlag: &cobraflags.StringFlag{
		Name:  formatFlag,
		Value: "text",
		Usage: "Output format (text, json)",
	},
}

func newFoldersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "Print the folder tree with its PDFs",
		RunE:  printFolders,
	}
	cobraflags.RegisterMap(cmd, foldersFlags)
	return cmd
}

func printFolders(cmd *cobra.Command, _ []string) error {
	format := foldersFlags[formatFlag].GetString()
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}

	ctx := cmd.Context()
	e, closeEnv, err := openEnv(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeEnv()

	repoConfig := &postgres.RepositoryConfig{Pool: e.pool, Logger: e.logger}
	folders, err := postgres.NewFolderRepository(repoConfig).List(ctx)
	if err != nil {
		return err
	}
	pdfs, err := postgres.NewPDFRepository(repoConfig).List(ctx, nil)
	if err != nil {
		return err
	}

	store, err := storage.NewDiskStore(e.cfg.UploadDir)
	if err != nil {
		return err
	}
	tree := library.BuildTree(folders, pdfs, store.PublicURL)

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	}
	writeTree(cmd.OutOrStdout(), tree)
	return nil
}

// writeTree renders the tree as an indented outline.
func writeTree(w io.Writer, tree *models.Tree) {
	var walk func(nodes []*models.FolderTreeNode)
	walk = func(nodes []*models.FolderTreeNode) {
		for _, n := range nodes {
			indent := strings.Repeat("  ", n.Level)
			fmt.Fprintf(w, "%s%s/  (id %d)\n", indent, n.Name, n.ID)
			for _, f := range n.Files {
				fmt.Fprintf(w, "%s  - %s  [%s v%d]\n", indent, f.DisplayName, f.UniqueID, f.Version)
			}
			walk(n.Children)
		}
	}
	walk(tree.Folders)
	for _, f := range tree.Files {
		fmt.Fprintf(w, "- %s  [%s v%d]\n", f.DisplayName, f.UniqueID, f.Version)
	}
}
