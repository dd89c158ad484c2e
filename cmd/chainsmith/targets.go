package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rahul/chainsmith/internal/catalog"
	"github.com/rahul/chainsmith/pkg/config"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List known targets and the saved comparison selection",
	RunE:  runTargetsList,
}

var targetsSelectCmd = &cobra.Command{
	Use:   "select [target...]",
	Short: "Replace the saved comparison selection",
	RunE:  runTargetsSelect,
}

func init() {
	targetsCmd.AddCommand(targetsSelectCmd)
}

func loadCatalog() (*config.Config, *catalog.Catalog, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.Load(cfg.App.Catalog)
	return cfg, cat, err
}

func runTargetsList(cmd *cobra.Command, args []string) error {
	cfg, cat, err := loadCatalog()
	if err != nil {
		return err
	}
	sel, err := openSelection(cfg)
	if err != nil {
		return err
	}
	defer sel.Close()

	selected := map[string]bool{}
	ids, err := sel.Load()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	for _, id := range ids {
		selected[id] = true
	}

	for _, id := range cat.IDs() {
		mark := " "
		if selected[id] {
			mark = "x"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", mark, id)
	}
	return nil
}

func runTargetsSelect(cmd *cobra.Command, args []string) error {
	cfg, cat, err := loadCatalog()
	if err != nil {
		return err
	}
	if err := cat.Validate(args); err != nil {
		return err
	}
	sel, err := openSelection(cfg)
	if err != nil {
		return err
	}
	defer sel.Close()
	return sel.Save(cat.Order(args))
}
