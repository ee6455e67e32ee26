package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/sragent/internal/records"
	"github.com/pdiddy/sragent/pkg/types"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect stored resolution history",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored resolutions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		results, err := store.List(limit)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No stored resolutions.")
			return nil
		}

		fmt.Printf("%-20s  %-18s  %-8s  %-20s  %s\n", "When", "Input", "Target", "Status", "Records")
		for _, r := range results {
			fmt.Printf("%-20s  %-18s  %-8s  %-20s  %d\n",
				r.Timestamp.Format("2006-01-02 15:04:05"),
				r.Request.Input,
				targetString(r.Request.Target),
				r.Status,
				len(r.Records))
		}
		return nil
	},
}

var recordsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored resolutions as YAML to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		results, err := store.List(0)
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(results)
	},
}

func openStore(cmd *cobra.Command) (*records.Store, error) {
	dir, _ := cmd.Flags().GetString("records-dir")
	if dir == "" {
		dir = viper.GetString("records.dir")
	}
	return records.Open(types.RecordsConfig{Dir: dir})
}

func targetString(ns types.Namespace) string {
	if ns == types.NamespaceUnknown {
		return "any"
	}
	return string(ns)
}

func init() {
	recordsCmd.PersistentFlags().String("records-dir", "", "records store directory (default .sragent)")
	recordsListCmd.Flags().Int("limit", 20, "maximum resolutions to list (0 = all)")

	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsExportCmd)
	rootCmd.AddCommand(recordsCmd)
}
