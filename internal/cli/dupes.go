package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openkin/arbor/internal/config"
	"github.com/openkin/arbor/internal/dedupe"
	"github.com/openkin/arbor/internal/store"
)

var dupesCmd = &cobra.Command{
	Use:   "dupes <tree-id>",
	Short: "Scan a tree for likely duplicate members",
	Args:  cobra.ExactArgs(1),
	RunE:  runDupes,
}

func runDupes(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return err
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	members, err := db.ListMembers(args[0])
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}

	pairs := dedupe.ScanMembers(members, cfg.Dedupe)
	if len(pairs) == 0 {
		fmt.Fprintln(os.Stderr, "no likely duplicates found")
		return nil
	}

	for _, p := range pairs {
		fmt.Printf("%.2f  [%s]  %s (%s)  <->  %s (%s)\n",
			p.Score, p.Severity, p.A.FullName(), p.A.ID, p.B.FullName(), p.B.ID)
	}
	return nil
}
