package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/anonsetup/internal/snapshot"
)

// NewSnapshotCmd creates the snapshot command group.
func NewSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect and manage pre-transaction snapshots",
		Long: `Snapshot manages the host state captures that every transaction takes
before its first step. List shows what can be rolled back to, create
captures the current state outside any transaction, and restore rolls
the watched files and package selections back to a stored snapshot.`,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Configuration file path (default: /etc/anonsetup.yaml, then XDG locations)")

	cmd.AddCommand(newSnapshotListCmd())
	cmd.AddCommand(newSnapshotCreateCmd())
	cmd.AddCommand(newSnapshotRestoreCmd())

	return cmd
}

// openStore builds the snapshot store from the resolved configuration.
func openStore(cmd *cobra.Command) (*snapshot.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	return snapshot.New(cfg.Snapshot.Dir, cfg.WatchedFiles, snapshot.WithLogger(logger)), nil
}

// newSnapshotListCmd creates the snapshot list subcommand.
func newSnapshotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE:  runSnapshotListCmd,
	}
}

// runSnapshotListCmd executes the snapshot list subcommand.
func runSnapshotListCmd(cmd *cobra.Command, _ []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	snapshots, err := store.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(snapshots) == 0 {
		fmt.Fprintln(out, "No snapshots found.")
		return nil
	}

	fmt.Fprintf(out, "%-26s %-20s %6s %9s\n", "ID", "CREATED", "FILES", "PACKAGES")
	for _, snap := range snapshots {
		fmt.Fprintf(out, "%-26s %-20s %6d %9d\n",
			snap.ID, snap.CreatedAt.Format("2006-01-02 15:04:05"), snap.Files, snap.Packages)
	}
	return nil
}

// newSnapshotCreateCmd creates the snapshot create subcommand.
func newSnapshotCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Capture the watched files and package selections now",
		Long: `Create takes a snapshot outside any transaction, for example before
editing the watched files by hand. Transactions take their own
snapshots automatically.`,
		Args: cobra.NoArgs,
		RunE: runSnapshotCreateCmd,
	}
}

// runSnapshotCreateCmd executes the snapshot create subcommand.
func runSnapshotCreateCmd(cmd *cobra.Command, _ []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	snap, err := store.Create(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created snapshot %s (%d files, %d package selections)\n",
		snap.ID, snap.Files, snap.Packages)
	return nil
}

// newSnapshotRestoreCmd creates the snapshot restore subcommand.
func newSnapshotRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore [id]",
		Short: "Roll the host back to a stored snapshot",
		Long: `Restore rewrites every file recorded in the snapshot, reapplies the
captured package selections and restarts the services those files
belong to. Without an ID, or with the literal "latest", the most
recent snapshot is used.

Examples:
  # Roll back to the most recent snapshot
  anonsetup snapshot restore

  # Roll back to a specific snapshot without the confirmation prompt
  anonsetup snapshot restore 20240117-093015.123456789 --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSnapshotRestoreCmd,
	}

	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// runSnapshotRestoreCmd executes the snapshot restore subcommand.
func runSnapshotRestoreCmd(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return err
	}

	id := "latest"
	if len(args) == 1 {
		id = args[0]
	}
	if id == "latest" {
		latest, err := store.Latest()
		if err != nil {
			return err
		}
		id = latest.ID
	}

	if !yes && !confirmRestore(cmd.InOrStdin(), cmd.OutOrStdout(), id) {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	if err := store.Restore(cmd.Context(), id); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Restored snapshot %s\n", id)
	return nil
}

// confirmRestore asks for confirmation before a restore touches the
// host. Only "y" or "yes" proceeds; EOF counts as no.
func confirmRestore(in io.Reader, out io.Writer, id string) bool {
	fmt.Fprintf(out, "Restore snapshot %s? This rewrites the watched files and package selections. [y/N]: ", id)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
