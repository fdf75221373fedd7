package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fscat/internal/app"
	"fscat/internal/catalog"
	"fscat/internal/config"
	"fscat/internal/database"
	"fscat/internal/encryption"
	"fscat/internal/fs"
	"fscat/internal/globfilter"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func readConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// newApp reads the config and creates a CatalogApp. The caller must defer app.Close().
func newApp(operation string, args []string, create bool) (*app.CatalogApp, error) {
	cfg, _, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewCatalogApp(cfg, app.Options{
		Operation:      operation,
		Parameters:     strings.Join(args, " "),
		CreateDatabase: create,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// readPassphrase prompts on the terminal without echo.
func readPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("a terminal is required to read the passphrase")
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

// confirm asks a yes/no question on the terminal. Without a terminal it declines.
func confirm(title, affirmative, negative string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative(affirmative).
		Negative(negative).
		Value(&ok).
		Run()
	return err == nil && ok
}

// confirmOverlap asks before cataloguing a path twice.
func confirmOverlap(existing []*catalog.Collection) bool {
	names := make([]string, len(existing))
	for i, c := range existing {
		names[i] = c.Name
	}
	return confirm(
		fmt.Sprintf("%s is already catalogued as %s. Add it again?", existing[0].Path, strings.Join(names, ", ")),
		"Add", "Abort")
}

var rootCmd = &cobra.Command{
	Use:          "fscat",
	Short:        "Filesystem catalog",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		catalogID := uuid.New().String()
		cfg := config.NewConfig(catalogID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Catalog ID: %s\n", catalogID)
		fmt.Printf("Base Dir:   %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := readConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Catalog ID:  %s\n", cfg.CatalogID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Database:    %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Snapshot:    %s\n", cfg.Snapshot.Type)
		fmt.Printf("Encryption:  %s\n", cfg.Encryption.Type)
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Generate the snapshot encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := readConfig()
		if err != nil {
			return err
		}
		enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
		if err != nil {
			return err
		}
		if enc == nil {
			return errors.New("encryption is disabled in the config")
		}

		pass, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		again, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if pass != again {
			return errors.New("passphrases do not match")
		}
		if err := enc.Setup(pass); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}
		fmt.Printf("Keys written to %s and %s\n", cfg.Encryption.PublicKeyPath, cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

var configSnapshotCheckCmd = &cobra.Command{
	Use:   "check-snapshot",
	Short: "Verify the snapshot store is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := readConfig()
		if err != nil {
			return err
		}
		return checkSnapshotStore(cfg)
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the catalog database",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the catalog database",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("init", args, true)
		if err != nil {
			return err
		}
		if err := a.Close(); err != nil {
			return err
		}
		fmt.Println("Catalog ready.")
		return nil
	},
}

// collection commands
var addCmd = &cobra.Command{
	Use:   "add NAME PATH",
	Short: "Catalogue a directory tree as a new collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filterName, _ := cmd.Flags().GetString("filter")
		yes, _ := cmd.Flags().GetBool("yes")
		verbose, _ := cmd.Flags().GetBool("verbose")

		a, err := newApp("add", args, false)
		if err != nil {
			return err
		}
		defer a.Close()

		confirm := catalog.ConfirmOverlap(confirmOverlap)
		if yes {
			confirm = func([]*catalog.Collection) bool { return true }
		}

		var count int
		c, err := a.AddCollection(args[0], args[1], filterName, confirm, func(e *catalog.DirEntry) {
			count++
			if verbose {
				fmt.Println(e.Name)
			}
		})
		if err != nil {
			return err
		}

		fmt.Printf("Collection %s created at %s (%d entries)\n", c.Name, c.Path, count)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("list", args, false)
		if err != nil {
			return err
		}
		defer a.Close()

		cs, err := a.ListCollections()
		if err != nil {
			return err
		}
		if len(cs) == 0 {
			fmt.Println("No collections.")
			return nil
		}
		printCollections(os.Stdout, cs)
		return nil
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree NAME",
	Short: "Show the catalogued tree of a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxDepth, _ := cmd.Flags().GetInt("depth")

		a, err := newApp("tree", args, false)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.WalkCollection(args[0], func(depth int, e *catalog.DirEntry) error {
			if maxDepth >= 0 && depth > maxDepth {
				return nil
			}
			fmt.Println(formatTreeLine(depth, e))
			return nil
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a collection and its entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm(fmt.Sprintf("Remove collection %s from the catalog?", args[0]), "Remove", "Keep") {
			return catalog.ErrAborted
		}

		a, err := newApp("remove", args, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RemoveCollection(args[0]); err != nil {
			return err
		}
		fmt.Printf("Collection %s removed\n", args[0])
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync NAME",
	Short: "Bring a collection up to date with the filesystem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")

		a, err := newApp("sync", args, false)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.SyncCollection(args[0], func(ch *catalog.SyncChange) {
			if verbose {
				fmt.Println(formatSyncChange(ch))
			}
		})
		if err != nil {
			return err
		}

		fmt.Printf("created %d, updated %d, replaced %d, deleted %d, unchanged %d\n",
			report.Created, report.Updated, report.Replaced, report.Deleted, report.Unchanged)
		return nil
	},
}

// filter commands
var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Manage glob filters",
}

var filterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List filters and their rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("filter list", args, false)
		if err != nil {
			return err
		}
		defer a.Close()

		infos, err := a.ListFilters()
		if err != nil {
			return err
		}
		for _, info := range infos {
			fmt.Printf("%s (#%d)\n", info.Filter.Name, info.Filter.ID)
			for _, r := range info.Rules {
				fmt.Printf("  %s\n", r)
			}
		}
		return nil
	},
}

var filterCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a filter from --rule flags (\"+ REGEX\" or \"- REGEX\")",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetStringArray("rule")
		if len(raw) == 0 {
			return errors.New("at least one --rule is required")
		}
		rules := make([]globfilter.Rule, 0, len(raw))
		for _, s := range raw {
			r, err := fs.ParseRule(s)
			if err != nil {
				return err
			}
			rules = append(rules, r)
		}

		a, err := newApp("filter create", append(args, raw...), false)
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := a.CreateFilter(args[0], rules)
		if err != nil {
			return err
		}
		fmt.Printf("Filter %s created (#%d)\n", f.Name, f.ID)
		return nil
	},
}

var filterImportCmd = &cobra.Command{
	Use:   "import NAME FILE",
	Short: "Create a filter from a rule file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("filter import", args, false)
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := a.ImportFilter(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Filter %s created (#%d)\n", f.Name, f.ID)
		return nil
	},
}

var filterDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a filter no collection uses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("filter delete", args, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteFilter(args[0]); err != nil {
			return err
		}
		fmt.Printf("Filter %s deleted\n", args[0])
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history", args, false)
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.GetHistory(limit)
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-15s  %s  %-8s  %-10s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

// snapshot commands
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage catalog snapshots",
}

var snapshotPullCmd = &cobra.Command{
	Use:   "pull [DEST]",
	Short: "Download the latest catalog snapshot",
	Long:  "Download the latest catalog snapshot. DEST defaults to the configured database path, which must not exist yet.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := readConfig()
		if err != nil {
			return err
		}

		dest := database.DatabasePath(cfg.Database, cfg.CatalogID)
		if len(args) > 0 {
			dest = args[0]
		}

		var pass string
		if cfg.Encryption.Type == "age" {
			if pass, err = readPassphrase("Passphrase: "); err != nil {
				return err
			}
		}

		if err := app.PullSnapshot(cfg, dest, pass); err != nil {
			return err
		}
		fmt.Printf("Snapshot written to %s\n", dest)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configListCmd, configKeysCmd, configSnapshotCheckCmd)
	dbCmd.AddCommand(dbInitCmd)

	addCmd.Flags().StringP("filter", "f", "", "Filter name (default from config)")
	addCmd.Flags().BoolP("yes", "y", false, "Add even if the path is already catalogued")
	addCmd.Flags().BoolP("verbose", "v", false, "Print every catalogued entry")
	removeCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	treeCmd.Flags().IntP("depth", "d", -1, "Maximum depth to show (-1 for all)")
	syncCmd.Flags().BoolP("verbose", "v", false, "Print every change")

	filterCreateCmd.Flags().StringArrayP("rule", "r", nil, "Rule as \"+ REGEX\" or \"- REGEX\" (repeatable, in order)")
	filterCmd.AddCommand(filterListCmd, filterCreateCmd, filterImportCmd, filterDeleteCmd)

	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	snapshotCmd.AddCommand(snapshotPullCmd)

	rootCmd.AddCommand(configCmd, dbCmd, addCmd, listCmd, treeCmd, removeCmd, syncCmd,
		filterCmd, historyCmd, snapshotCmd)
}
