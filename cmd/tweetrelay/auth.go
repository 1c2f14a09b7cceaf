package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tweetrelay/pkg/auth"
	"tweetrelay/pkg/cookies"
	"tweetrelay/pkg/ui"
)

// newCredentialManager is replaced in tests
var newCredentialManager = auth.NewManager

var importName string

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored cookie sets",
	Long: `Manage the browser cookies used to log in to X.

Cookie sets are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - The TWEETRELAY_COOKIES environment variable (read only)

Never share your cookie exports or the encrypted store!`,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Store a browser cookie export",
	Long: `Store a browser cookie export under a name.

The export is a JSON array of cookie objects. Without a file argument the
export is read from standard input; on a terminal the input is hidden.`,
	Example: `  # Import an exported file as the default set
  tweetrelay auth import cookies.json

  # Paste an export and store it as "work"
  tweetrelay auth import --name work`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open cookie export: %w", err)
			}
			defer f.Close()
			in = f
		} else {
			auth.ShowQuickExportGuide(cmd.OutOrStdout())
		}
		return runImport(in, cmd.OutOrStdout(), importName)
	},
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored cookie sets",
	Long:  `List every stored cookie set with cookie values masked.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthList()
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a stored cookie set",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := newCredentialManager()
		if err != nil {
			return fmt.Errorf("failed to initialize credential manager: %w", err)
		}
		if err := manager.Delete(args[0]); err != nil {
			return err
		}
		ui.PrintSuccess(fmt.Sprintf("Removed cookie set %q", args[0]))
		return nil
	},
}

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show how to export cookies from a browser",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowCookieExportGuide(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(importCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(removeCmd)
	authCmd.AddCommand(guideCmd)

	importCmd.Flags().StringVar(&importName, "name", auth.DefaultSetName, "name of the cookie set")
}

func runImport(in io.Reader, out io.Writer, name string) error {
	data, err := auth.ReadCookieExport(in, out)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("no cookie export given, see 'tweetrelay auth guide'")
	}

	serialized, err := cookies.Parse(data, cookies.Options{RewriteDomain: cfg.Cookies.RewriteDomain})
	if err != nil {
		return fmt.Errorf("invalid cookie export: %w", err)
	}

	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	if err := manager.Store(&auth.CookieSet{Name: name, Cookies: serialized}); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Stored %d cookies as %q", len(serialized), name))
	ui.PrintInfo("Cookies", strings.Join(cookies.Names(serialized), ", "))
	return nil
}

func runAuthList() error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	sets, err := manager.List()
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		ui.PrintWarning("No stored cookie sets, run 'tweetrelay auth import'")
		return nil
	}

	ui.PrintHighlight("Stored cookie sets")
	for _, set := range sets {
		ui.PrintInfo(set.Name, fmt.Sprintf("%d cookies, updated %s", len(set.Cookies), set.LastModified.Format(time.RFC3339)))
		if verbose {
			for _, c := range auth.Redact(set) {
				ui.Default().Dim("  " + c)
			}
		}
	}
	return nil
}
