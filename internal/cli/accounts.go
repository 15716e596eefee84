package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/scryptex/scryptex/internal/domain"
	"github.com/scryptex/scryptex/internal/infra/sqlite"
)

// ─── Accounts CLI ───────────────────────────────────────────────────────────
// Offline inspection of the SQLite journal. These commands open the database
// directly and never mutate it.

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsShowCmd)
	accountsCmd.AddCommand(accountsHistoryCmd)

	accountsHistoryCmd.Flags().IntP("limit", "n", 20, "Number of entries to show")
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Inspect journaled accounts",
	Long: `Inspect accounts and ledger entries recorded in the SQLite journal.
The server does not need to be running.`,
}

// ─── accounts list ──────────────────────────────────────────────────────────

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	Args:  cobra.NoArgs,
	RunE:  runAccountsList,
}

func runAccountsList(cmd *cobra.Command, args []string) error {
	db, err := openJournal()
	if err != nil {
		return err
	}
	defer db.Close()

	accounts, err := db.LoadAccounts()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No accounts recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tBALANCE\tCODE\tINVITES\tEARNED")
	for _, a := range accounts {
		code := a.ReferralCode
		if code == "" {
			code = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\n", a.UserID, a.Balance, code, a.InviteCount, a.EarnedCredits)
	}
	return tw.Flush()
}

// ─── accounts show ──────────────────────────────────────────────────────────

var accountsShowCmd = &cobra.Command{
	Use:   "show USER_ID",
	Short: "Show one account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsShow,
}

func runAccountsShow(cmd *cobra.Command, args []string) error {
	db, err := openJournal()
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := db.GetAccount(args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "User:     %s\n", a.UserID)
	if a.Username != "" {
		fmt.Fprintf(out, "Username: %s\n", a.Username)
	}
	fmt.Fprintf(out, "Balance:  %d\n", a.Balance)
	fmt.Fprintf(out, "Code:     %s\n", a.ReferralCode)
	fmt.Fprintf(out, "Invites:  %d\n", a.InviteCount)
	fmt.Fprintf(out, "Earned:   %d\n", a.EarnedCredits)
	fmt.Fprintf(out, "Created:  %s\n", a.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

// ─── accounts history ───────────────────────────────────────────────────────

var accountsHistoryCmd = &cobra.Command{
	Use:   "history USER_ID",
	Short: "Show recent ledger entries for an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsHistory,
}

func runAccountsHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	db, err := openJournal()
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.ListEntries(args[0], limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No entries for %s.\n", args[0])
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tTIME\tTYPE\tAMOUNT\tBALANCE\tDETAIL")
	for _, e := range entries {
		sign := "+"
		if e.EntryType == domain.EntryDebit {
			sign = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s%d\t%d\t%s\n",
			e.Seq, e.Timestamp.Format("2006-01-02 15:04:05"), e.Type, sign, e.Amount, e.Balance, e.Description)
	}
	return tw.Flush()
}

func openJournal() (*sqlite.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return sqlite.Open(cfg.Storage.DataDir)
}
