package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/abcfe/abcfe-wallet/app"
	"github.com/abcfe/abcfe-wallet/common/utils"
	"github.com/abcfe/abcfe-wallet/internal/styles"
	"github.com/abcfe/abcfe-wallet/wallet"
	"github.com/spf13/cobra"
)

// Version info (Injected from Makefile)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var configFile string

func main() {
	var rootCmd = &cobra.Command{
		Use:     "abcfe-wallet",
		Short:   "ABCFe social-login wallet",
		Long:    `Wallet that derives a ledger account from an OAuth identity and pays with coin objects.`,
		Version: Version + " (" + BuildTime + ")",

		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(balanceCmd())
	rootCmd.AddCommand(coinsCmd())
	rootCmd.AddCommand(sendCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(faucetCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(logoutCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(styles.Errorf("%v", err))
		os.Exit(1)
	}
}

// withWallet opens the wallet and restores the persisted session, if any
func withWallet(run func(ctx context.Context, a *app.WalletApp, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := app.NewWallet(configFile)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if _, err := a.Wallet.Restore(ctx); err != nil {
			return err
		}
		return run(ctx, a, args)
	}
}

func requireSession(a *app.WalletApp) (*wallet.Session, error) {
	sess, err := a.Wallet.Active()
	if errors.Is(err, wallet.ErrNoSession) || errors.Is(err, wallet.ErrSessionExpired) {
		return nil, fmt.Errorf("%w; run 'abcfe-wallet login' first", err)
	}
	return sess, err
}

func loginCmd() *cobra.Command {
	var (
		provider string
		idToken  string
		claim    = make(map[string]*string)
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an identity provider",
		Long: `Sign in with an already verified ID token (--id-token) or with the identity
claims given as flags. Any existing session is replaced.`,
		RunE: withWallet(func(ctx context.Context, a *app.WalletApp, args []string) error {
			var c wallet.Claim
			if idToken != "" {
				parsed, err := wallet.ClaimsFromIDToken(idToken)
				if err != nil {
					return err
				}
				c = parsed
			} else {
				c = wallet.Claim{}
				for k, v := range claim {
					if *v != "" {
						c[k] = *v
					}
				}
			}

			sess, err := a.Wallet.Login(ctx, provider, c)
			if err != nil {
				return err
			}
			fmt.Println(styles.Successf("signed in as %s", displayName(sess.Identity)))
			fmt.Println(sessionBox(sess))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "github", "Identity provider (github, google)")
	cmd.Flags().StringVar(&idToken, "id-token", "", "Verified OAuth ID token")
	for _, key := range []string{"sub", "id", "email", "login", "name", "picture", "avatar_url"} {
		claim[key] = cmd.Flags().String(key, "", "Identity claim "+key)
	}
	return cmd
}

func displayName(id wallet.Identity) string {
	switch {
	case id.Login != "":
		return id.Login
	case id.Email != "":
		return id.Email
	case id.Name != "":
		return id.Name
	default:
		return id.Subject
	}
}

func sessionBox(sess *wallet.Session) string {
	return styles.KeyValue("Session", [][2]string{
		{"provider", string(sess.Identity.Provider)},
		{"subject", sess.Identity.Subject},
		{"address", utils.AddressToString(sess.Address)},
		{"scheme", string(sess.Scheme)},
		{"expires", sess.ExpiresAt.Local().Format(time.RFC3339)},
	})
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: withWallet(func(ctx context.Context, a *app.WalletApp, args []string) error {
			sess, err := requireSession(a)
			if err != nil {
				return err
			}
			fmt.Println(sessionBox(sess))
			return nil
		}),
	}
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the balance of the signed-in account",
		RunE: withWallet(func(ctx context.Context, a *app.WalletApp, args []string) error {
			sess, err := requireSession(a)
			if err != nil {
				return err
			}
			units := a.Wallet.Balance(ctx)
			fmt.Println(styles.KeyValue("Balance", [][2]string{
				{"address", utils.AddressToString(sess.Address)},
				{"coin", a.Conf.Ledger.CoinType},
				{"amount", wallet.FormatAmount(units, a.Wallet.Decimals())},
				{"units", units},
			}))
			return nil
		}),
	}
}

func coinsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coins",
		Short: "List owned coin objects",
		RunE: withWallet(func(ctx context.Context, a *app.WalletApp, args []string) error {
			if _, err := requireSession(a); err != nil {
				return err
			}
			coins, err := a.Wallet.Coins(ctx)
			if err != nil {
				return err
			}
			if len(coins) == 0 {
				fmt.Println(styles.MutedStyle.Render("no coins"))
				return nil
			}

			rows := make([][]string, 0, len(coins))
			for _, c := range coins {
				rows = append(rows, []string{
					utils.AddressToString(c.ObjectID),
					strconv.FormatUint(c.Version, 10),
					wallet.FormatAmount(strconv.FormatUint(c.Balance, 10), a.Wallet.Decimals()),
				})
			}
			fmt.Println(styles.Table([]string{"OBJECT", "VERSION", "BALANCE"}, rows))
			return nil
		}),
	}
}

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <recipient> <amount>",
		Short: "Send a decimal amount to a recipient address",
		Args:  cobra.ExactArgs(2),
		RunE: withWallet(func(ctx context.Context, a *app.WalletApp, args []string) error {
			if _, err := requireSession(a); err != nil {
				return err
			}
			res, err := a.Wallet.Send(ctx, args[0], args[1])
			var execErr *wallet.LedgerExecutionError
			if errors.As(err, &execErr) {
				fmt.Println(styles.Errorf("transaction %s failed: %s", execErr.Digest, execErr.Reason))
				return err
			}
			if err != nil {
				return err
			}

			fmt.Println(styles.Successf("sent %s to %s", args[1], args[0]))
			fmt.Println(styles.KeyValue("", [][2]string{
				{"digest", res.Digest},
				{"status", styles.StatusStyle(string(res.Status)).Render(string(res.Status))},
				{"gas used", strconv.FormatUint(res.GasUsed, 10)},
			}))
			return nil
		}),
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show sent and received transactions, most recent first",
		RunE: withWallet(func(ctx context.Context, a *app.WalletApp, args []string) error {
			if _, err := requireSession(a); err != nil {
				return err
			}
			records := a.Wallet.History(ctx)
			if len(records) == 0 {
				fmt.Println(styles.MutedStyle.Render("no transactions"))
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, r := range records {
				amount := wallet.FormatAmount(r.Amount, a.Wallet.Decimals())
				if !r.AmountKnown {
					amount = "?"
				}
				counterparty := "-"
				if r.Counterparty != nil {
					counterparty = utils.AddressToString(*r.Counterparty)
				}
				rows = append(rows, []string{
					r.Timestamp.Local().Format("2006-01-02 15:04:05"),
					styles.DirectionStyle(string(r.Direction)).Render(string(r.Direction)),
					amount,
					counterparty,
					styles.StatusStyle(string(r.Status)).Render(string(r.Status)),
					r.ID,
				})
			}
			fmt.Println(styles.Table([]string{"TIME", "DIRECTION", "AMOUNT", "COUNTERPARTY", "STATUS", "DIGEST"}, rows))
			return nil
		}),
	}
}

func faucetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "faucet",
		Short: "Request devnet coins for the signed-in account",
		RunE: withWallet(func(ctx context.Context, a *app.WalletApp, args []string) error {
			sess, err := requireSession(a)
			if err != nil {
				return err
			}
			res, err := a.Ledger.RequestFaucet(ctx, sess.Address)
			if err != nil {
				return err
			}
			fmt.Println(styles.Successf("faucet transaction %s", res.Digest))
			return nil
		}),
	}
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Show the recovery phrase of a direct-scheme account",
		RunE: withWallet(func(ctx context.Context, a *app.WalletApp, args []string) error {
			if _, err := requireSession(a); err != nil {
				return err
			}
			phrase, err := a.Wallet.ExportRecoveryPhrase()
			if err != nil {
				return err
			}
			fmt.Println(styles.WarningStyle.Render("WARNING: Never share your recovery phrase with anyone!"))
			fmt.Println(phrase)
			return nil
		}),
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and drop its signing material",
		RunE: withWallet(func(ctx context.Context, a *app.WalletApp, args []string) error {
			if err := a.Wallet.Logout(); err != nil {
				return err
			}
			fmt.Println(styles.Successf("signed out"))
			return nil
		}),
	}
}
