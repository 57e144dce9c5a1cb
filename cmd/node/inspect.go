package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/abcfe/abcfe-wallet/common/utils"
	"github.com/abcfe/abcfe-wallet/config"
	"github.com/abcfe/abcfe-wallet/core"
	"github.com/abcfe/abcfe-wallet/internal/styles"
	"github.com/abcfe/abcfe-wallet/storage"
	"github.com/spf13/cobra"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// inspectCmd browses the ledger database of a stopped node
func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Browse the ledger database (node must be stopped)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "meta",
		Short: "Show ledger metadata",
		RunE: withLedger(func(db *leveldb.DB, l *core.Ledger, args []string) error {
			s := l.GetStatus()
			fmt.Println(styles.KeyValue("Ledger", [][2]string{
				{"network", s.NetworkID},
				{"genesis", strconv.FormatInt(s.GenesisTime, 10)},
				{"epoch", strconv.FormatUint(s.CurrentEpoch, 10)},
				{"gas price", strconv.FormatUint(s.GasPrice, 10)},
				{"coin seq", strconv.FormatUint(s.CoinSeq, 10)},
			}))
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "coins <address>",
		Short: "List coins owned by an address",
		Args:  cobra.ExactArgs(1),
		RunE: withLedger(func(db *leveldb.DB, l *core.Ledger, args []string) error {
			addr, err := utils.StringToAddress(args[0])
			if err != nil {
				return err
			}
			coins, err := l.GetCoins(addr, "")
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(coins))
			for _, c := range coins {
				rows = append(rows, []string{
					utils.AddressToString(c.ObjectID),
					strconv.FormatUint(c.Version, 10),
					strconv.FormatUint(c.Balance, 10),
					c.CoinType,
				})
			}
			fmt.Println(styles.Table([]string{"OBJECT", "VERSION", "BALANCE", "TYPE"}, rows))
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "tx <digest>",
		Short: "Show a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: withLedger(func(db *leveldb.DB, l *core.Ledger, args []string) error {
			blk, err := l.GetTx(args[0])
			if err != nil {
				return err
			}
			rows := [][2]string{
				{"sender", utils.AddressToString(blk.Sender)},
				{"status", styles.StatusStyle(string(blk.Status)).Render(string(blk.Status))},
				{"timestamp", strconv.FormatInt(blk.TimestampMs, 10)},
			}
			if blk.Error != "" {
				rows = append(rows, [2]string{"error", blk.Error})
			}
			for _, bc := range blk.BalanceChanges {
				rows = append(rows, [2]string{"change", utils.AddressToString(bc.Owner) + " " + bc.Amount})
			}
			fmt.Println(styles.KeyValue("Transaction "+blk.Digest, rows))
			return nil
		}),
	})

	var limit int
	dump := &cobra.Command{
		Use:   "dump [prefix]",
		Short: "Dump raw keys, optionally under a prefix (e.g. tx:, coin:, meta:)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withLedger(func(db *leveldb.DB, l *core.Ledger, args []string) error {
			var rng *util.Range
			if len(args) == 1 {
				rng = util.BytesPrefix([]byte(args[0]))
			}
			iter := db.NewIterator(rng, nil)
			defer iter.Release()

			count := 0
			for iter.Next() {
				value := iter.Value()
				shown := string(value)
				if len(value) > 100 {
					shown = hex.EncodeToString(value[:50]) + "..."
				}
				fmt.Printf("[%d] %s (%d bytes)\n     %s\n", count, iter.Key(), len(value), styles.MutedStyle.Render(shown))

				count++
				if count >= limit {
					fmt.Printf("... (showing first %d entries)\n", limit)
					break
				}
			}
			fmt.Printf("Total entries: %d\n", count)
			return iter.Error()
		}),
	}
	dump.Flags().IntVarP(&limit, "limit", "n", 50, "Max entries to show")
	cmd.AddCommand(dump)

	return cmd
}

func withLedger(run func(db *leveldb.DB, l *core.Ledger, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewConfig(configFile)
		if err != nil {
			return err
		}
		db, err := storage.InitDB(cfg.Node.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		l, err := core.NewLedger(db, cfg)
		if err != nil {
			return err
		}
		return run(db, l, args)
	}
}
