package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cypherx_sim/internal/models"
	"cypherx_sim/internal/storage"
	"cypherx_sim/internal/watcher"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run the demo: random hype-driven trades on a timer",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "poll interval (defaults to the configured tick)",
			},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx, true, true)
			if err != nil {
				return err
			}
			defer a.Close()

			interval := c.Duration("interval")
			if interval <= 0 {
				interval = time.Duration(a.cfg.TickIntervalSec) * time.Second
			}

			fmt.Println(watcher.FormatStatus(a.engine.Snapshot()))
			if err := a.watcher.Run(ctx, interval); err != nil {
				return fmt.Errorf("final save: %w", err)
			}
			fmt.Println(watcher.FormatStatus(a.engine.Snapshot()))
			return nil
		},
	}
}

func tradeCommand() *cli.Command {
	return &cli.Command{
		Name:      "trade",
		Usage:     "execute one order at the current price",
		ArgsUsage: "<buy|sell> <SYMBOL> <amount>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 3 {
				return cli.ShowSubcommandHelp(c)
			}
			action, ok := models.ParseAction(c.Args().Get(0))
			if !ok {
				return fmt.Errorf("unknown action %q", c.Args().Get(0))
			}
			amount, err := decimal.NewFromString(c.Args().Get(2))
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", c.Args().Get(2), err)
			}

			a, err := bootstrap(c.Context, true, false)
			if err != nil {
				return err
			}
			defer a.Close()

			trade, err := a.watcher.Execute(c.Context, action, strings.ToUpper(c.Args().Get(1)), amount)
			if err != nil {
				var te *models.TradeError
				if errors.As(err, &te) {
					a.log.Info("trade failed", zap.Error(err))
					return cli.Exit("Trade Failed: "+te.Reason(), 2)
				}
				return err
			}
			fmt.Println(watcher.FormatTrade(*trade))
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "show balance, positions and P&L",
		Action: func(c *cli.Context) error {
			a, err := bootstrap(c.Context, true, false)
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Print(watcher.FormatStatus(a.engine.Snapshot()))
			return nil
		},
	}
}

func marketCommand() *cli.Command {
	return &cli.Command{
		Name:  "market",
		Usage: "show current coin prices",
		Action: func(c *cli.Context) error {
			a, err := bootstrap(c.Context, true, false)
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Print(watcher.FormatMarket(a.engine.Snapshot().Prices))
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "write the trade history to a Parquet file",
		ArgsUsage: "<file.parquet>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.ShowSubcommandHelp(c)
			}
			a, err := bootstrap(c.Context, true, false)
			if err != nil {
				return err
			}
			defer a.Close()

			trades := a.engine.Trades()
			if err := storage.ExportTradesParquet(c.Args().First(), trades); err != nil {
				return err
			}
			fmt.Printf("exported %d trades to %s\n", len(trades), c.Args().First())
			return nil
		},
	}
}

func resetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "discard saved state and start over with the initial balance",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Usage: "confirm the reset"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return cli.Exit("refusing to reset without --yes", 1)
			}
			a, err := bootstrap(c.Context, false, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.watcher.Save(context.WithoutCancel(c.Context)); err != nil {
				return err
			}
			fmt.Printf("state reset to $%s\n", a.engine.InitialBalance().StringFixed(2))
			return nil
		},
	}
}

func shellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "read /commands from stdin and print the replies",
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx, true, false)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Println("📡 " + a.watcher.Signal() + "  (type /help)")
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				if ctx.Err() != nil {
					break
				}
				text := strings.TrimSpace(scanner.Text())
				if !strings.HasPrefix(text, "/") {
					continue
				}
				if text == "/quit" || text == "/exit" {
					break
				}
				a.log.Debug("command received", zap.String("command", text))
				fmt.Println(a.watcher.HandleCommand(ctx, text))
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			return a.watcher.Save(context.WithoutCancel(ctx))
		},
	}
}
