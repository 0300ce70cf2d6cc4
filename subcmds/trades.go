// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/admrply/dca-crypto/cli"
	"github.com/admrply/dca-crypto/gobs"
	"github.com/admrply/dca-crypto/subcmds/cmdutil"
	"github.com/admrply/dca-crypto/trades"
)

type TradesList struct {
	cmdutil.DBFlags

	exchangeName string
	symbol       string
}

func (c *TradesList) Synopsis() string {
	return "Lists recorded purchases"
}

func (c *TradesList) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	fset.StringVar(&c.exchangeName, "exchange", "", "limit to one exchange (requires -symbol)")
	fset.StringVar(&c.symbol, "symbol", "", "limit to one trading symbol")
	return fset, cli.CmdFunc(c.run)
}

func (c *TradesList) run(ctx context.Context, args []string) error {
	if (len(c.exchangeName) == 0) != (len(c.symbol) == 0) {
		return fmt.Errorf("-exchange and -symbol must be used together")
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return err
	}
	defer closer()

	store := trades.NewStore(db)

	var fills []*gobs.FillRecord
	if len(c.symbol) != 0 {
		fills, err = store.Fills(ctx, c.exchangeName, c.symbol)
	} else {
		fills, err = store.AllFills(ctx)
	}
	if err != nil {
		return fmt.Errorf("could not load recorded fills: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tEXCHANGE\tSYMBOL\tSIZE\tPRICE\tSPENT\tORDER ID")
	for _, fill := range fills {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			fill.FillTime.Local().Format(time.DateTime), fill.Exchange, fill.Symbol,
			fill.FilledSize.String(), fill.AvgFillPrice.String(),
			fill.QuoteSpent.String(), fill.ClientOrderID)
	}
	return tw.Flush()
}
