// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/admrply/dca-crypto/cli"
	"github.com/admrply/dca-crypto/dca"
	"github.com/admrply/dca-crypto/subcmds/cmdutil"
	"github.com/shirou/gopsutil/v4/process"
)

type Status struct {
	cmdutil.ClientFlags

	noProcessInfo bool
}

func (c *Status) Synopsis() string {
	return "Prints per-pair scheduler status from the running daemon"
}

func (c *Status) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("status", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.BoolVar(&c.noProcessInfo, "no-process-info", false, "when true, daemon process stats are not printed")
	return fset, cli.CmdFunc(c.run)
}

func (c *Status) run(ctx context.Context, args []string) error {
	statuses, err := cmdutil.Get[[]*dca.Status](ctx, &c.ClientFlags, "/status")
	if err != nil {
		return fmt.Errorf("could not fetch daemon status: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "PAIR\tEXCHANGE\tBUFFER\tTICK\tINTERVAL\tNEXT TICK\tOUTCOME\tTRADES\tFAILURES")
	for _, s := range *statuses {
		next := "-"
		if !s.NextTick.IsZero() {
			next = s.NextTick.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			s.Pair, s.Exchange, s.Buffer.StringFixed(4), s.TickAmount.StringFixed(4),
			s.TickInterval, next, s.Outcome, s.Trades, s.Failures)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !c.noProcessInfo {
		if err := c.printProcessInfo(ctx); err != nil {
			log.Printf("could not print daemon process stats (ignored): %v", err)
		}
	}
	return nil
}

func (c *Status) printProcessInfo(ctx context.Context) error {
	data, err := cmdutil.GetText(ctx, &c.ClientFlags, "/pid")
	if err != nil {
		return err
	}
	pid, err := strconv.ParseInt(strings.TrimSpace(data), 10, 32)
	if err != nil {
		return fmt.Errorf("could not parse daemon pid %q: %w", data, err)
	}

	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return err
	}
	created, err := proc.CreateTimeWithContext(ctx)
	if err != nil {
		return err
	}
	cpu, err := proc.CPUPercentWithContext(ctx)
	if err != nil {
		return err
	}
	mem, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return err
	}

	up := time.Since(time.UnixMilli(created)).Round(time.Second)
	fmt.Printf("\ndaemon pid %d: up %s, cpu %.1f%%, rss %d MiB\n",
		pid, up, cpu, mem.RSS/(1<<20))
	return nil
}
