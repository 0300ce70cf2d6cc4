// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"

	"github.com/admrply/dca-crypto/cli"
	"github.com/admrply/dca-crypto/kvutil"
	"github.com/admrply/dca-crypto/subcmds/cmdutil"
)

type DBBackup struct {
	cmdutil.DBFlags
}

func (c *DBBackup) Synopsis() string {
	return "Saves a snapshot of the database to a file"
}

func (c *DBBackup) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("backup", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *DBBackup) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("backup takes one output file argument")
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return err
	}
	defer closer()

	if err := kvutil.BackupDB(ctx, db, args[0]); err != nil {
		return fmt.Errorf("could not backup the database: %w", err)
	}
	return nil
}
