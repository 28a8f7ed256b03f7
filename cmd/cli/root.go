package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/keshon/server-warden/internal/storage"
	"github.com/keshon/server-warden/pkg/util"
)

const defaultDBPath = "data/warden.db"

type app struct {
	dbPath     string
	dateFormat string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "warden",
		Short:         "Inspect and repair the warden state database",
		Long:          "Offline tooling for the warden bot. Stop the bot before running commands that write.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.dbPath, "db", "d", "", "Database path (default: $STORAGE_PATH or "+defaultDBPath+")")
	root.PersistentFlags().StringVar(&a.dateFormat, "date-format", util.DefaultLayout, "Date layout using YYYY, YY, MM, DD, hh, mm and ss")

	root.AddCommand(
		a.prisonersCmd(),
		a.offensesCmd(),
		a.auditCmd(),
		a.wordsCmd(),
		a.historyCmd(),
		a.walletCmd(),
		a.releaseCmd(),
	)
	return root
}

func (a *app) path() string {
	if a.dbPath != "" {
		return a.dbPath
	}
	_ = godotenv.Load()
	if env := os.Getenv("STORAGE_PATH"); env != "" {
		return env
	}
	return defaultDBPath
}

func (a *app) date(t time.Time) string {
	return util.FormatDateTpl(t, a.dateFormat)
}

func (a *app) open() (*storage.Storage, error) {
	return storage.New(a.path())
}
