package main

import (
	"fmt"
	"os"

	"github.com/gofrs/uuid"
	"github.com/joho/godotenv"
	"github.com/sysdevguru/corpactions/caerrors"
	"github.com/sysdevguru/corpactions/db"
	"github.com/sysdevguru/corpactions/log"
	"github.com/sysdevguru/corpactions/migration"
	"github.com/sysdevguru/corpactions/service/registry"
	"github.com/sysdevguru/corpactions/store/postgres"
	"github.com/sysdevguru/corpactions/utils/env"
	"github.com/urfave/cli"
)

func init() {
	godotenv.Load()

	env.RegisterDefault("PGDATABASE", "corpactions")
	env.RegisterDefault("PGHOST", "127.0.0.1")
	env.RegisterDefault("PGUSER", "postgres")
	env.RegisterDefault("PGPASSWORD", "postgres")
}

func main() {
	app := cli.NewApp()
	app.Name = "actionrunner"
	app.Usage = "run corporate action processing against the lot database"
	app.Commands = []cli.Command{
		{
			Name:  "migrate",
			Usage: "run database migrations",
			Action: func(c *cli.Context) error {
				if err := migration.Migration(db.DB()).Migrate(); err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				log.Info("migration successful")
				return nil
			},
		},
		{
			Name:      "apply",
			Usage:     "apply pending actions for a symbol in ex-date order",
			ArgsUsage: "<symbol_id>",
			Action: func(c *cli.Context) error {
				if len(c.Args()) < 1 {
					cli.ShowCommandHelpAndExit(c, "apply", 0)
					return nil
				}
				symbolID, err := uuid.FromString(c.Args().Get(0))
				if err != nil {
					return cli.NewExitError(err.Error(), 1)
				}

				svc := reg().CorporateAction()
				result, err := svc.BatchApplyPending(symbolID)
				if err != nil {
					return cli.NewExitError(caerrors.Format(err), 1)
				}

				for _, r := range result.Results {
					if r.Error != nil {
						fmt.Printf("%v: FAILED (%v)\n", r.ActionID, caerrors.Format(r.Error))
						continue
					}
					fmt.Printf("%v: applied, %v adjustments\n", r.ActionID, r.AdjustmentsCreated)
				}
				fmt.Printf("%v actions processed\n", result.ActionsProcessed)
				return nil
			},
		},
		{
			Name:      "reverse",
			Usage:     "reverse an applied action",
			ArgsUsage: "<action_id>",
			Action: func(c *cli.Context) error {
				if len(c.Args()) < 1 {
					cli.ShowCommandHelpAndExit(c, "reverse", 0)
					return nil
				}
				actionID, err := uuid.FromString(c.Args().Get(0))
				if err != nil {
					return cli.NewExitError(err.Error(), 1)
				}

				svc := reg().CorporateAction()
				action, err := svc.Reverse(actionID)
				if err != nil {
					return cli.NewExitError(caerrors.Format(err), 1)
				}

				fmt.Printf("%v: reversed\n", action.ID)
				return nil
			},
		},
		{
			Name:  "pending",
			Usage: "list pending actions across all symbols",
			Action: func(c *cli.Context) error {
				svc := reg().CorporateAction()
				actions, err := svc.ListPending()
				if err != nil {
					return cli.NewExitError(caerrors.Format(err), 1)
				}

				for _, a := range actions {
					fmt.Printf("%v\t%v\t%v\t%v\n", a.ID, a.SymbolID, a.Type, a.ExDate)
				}
				return nil
			},
		},
	}

	app.Run(os.Args)
}

func reg() registry.Registry {
	return registry.New(postgres.New(db.DB()))
}
