package main

import (
	"fmt"
	"os"

	"github.com/andresuchdata/restock/internal/cache"
	"github.com/andresuchdata/restock/internal/config"
	"github.com/andresuchdata/restock/internal/repository/postgres"
	"github.com/andresuchdata/restock/internal/service"
	"github.com/andresuchdata/restock/internal/storage"
	"github.com/andresuchdata/restock/pkg/logger"
	"github.com/urfave/cli/v2"
)

// env holds what the data commands share. It is filled by open and
// released by close around each command that needs the database.
type env struct {
	cfg     *config.Config
	db      *postgres.DB
	storage storage.ObjectStorage

	replenishment *service.ReplenishmentService
	matrix        *service.MatrixService
}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string (defaults to the DB_* settings)",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func dbURL(c *cli.Context, cfg *config.Config) string {
	if u := c.String("db-url"); u != "" {
		return u
	}
	return cfg.Database.URL()
}

func (e *env) open(c *cli.Context) error {
	e.cfg = config.Load()

	db, err := postgres.Open("pgx", dbURL(c, e.cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	e.db = db

	e.storage, err = storage.New(e.cfg.Storage)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("object storage unavailable")
		e.storage = storage.NewNoopStorage()
	}

	locker, err := cache.NewKeyLocker(e.cfg.Cache, e.cfg.Calc.CommitLockTTL())
	if err != nil {
		logger.Log.Warn().Err(err).Msg("redis unavailable, using in-process locks")
		locker = cache.NewLocalKeyLocker()
	}

	products := postgres.NewProductRepository(db)
	sales := postgres.NewSalesRepository(db)
	arrivals := postgres.NewArrivalRepository(db)
	e.replenishment = service.NewReplenishmentService(products, sales, arrivals, locker, e.cfg.Calc)
	e.matrix = service.NewMatrixService(products, sales, arrivals, e.storage)
	return nil
}

func (e *env) close(*cli.Context) error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

func newApp() *cli.App {
	e := &env{}

	withDB := func(cmd *cli.Command) *cli.Command {
		cmd.Flags = append(cmd.Flags, newDBURLFlag())
		cmd.Before = e.open
		cmd.After = e.close
		return cmd
	}

	return &cli.App{
		Name:  "restock",
		Usage: "Replenishment calculations and sales/arrival matrix transfers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Apply (or with --down, roll back) schema migrations",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.IntFlag{Name: "down", Usage: "Number of migrations to roll back"},
				},
				Action: runMigrate,
			},
			withDB(&cli.Command{
				Name:  "calculate",
				Usage: "Calculate order recommendations",
				Flags: []cli.Flag{
					&cli.Int64SliceFlag{Name: "product-id", Usage: "Product to calculate (repeatable); all products when omitted"},
					&cli.StringFlag{Name: "as-of", Usage: "As-of date (YYYY-MM-DD), defaults to today"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write a recommendation sheet (.xlsx or .csv) instead of JSON"},
				},
				Action: e.calculate,
			}),
			withDB(&cli.Command{
				Name:  "commit",
				Usage: "Commit an order as a pending arrival",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "product-id", Required: true},
					&cli.Float64Flag{Name: "quantity", Required: true},
					&cli.StringFlag{Name: "order-date", Required: true},
					&cli.StringFlag{Name: "expected-date", Required: true},
				},
				Action: e.commit,
			}),
			withDB(&cli.Command{
				Name:      "import-sales",
				Usage:     "Import a sales matrix",
				ArgsUsage: "<file.xlsx|file.csv>",
				Flags:     []cli.Flag{objectFlag()},
				Action:    e.importMatrix(kindSales),
			}),
			withDB(&cli.Command{
				Name:      "import-arrivals",
				Usage:     "Import an arrivals matrix (header dates are expected dates)",
				ArgsUsage: "<file.xlsx|file.csv>",
				Flags:     []cli.Flag{objectFlag()},
				Action:    e.importMatrix(kindArrivals),
			}),
			withDB(&cli.Command{
				Name:      "import-stock",
				Usage:     "Import current stock levels (columns: product code, Current Stock)",
				ArgsUsage: "<file.xlsx|file.csv>",
				Flags:     []cli.Flag{objectFlag()},
				Action:    e.importMatrix(kindStock),
			}),
			withDB(&cli.Command{
				Name:   "export-sales",
				Usage:  "Export sales as a matrix",
				Flags:  append(exportFlags(), dateFlag("from"), dateFlag("to")),
				Action: e.exportSales,
			}),
			withDB(&cli.Command{
				Name:  "export-arrivals",
				Usage: "Export arrivals as a matrix keyed by expected date",
				Flags: append(exportFlags(),
					&cli.StringFlag{Name: "status", Usage: "pending, arrived or cancelled"},
					dateFlag("expected-from"), dateFlag("expected-to")),
				Action: e.exportArrivals,
			}),
			withDB(&cli.Command{
				Name:  "sales-template",
				Usage: "Write a blank sales matrix for every product",
				Flags: append(exportFlags(),
					dateFlag("from"),
					&cli.IntFlag{Name: "days", Value: service.DefaultTemplateDays, Usage: "Number of date columns"}),
				Action: e.salesTemplate,
			}),
			withDB(&cli.Command{
				Name:   "list-exports",
				Usage:  "List exports archived in object storage",
				Action: e.listExports,
			}),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("restock failed")
	}
}
