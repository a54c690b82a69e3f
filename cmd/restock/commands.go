package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/andresuchdata/restock/internal/config"
	"github.com/andresuchdata/restock/internal/domain"
	"github.com/andresuchdata/restock/internal/matrix"
	"github.com/andresuchdata/restock/internal/repository/postgres"
	"github.com/andresuchdata/restock/internal/service"
	"github.com/andresuchdata/restock/pkg/logger"
	"github.com/urfave/cli/v2"
)

type matrixKind string

const (
	kindSales    matrixKind = "sales"
	kindArrivals matrixKind = "arrivals"
	kindStock    matrixKind = "stock"
)

func objectFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "object",
		Usage: "Read the file from object storage under this key instead of a local path",
	}
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "format", Value: matrix.FormatXLSX, Usage: "xlsx or csv"},
		&cli.StringFlag{Name: "out-dir", Usage: "Directory to write the export to (defaults to APP_DATA_DIR)"},
	}
}

func dateFlag(name string) cli.Flag {
	return &cli.StringFlag{Name: name, Usage: "Date (YYYY-MM-DD)"}
}

func parseDateFlag(c *cli.Context, name string) (domain.Date, error) {
	if c.String(name) == "" {
		return domain.Date{}, nil
	}
	d, err := domain.ParseDate(c.String(name))
	if err != nil {
		return domain.Date{}, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}

func runMigrate(c *cli.Context) error {
	url := dbURL(c, config.Load())
	if steps := c.Int("down"); steps > 0 {
		if err := postgres.Rollback(url, steps); err != nil {
			return err
		}
		logger.Log.Info().Int("steps", steps).Msg("migrations rolled back")
		return nil
	}
	if err := postgres.Migrate(url); err != nil {
		return err
	}
	logger.Log.Info().Msg("migrations applied")
	return nil
}

func (e *env) calculate(c *cli.Context) error {
	asOf, err := parseDateFlag(c, "as-of")
	if err != nil {
		return err
	}

	ids := c.Int64Slice("product-id")
	if len(ids) == 0 {
		products, err := postgres.NewProductRepository(e.db).List(c.Context)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		for _, p := range products {
			ids = append(ids, p.ID)
		}
	}

	req := domain.CalculateOrdersRequest{AsOfDate: asOf}
	for _, id := range ids {
		req.Items = append(req.Items, domain.OrderCalculationRequest{ProductID: id})
	}
	results := e.replenishment.Calculate(c.Context, req)

	out := c.String("output")
	if out == "" {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	format, err := matrix.FormatFromFilename(out)
	if err != nil {
		return err
	}
	file, err := e.matrix.ExportRecommendations(c.Context, results, format)
	if err != nil {
		return err
	}
	return writeFile(out, file.Data)
}

func (e *env) commit(c *cli.Context) error {
	orderDate, err := parseDateFlag(c, "order-date")
	if err != nil {
		return err
	}
	expectedDate, err := parseDateFlag(c, "expected-date")
	if err != nil {
		return err
	}

	rec, created, err := e.replenishment.CommitArrival(c.Context, domain.CommitArrivalRequest{
		ProductID:    c.Int64("product-id"),
		Quantity:     c.Float64("quantity"),
		OrderDate:    orderDate,
		ExpectedDate: expectedDate,
	})
	if err != nil {
		return err
	}

	action := "updated"
	if created {
		action = "created"
	}
	fmt.Fprintf(c.App.Writer, "arrival %d %s: %s x%v ordered %s, expected %s\n",
		rec.ID, action, rec.ProductCode, rec.Quantity, rec.OrderDate, rec.ExpectedDate)
	return nil
}

func (e *env) importMatrix(kind matrixKind) cli.ActionFunc {
	return func(c *cli.Context) error {
		path, cleanup, err := e.resolveInput(c)
		if err != nil {
			return err
		}
		defer cleanup()

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()

		grid, err := matrix.ReadGrid(path, f)
		if err != nil {
			return err
		}

		var summary *service.ImportSummary
		switch kind {
		case kindSales:
			summary, err = e.matrix.ImportSales(c.Context, grid)
		case kindArrivals:
			summary, err = e.matrix.ImportArrivals(c.Context, grid)
		default:
			summary, err = e.matrix.ImportStock(c.Context, grid)
		}
		if err != nil {
			return err
		}

		if kind == kindStock {
			fmt.Fprintf(c.App.Writer, "updated stock for %d products\n", summary.Imported)
		} else {
			fmt.Fprintf(c.App.Writer, "imported %d %s cells\n", summary.Imported, kind)
		}
		for _, rowErr := range summary.Errors {
			fmt.Fprintf(c.App.ErrWriter, "skipped %s\n", rowErr.Error())
		}
		return nil
	}
}

// resolveInput returns a local path for the command's input, downloading it
// from object storage first when --object is set.
func (e *env) resolveInput(c *cli.Context) (string, func(), error) {
	noop := func() {}
	key := c.String("object")
	if key == "" {
		if c.NArg() != 1 {
			return "", noop, cli.Exit("expected exactly one file argument", 2)
		}
		return c.Args().First(), noop, nil
	}

	dir, err := os.MkdirTemp(e.cfg.App.UploadDir, "restock-import-")
	if err != nil {
		return "", noop, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	path := filepath.Join(dir, filepath.Base(key))
	if err := e.storage.DownloadObject(c.Context, key, path); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("download %s: %w", key, err)
	}
	return path, cleanup, nil
}

func (e *env) exportSales(c *cli.Context) error {
	var (
		filter domain.SalesFilter
		err    error
	)
	if filter.From, err = parseDateFlag(c, "from"); err != nil {
		return err
	}
	if filter.To, err = parseDateFlag(c, "to"); err != nil {
		return err
	}
	return e.export(c, func(ctx context.Context, format string) (*service.ExportFile, error) {
		return e.matrix.ExportSales(ctx, filter, format)
	})
}

func (e *env) exportArrivals(c *cli.Context) error {
	var (
		filter domain.ArrivalFilter
		err    error
	)
	if s := c.String("status"); s != "" {
		if filter.Status, err = domain.ParseArrivalStatus(s); err != nil {
			return err
		}
	}
	if filter.ExpectedFrom, err = parseDateFlag(c, "expected-from"); err != nil {
		return err
	}
	if filter.ExpectedTo, err = parseDateFlag(c, "expected-to"); err != nil {
		return err
	}
	return e.export(c, func(ctx context.Context, format string) (*service.ExportFile, error) {
		return e.matrix.ExportArrivals(ctx, filter, format)
	})
}

func (e *env) salesTemplate(c *cli.Context) error {
	start, err := parseDateFlag(c, "from")
	if err != nil {
		return err
	}
	return e.export(c, func(ctx context.Context, format string) (*service.ExportFile, error) {
		return e.matrix.SalesTemplate(ctx, start, c.Int("days"), format)
	})
}

func (e *env) export(c *cli.Context, render func(context.Context, string) (*service.ExportFile, error)) error {
	file, err := render(c.Context, c.String("format"))
	if err != nil {
		return err
	}
	dir := c.String("out-dir")
	if dir == "" {
		dir = e.cfg.App.DataDir
	}
	path := filepath.Join(dir, file.Filename)
	if err := writeFile(path, file.Data); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, path)
	return nil
}

func (e *env) listExports(c *cli.Context) error {
	if !e.storage.Enabled() {
		return cli.Exit("object storage is not configured", 1)
	}
	objects, err := e.storage.ListObjects(c.Context, "exports/")
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tSIZE\tMODIFIED")
	for _, o := range objects {
		fmt.Fprintf(w, "%s\t%d\t%s\n", o.Key, o.Size, o.LastModified.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to ensure dir for %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}
