package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	holdingsvc "fundtrack-backend/internal/application/holdings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type addCmd struct {
	code   string
	name   string
	amount float64
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a new fund holding" }
func (*addCmd) Usage() string {
	return "add -code <fund code> -amount <amount> [-name <display name>]\n"
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.code, "code", "", "fund code")
	f.Float64Var(&c.amount, "amount", 0, "holding amount")
	f.StringVar(&c.name, "name", "", "display name, used when upstream has none")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.code == "" || c.amount <= 0 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	svc, err := newService()
	if err != nil {
		return fail(err)
	}
	holding, err := svc.Create(ctx, holdingsvc.CreateInput{
		Code:   c.code,
		Name:   c.name,
		Amount: decimal.NewFromFloat(c.amount),
	})
	if err != nil {
		return fail(err)
	}
	fmt.Printf("added %s (%s): shares=%s settled_nav=%s amount=%s\n",
		holding.Code, holding.Name, holding.Shares.StringFixed(4),
		holding.SettledNav.StringFixed(4), holding.HoldingAmount.StringFixed(2))
	return subcommands.ExitSuccess
}

type listCmd struct{}

func (*listCmd) Name() string             { return "list" }
func (*listCmd) Synopsis() string         { return "list tracked holdings" }
func (*listCmd) Usage() string            { return "list\n" }
func (*listCmd) SetFlags(f *flag.FlagSet) {}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := newService()
	if err != nil {
		return fail(err)
	}
	holdings, err := svc.List(ctx)
	if err != nil {
		return fail(err)
	}
	for _, h := range holdings {
		estimate := "-"
		if h.EstimateNav.Valid {
			estimate = h.EstimateNav.Decimal.StringFixed(4)
		}
		fmt.Printf("%-8s %-24s shares=%-12s settled_nav=%-8s amount=%-12s estimate=%s\n",
			h.Code, h.Name, h.Shares.StringFixed(4), h.SettledNav.StringFixed(4),
			h.HoldingAmount.StringFixed(2), estimate)
	}
	return subcommands.ExitSuccess
}

type removeCmd struct {
	code string
}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "remove a holding and its NAV history" }
func (*removeCmd) Usage() string    { return "remove -code <fund code>\n" }

func (c *removeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.code, "code", "", "fund code")
}

func (c *removeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.code == "" {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	svc, err := newService()
	if err != nil {
		return fail(err)
	}
	if err := svc.Delete(ctx, c.code); err != nil {
		return fail(err)
	}
	fmt.Printf("removed %s\n", c.code)
	return subcommands.ExitSuccess
}

type exportCmd struct {
	out string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the {code, shares} snapshot" }
func (*exportCmd) Usage() string    { return "export [-o <file>]\n" }

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "output file (default stdout)")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := newService()
	if err != nil {
		return fail(err)
	}
	records, err := svc.Export(ctx)
	if err != nil {
		return fail(err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fail(err)
	}
	if c.out == "" {
		fmt.Println(string(data))
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(c.out, data, 0o644); err != nil {
		return fail(err)
	}
	fmt.Printf("exported %d holdings to %s\n", len(records), c.out)
	return subcommands.ExitSuccess
}

type importCmd struct {
	in        string
	overwrite bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a {code, shares} snapshot" }
func (*importCmd) Usage() string    { return "import -i <file> [-overwrite]\n" }

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.in, "i", "", "input file")
	f.BoolVar(&c.overwrite, "overwrite", false, "wipe existing holdings and history first")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.in == "" {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	data, err := os.ReadFile(c.in)
	if err != nil {
		return fail(err)
	}
	var records []holdingsvc.ExportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fail(err)
	}
	svc, err := newService()
	if err != nil {
		return fail(err)
	}
	imported, skipped, err := svc.Import(ctx, records, c.overwrite)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("imported=%d skipped=%d\n", imported, skipped)
	return subcommands.ExitSuccess
}
