package ctl

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/ledger"
)

// Register wires all tallyctl subcommands into the commander.
func Register(c *subcommands.Commander) {
	c.Register(&addCmd{}, "records")
	c.Register(&listCmd{}, "records")
	c.Register(&removeCmd{}, "records")
	c.Register(&editCmd{}, "records")
	c.Register(&summaryCmd{}, "reports")
	c.Register(&categoriesCmd{}, "reports")
}

// common holds the flags every subcommand shares.
type common struct {
	addr   string
	ledger string
}

func (c *common) setFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "http://localhost:8080", "Base URL of the tally server")
	f.StringVar(&c.ledger, "ledger", "expense", "Ledger to operate on (expense or credit)")
}

func (c *common) base() (string, error) {
	kind := core.Kind(c.ledger)
	if !kind.Valid() {
		return "", fmt.Errorf("unknown ledger %q (want expense or credit)", c.ledger)
	}
	return "/" + kind.Table(), nil
}

func (c *common) client() *apiClient {
	return newAPIClient(c.addr)
}

// parseAmount validates amount input before it goes on the wire. Decimal
// parsing rejects the garbage a shell can produce ("12,5", "1e9x") that
// float parsing would half-accept.
func parseAmount(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}

func printStatus(st ledger.Status) subcommands.ExitStatus {
	if st.Status == "ok" {
		if st.Message != "" {
			fmt.Println(st.Message)
		} else if st.ID != 0 {
			fmt.Printf("ok (id %d)\n", st.ID)
		} else {
			fmt.Println("ok")
		}
		return subcommands.ExitSuccess
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", st.Message)
	return subcommands.ExitFailure
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

// addCmd inserts a record.
type addCmd struct {
	common
	date     string
	amount   string
	category string
	sub      string
	note     string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a record to a ledger" }
func (*addCmd) Usage() string {
	return `tallyctl add -amount <n> -category <c> [-date YYYY-MM-DD] [-sub s] [-note n] [-ledger expense|credit]

  Inserts a record and prints its id.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.date, "date", time.Now().Format("2006-01-02"), "Record date (defaults to today)")
	f.StringVar(&c.amount, "amount", "", "Amount (required)")
	f.StringVar(&c.category, "category", "", "Category (required)")
	f.StringVar(&c.sub, "sub", "", "Subcategory")
	f.StringVar(&c.note, "note", "", "Note")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	base, err := c.base()
	if err != nil {
		return fail(err)
	}
	if c.amount == "" || c.category == "" {
		fmt.Fprintln(os.Stderr, "Error: -amount and -category are required")
		return subcommands.ExitUsageError
	}
	amount, err := parseAmount(c.amount)
	if err != nil {
		return fail(err)
	}

	st, err := c.client().insert(base, map[string]any{
		"date":        c.date,
		"amount":      amount,
		"category":    c.category,
		"subcategory": c.sub,
		"note":        c.note,
	})
	if err != nil {
		return fail(err)
	}
	return printStatus(st)
}

// listCmd prints records in a date range.
type listCmd struct {
	common
	start string
	end   string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list records in a date range" }
func (*listCmd) Usage() string {
	return `tallyctl list -start YYYY-MM-DD -end YYYY-MM-DD [-ledger expense|credit]

  Lists records with dates inside the inclusive range.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.start, "start", "", "Range start date, inclusive (required)")
	f.StringVar(&c.end, "end", "", "Range end date, inclusive (required)")
}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	base, err := c.base()
	if err != nil {
		return fail(err)
	}
	if c.start == "" || c.end == "" {
		fmt.Fprintln(os.Stderr, "Error: -start and -end are required")
		return subcommands.ExitUsageError
	}

	records, err := c.client().list(base, c.start, c.end)
	if err != nil {
		return fail(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tAMOUNT\tCATEGORY\tSUBCATEGORY\tNOTE")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%s\t%s\t%s\n",
			r.ID, r.Date, r.Amount, r.Category, r.Subcategory, r.Note)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

// removeCmd deletes records matching every provided field exactly.
type removeCmd struct {
	common
	date     string
	amount   string
	category string
	sub      string
	note     string
}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "delete records matching all fields exactly" }
func (*removeCmd) Usage() string {
	return `tallyctl remove -date YYYY-MM-DD -amount <n> -category <c> [-sub s] [-note n] [-ledger expense|credit]

  Deletes every record whose fields all match. An omitted -sub or -note
  matches records where that field is empty.
`
}

func (c *removeCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.date, "date", "", "Record date (required)")
	f.StringVar(&c.amount, "amount", "", "Amount (required)")
	f.StringVar(&c.category, "category", "", "Category (required)")
	f.StringVar(&c.sub, "sub", "", "Subcategory")
	f.StringVar(&c.note, "note", "", "Note")
}

func (c *removeCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	base, err := c.base()
	if err != nil {
		return fail(err)
	}
	if c.date == "" || c.amount == "" || c.category == "" {
		fmt.Fprintln(os.Stderr, "Error: -date, -amount and -category are required")
		return subcommands.ExitUsageError
	}
	amount, err := parseAmount(c.amount)
	if err != nil {
		return fail(err)
	}

	st, err := c.client().remove(base, map[string]any{
		"date":        c.date,
		"amount":      amount,
		"category":    c.category,
		"subcategory": c.sub,
		"note":        c.note,
	})
	if err != nil {
		return fail(err)
	}
	return printStatus(st)
}

// editCmd partially updates one record by id. Only flags that were set on
// the command line go into the request, so an unset flag leaves the field
// untouched while an explicit -note "" clears it.
type editCmd struct {
	common
	id       int64
	date     string
	amount   string
	category string
	sub      string
	note     string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "update fields of a record by id" }
func (*editCmd) Usage() string {
	return `tallyctl edit -id <n> [-date d] [-amount a] [-category c] [-sub s] [-note n] [-ledger expense|credit]

  Updates only the fields whose flags are present.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.Int64Var(&c.id, "id", 0, "Record id (required)")
	f.StringVar(&c.date, "date", "", "New date")
	f.StringVar(&c.amount, "amount", "", "New amount")
	f.StringVar(&c.category, "category", "", "New category")
	f.StringVar(&c.sub, "sub", "", "New subcategory")
	f.StringVar(&c.note, "note", "", "New note")
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	base, err := c.base()
	if err != nil {
		return fail(err)
	}
	if c.id == 0 {
		fmt.Fprintln(os.Stderr, "Error: -id is required")
		return subcommands.ExitUsageError
	}

	fields := map[string]any{}
	var amountErr error
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "date":
			fields["date"] = c.date
		case "amount":
			var amount float64
			if amount, amountErr = parseAmount(c.amount); amountErr == nil {
				fields["amount"] = amount
			}
		case "category":
			fields["category"] = c.category
		case "sub":
			fields["subcategory"] = c.sub
		case "note":
			fields["note"] = c.note
		}
	})
	if amountErr != nil {
		return fail(amountErr)
	}

	st, err := c.client().edit(base, c.id, fields)
	if err != nil {
		return fail(err)
	}
	return printStatus(st)
}

// summaryCmd prints per-category totals.
type summaryCmd struct {
	common
	start    string
	end      string
	category string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "show per-category totals for a date range" }
func (*summaryCmd) Usage() string {
	return `tallyctl summary -start YYYY-MM-DD -end YYYY-MM-DD [-category c] [-ledger expense|credit]

  Aggregates amounts by category over the inclusive range.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.start, "start", "", "Range start date, inclusive (required)")
	f.StringVar(&c.end, "end", "", "Range end date, inclusive (required)")
	f.StringVar(&c.category, "category", "", "Restrict to one category")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	base, err := c.base()
	if err != nil {
		return fail(err)
	}
	if c.start == "" || c.end == "" {
		fmt.Fprintln(os.Stderr, "Error: -start and -end are required")
		return subcommands.ExitUsageError
	}

	totals, err := c.client().summary(base, c.start, c.end, c.category)
	if err != nil {
		return fail(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tTOTAL")
	for _, tot := range totals {
		fmt.Fprintf(w, "%s\t%.2f\n", tot.Category, tot.TotalAmount)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

// categoriesCmd dumps the category catalog as served.
type categoriesCmd struct {
	common
}

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "print the category catalog" }
func (*categoriesCmd) Usage() string {
	return `tallyctl categories

  Prints the catalog file as the server returns it.
`
}

func (c *categoriesCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
}

func (c *categoriesCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	data, err := c.client().categories()
	if err != nil {
		return fail(err)
	}
	os.Stdout.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Println()
	}
	return subcommands.ExitSuccess
}
