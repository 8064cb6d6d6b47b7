package cmd

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/etnz/coinfolio"
)

// decimalFlag is a flag.Value for quantities and prices. Thousands separators are ignored.
type decimalFlag struct {
	value decimal.Decimal
}

func (d *decimalFlag) String() string { return d.value.String() }

func (d *decimalFlag) Set(s string) error {
	v, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	d.value = v
	return nil
}

func (d *decimalFlag) quantity() coinfolio.Quantity { return coinfolio.Q(d.value) }
func (d *decimalFlag) money() coinfolio.Money       { return coinfolio.USD(d.value) }

// visited returns the names of the flags set on the command line.
func visited(f *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return set
}

// parseIDs parses the positional arguments as ids.
func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseID parses the only positional argument as an id.
func parseID(f *flag.FlagSet) (int64, error) {
	if f.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one id, got %d arguments", f.NArg())
	}
	ids, err := parseIDs(f.Args())
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}
