package main

import (
	"flag"
	"fmt"
	"io"
	"math/big"
	"strconv"

	"casechain/config"
	"casechain/native/staking"
)

func runInterest(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet(interestCommand, flag.ContinueOnError)
	configPath := fs.String("config", "", "Config file whose [Staking.Interest] curve to use; defaults apply when empty")
	base := fs.Bool("base", false, "Treat the amount as base units instead of decimal CASE")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: casectl interest [-config path] [-base] <amount> <days>")
	}

	params := staking.DefaultInterestParams()
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		params = cfg.Staking.Interest
	}

	amount, err := parseCLIAmount(fs.Arg(0), *base)
	if err != nil {
		return err
	}
	days, err := strconv.ParseUint(fs.Arg(1), 10, 64)
	if err != nil || days == 0 {
		return fmt.Errorf("invalid days %q", fs.Arg(1))
	}
	interest, err := params.Interest(amount, days)
	if err != nil {
		return err
	}
	total := new(big.Int).Add(amount, interest)
	fmt.Fprintf(stdout, "principal: %s CASE (%s)\n", config.FormatAmount(amount), amount)
	fmt.Fprintf(stdout, "days:      %d\n", days)
	fmt.Fprintf(stdout, "interest:  %s CASE (%s)\n", config.FormatAmount(interest), interest)
	fmt.Fprintf(stdout, "total:     %s CASE (%s)\n", config.FormatAmount(total), total)
	return nil
}

func parseCLIAmount(raw string, base bool) (*big.Int, error) {
	if base {
		amount, ok := new(big.Int).SetString(raw, 10)
		if !ok || amount.Sign() <= 0 {
			return nil, fmt.Errorf("invalid amount %q", raw)
		}
		return amount, nil
	}
	amount, err := config.ParseAmount(raw)
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}
