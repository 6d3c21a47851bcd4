package main

import (
	"fmt"
	"io"
	"os"
)

const (
	defaultConfig = "./config.toml"

	interestCommand     = "interest"
	tokenAddressCommand = "token-address"
	tokenCommand        = "token"
	auditCommand        = "audit-ranks"
	seedCommand         = "seed"
	exportCommand       = "export-events"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches one subcommand and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}
	var err error
	switch args[0] {
	case interestCommand:
		err = runInterest(args[1:], stdout)
	case tokenAddressCommand:
		err = runTokenAddress(args[1:], stdout)
	case tokenCommand:
		err = runToken(args[1:], stdout)
	case auditCommand:
		err = runAudit(args[1:], stdout)
	case seedCommand:
		err = runSeed(args[1:], stdout)
	case exportCommand:
		err = runExport(args[1:], stdout)
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: casectl <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  interest [-config path] [-base] <amount> <days>   Preview the interest of a stake")
	fmt.Fprintln(w, "  token-address [-config path]                      Print the CASE ledger address")
	fmt.Fprintln(w, "  token issue [-config path] [-address addr] [-ttl d] [-read-only]")
	fmt.Fprintln(w, "                                                    Issue an API bearer token")
	fmt.Fprintln(w, "  audit-ranks [-config path] [-datadir dir] [-settle] [-json]")
	fmt.Fprintln(w, "                                                    Audit rank eligibility leaves-first")
	fmt.Fprintln(w, "  seed -plan plan.yaml [-config path] [-datadir dir]")
	fmt.Fprintln(w, "                                                    Stake a binary referral tree")
	fmt.Fprintln(w, "  export-events [-config path] [-dsn dsn] [-out file] [-after seq]")
	fmt.Fprintln(w, "                                                    Export indexed events as parquet")
}
