package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"casechain/config"
	"casechain/crypto"
	"casechain/native/hierarchy"
	"casechain/native/reward"
)

func runAudit(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet(auditCommand, flag.ContinueOnError)
	configPath := fs.String("config", defaultConfig, "Path to the casechain config file")
	dataDir := fs.String("datadir", "", "Override the config DataDir")
	settle := fs.Bool("settle", false, "Rank up every eligible participant and commit the result")
	concurrency := fs.Int("concurrency", 0, "Nodes evaluated in parallel per level (read-only audits only)")
	asJSON := fs.Bool("json", false, "Print the report as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	engine, _, closeFn, err := offlineEngine(*configPath, *dataDir)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var opts []hierarchy.Option
	if *concurrency > 0 {
		opts = append(opts, hierarchy.WithConcurrency(*concurrency))
	}
	report, err := engine.AuditRanks(ctx, *settle, opts...)
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printAudit(stdout, report)
	return nil
}

func printAudit(w io.Writer, report *reward.AuditReport) {
	fmt.Fprintf(w, "participants=%d roots=%d height=%d eligible=%d advanced=%d\n",
		report.Participants, report.Roots, report.Height, report.Eligible, report.Advanced)
	if len(report.Entries) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEPTH\tADDRESS\tCAREER VALUE\tCV RANK\tRANK\tNEXT\tSTATUS")
	for _, entry := range report.Entries {
		status := "eligible"
		switch {
		case entry.Advanced > 0:
			status = fmt.Sprintf("advanced +%d", entry.Advanced)
		case !entry.Eligible:
			status = entry.Blocker
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
			entry.Depth,
			crypto.FormatAddress(entry.Address),
			config.FormatAmount(entry.CareerValue),
			entry.CvRank,
			entry.Rank,
			entry.NextRank,
			status)
	}
	tw.Flush()
}
