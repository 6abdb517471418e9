package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"claimguard.ai/internal/config"
	"claimguard.ai/internal/persistence/indexdb"
	persistlog "claimguard.ai/internal/persistence/log"
	"claimguard.ai/internal/protect/bans"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: bans [-data DIR] [-configs DIR] <command> [flags]

commands:
  add    -ip IP [-reason TEXT] [-by NAME] [-hours N]
  remove -ip IP
  list
  audit  [-kind KIND]   print audit entries (default kind BANNED_CONNECT, "" for all)
`)
	os.Exit(2)
}

func main() {
	var (
		dataDir   = flag.String("data", "./data", "runtime data directory")
		configDir = flag.String("configs", "./configs", "config directory (for the default ban duration)")
	)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}

	logger := log.New(os.Stderr, "[bans] ", log.LstdFlags)

	idx, err := indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"))
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	ctx := context.Background()
	args := flag.Args()[1:]

	switch flag.Arg(0) {
	case "add":
		defHours := 0
		if cfg, err := config.Load(filepath.Join(*configDir, "protection.yaml")); err == nil {
			defHours = cfg.Bans.DefaultDurationHours
		}
		fs := flag.NewFlagSet("add", flag.ExitOnError)
		ip := fs.String("ip", "", "address to ban")
		reason := fs.String("reason", "", "reason shown to the player")
		by := fs.String("by", os.Getenv("USER"), "who issued the ban")
		hours := fs.Int("hours", defHours, "ban length in hours (0 = permanent)")
		_ = fs.Parse(args)

		rec, err := bans.NewRecord(*ip, *reason, *by, time.Now(), time.Duration(*hours)*time.Hour)
		if err != nil {
			logger.Fatalf("add: %v", err)
		}
		if err := idx.AddBan(ctx, rec); err != nil {
			logger.Fatalf("add: %v", err)
		}
		fmt.Printf("banned %s (%s)\n", rec.IP, rec.ID)

	case "remove":
		fs := flag.NewFlagSet("remove", flag.ExitOnError)
		ip := fs.String("ip", "", "address to unban")
		_ = fs.Parse(args)

		norm, err := bans.NormalizeIP(*ip)
		if err != nil {
			logger.Fatalf("remove: %v", err)
		}
		n, err := idx.RemoveBan(ctx, norm)
		if err != nil {
			logger.Fatalf("remove: %v", err)
		}
		fmt.Printf("removed %d ban(s) for %s\n", n, norm)

	case "list":
		recs, err := idx.ListBans(ctx)
		if err != nil {
			logger.Fatalf("list: %v", err)
		}
		now := time.Now()
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "IP\tACTIVE\tEXPIRES\tBY\tREASON")
		for _, r := range recs {
			exp := "never"
			if !r.Permanent() {
				exp = r.ExpiresAt.Local().Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%s\t%v\t%s\t%s\t%s\n", r.IP, r.Active(now), exp, r.BannedBy, r.Reason)
		}
		_ = tw.Flush()

	case "audit":
		fs := flag.NewFlagSet("audit", flag.ExitOnError)
		kind := fs.String("kind", persistlog.AuditBannedConnect, "entry kind to show (empty for all)")
		_ = fs.Parse(args)

		files, err := persistlog.AuditFiles(*dataDir)
		if err != nil {
			logger.Fatalf("audit: %v", err)
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tKIND\tSESSION\tPLAYER\tDETAIL")
		for _, path := range files {
			entries, err := persistlog.ReadAudit(path)
			if err != nil {
				logger.Printf("audit: %v", err)
			}
			for _, e := range entries {
				if *kind != "" && e.Kind != *kind {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Time.Local().Format(time.RFC3339), e.Kind, e.Session, e.Player, e.Detail)
			}
		}
		_ = tw.Flush()

	default:
		usage()
	}
}
