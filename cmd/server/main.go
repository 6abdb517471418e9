package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"claimguard.ai/internal/config"
	"claimguard.ai/internal/persistence/indexdb"
	persistlog "claimguard.ai/internal/persistence/log"
	"claimguard.ai/internal/service"
	"claimguard.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		configPath = flag.String("config", "", "path to protection.yaml (default: <configs>/protection.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index (ban checks always pass)")
		noAudit    = flag.Bool("disable_audit", false, "disable the compressed audit log")
		watch      = flag.Bool("watch", true, "reload protection.yaml when it changes")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cp := strings.TrimSpace(*configPath)
	if cp == "" {
		cp = filepath.Join(*configDir, "protection.yaml")
	}
	cfg, err := config.Load(cp)
	missing := false
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load config: %v", err)
		}
		logger.Printf("config not found (%s); using defaults", cp)
		cfg = config.Defaults()
		missing = true
	}

	opts := service.Options{Log: logger}

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		opts.Bans = idx
		if missing {
			var n int
			cfg.Materials, n = restoreMaterialLists(idx, cfg.Materials, logger)
			if n > 0 {
				logger.Printf("restored %d material list(s) from the index", n)
			}
		}
		persistMaterialLists(idx, cfg, logger)
	}

	if !*noAudit {
		audit := persistlog.NewAuditLogger(*dataDir)
		defer audit.Close()
		opts.Audit = audit
	}

	svc := service.New(cfg, opts)
	logger.Printf("rules loaded: %d banned words, action=%s", svc.Summary().BannedWords, svc.Summary().ChatAction)

	if *watch {
		w, err := config.Watch(cp, func(c config.Config) {
			svc.Reload(c)
			if idx != nil {
				persistMaterialLists(idx, c, logger)
			}
			logger.Printf("config reloaded: %d banned words, action=%s", svc.Summary().BannedWords, svc.Summary().ChatAction)
		}, func(err error) {
			logger.Printf("config reload: %v (keeping previous rules)", err)
		})
		if err != nil {
			logger.Printf("config watch disabled: %v", err)
		} else {
			defer w.Close()
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", ws.NewServer(svc, logger).Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Printf("shutdown")
}
