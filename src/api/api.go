// File: src/api/api.go

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coparental/guardlink/src/api/config"
	apidata "github.com/coparental/guardlink/src/api/data"
	"github.com/coparental/guardlink/src/api/types"
	"github.com/coparental/guardlink/src/api/webserver"
	"github.com/coparental/guardlink/src/shared/data"
)

func main() {
	cfg := config.Load()

	db := data.MustMySQL(cfg.MySQLDSN)
	if err := db.AutoMigrate(
		&types.Family{}, &types.Guardian{}, &types.Child{},
		&types.SafetySetting{}, &types.Proposal{},
		&types.ProposalDispute{}, &types.CoolingPeriod{},
		&types.Setting{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	if err := apidata.LoadSettings(db); err != nil {
		log.Printf("Failed to load settings: %v", err)
	}

	rdb := data.MustRedis(cfg.RedisURL)

	ctx, cancel := context.WithCancel(context.Background())

	// Expiry and cooling-completion sweeps run in-process; every
	// transition is CAS-guarded, so extra replicas are harmless.
	sweeper := apidata.NewSweeper(db, rdb)
	go sweeper.Run(ctx, time.Duration(cfg.SweepInterval)*time.Second)

	router := webserver.New(cfg, db, rdb)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		var err error
		if cfg.EnableSSL && cfg.SSLCert != "" && cfg.SSLKey != "" {
			log.Printf("Starting HTTPS server on port %s", cfg.Port)
			tlsReloader, rerr := webserver.NewTLSReloader(cfg.SSLCert, cfg.SSLKey)
			if rerr != nil {
				log.Printf("Failed to create TLS reloader: %v. Falling back to HTTP", rerr)
				err = httpSrv.ListenAndServe()
			} else {
				httpSrv.TLSConfig = tlsReloader.GetConfig()
				err = httpSrv.ListenAndServeTLS("", "")
			}
		} else {
			log.Printf("Starting HTTP server on port %s (SSL not configured)", cfg.Port)
			err = httpSrv.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	log.Printf("GuardLink API listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cancel()
	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
