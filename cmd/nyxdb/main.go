// Command nyxdb is the server entry point: it loads configuration,
// builds the keyspace engine, replays the append-only log, starts the
// background cron, and serves client connections until signalled to
// stop.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nyxdb/nyxdb/internal/config"
	"github.com/nyxdb/nyxdb/internal/keyspace"
	"github.com/nyxdb/nyxdb/internal/listener"
	"github.com/nyxdb/nyxdb/internal/logging"
	"github.com/nyxdb/nyxdb/internal/persist"
)

const banner = `
 _ __  _   ___  ____ _| |__
| '_ \| | | \ \/ / _` + "`" + ` | '_ \
| | | | |_| |>  < (_| | |_) |
|_| |_|\__, /_/\_\__,_|_.__/
       |___/
`

func main() {
	log := logging.Default()
	fmt.Print(banner)

	configPath := "./config/nyxdb.conf"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg := config.Load(configPath)
	if cfg.Dir == "" {
		cfg.Dir = "./data"
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		log.Error("can't create data directory %q: %v", cfg.Dir, err)
		os.Exit(1)
	}

	srv := keyspace.NewServer(cfg.Databases, cfg.PerDBMemory, cfg.Maxmemory, cfg.Policy, cfg.MaxSamples)
	srv.Limits = cfg.Limits

	var aofs []listener.AOFAppender
	var rawAofs []*persist.AOF
	stopFsync := make(chan struct{})
	stopRewrite := make(chan struct{})
	if cfg.AofEnabled {
		aofs = make([]listener.AOFAppender, cfg.Databases)
		rawAofs = make([]*persist.AOF, cfg.Databases)
		for i := 0; i < cfg.Databases; i++ {
			a, err := persist.Open(cfg.Dir, i, cfg.AofFsync, log)
			if err != nil {
				log.Error("can't open AOF for db %d: %v", i, err)
				os.Exit(1)
			}
			replayDB(a, srv, i, log)
			a.StartFsyncLoop(stopFsync)
			aofs[i] = a
			rawAofs[i] = a
		}
		startAofRewriteLoop(rawAofs, srv, log, stopRewrite)
	}

	cron := keyspace.NewCron(srv, 100*time.Millisecond)
	cron.Start()

	ls := listener.New(srv, log)
	ls.AOF = aofs

	addr := fmt.Sprintf(":%d", cfg.Port)
	if err := ls.ListenTCP(addr); err != nil {
		log.Error("failed to listen on %s: %v", addr, err)
		os.Exit(1)
	}
	log.Info("nyxdb is up on %s", addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Warn("shutdown signal received, closing listeners...")
	close(stopFsync)
	if cfg.AofEnabled {
		close(stopRewrite)
	}
	cron.Stop()
	ls.Shutdown()
	for _, a := range aofs {
		if closer, ok := a.(interface{ Close() error }); ok && closer != nil {
			closer.Close()
		}
	}
	log.Warn("graceful shutdown complete")
}

func replayDB(a *persist.AOF, srv *keyspace.Server, dbIndex int, log *logging.Logger) {
	dispatch := func(argv []string) keyspace.Result {
		req := keyspace.Request{Argv: argv, ExpiretimeIn: -1}
		return keyspace.Dispatch(srv, dbIndex, req, time.Now())
	}
	if _, err := persist.Replay(a, srv, dbIndex, dispatch); err != nil {
		log.Warn("aof replay for db %d stopped early: %v", dbIndex, err)
	}
}

// aofRewriteInterval mirrors BGREWRITEAOF being a periodic background
// job rather than an online command surface in this module: each DB's
// log is compacted on this cadence instead of being triggered by
// growth-ratio tracking.
const aofRewriteInterval = 10 * time.Minute

// startAofRewriteLoop runs one compaction pass per database on
// aofRewriteInterval until stop is closed.
func startAofRewriteLoop(aofs []*persist.AOF, srv *keyspace.Server, log *logging.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(aofRewriteInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				for i, a := range aofs {
					if a == nil {
						continue
					}
					if err := persist.Rewrite(a, srv.DBs[i], i); err != nil {
						log.Error("aof: rewrite failed for db %d: %v", i, err)
					}
				}
			}
		}
	}()
}
