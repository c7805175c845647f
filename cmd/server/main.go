// cmd/server/main.go
// rollsim similarity server: answers Compare / Fingerprint RPCs about the
// objects under -datadir, logs every comparison to BoltDB and exports
// Prometheus metrics on -metricsPort.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dattu/rollsim/pkg/config"
	"github.com/dattu/rollsim/pkg/protocol"
	"github.com/dattu/rollsim/pkg/service"
	"github.com/dattu/rollsim/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	bolt "go.etcd.io/bbolt"
	"google.golang.org/grpc"
)

func main() {
	/* flags */
	cfgPath := flag.String("config", "", "YAML config file (optional)")
	port := flag.Int("port", 0, "gRPC port (overrides config)")
	metricsPort := flag.Int("metricsPort", 0, "HTTP port for /metrics (overrides config)")
	dataDir := flag.String("datadir", "", "object directory (overrides config)")
	dbPath := flag.String("db", "", "BoltDB result log (overrides config)")
	dump := flag.Bool("dump", false, "print logged results & exit")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *port != 0 {
		cfg.Server.GRPCPort = *port
	}
	if *metricsPort != 0 {
		cfg.Server.MetricsPort = *metricsPort
	}
	if *dataDir != "" {
		cfg.Storage.Datadir = *dataDir
	}
	if *dbPath != "" {
		cfg.Storage.DB = *dbPath
	}

	db, err := bolt.Open(cfg.Storage.DB, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		log.Fatalf("bolt.Open: %v", err)
	}
	defer db.Close()
	results, err := storage.OpenResultLog(db)
	if err != nil {
		log.Fatalf("result log: %v", err)
	}
	defer results.Close()

	if *dump {
		recs, err := results.List()
		if err != nil {
			log.Fatalf("list results: %v", err)
		}
		for _, r := range recs {
			fmt.Printf("%s  %.4f  %s ~ %s\n", r.At.Format(time.RFC3339), r.Score, r.A, r.B)
		}
		return
	}

	if err := os.MkdirAll(cfg.Storage.Datadir, 0o755); err != nil {
		log.Fatalf("mkdir datadir: %v", err)
	}

	metrics := service.NewMetrics()
	metrics.MustRegister(prometheus.DefaultRegisterer)
	srv, err := service.New(cfg.Storage.Datadir, cfg.Engine(), results, metrics)
	if err != nil {
		log.Fatalf("service: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go srv.GCLoop(ctx, cfg.Results.TTL)

	/* /metrics endpoint */
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		http.Handle("/metrics", promhttp.Handler())
		log.Printf("Prometheus metrics on %s/metrics", addr)
		log.Fatal(http.ListenAndServe(addr, nil))
	}()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	grpcServer := grpc.NewServer()
	protocol.RegisterSimilarityServer(grpcServer, srv)
	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	fp := cfg.Engine().Params()
	log.Printf("rollsim server :%d data=%s db=%s %s metrics=%d",
		cfg.Server.GRPCPort, cfg.Storage.Datadir, cfg.Storage.DB, fp, cfg.Server.MetricsPort)
	if err := grpcServer.Serve(lis); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
