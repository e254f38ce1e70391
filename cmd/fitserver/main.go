package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"google.golang.org/grpc"

	"github.com/ikstudios/step-counter/internal/config"
	"github.com/ikstudios/step-counter/internal/fitservice"
	"github.com/ikstudios/step-counter/internal/logging"
	"github.com/ikstudios/step-counter/internal/store"
)

// #region main
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	fs := pflag.NewFlagSet("fitserver", pflag.ExitOnError)
	listen := fs.String("listen", "localhost:50061", "address to serve the data channel service on")
	dbPath := fs.String("db", cfg.Database.Path, "path to the samples database")
	level := fs.String("log-level", cfg.Log.Level, "diagnostics level")
	fs.Parse(os.Args[1:])

	logger := logging.NewLogger(os.Stderr, nil, logging.ParseLevel(*level))

	db, err := store.NewStore(*dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Fatalf("failed to listen on %s: %v", *listen, err)
	}

	srv := grpc.NewServer()
	fitservice.RegisterDataChannelServer(srv, fitservice.NewServer(fitservice.StoreBackend{Store: db}, logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	logger.Info("data channel service listening", "addr", lis.Addr().String(), "db", *dbPath)
	if err := srv.Serve(lis); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
// #endregion main
