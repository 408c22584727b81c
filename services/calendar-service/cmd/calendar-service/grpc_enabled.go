//go:build protogen

package main

import (
	"context"
	"log/slog"
	"net"

	"github.com/meetwise-labs/meetwise/libs/config"
	"github.com/meetwise-labs/meetwise/libs/db"
	"github.com/meetwise-labs/meetwise/libs/grpcx"
	"github.com/meetwise-labs/meetwise/services/calendar-service/internal/grpcapi"
	"github.com/meetwise-labs/meetwise/services/calendar-service/internal/outbox"
	"github.com/meetwise-labs/meetwise/services/calendar-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

func startGrpcServer(ctx context.Context, logger *slog.Logger, pool *db.Pool) error {
	port := config.String("GRPC_PORT", "9092")
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(grpcx.UnaryServerRequestIDInterceptor()),
	)
	grpcapi.Register(srv, storage.NewEventRepository(pool), outbox.NewRepository(pool))

	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	return nil
}
