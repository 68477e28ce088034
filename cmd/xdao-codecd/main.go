package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"xdao.co/codec/codecconfig"
	"xdao.co/codec/grpccodec"
	"xdao.co/codec/registry"

	_ "xdao.co/codec/basen"
	_ "xdao.co/codec/punycode"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("xdao-codecd", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", "", "Config file (.json, .yaml or .yml)")
	listen := fs.String("listen", "", "Listen address (overrides config; default "+codecconfig.DefaultListen+")")
	mode := fs.String("mode", "", "Compliance mode permissive|strict (overrides config)")
	logLevel := fs.String("log-level", "", "Log level (overrides config)")
	listCodecs := fs.Bool("list-codecs", false, "List served codecs and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	codecs, err := cfg.Enabled()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if *listCodecs {
		for _, c := range codecs {
			if c.Description == "" {
				_, _ = fmt.Fprintf(out, "%s\n", c.Name)
				continue
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\n", c.Name, c.Description)
		}
		return 0
	}

	log, err := cfg.ZapConfig().Build()
	if err != nil {
		fmt.Fprintf(errOut, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()
	grpccodec.SetLogger(log)

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		log.Error("listen failed", zap.String("addr", cfg.Listen), zap.Error(err))
		return 1
	}
	defer lis.Close()

	s := newGRPCServer(cfg, codecs)
	grpccodec.Logger().Info("xdao-codecd listening",
		zap.String("addr", lis.Addr().String()),
		zap.String("mode", cfg.Mode),
		zap.Strings("codecs", names(codecs)),
	)
	if err := serve(ctx, s, lis); err != nil {
		grpccodec.Logger().Error("serve failed", zap.Error(err))
		return 1
	}
	return 0
}

// serve runs s until ctx is cancelled or Serve fails. The shutdown watcher
// exits in both cases.
func serve(ctx context.Context, s *grpc.Server, lis net.Listener) error {
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			grpccodec.Logger().Info("shutting down")
			s.GracefulStop()
		case <-done:
		}
	}()
	err := s.Serve(lis)
	close(done)
	<-stopped
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

func loadConfig(path string) (codecconfig.Config, error) {
	if path == "" {
		return codecconfig.Default(), nil
	}
	return codecconfig.LoadFile(path)
}

func newGRPCServer(cfg codecconfig.Config, codecs []registry.Codec) *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(grpccodec.UnaryLoggingInterceptor(grpccodec.Logger())),
	}
	if cfg.MaxMsgBytes > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(cfg.MaxMsgBytes), grpc.MaxSendMsgSize(cfg.MaxMsgBytes))
	}
	s := grpc.NewServer(opts...)
	srv := grpccodec.NewServer(codecs, cfg.Options)
	grpccodec.RegisterCodecServer(s, srv, srv.Codecs())
	return s
}

func names(codecs []registry.Codec) []string {
	out := make([]string, 0, len(codecs))
	for _, c := range codecs {
		out = append(out, c.Name)
	}
	return out
}
