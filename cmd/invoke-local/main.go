// Command invoke-local serves example services on the local development
// provider, with structured logging and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bjaus/invoke"
	"github.com/bjaus/invoke/config"
	"github.com/bjaus/invoke/ioc"
	"github.com/bjaus/invoke/observe"
	"github.com/bjaus/invoke/provider/local"
)

func main() {
	var opts []config.Option
	if _, err := os.Stat(".env"); err == nil {
		opts = append(opts, config.WithDotenv(".env"))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, cleanup, err := observe.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer cleanup()

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	metrics, err := observe.Metrics(reg, "invoke")
	if err != nil {
		logger.Fatal("Failed to register metrics", zap.Error(err))
	}

	p := local.New(cfg, append(observe.Logging(logger), metrics...)...)
	services := declare(p)

	srv := &http.Server{
		Addr: cfg.Listen,
		Handler: local.NewServer(p, services,
			local.WithStage(cfg.Stage),
			local.WithHandler("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Dev server listening",
			zap.String("addr", srv.Addr),
			zap.String("stage", cfg.Stage),
			zap.Int("services", len(services)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start dev server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down dev server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Dev server forced to shutdown", zap.Error(err))
	}
}

// greeter builds greetings with a fixed salutation.
type greeter struct {
	salutation string
}

func (g *greeter) greet(name string) string {
	return fmt.Sprintf("%s, %s!", g.salutation, name)
}

func declare(p *invoke.Provider) []*invoke.Service {
	p.Container().Declare("greeter", ioc.Singleton, func(_ context.Context, args ...any) (any, error) {
		salutation, _ := args[0].(string)
		return &greeter{salutation: salutation}, nil
	})

	hello := invoke.NewService("hello",
		invoke.Bind2(func(_ context.Context, name string, g *greeter) (map[string]any, error) {
			if name == "" {
				name = "world"
			}
			return map[string]any{"message": g.greet(name)}, nil
		}),
		invoke.Param("name"),
		invoke.Inject("greeter", "Hello"),
	)
	p.Metadata().Set(invoke.AttrRoute, hello.Name, "greetings/hello")

	relay := invoke.NewService("relay",
		func(ctx context.Context, args invoke.Args) (any, error) {
			return p.Invoke(ctx, hello, map[string]any{"name": args.At(0).String()})
		},
		invoke.Param("name"),
	)

	return []*invoke.Service{hello, relay}
}
