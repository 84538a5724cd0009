package main

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"backend-walkpath/internal/config"
	"backend-walkpath/internal/events"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func testDeps() mainDeps {
	return mainDeps{
		loadConfig:      func() config.Config { return config.Config{ServerPort: ":0"} },
		connectPostgres: func(config.Config) (*pgxpool.Pool, error) { return nil, errors.New("no db") },
		connectRedis:    func(config.Config) *redis.Client { return nil },
		migrate:         func(string, *zap.Logger) error { return nil },
		notify:          func(chan<- os.Signal, ...os.Signal) {},
		run: func(context.Context, config.Config, *pgxpool.Pool, *redis.Client, events.Publisher, *zap.Logger, <-chan os.Signal, ListenFunc) error {
			return nil
		},
	}
}

func TestMainInvokesRunner(t *testing.T) {
	origProvider, origRunner := mainDepsProvider, mainRunner
	defer func() { mainDepsProvider, mainRunner = origProvider, origRunner }()

	invoked := false
	mainDepsProvider = testDeps
	mainRunner = func(mainDeps) { invoked = true }

	main()
	if !invoked {
		t.Fatalf("main did not invoke runner")
	}
}

func TestRealMainSurvivesFailedDependencies(t *testing.T) {
	deps := testDeps()
	ranWith := make(chan struct{}, 1)
	deps.run = func(_ context.Context, _ config.Config, pg *pgxpool.Pool, _ *redis.Client, publisher events.Publisher, _ *zap.Logger, _ <-chan os.Signal, _ ListenFunc) error {
		if pg != nil {
			t.Errorf("expected nil pool after failed connect")
		}
		if _, ok := publisher.(events.NopPublisher); !ok {
			t.Errorf("expected nop publisher without brokers")
		}
		ranWith <- struct{}{}
		return errors.New("listen failed")
	}

	realMain(deps)

	select {
	case <-ranWith:
	default:
		t.Fatalf("run was not invoked")
	}
}

func TestNewPublisherSelectsKafka(t *testing.T) {
	logger := zap.NewNop()
	if _, ok := newPublisher(config.Config{}, logger).(events.NopPublisher); !ok {
		t.Fatalf("expected nop publisher when no brokers configured")
	}

	p := newPublisher(config.Config{KafkaBrokers: "localhost:9092", KafkaTopic: "walkpath.paths"}, logger)
	if _, ok := p.(*events.KafkaPublisher); !ok {
		t.Fatalf("expected kafka publisher, got %T", p)
	}
	_ = p.Close()
}

func TestRunShutsDownOnSignal(t *testing.T) {
	signals := make(chan os.Signal, 1)
	listening := make(chan struct{})

	listen := ListenFunc(func(app *fiber.App, addr string) error {
		close(listening)
		// Block like a real listener until shutdown.
		select {}
	})

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), config.Config{ServerPort: ":0", UploadDir: t.TempDir()},
			nil, nil, events.NopPublisher{}, zap.NewNop(), signals, listen)
	}()

	<-listening
	signals <- syscall.SIGTERM

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("run did not shut down after signal")
	}
}

func TestRunReturnsListenError(t *testing.T) {
	listenErr := errors.New("port in use")
	listen := ListenFunc(func(app *fiber.App, addr string) error { return listenErr })

	err := Run(context.Background(), config.Config{ServerPort: ":0", UploadDir: t.TempDir()},
		nil, nil, events.NopPublisher{}, zap.NewNop(), make(chan os.Signal), listen)
	if !errors.Is(err, listenErr) {
		t.Fatalf("expected listen error, got %v", err)
	}
}
