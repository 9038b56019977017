package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/edirooss/searchd/internal/admin"
	"github.com/edirooss/searchd/internal/index"
	"github.com/edirooss/searchd/internal/rwpool"
	"github.com/edirooss/searchd/internal/server"
	"github.com/edirooss/searchd/internal/storage"
)

func main() {
	// Create Zap logger
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	log := zap.Must(logConfig.Build())
	defer log.Sync()
	log = log.Named("main")

	var (
		baseDir          string
		workers          int
		writerDuration   float32
		readerDuration   float32
		interlap         bool
		startWithWriters bool
		adminAddr        string
	)
	pflag.StringVar(&baseDir, "base-dir", "text_files", "directory holding the indexed corpus")
	pflag.IntVar(&workers, "workers", runtime.NumCPU(), "worker goroutines in the scheduled pool")
	pflag.Float32Var(&writerDuration, "writer-duration", 0.5, "writer phase length in seconds")
	pflag.Float32Var(&readerDuration, "reader-duration", 7.5, "reader phase length in seconds")
	pflag.BoolVar(&interlap, "interlap", false, "allow reader and writer tasks to overlap")
	pflag.BoolVar(&startWithWriters, "start-with-writers", false, "begin with the writer phase active")
	pflag.StringVar(&adminAddr, "admin-addr", "127.0.0.1:8081", "admin HTTP listen address (empty disables)")
	pflag.Parse()

	host, port := "127.0.0.1", 8080
	if args := pflag.Args(); len(args) > 0 {
		host = args[0]
		if len(args) > 1 {
			p, err := strconv.Atoi(args[1])
			if err != nil {
				log.Fatal("invalid port argument", zap.String("port", args[1]), zap.Error(err))
			}
			port = p
		}
	}

	store, err := storage.New(log, baseDir)
	if err != nil {
		log.Fatal("storage init failed", zap.Error(err))
	}

	idx := index.NewManager(log, store)

	start := time.Now()
	added, err := idx.Rebuild()
	if err != nil {
		log.Fatal("index rebuild failed", zap.Error(err))
	}
	log.Info("index built",
		zap.Int("files", added),
		zap.Duration("duration", time.Since(start)))

	pool := rwpool.New(log, rwpool.Config{
		Workers:          workers,
		WriterDuration:   writerDuration,
		ReaderDuration:   readerDuration,
		CanInterlap:      interlap,
		StartWithWriters: startWithWriters,
	})

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal("bind failed", zap.String("addr", addr), zap.Error(err))
	}

	srv := server.New(log, idx, store, pool)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("running search server", zap.String("addr", addr))
		return srv.Serve(ln)
	})

	var adminSrv *http.Server
	if adminAddr != "" {
		adminSrv = &http.Server{
			Addr:    adminAddr,
			Handler: admin.NewRouter(log, idx, pool),

			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,

			ErrorLog: zap.NewStdLog(log.Named("admin").WithOptions(zap.AddCallerSkip(1))),
		}
		g.Go(func() error {
			log.Info("running admin HTTP server", zap.String("addr", adminAddr))
			if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		_ = ln.Close()
		if adminSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = adminSrv.Shutdown(shutdownCtx)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		pool.Terminate(true)
		log.Fatal("server failed", zap.Error(err))
	}

	pool.Terminate(false)
}
