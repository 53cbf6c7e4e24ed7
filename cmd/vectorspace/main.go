package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"reflect"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/aukilabs/vectorspace/featureflag"
	vshttp "github.com/aukilabs/vectorspace/http"
	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/modules"
	"github.com/aukilabs/vectorspace/modules/commands"
	"github.com/aukilabs/vectorspace/modules/snapshot"
	"github.com/aukilabs/vectorspace/smoketest"
	"github.com/aukilabs/vectorspace/source"
	vswebsocket "github.com/aukilabs/vectorspace/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
	"golang.org/x/sync/errgroup"
)

var (
	// The vectorspace version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "vectorspace_info",
		Help:        "Vectorspace information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr               string        `cli:""        env:"VECTORSPACE_ADDR"                 help:"Listening address for client connections."`
	AdminAddr          string        `cli:""        env:"VECTORSPACE_ADMIN_ADDR"           help:"Admin listening address."`
	PublicEndpoint     string        `cli:""        env:"VECTORSPACE_PUBLIC_ENDPOINT"      help:"The public endpoint where this server is reachable."`
	ServerID           string        `cli:""        env:"VECTORSPACE_SERVER_ID"            help:"The id prefixing the global session ids."`
	PointsFile         string        `cli:""        env:"VECTORSPACE_POINTS_FILE"          help:"A JSON or YAML point file preloaded into a persistent session."`
	WatchPoints        bool          `cli:""        env:"VECTORSPACE_WATCH_POINTS"         help:"Reload the points file into its session when it changes."`
	LogLevel           string        `cli:""        env:"VECTORSPACE_LOG_LEVEL"            help:"Log level (debug|info|warning|error)."`
	LogIndent          bool          `cli:""        env:"VECTORSPACE_LOG_INDENT"           help:"Indent logs."`
	SyncClockInterval  time.Duration `cli:",hidden" env:"VECTORSPACE_SYNC_CLOCK_INTERVAL"  help:"Client sync clock (heartbeat) message interval."`
	ClientIdleTimeout  time.Duration `cli:",hidden" env:"VECTORSPACE_CLIENT_IDLE_TIMEOUT"  help:"Time until an idle client will be disconnected"`
	FrameDuration      time.Duration `cli:",hidden" env:"VECTORSPACE_FRAME_DURATION"       help:"The duration of a session frame."`
	LogSummaryInterval time.Duration `cli:",hidden" env:"VECTORSPACE_LOG_SUMMARY_INTERVAL" help:"The duration between each log summary by connection."`
	SnapshotInterval   time.Duration `cli:",hidden" env:"VECTORSPACE_SNAPSHOT_INTERVAL"    help:"The minimum duration between two snapshots of a session."`
	WatchDebounce      time.Duration `cli:",hidden" env:"VECTORSPACE_WATCH_DEBOUNCE"       help:"The time the points file must stay unchanged before being reloaded."`
	FeatureFlags       []string      `cli:",hidden" env:"VECTORSPACE_FEATURE_FLAGS"        help:"Comma separated feature flags"`
	Version            bool          `cli:""        env:"-"                                help:"Show version."`
	Help               bool          `cli:""        env:"-"                                help:"Show help."`
}

func main() {
	conf := config{
		Addr:               ":4000",
		AdminAddr:          ":18190",
		PublicEndpoint:     "http://localhost:4000",
		ServerID:           "vs",
		LogLevel:           logs.InfoLevel.String(),
		SyncClockInterval:  time.Second * 5,
		ClientIdleTimeout:  time.Minute * 5,
		FrameDuration:      time.Millisecond * 16,
		LogSummaryInterval: time.Minute,
		SnapshotInterval:   time.Millisecond * 250,
		WatchDebounce:      source.DefaultDebounce,
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts the vectorspace widget server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	sessions := models.SessionStore{
		ServerID: conf.ServerID,
	}

	var preloaded *models.Session
	if conf.PointsFile != "" {
		session, err := preloadSession(&sessions, conf)
		if err != nil {
			logs.Fatal(errors.New("preloading points failed").Wrap(err))
		}
		preloaded = session
		defer sessions.Remove(session)
	}

	var ready atomic.Bool
	readinessCheck := ready.Load

	var service http.ServeMux
	service.Handle("/health", vshttp.HandleWithCORS(http.HandlerFunc(vshttp.HandleHealthCheck)))
	service.Handle("/version", vshttp.HandleWithCORS(http.HandlerFunc(vshttp.HandleVersion(version))))
	service.Handle("/ready", vshttp.HandleWithCORS(http.HandlerFunc(vshttp.HandleReadyCheck(readinessCheck))))
	service.Handle(vshttp.SnapshotPattern, vshttp.HandleWithCORS(vshttp.HandleSnapshot(&sessions)))

	service.Handle("/", websocket.Server{
		Handshake: func(c *websocket.Config, r *http.Request) error {
			return nil
		},
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			var wh vswebsocket.Handler = &vswebsocket.WidgetHandler{
				ClientSyncClockInterval: conf.SyncClockInterval,
				ClientIdleTimeout:       conf.ClientIdleTimeout,
				FrameDuration:           conf.FrameDuration,
				Sessions:                &sessions,
				Modules: []modules.Module{
					&commands.Module{},
					&snapshot.Module{MinInterval: conf.SnapshotInterval},
				},
				FeatureFlags: featureflag.New(conf.FeatureFlags),
			}
			h := vswebsocket.HandlerWithLogs(wh, conf.LogSummaryInterval)
			h = vswebsocket.HandlerWithMetrics(h, conf.PublicEndpoint)
			defer h.Close()

			vswebsocket.Handle(ctx, conn, h)
		},
	})

	service.Handle("/ping", websocket.Server{
		Handler: func(ws *websocket.Conn) {
			defer ws.Close()
			io.Copy(ws, ws)
		},
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", vshttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", vshttp.HandleReadyCheck(readinessCheck))
	admin.HandleFunc("POST /smoketest", smoketest.HandleSmokeTest(ctx, smoketest.Options{
		Endpoint:  conf.PublicEndpoint,
		UserAgent: "vectorspace/" + version,
	}))

	g, ctx := errgroup.WithContext(ctx)

	if preloaded != nil && conf.WatchPoints {
		watcher := source.Watcher{
			Path:     conf.PointsFile,
			Target:   preloaded,
			Debounce: conf.WatchDebounce,
		}
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	g.Go(func() error {
		logs.WithTag("version", version).
			WithTag("log_level", conf.LogLevel).
			WithTag("endpoint", conf.PublicEndpoint).
			WithTag("feature_flags", featureflag.New(conf.FeatureFlags).List()).
			Info("starting vectorspace server")

		ready.Store(true)
		defer ready.Store(false)

		return vshttp.ListenAndServe(ctx,
			&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
				vshttp.MetricsPathFormatter)},
			&http.Server{Addr: conf.AdminAddr, Handler: &admin},
		)
	})

	if err := g.Wait(); err != nil {
		logs.Error(errors.New("server stopped").Wrap(err))
		cancel()
		os.Exit(1)
	}
}

func preloadSession(sessions *models.SessionStore, conf config) (*models.Session, error) {
	points, err := source.Load(conf.PointsFile)
	if err != nil {
		return nil, err
	}

	session := models.NewSession(sessions.NewID(), conf.FrameDuration)
	session.Persistent = true
	session.SetPoints(points)
	sessions.Add(session)
	go session.StartDispatchFrames()

	logs.WithTag("session_id", sessions.GlobalSessionID(session.ID)).
		WithTag("path", conf.PointsFile).
		WithTag("points", len(points)).
		Info("points preloaded")
	return session, nil
}

func validateConfig(conf config) error {
	if _, err := url.ParseRequestURI(conf.PublicEndpoint); err != nil {
		return errors.New("invalid public endpoint").Wrap(err)
	}

	if conf.WatchPoints && conf.PointsFile == "" {
		return errors.New("watching points requires a points file")
	}

	if conf.FrameDuration <= 0 {
		return errors.New("frame duration must be positive").
			WithTag("frame_duration", conf.FrameDuration)
	}

	return nil
}
