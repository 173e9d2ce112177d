package main

import (
	"net/http"

	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"scopeui/pkg/stage/stagetest"
)

var listen = flag.String("listen", "127.0.0.1:8080", "listen addr")
var debug = flag.Bool("debug", false, "set debug")

func main() {
	flag.Parse()

	fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Provide(
			func() (*zap.Logger, error) {
				if *debug {
					return zap.NewDevelopment()
				}
				return zap.NewProduction()
			},
			func() *http.Server {
				return &http.Server{Addr: *listen}
			},
			stagetest.NewServer,
		),
		fx.Invoke(
			stagetest.Serve,
		),
	).Run()
}
