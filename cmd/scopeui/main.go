package main

import (
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var spiPort = flag.String("spi", "", "spi port name, empty for the first one")
var spiMHz = flag.Int64("spi-mhz", 32, "spi clock in MHz")
var chunk = flag.Int("chunk", 64, "bytes per spi transfer")
var dcPin = flag.String("dc", "GPIO24", "data/command pin")
var rstPin = flag.String("rst", "GPIO25", "reset pin")
var csPin = flag.String("cs", "", "chip select pin when not driven by the spi port")
var clkPin = flag.String("clk", "GPIO17", "encoder clk pin")
var dtPin = flag.String("dt", "GPIO18", "encoder dt pin")
var swPin = flag.String("sw", "GPIO27", "encoder switch pin")
var reverse = flag.Bool("reverse", false, "swap encoder direction")
var cooldown = flag.Duration("cooldown", 300*time.Millisecond, "minimum time between button presses")
var encoderPoll = flag.Duration("encoder-poll", time.Millisecond, "encoder sampling interval")

var orientation = flag.String("orientation", "portrait", "portrait, landscape, portrait-flipped or landscape-flipped")
var binarize = flag.Bool("binarize", false, "send every non-black pixel as white")
var light = flag.Uint8("light", 255, "set brightness")

var stageURL = flag.String("stage-url", "http://127.0.0.1:8080", "openflexure server")
var step = flag.Int64("step", 200, "stage steps per detent")
var poll = flag.Duration("poll", time.Second, "stage position poll interval")

var splashSrc = flag.String("splash", "", "splash image path or url")
var splashFor = flag.Duration("splash-for", 2*time.Second, "how long the splash stays up")
var cacheDir = flag.String("cache-dir", "", "directory for fitted splash images")

var mqttAddr = flag.String("mqtt", "", "mqtt broker host:port, empty disables telemetry")
var mqttPrefix = flag.String("mqtt-prefix", "scopeui", "mqtt topic prefix")
var mqttUser = flag.String("mqtt-user", "", "mqtt username")
var mqttPass = flag.String("mqtt-pass", "", "mqtt password")

var virtualMode = flag.Bool("virtual", false, "simulate the panel and read u/d/s from stdin")
var snapshot = flag.String("snapshot", "scopeui.png", "png written from the virtual panel after every event")
var debug = flag.Bool("debug", false, "set debug")

func newLogger() (*zap.Logger, error) {
	if *debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	flag.Parse()

	fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Provide(
			newLogger,
			newHardware,
			newDisplay,
			newStage,
			newMenu,
			newPublisher,
			newApp,
		),
		fx.Invoke(
			run,
		),
	).Run()
}
