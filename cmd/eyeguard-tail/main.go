// eyeguard-tail: print the live metrics stream of an eyeguard daemon
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-eyeguard/internal/log"
	"github.com/teslashibe/go-eyeguard/pkg/client"
	"github.com/teslashibe/go-eyeguard/pkg/pipeline"
)

func main() {
	url := flag.String("url", client.DefaultURL, "Metrics websocket URL")
	level := flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	delay := flag.Duration("reconnect", client.DefaultReconnectDelay, "Delay between reconnect attempts")
	flag.Parse()

	log.Init(*level)

	sub, err := client.New(
		client.WithURL(*url),
		client.WithReconnectDelay(*delay),
		client.WithLogger(log.L()),
		client.OnConnected(func() { fmt.Println("System connected to EyeGuardian Core.") }),
		client.OnDisconnect(func(error) { fmt.Println("Connection lost. Reconnecting...") }),
		client.OnMetrics(func(m pipeline.Metrics) { fmt.Println(formatLine(m)) }),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := sub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func formatLine(m pipeline.Metrics) string {
	face := "no face"
	if m.Face {
		face = fmt.Sprintf("ear=%.3f", m.EAR)
	}
	dry := ""
	if m.IsDry {
		dry = " DRY"
	}
	return fmt.Sprintf("%s #%d %s blinks=%d/%d rate=%d%s redness=%.3f(%s) head=%q overall=%q dist=%.1fcm light=%s risk=%.2f(%s) strain=%d",
		m.Timestamp.Format(time.TimeOnly), m.Seq, face,
		m.Blinks, m.IncompleteBlinks, m.BlinkRate, dry,
		m.Redness, m.RednessLevel,
		m.HeadPosition, m.Overall, m.DistanceCM,
		m.LightLevel, m.RiskScore, m.RiskLevel, m.StrainIndex,
	)
}
