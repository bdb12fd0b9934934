package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/config"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/fleet"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/httpapi"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/sensors"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// packetSource abstracts sensors.Client's context-aware reconnect loop
// and sensors.NDJSONReader's plain stdin read behind one interface.
type packetSource interface {
	Next(ctx context.Context) (types.WitsPacket, error)
}

type ndjsonSource struct{ r *sensors.NDJSONReader }

func (n ndjsonSource) Next(_ context.Context) (types.WitsPacket, error) {
	return n.r.Next()
}

type tcpSource struct{ c *sensors.Client }

func (t tcpSource) Next(ctx context.Context) (types.WitsPacket, error) {
	return t.c.NextPacket(ctx)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the pipeline against live sensor input or stdin",
		RunE:  runRun,
	}
	cmd.Flags().String("sensor-addr", "", "TCP address of the ASCII line-protocol sensor feed; empty reads NDJSON from stdin")
	cmd.Flags().Bool("http", true, "serve the read-only dashboard/API")
	cmd.Flags().String("fleet-addr", "", "Redis address for fleet sync; empty disables it")
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	sensorAddr, _ := cmd.Flags().GetString("sensor-addr")
	serveHTTP, _ := cmd.Flags().GetBool("http")
	fleetAddr, _ := cmd.Flags().GetString("fleet-addr")

	preCfg, err := config.New(configFile)
	if err != nil {
		return err
	}

	var hub *fleet.Hub
	if fleetAddr != "" {
		hub = fleet.NewHub(fleet.Config{Addr: fleetAddr}, preCfg.Well.Name)
		defer hub.Close()
	}

	dep, err := buildDeployment(configFile, hub)
	if err != nil {
		return err
	}
	defer dep.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dep.watcher != nil {
		go dep.watcher.Run(ctx)
	}

	if serveHTTP {
		health := func() any {
			return map[string]any{
				"status":          "ok",
				"well":            dep.cfg.Well.Name,
				"dropped_packets": dep.pipeline.DroppedPackets(),
			}
		}
		server, err := httpapi.NewServer(httpapi.DefaultConfig(), dep.store, health)
		if err != nil {
			log.Warn().Err(err).Msg("httpapi server unavailable, continuing without it")
		} else {
			go func() {
				if err := server.Start(); err != nil {
					log.Warn().Err(err).Msg("httpapi server stopped")
				}
			}()
		}
	}

	var packets packetSource
	if sensorAddr != "" {
		packets = tcpSource{sensors.NewClient(sensorAddr, dep.cfg.Well.BitDiameterInches, dep.registry)}
	} else {
		packets = ndjsonSource{sensors.NewNDJSONReader(os.Stdin, dep.cfg.Well.BitDiameterInches)}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		t := dep.registry.StartIngestTimer()
		packet, err := packets.Next(ctx)
		t.Stop()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			dep.registry.PacketsDropped.Inc()
			dep.pipeline.RecordDroppedPacket()
			log.Warn().Err(err).Msg("sensor read failed")
			return fmt.Errorf("run: %w", err)
		}

		dep.registry.PacketsIngested.Inc()
		dep.pipeline.OnPacket(ctx, packet, 1.0)
	}
}
