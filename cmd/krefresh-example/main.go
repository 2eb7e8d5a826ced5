package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mykube-run/krefresh/cmd/krefresh-example/config"
	"github.com/mykube-run/krefresh/pkg/refresher"
	"github.com/mykube-run/krefresh/pkg/registry"
	"github.com/mykube-run/krefresh/pkg/reload"
	"github.com/mykube-run/krefresh/pkg/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	opt := refresher.NewBootstrapOptionFromEnvFlag()
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		addr = ":9090"
	}

	factory := func(client types.ConfigClient, reg *registry.Registry) types.Refresher {
		return reload.New(config.Proxy, client, reg, hdl1, hdl2)
	}
	dopt := refresher.NewOptions().
		WithPreRefresh(preRefresh).
		WithMetrics(refresher.NewMetrics("krefresh", nil))

	b, err := refresher.New(opt, factory, nil, dopt)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create refresh bridge")
	}
	defer b.Close()

	// Initial read, following reads are triggered by change notifications
	if err = b.Refresh(); err != nil {
		log.Fatal().Err(err).Msg("failed to read initial config")
	}
	log.Info().Str("db", db).Interface("config", config.Proxy.Value()).Msg("config loaded")

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Int64("refreshes", b.Dispatcher.Counter()).Msg("shutting down")
}
