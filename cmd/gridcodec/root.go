// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// root.go — command tree and the state shared by every command: logger,
// registry, optional mapping store and metrics.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AndrewDonelson/gridcodec"
	"github.com/AndrewDonelson/gridcodec/internal/metrics"
)

type options struct {
	schema      string
	markers     bool
	redisAddr   string
	postgresDSN string
	keyPrefix   string
	verbose     bool
	stats       bool
}

type app struct {
	opts     options
	out      io.Writer
	zap      *zap.Logger
	logger   gridcodec.Logger
	registry *gridcodec.Registry
	mappings *gridcodec.MappingStore
	redis    redis.UniversalClient
	prom     *prometheus.Registry
	metrics  gridcodec.MetricsRecorder
	markers  bool
}

func newRootCommand() *cobra.Command {
	a := &app{out: os.Stdout}
	cmd := &cobra.Command{
		Use:           "gridcodec",
		Short:         "Inspect optimized-format data grid records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			return a.init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.opts.schema, "schema", "s", "", "TOML file describing the record types")
	flags.BoolVar(&a.opts.markers, "markers", false, "primitive fields carry a type marker byte")
	flags.StringVar(&a.opts.redisAddr, "redis", "", "Redis address for shared mappings and records")
	flags.StringVar(&a.opts.postgresDSN, "postgres", "", "Postgres DSN for persisted mappings")
	flags.StringVar(&a.opts.keyPrefix, "key-prefix", "", "Redis key prefix")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "debug logging")
	flags.BoolVar(&a.opts.stats, "stats", false, "print decoder metrics to stderr on exit")

	cmd.AddCommand(
		newDumpCommand(a),
		newFieldCommand(a),
		newHasCommand(a),
		newTypesCommand(a),
		newMappingsCommand(a),
		newRecordCommand(a),
		newVersionCommand(a),
	)
	return cmd
}

func (a *app) init(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	zc := zap.NewDevelopmentConfig()
	if !a.opts.verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	zl, err := zc.Build()
	if err != nil {
		return err
	}
	a.zap = zl
	a.logger = gridcodec.NewZapLogger(zl.Sugar())

	a.metrics = metrics.Noop{}
	if a.opts.stats {
		a.prom = prometheus.NewRegistry()
		p, err := metrics.NewPrometheus(a.prom, "gridcodec")
		if err != nil {
			return err
		}
		a.metrics = p
	}

	if a.opts.redisAddr != "" || a.opts.postgresDSN != "" {
		a.mappings, err = gridcodec.NewMappingStore(ctx, gridcodec.MappingConfig{
			RedisAddr:   a.opts.redisAddr,
			PostgresDSN: a.opts.postgresDSN,
			KeyPrefix:   a.opts.keyPrefix,
			Logger:      a.logger,
			Metrics:     a.metrics,
		})
		if err != nil {
			return err
		}
	}

	a.markers = a.opts.markers
	var sf *schemaFile
	if a.opts.schema != "" {
		if sf, err = loadSchemaFile(a.opts.schema); err != nil {
			return err
		}
		a.markers = a.markers || sf.FieldTypeMarkers
	}
	a.registry = gridcodec.NewRegistry(gridcodec.RegistryOptions{
		Mappings:         a.mappings,
		FieldTypeMarkers: a.markers,
		Logger:           a.logger,
	})
	if sf != nil {
		return sf.register(a.registry)
	}
	return nil
}

func (a *app) close() error {
	var errs []error
	if a.prom != nil {
		errs = append(errs, printMetrics(os.Stderr, a.prom))
	}
	if a.mappings != nil {
		errs = append(errs, a.mappings.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.zap != nil {
		_ = a.zap.Sync()
	}
	return errors.Join(errs...)
}

func (a *app) config() gridcodec.Config {
	return gridcodec.Config{
		Resolver:         a.registry,
		FieldTypeMarkers: a.markers,
		Logger:           a.logger,
		Metrics:          a.metrics,
	}
}

func (a *app) decoder(path string) (*gridcodec.Decoder, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	return gridcodec.NewDecoder(data, a.config())
}

func (a *app) redisClient() (redis.UniversalClient, error) {
	if a.opts.redisAddr == "" {
		return nil, fmt.Errorf("%w: --redis is required", gridcodec.ErrInvalidConfig)
	}
	if a.redis == nil {
		a.redis = redis.NewClient(&redis.Options{Addr: a.opts.redisAddr})
	}
	return a.redis, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			sort.Strings(labels)
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				v = float64(m.GetHistogram().GetSampleCount())
			}
			fmt.Fprintf(w, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), v)
		}
	}
	return nil
}
