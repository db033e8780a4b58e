package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/roundtrip/bootstrap"
	"github.com/kbukum/roundtrip/cluster"
	"github.com/kbukum/roundtrip/component"
	"github.com/kbukum/roundtrip/config"
	"github.com/kbukum/roundtrip/errors"
	"github.com/kbukum/roundtrip/harness"
	"github.com/kbukum/roundtrip/logger"
	"github.com/kbukum/roundtrip/observability"
	"github.com/kbukum/roundtrip/version"
)

type runOptions struct {
	*rootOptions
	brokers     []string
	topic       string
	groups      int
	clusterMode string
	client      string
	settle      string
	report      string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one publish-then-verify round trip",
		Example: `  roundtrip run
  roundtrip run --cluster static --brokers localhost:19093 --report report.yml
  roundtrip run --cluster container --client franz-go`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRoundTrip(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&opts.brokers, "brokers", nil, "bootstrap brokers, overrides kafka.brokers")
	f.StringVar(&opts.topic, "topic", "", "topic to publish to")
	f.IntVar(&opts.groups, "groups", 0, "number of consumer groups to verify with")
	f.StringVar(&opts.clusterMode, "cluster", "", "cluster mode: script, static or container")
	f.StringVar(&opts.client, "client", "", "client library: kafka-go or franz-go")
	f.StringVar(&opts.settle, "settle", "", "settle mode: poll or fixed")
	f.StringVar(&opts.report, "report", "", "write the run report as YAML to this file")
	return cmd
}

func (o *runOptions) loadConfig() (*harness.Config, error) {
	var loaderOpts []config.LoaderOption
	if o.configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(o.configFile))
	}
	if o.envFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(o.envFile))
	}
	cfg := &harness.Config{}
	if err := config.LoadConfig("roundtrip", cfg, loaderOpts...); err != nil {
		return nil, err
	}

	if len(o.brokers) > 0 {
		cfg.Kafka.Brokers = o.brokers
	}
	if o.topic != "" {
		cfg.Topic = o.topic
	}
	if o.groups != 0 {
		cfg.Groups = o.groups
	}
	if o.clusterMode != "" {
		cfg.Cluster.Mode = o.clusterMode
	}
	if o.client != "" {
		cfg.Kafka.Client = o.client
	}
	if o.settle != "" {
		cfg.SettleMode = o.settle
	}
	if cfg.Version == "" {
		cfg.Version = version.Version
	}
	return cfg, nil
}

func runRoundTrip(cmd *cobra.Command, opts *runOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	app, err := bootstrap.NewApp(cfg, bootstrap.WithOutput(cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	log := app.Logger

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	metrics, shutdown, err := observability.Init(ctx, cfg.Metrics, observability.ServiceInfo{
		Name:        cfg.Name,
		Version:     version.Get().Short(),
		Environment: cfg.Environment,
	})
	if err != nil {
		return errors.InvalidInput("metrics", err.Error()).WithCause(err)
	}
	app.OnStop(bootstrap.Hook(shutdown))

	return app.RunTask(ctx, func(ctx context.Context) error {
		c, err := harness.NewCluster(cfg, log)
		if err != nil {
			return errors.InvalidInput("cluster.mode", err.Error())
		}
		runner := harness.NewRunner(*cfg, c, log, harness.WithMetrics(metrics))
		log.Info("run starting", logger.Fields(
			logger.FieldRunID, runner.RunID(),
			logger.FieldTopic, runner.Topic(),
			logger.FieldCluster, c.Name(),
			"groups", cfg.Groups,
		))

		report, runErr := runner.Run(ctx)
		summarize(app.Summary, c, report)
		if opts.report != "" {
			if err := report.WriteFile(opts.report); err != nil {
				log.Error("report not written", logger.ErrorFields("report", err))
			} else {
				log.Info("report written", logger.Fields("path", opts.report))
			}
		}
		return runErr
	})
}

func summarize(s *bootstrap.Summary, c cluster.Cluster, report *harness.Report) {
	desc := component.Describe(c)
	state := report.Cluster.State
	if state == "" {
		state = string(cluster.StateFailed)
	}
	s.TrackCluster(c.Name(), desc, state, state == string(cluster.StateReady))

	if p := report.Publish; p != nil {
		s.TrackStep("publish", "acknowledged",
			fmt.Sprintf("topic=%s partition=%d offset=%d bytes=%d", p.Topic, p.Delivery.Partition, p.Delivery.Offset, p.Bytes),
			p.Duration, true)
	}
	for _, res := range report.Results {
		detail := res.Code
		if res.Matched {
			detail = res.Duration.Round(time.Millisecond).String()
		}
		s.TrackPass(res.GroupID, string(res.State), res.Records, detail, res.Matched)
	}
}
