package service

import (
	"context"
	"time"

	"github.com/aethm/statvec/logging"
	"github.com/aethm/statvec/statvec"
)

// Request describes one vectorize-and-relay run.
type Request struct {
	// URL is a dataset URL or local file path. Required.
	URL string `json:"url"`

	// Query restricts processing to the feature with this exact name.
	Query string `json:"query,omitempty"`

	// JobID enables the SMPC update and orchestrator notification.
	JobID string `json:"jobId,omitempty"`

	// ClientsList holds the ids of all participating clients; its length is
	// reported to the orchestrator as totalClients.
	ClientsList []string `json:"clientsList,omitempty"`
}

// Result summarizes a completed run. Downstream delivery is best-effort and
// does not affect success.
type Result struct {
	Message       string         `json:"message"`
	OutputPaths   *ArtifactPaths `json:"outputPaths,omitempty"`
	EncodersCount int            `json:"encodersCount"`
	SchemaCount   int            `json:"schemaCount"`
}

// Pipeline wires the vectorization engine to its collaborators: the dataset
// fetcher upstream, the artifact writer, and the SMPC node and orchestrator
// downstream.
type Pipeline struct {
	cfg      *Config
	engine   *statvec.Engine
	fetcher  *Fetcher
	smpc     *SMPCClient
	notifier *Notifier
	poller   *Poller
	writer   *ResultWriter
	metrics  *Metrics
	log      *logging.Logger
}

// NewPipeline builds a Pipeline from the config. Downstream clients are
// only constructed for collaborators the config names.
func NewPipeline(cfg *Config, log *logging.Logger) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		engine:  statvec.NewEngine(),
		fetcher: NewFetcher(time.Duration(cfg.FetchTimeout)*time.Second, cfg.SearchRoots, log),
		metrics: NewMetrics(),
		log:     log,
	}
	if cfg.OutputDir != "" || cfg.ResultsDir != "" {
		p.writer = NewResultWriter(cfg.OutputDir, cfg.ResultsDir, cfg.CompressArtifacts)
	}
	postTimeout := time.Duration(cfg.PostTimeout) * time.Second
	if cfg.SMPCURL != "" {
		p.smpc = NewSMPCClient(cfg.SMPCURL, postTimeout, log)
	}
	if cfg.OrchestratorURL != "" {
		p.notifier = NewNotifier(cfg.OrchestratorURL, postTimeout, log)
		if cfg.PollResults && p.writer != nil {
			p.poller = NewPoller(cfg.OrchestratorURL,
				time.Duration(cfg.PollInterval)*time.Second,
				time.Duration(cfg.PollTimeout)*time.Second,
				p.writer, log)
		}
	}
	return p
}

// Metrics exposes the pipeline's metric set.
func (p *Pipeline) Metrics() *Metrics { return p.metrics }

// Run executes one vectorize-and-relay pass: fetch, enhance, persist,
// update SMPC, notify the orchestrator, and optionally start result
// polling. Only fetch and persistence failures are returned as errors;
// downstream delivery failures are logged and counted.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	dataset, err := p.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	p.log.Infof("[Vectorize] successfully fetched dataset from: %s", req.URL)

	start := time.Now()
	enhanced, encoders, schema := p.engine.Enhance(dataset, req.Query)
	p.metrics.EnhanceDuration.Observe(time.Since(start).Seconds())
	p.metrics.FeaturesVectorized.Add(float64(len(schema)))
	p.log.Infof("[Vectorize] vectorization done: %d encoders, %d schema entries",
		len(encoders), len(schema))

	result := &Result{
		Message:       "Vectorization completed.",
		EncodersCount: len(encoders),
		SchemaCount:   len(schema),
	}
	if p.writer != nil && p.cfg.OutputDir != "" {
		paths, err := p.writer.WriteArtifacts(enhanced, encoders, schema)
		if err != nil {
			return nil, err
		}
		result.OutputPaths = paths
		p.log.Infof("[Vectorize] outputs written to %s", p.cfg.OutputDir)
	}

	p.relay(ctx, req, encoders, schema)
	return result, nil
}

// relay forwards the aggregated encoder to the SMPC node and, on success,
// notifies the orchestrator. Best-effort: failures are logged, never fatal.
func (p *Pipeline) relay(ctx context.Context, req Request, encoders []statvec.EncoderObject, schema []statvec.SchemaEntry) {
	if p.smpc == nil || req.JobID == "" {
		p.log.Infof("[Vectorize] no SMPC target or job id; skipping downstream relay")
		return
	}

	first := statvec.EncoderObject{Type: "int", Data: statvec.Vector{}}
	if len(encoders) > 0 {
		first = encoders[0]
	}
	if err := p.smpc.UpdateDataset(ctx, req.JobID, first); err != nil {
		p.metrics.DownstreamFailures.WithLabelValues("smpc").Inc()
		p.log.Warnf("[Vectorize] SMPC update failed: %v", err)
		return
	}

	totalClients := len(req.ClientsList)
	if p.notifier == nil || p.cfg.ClientID == "" || totalClients == 0 {
		p.log.Infof("[Vectorize] missing orchestrator info; no orchestrator notify")
		return
	}
	if err := p.notifier.Notify(ctx, req.JobID, p.cfg.ClientID, totalClients, schema); err != nil {
		p.metrics.DownstreamFailures.WithLabelValues("orchestrator").Inc()
		p.log.Warnf("[Vectorize] failed to notify orchestrator: %v", err)
		return
	}
	if p.poller != nil {
		p.poller.Start(req.JobID)
	}
}
