package converter

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/fx-window-report/internal/config"
	"github.com/ginjaninja78/fx-window-report/internal/logging"
	"github.com/ginjaninja78/fx-window-report/internal/metrics"
	"github.com/ginjaninja78/fx-window-report/internal/report"
	"github.com/ginjaninja78/fx-window-report/internal/timeparse"
	"github.com/ginjaninja78/fx-window-report/internal/types"
	"github.com/ginjaninja78/fx-window-report/internal/workbook"
)

// Generator turns a loaded dataset into an encoded report. It is shared by
// the file pipeline and the HTTP API and is safe for concurrent use.
type Generator struct {
	Builder *report.Builder
	Write   workbook.WriteOptions

	// Metrics may be nil.
	Metrics *metrics.Metrics
	Logger  logrus.FieldLogger
}

// Output is a generated report and its workbook bytes.
type Output struct {
	Report  *report.Report
	Data    []byte
	Elapsed time.Duration
}

// NewGenerator builds a generator from the configuration.
func NewGenerator(cfg *config.Config, logger logrus.FieldLogger, m *metrics.Metrics) *Generator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Generator{
		Builder: cfg.NewBuilder(),
		Write:   cfg.WriteOptions(),
		Metrics: m,
		Logger:  logger,
	}
}

// Generate builds the report for ds over [start, end] and encodes it.
// Data issues are logged as warnings and counted; they do not fail the
// build.
func (g *Generator) Generate(ds *types.Dataset, start, end timeparse.TimeOfDay) (*Output, error) {
	begin := time.Now()
	log := g.Logger.WithFields(logrus.Fields{
		"source": ds.Source,
		"window": fmt.Sprintf("%s-%s", start, end),
	})

	rep, err := g.Builder.Build(ds.Rows, start, end)
	if err != nil {
		result := metrics.ResultError
		if errors.Is(err, report.ErrInsufficientData) {
			result = metrics.ResultInsufficient
		}
		g.Metrics.ObserveReport(result, time.Since(begin), 0)
		return nil, err
	}

	for _, issue := range rep.Issues {
		g.Metrics.ObserveIssue(string(issue.Kind))
		log.WithField("kind", issue.Kind).Warn(issue.String())
	}

	data, err := workbook.Encode(rep.Grid, g.Write)
	if err != nil {
		g.Metrics.ObserveReport(metrics.ResultError, time.Since(begin), len(rep.Observations))
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	elapsed := time.Since(begin)
	g.Metrics.ObserveReport(metrics.ResultSuccess, elapsed, len(rep.Observations))
	log.WithFields(logrus.Fields{
		"records": len(rep.Observations),
		"blocks":  rep.Blocks,
		"issues":  len(rep.Issues),
	}).Debug("Report generated")

	return &Output{Report: rep, Data: data, Elapsed: elapsed}, nil
}
