package infrastructure

import (
	"context"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/bigtable"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/coreidentity/authcore/pkg/config"
	"github.com/coreidentity/authcore/pkg/domain"
	"github.com/coreidentity/authcore/pkg/eventstore/analytics"
	"github.com/coreidentity/authcore/pkg/projection"
)

// NewAnalyticsExporter builds the best-effort warehouse export sink
// when cfg.Enabled, constructing whichever of the BigQuery/Bigtable/
// DynamoDB clients have a destination configured. Returns a nil
// projection.Exporter when disabled, which the engine treats as "no
// export" rather than an error.
func NewAnalyticsExporter(ctx context.Context, cfg config.AnalyticsConfig, log domain.Logger) (projection.Exporter, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	sinkCfg := analytics.Config{
		BigQueryTable:  cfg.BigQueryTable,
		BigtableFamily: cfg.BigtableFamily,
		DynamoTable:    cfg.DynamoTable,
	}

	if cfg.GCPProjectID != "" && cfg.BigQueryDataset != "" && cfg.BigQueryTable != "" {
		bqClient, err := bigquery.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, err
		}
		sinkCfg.BigQueryDataset = bqClient.Dataset(cfg.BigQueryDataset)
	}

	if cfg.GCPProjectID != "" && cfg.BigtableInstance != "" && cfg.BigtableTable != "" {
		btClient, err := bigtable.NewClient(ctx, cfg.GCPProjectID, cfg.BigtableInstance)
		if err != nil {
			return nil, err
		}
		sinkCfg.BigtableTable = btClient.Open(cfg.BigtableTable)
	}

	if cfg.DynamoTable != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		sinkCfg.DynamoClient = dynamodb.NewFromConfig(awsCfg)
	}

	return analytics.New(log, sinkCfg), nil
}
