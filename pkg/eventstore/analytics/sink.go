// Package analytics is a fire-and-forget export sink for the event
// log, feeding BigQuery (columnar warehouse) and Bigtable (wide, high
// write-throughput archival) for offline analysis. It never feeds back
// into authorization decisions or the read models in pkg/query — bulk
// analytics is explicitly out of scope for the authorization-serving
// path, so this package only ever receives
// events, never serves them back.
package analytics

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/bigtable"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/coreidentity/authcore/pkg/domain"
	"github.com/coreidentity/authcore/pkg/eventstore"
)

// Row is the BigQuery-inserted shape of an event. Flattened to scalar
// columns since bigquery.Uploader uses struct-tag based schema
// inference and JSON payloads aren't queryable in that form.
type Row struct {
	Position      int64  `bigquery:"position"`
	AggregateType string `bigquery:"aggregate_type"`
	AggregateID   string `bigquery:"aggregate_id"`
	Sequence      int    `bigquery:"sequence"`
	EventType     string `bigquery:"event_type"`
	Payload       string `bigquery:"payload"`
	InstanceID    string `bigquery:"instance_id"`
	ResourceOwner string `bigquery:"resource_owner"`
	CreatedAtUnix int64  `bigquery:"created_at_unix"`
}

// Sink exports events to BigQuery, Bigtable, and DynamoDB. All three
// destinations are best-effort: a failed export is logged and
// dropped, never retried against the hot append path.
type Sink struct {
	log      domain.Logger
	inserter *bigquery.Inserter
	table    *bigtable.Table
	dynamo   *dynamodb.Client

	// BigtableFamily is the column family archival rows are written
	// under.
	bigtableFamily string
	dynamoTable    string
}

// Config selects the destinations a Sink writes to. Any of the three
// destination configs may be left zero to disable that destination.
type Config struct {
	BigQueryDataset *bigquery.Dataset
	BigQueryTable   string
	BigtableTable   *bigtable.Table
	BigtableFamily  string
	DynamoClient    *dynamodb.Client
	DynamoTable     string
}

// New builds a Sink from already-constructed client handles. Client
// construction (auth, project/instance/region selection) is the
// caller's concern, matching the rest of the stack's "inject the
// dependency, don't own its lifecycle" convention.
func New(log domain.Logger, cfg Config) *Sink {
	s := &Sink{
		log: log, table: cfg.BigtableTable, bigtableFamily: cfg.BigtableFamily,
		dynamo: cfg.DynamoClient, dynamoTable: cfg.DynamoTable,
	}
	if cfg.BigQueryDataset != nil && cfg.BigQueryTable != "" {
		s.inserter = cfg.BigQueryDataset.Table(cfg.BigQueryTable).Inserter()
	}
	return s
}

// Export writes events to every configured destination. Errors are
// logged, not returned, so an unavailable warehouse never fails the
// caller (the projection engine). The writes are synchronous: the
// caller waits until every configured destination has been tried.
func (s *Sink) Export(ctx context.Context, events []eventstore.Event) {
	if len(events) == 0 {
		return
	}
	if s.inserter != nil {
		if err := s.exportBigQuery(ctx, events); err != nil {
			s.log.Warn("analytics: bigquery export failed", "error", err, "count", len(events))
		}
	}
	if s.table != nil {
		if err := s.exportBigtable(ctx, events); err != nil {
			s.log.Warn("analytics: bigtable export failed", "error", err, "count", len(events))
		}
	}
	if s.dynamo != nil {
		if err := s.exportDynamoDB(ctx, events); err != nil {
			s.log.Warn("analytics: dynamodb export failed", "error", err, "count", len(events))
		}
	}
}

// dynamoRow is the attributevalue-marshaled shape of an archived
// event. DynamoDB is used for durable, single-event point lookups by
// instance/aggregate/position rather than bulk scans, complementing
// Bigtable's wide-row archival.
type dynamoRow struct {
	PK            string `dynamodbav:"pk"`
	Position      int64  `dynamodbav:"position"`
	AggregateType string `dynamodbav:"aggregate_type"`
	AggregateID   string `dynamodbav:"aggregate_id"`
	Sequence      int    `dynamodbav:"sequence"`
	EventType     string `dynamodbav:"event_type"`
	Payload       string `dynamodbav:"payload"`
	InstanceID    string `dynamodbav:"instance_id"`
	ResourceOwner string `dynamodbav:"resource_owner"`
	CreatedAtUnix int64  `dynamodbav:"created_at_unix"`
}

func (s *Sink) exportDynamoDB(ctx context.Context, events []eventstore.Event) error {
	for _, e := range events {
		row := dynamoRow{
			PK:            fmt.Sprintf("%s#%s", e.InstanceID, e.AggregateID),
			Position:      e.Position,
			AggregateType: e.AggregateType,
			AggregateID:   e.AggregateID,
			Sequence:      e.Sequence,
			EventType:     e.EventType,
			Payload:       string(e.Payload),
			InstanceID:    e.InstanceID,
			ResourceOwner: e.ResourceOwner,
			CreatedAtUnix: e.CreatedAt.Unix(),
		}
		item, err := attributevalue.MarshalMap(row)
		if err != nil {
			return fmt.Errorf("marshaling dynamodb item: %w", err)
		}
		if _, err := s.dynamo.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: &s.dynamoTable,
			Item:      item,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sink) exportBigQuery(ctx context.Context, events []eventstore.Event) error {
	rows := make([]*Row, len(events))
	for i, e := range events {
		rows[i] = &Row{
			Position:      e.Position,
			AggregateType: e.AggregateType,
			AggregateID:   e.AggregateID,
			Sequence:      e.Sequence,
			EventType:     e.EventType,
			Payload:       string(e.Payload),
			InstanceID:    e.InstanceID,
			ResourceOwner: e.ResourceOwner,
			CreatedAtUnix: e.CreatedAt.Unix(),
		}
	}
	return s.inserter.Put(ctx, rows)
}

func (s *Sink) exportBigtable(ctx context.Context, events []eventstore.Event) error {
	muts := make([]*bigtable.Mutation, 0, len(events))
	keys := make([]string, 0, len(events))
	for _, e := range events {
		rowKey := fmt.Sprintf("%s#%s#%019d", e.InstanceID, e.AggregateID, e.Position)
		mut := bigtable.NewMutation()
		mut.Set(s.bigtableFamily, "event_type", bigtable.Now(), []byte(e.EventType))
		mut.Set(s.bigtableFamily, "payload", bigtable.Now(), []byte(e.Payload))
		keys = append(keys, rowKey)
		muts = append(muts, mut)
	}
	errs, err := s.table.ApplyBulk(ctx, keys, muts)
	if err != nil {
		return err
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
