package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// cloudWatchAPI is the minimal CloudWatch surface Metrics needs.
// *cloudwatch.Client satisfies it.
type cloudWatchAPI interface {
	PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics buffers application metrics and flushes them to CloudWatch in
// batches. Failures to publish are dropped; metrics must never take the
// request path down.
type Metrics struct {
	namespace string
	client    cloudWatchAPI

	mu     sync.Mutex
	buffer []types.MetricDatum
}

// CloudWatch caps PutMetricData at 1000 datums per call; flush well below that.
const flushThreshold = 20

// NewMetrics creates a Metrics publisher for the given namespace. A nil
// client disables publishing; recorded metrics are dropped.
func NewMetrics(namespace string, client *cloudwatch.Client) *Metrics {
	m := &Metrics{namespace: namespace}
	if client != nil {
		// Assign only non-nil pointers so the interface field stays nil
		// when metrics are disabled.
		m.client = client
	}
	return m
}

// Count records a counter increment with optional dimension.
func (m *Metrics) Count(ctx context.Context, name string, value float64, dimensions map[string]string) {
	m.record(ctx, name, value, types.StandardUnitCount, dimensions)
}

// Duration records a latency observation in milliseconds.
func (m *Metrics) Duration(ctx context.Context, name string, d time.Duration, dimensions map[string]string) {
	m.record(ctx, name, float64(d.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
}

func (m *Metrics) record(ctx context.Context, name string, value float64, unit types.StandardUnit, dimensions map[string]string) {
	if m.client == nil {
		return
	}
	datum := types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
	}
	for k, v := range dimensions {
		datum.Dimensions = append(datum.Dimensions, types.Dimension{
			Name:  aws.String(k),
			Value: aws.String(v),
		})
	}

	m.mu.Lock()
	m.buffer = append(m.buffer, datum)
	shouldFlush := len(m.buffer) >= flushThreshold
	m.mu.Unlock()

	if shouldFlush {
		m.Flush(ctx)
	}
}

// Flush publishes buffered metrics. Safe to call at any time.
func (m *Metrics) Flush(ctx context.Context) {
	m.mu.Lock()
	if len(m.buffer) == 0 || m.client == nil {
		m.mu.Unlock()
		return
	}
	batch := m.buffer
	m.buffer = nil
	m.mu.Unlock()

	_, _ = m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: batch,
	})
}
