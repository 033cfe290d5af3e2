// Package projection fans a single configuration change out to every row
// under a partition key in the wide-column store. The projection is a
// denormalized copy of warehouse state and is allowed to be transiently
// stale; rows that never converge are reported, not retried forever.
package projection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ticket-ops/catalog-sync-go/internal/models"
	"github.com/ticket-ops/catalog-sync-go/pkg/logger"
)

const (
	partitionKeyAttr = "id"
	sortKeyAttr      = "sub_id"
	feePctAttr       = "fee_pct"

	maxUpdateAttempts = 5
)

// DynamoClient is the subset of the DynamoDB API the updater needs. Tests
// inject fakes through it.
type DynamoClient interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Updater writes the denormalized fee percentage to every row sharing a
// partition key, with bounded retry on throttling.
type Updater struct {
	client    DynamoClient
	table     string
	baseDelay time.Duration
}

// New creates an Updater against the given table.
func New(client DynamoClient, table string) *Updater {
	return &Updater{
		client:    client,
		table:     table,
		baseDelay: 200 * time.Millisecond,
	}
}

// FixedPointPct converts a decimal percentage string (e.g. "0.075") to its
// fixed-point integer representation (percentage x 100), rounded half-up.
func FixedPointPct(value string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parse fee percentage %q: %w", value, err)
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

// PropagateFeePct queries the full partition (following pagination tokens)
// and issues one conditional update per row. Row failures are aggregated
// into the report instead of failing the operation: the warehouse is the
// source of truth and this projection can be repaired by re-running.
func (u *Updater) PropagateFeePct(ctx context.Context, partitionKey, value string) (*models.FanoutReport, error) {
	feePct, err := FixedPointPct(value)
	if err != nil {
		return nil, err
	}

	report := &models.FanoutReport{PartitionKey: partitionKey}

	items, err := u.queryPartition(ctx, partitionKey)
	if err != nil {
		return nil, fmt.Errorf("query partition %s: %w", partitionKey, err)
	}
	if len(items) == 0 {
		return report, nil
	}

	var accountRows []models.AccountFeeRow
	if err := attributevalue.UnmarshalListOfMaps(items, &accountRows); err != nil {
		return nil, fmt.Errorf("unmarshal partition %s: %w", partitionKey, err)
	}

	for _, row := range accountRows {
		subID := row.SubID
		if err := u.updateRow(ctx, partitionKey, subID, feePct); err != nil {
			fanoutRowsFailed.Inc()
			report.Failed = append(report.Failed, models.RowFailure{
				SubID:  subID,
				Reason: err.Error(),
			})
			logger.Log.Warn("Fan-out row did not converge",
				zap.String("partitionKey", partitionKey),
				zap.String("subId", subID),
				zap.Error(err),
			)
			continue
		}
		fanoutRowsUpdated.Inc()
		report.Updated++
	}

	logger.Log.Info("Fee fan-out finished",
		zap.String("partitionKey", partitionKey),
		zap.Int64("feePct", feePct),
		zap.Int("updated", report.Updated),
		zap.Int("failed", len(report.Failed)),
	)

	return report, nil
}

func (u *Updater) queryPartition(ctx context.Context, partitionKey string) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue

	for {
		out, err := u.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(u.table),
			KeyConditionExpression: aws.String("#pk = :pk"),
			ExpressionAttributeNames: map[string]string{
				"#pk": partitionKeyAttr,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: partitionKey},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			return items, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// updateRow retries on throttling only. Non-throttling errors abort the
// row's retry loop immediately.
func (u *Updater) updateRow(ctx context.Context, partitionKey, subID string, feePct int64) error {
	var lastErr error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		_, err := u.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(u.table),
			Key: map[string]types.AttributeValue{
				partitionKeyAttr: &types.AttributeValueMemberS{Value: partitionKey},
				sortKeyAttr:      &types.AttributeValueMemberS{Value: subID},
			},
			UpdateExpression: aws.String("SET #fp = :v"),
			ExpressionAttributeNames: map[string]string{
				"#fp": feePctAttr,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(feePct, 10)},
			},
		})
		if err == nil {
			return nil
		}
		if !isThrottle(err) {
			return err
		}
		lastErr = err
		// Backoff runs only between attempts: once the final attempt is
		// throttled, exhaustion is reported immediately instead of after a
		// trailing 3.2s sleep that no further attempt would follow.
		if attempt+1 < maxUpdateAttempts {
			fanoutThrottleRetries.Inc()
			if err := u.wait(ctx, attempt); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("throttled after %d attempts: %w", maxUpdateAttempts, lastErr)
}

// wait sleeps 2^attempt / 5 seconds (0.2s, 0.4s, 0.8s, 1.6s) without
// blocking the goroutine on context cancellation.
func (u *Updater) wait(ctx context.Context, attempt int) error {
	delay := u.baseDelay * time.Duration(1<<attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isThrottle(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	if errors.As(err, &throughput) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ProvisionedThroughputExceededException", "ThrottlingException":
			return true
		}
	}
	return false
}
