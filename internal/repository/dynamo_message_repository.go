package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/amail-io/amail-ce/internal/models"
)

// DynamoMessageRepository implements MessageRepository against a DynamoDB
// table keyed by (ticket_id, message_sort_key).
type DynamoMessageRepository struct {
	client  *dynamodb.Client
	table   string
	timeout time.Duration
}

// NewDynamoMessageRepository creates a message repository on the given
// table. Every call is bounded by timeout.
func NewDynamoMessageRepository(client *dynamodb.Client, table string, timeout time.Duration) *DynamoMessageRepository {
	return &DynamoMessageRepository{client: client, table: table, timeout: timeout}
}

// Append writes one message item.
func (r *DynamoMessageRepository) Append(ctx context.Context, msg *models.Message) error {
	item, err := attributevalue.MarshalMap(msg)
	if err != nil {
		return fmt.Errorf("marshal message %s: %w", msg.SortKey, err)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return storeError(err)
	}
	return nil
}

// ListByTicket queries a ticket's messages in ascending sort-key order,
// which is chronological order by construction of the key.
func (r *DynamoMessageRepository) ListByTicket(ctx context.Context, ticketID string) ([]*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var messages []*models.Message
	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		KeyConditionExpression: aws.String("ticket_id = :ticket_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ticket_id": &types.AttributeValueMemberS{Value: ticketID},
		},
		ScanIndexForward: aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storeError(err)
		}
		var batch []*models.Message
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal messages for %s: %w", ticketID, err)
		}
		messages = append(messages, batch...)
	}
	return messages, nil
}

// Remove deletes one message item. Used only to compensate an append
// against a ticket that does not exist.
func (r *DynamoMessageRepository) Remove(ctx context.Context, ticketID, sortKey string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"ticket_id":        &types.AttributeValueMemberS{Value: ticketID},
			"message_sort_key": &types.AttributeValueMemberS{Value: sortKey},
		},
	})
	if err != nil {
		return storeError(err)
	}
	return nil
}
