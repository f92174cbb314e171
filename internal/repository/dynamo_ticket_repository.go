package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/amail-io/amail-ce/internal/models"
)

// Secondary index names on the tickets table. Each index is keyed by the
// filter attribute with last_updated_at as the range key, so descending
// queries come back newest-update first.
const (
	indexByStatus   = "GSI1" // ByStatusUpdated
	indexByAssignee = "GSI2" // ByAssigneeUpdated
	indexByGroup    = "GSI4" // ByGroupUpdated
)

// DynamoTicketRepository implements TicketRepository against a DynamoDB
// table keyed by ticket_id.
type DynamoTicketRepository struct {
	client  *dynamodb.Client
	table   string
	timeout time.Duration
}

// NewDynamoTicketRepository creates a ticket repository on the given
// table. Every call is bounded by timeout.
func NewDynamoTicketRepository(client *dynamodb.Client, table string, timeout time.Duration) *DynamoTicketRepository {
	return &DynamoTicketRepository{client: client, table: table, timeout: timeout}
}

func (r *DynamoTicketRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// Create persists a new ticket item.
func (r *DynamoTicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	item, err := attributevalue.MarshalMap(ticket)
	if err != nil {
		return fmt.Errorf("marshal ticket %s: %w", ticket.TicketID, err)
	}
	ctx, cancel := r.withTimeout(ctx)
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

// GetByID retrieves a single ticket by primary key.
func (r *DynamoTicketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       ticketKey(id),
	})
	if err != nil {
		return nil, storeError(err)
	}
	if len(out.Item) == 0 {
		return nil, models.ErrTicketNotFound
	}
	var ticket models.Ticket
	if err := attributevalue.UnmarshalMap(out.Item, &ticket); err != nil {
		return nil, fmt.Errorf("unmarshal ticket %s: %w", id, err)
	}
	return &ticket, nil
}

// ApplyPatch builds a single conditional update expression from the
// normalized patch. The attribute_exists condition doubles as the
// not-found signal.
func (r *DynamoTicketRepository) ApplyPatch(ctx context.Context, id string, update *models.TicketUpdate) (*models.Ticket, error) {
	expr := "SET last_updated_at = :last_updated"
	values := map[string]types.AttributeValue{
		":last_updated": &types.AttributeValueMemberS{Value: update.UpdatedAt},
	}
	names := map[string]string{}

	p := update.Patch
	if p.Status != nil {
		// "status" is a DynamoDB reserved word.
		expr += ", #status = :status"
		names["#status"] = "status"
		values[":status"] = &types.AttributeValueMemberS{Value: *p.Status}
	}
	if update.ResolvedAt != nil {
		expr += ", resolved_at = :resolved_at"
		values[":resolved_at"] = &types.AttributeValueMemberS{Value: *update.ResolvedAt}
	}
	if p.AssignedTo != nil {
		expr += ", assigned_to = :assigned_to"
		values[":assigned_to"] = &types.AttributeValueMemberS{Value: *p.AssignedTo}
	}
	if p.Priority != nil {
		expr += ", priority = :priority"
		values[":priority"] = &types.AttributeValueMemberS{Value: *p.Priority}
	}
	if p.Category != nil {
		expr += ", category = :category"
		values[":category"] = &types.AttributeValueMemberS{Value: *p.Category}
	}
	if p.TicketGroup != nil {
		expr += ", ticket_group = :ticket_group"
		values[":ticket_group"] = &types.AttributeValueMemberS{Value: *p.TicketGroup}
	}
	if p.NextAction != nil {
		expr += ", next_action = :next_action"
		values[":next_action"] = &types.AttributeValueMemberS{Value: *p.NextAction}
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       ticketKey(id),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(ticket_id)"),
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	out, err := r.client.UpdateItem(ctx, input)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, models.ErrTicketNotFound
		}
		return nil, storeError(err)
	}
	var ticket models.Ticket
	if err := attributevalue.UnmarshalMap(out.Attributes, &ticket); err != nil {
		return nil, fmt.Errorf("unmarshal updated ticket %s: %w", id, err)
	}
	return &ticket, nil
}

// ApplyMessageAggregate bumps the derived ticket fields in one atomic
// conditional update.
func (r *DynamoTicketRepository) ApplyMessageAggregate(ctx context.Context, id string, now string, next models.NextAction) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key:       ticketKey(id),
		UpdateExpression: aws.String(
			"ADD message_count :inc SET last_message_at = :now, last_updated_at = :now, next_action = :next_action"),
		ConditionExpression: aws.String("attribute_exists(ticket_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":inc":         &types.AttributeValueMemberN{Value: "1"},
			":now":         &types.AttributeValueMemberS{Value: now},
			":next_action": &types.AttributeValueMemberS{Value: string(next)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return models.ErrTicketNotFound
		}
		return storeError(err)
	}
	return nil
}

// ListByStatus queries the status index, newest update first.
func (r *DynamoTicketRepository) ListByStatus(ctx context.Context, status models.Status) ([]*models.Ticket, error) {
	return r.queryIndex(ctx, indexByStatus, "#status = :v",
		map[string]string{"#status": "status"},
		map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: string(status)},
		})
}

// ListByAssignee queries the assignee index, newest update first.
func (r *DynamoTicketRepository) ListByAssignee(ctx context.Context, assignedTo string) ([]*models.Ticket, error) {
	return r.queryIndex(ctx, indexByAssignee, "assigned_to = :v", nil,
		map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: assignedTo},
		})
}

// ListByGroup queries the group index, newest update first.
func (r *DynamoTicketRepository) ListByGroup(ctx context.Context, ticketGroup string) ([]*models.Ticket, error) {
	return r.queryIndex(ctx, indexByGroup, "ticket_group = :v", nil,
		map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: ticketGroup},
		})
}

// ListAll scans the whole table; this is the explicit no-filter fallback
// and the only unconditional scan the backend issues.
func (r *DynamoTicketRepository) ListAll(ctx context.Context) ([]*models.Ticket, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var tickets []*models.Ticket
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.table),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storeError(err)
		}
		var batch []*models.Ticket
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal tickets: %w", err)
		}
		tickets = append(tickets, batch...)
	}
	// A scan has no index ordering, so sort here.
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].LastUpdatedAt > tickets[j].LastUpdatedAt
	})
	return tickets, nil
}

func (r *DynamoTicketRepository) queryIndex(ctx context.Context, index, keyCond string, names map[string]string, values map[string]types.AttributeValue) ([]*models.Ticket, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(false), // last_updated_at descending
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}

	var tickets []*models.Ticket
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storeError(err)
		}
		var batch []*models.Ticket
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal tickets: %w", err)
		}
		tickets = append(tickets, batch...)
	}
	return tickets, nil
}

func ticketKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"ticket_id": &types.AttributeValueMemberS{Value: id},
	}
}

// storeError wraps a DynamoDB failure as a retryable upstream error.
// Timeouts surface here as context deadline errors and stay retryable.
func storeError(err error) error {
	return &models.UpstreamError{Service: "store", Retryable: true, Err: err}
}
