package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/imsolutions/chatdesk/pkg/logging"
)

// dynamoAPI is the subset of the DynamoDB client the store needs.
type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Tables names the DynamoDB table backing each collection.
type Tables struct {
	Leads         string
	Appointments  string
	Conversations string
	Users         string
	Metrics       string
}

// DynamoStore is the primary document store. All calls run under the
// configured timeout; a missed deadline surfaces as ErrTimeout.
type DynamoStore struct {
	client  dynamoAPI
	tables  Tables
	timeout time.Duration
	tracer  trace.Tracer
	logger  *logging.Logger
}

// NewDynamoStore builds a store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, tables Tables, timeout time.Duration, logger *logging.Logger) *DynamoStore {
	if client == nil {
		panic("store: dynamodb client cannot be nil")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{
		client:  client,
		tables:  tables,
		timeout: timeout,
		tracer:  otel.Tracer("chatdesk.internal.store"),
		logger:  logger,
	}
}

func (s *DynamoStore) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// classify maps SDK errors onto the store's error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (s *DynamoStore) putItem(ctx context.Context, table string, record any) error {
	ctx, span := s.tracer.Start(ctx, "store.dynamo.put")
	defer span.End()
	span.SetAttributes(attribute.String("db.table", table))

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("store: marshal item for %s: %w", table, err)
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	return classify(err)
}

func (s *DynamoStore) scanAll(ctx context.Context, table string) ([]map[string]types.AttributeValue, error) {
	ctx, span := s.tracer.Start(ctx, "store.dynamo.scan")
	defer span.End()
	span.SetAttributes(attribute.String("db.table", table))

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, classify(err)
		}
		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			return items, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// PutLead stores a lead record.
func (s *DynamoStore) PutLead(ctx context.Context, lead *Lead) error {
	return s.putItem(ctx, s.tables.Leads, lead)
}

// ListLeads returns every lead record.
func (s *DynamoStore) ListLeads(ctx context.Context) ([]Lead, error) {
	items, err := s.scanAll(ctx, s.tables.Leads)
	if err != nil {
		return nil, err
	}
	leads := make([]Lead, 0, len(items))
	for _, item := range items {
		var l Lead
		if err := attributevalue.UnmarshalMap(item, &l); err != nil {
			s.logger.Warn("skipping undecodable lead record", "error", err)
			continue
		}
		leads = append(leads, l)
	}
	return leads, nil
}

// PutAppointment stores an appointment record keyed by its id.
func (s *DynamoStore) PutAppointment(ctx context.Context, appt *Appointment) error {
	return s.putItem(ctx, s.tables.Appointments, appt)
}

// GetAppointment loads one appointment, ErrNotFound when absent.
func (s *DynamoStore) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Appointments),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, classify(err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	var appt Appointment
	if err := attributevalue.UnmarshalMap(out.Item, &appt); err != nil {
		return nil, fmt.Errorf("store: decode appointment %s: %w", id, err)
	}
	return &appt, nil
}

// ListAppointments returns every appointment record.
func (s *DynamoStore) ListAppointments(ctx context.Context) ([]Appointment, error) {
	items, err := s.scanAll(ctx, s.tables.Appointments)
	if err != nil {
		return nil, err
	}
	appts := make([]Appointment, 0, len(items))
	for _, item := range items {
		var a Appointment
		if err := attributevalue.UnmarshalMap(item, &a); err != nil {
			s.logger.Warn("skipping undecodable appointment record", "error", err)
			continue
		}
		appts = append(appts, a)
	}
	return appts, nil
}

// UpdateAppointmentStatus flips the status field of an existing appointment.
func (s *DynamoStore) UpdateAppointmentStatus(ctx context.Context, id, status string) error {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tables.Appointments),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression: aws.String("SET #s = :status"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: status},
		},
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrNotFound
		}
		return classify(err)
	}
	return nil
}

// PutConversation stores a chat exchange.
func (s *DynamoStore) PutConversation(ctx context.Context, conv *Conversation) error {
	return s.putItem(ctx, s.tables.Conversations, conv)
}

// ListConversations returns every chat exchange.
func (s *DynamoStore) ListConversations(ctx context.Context) ([]Conversation, error) {
	items, err := s.scanAll(ctx, s.tables.Conversations)
	if err != nil {
		return nil, err
	}
	convs := make([]Conversation, 0, len(items))
	for _, item := range items {
		var c Conversation
		if err := attributevalue.UnmarshalMap(item, &c); err != nil {
			s.logger.Warn("skipping undecodable conversation record", "error", err)
			continue
		}
		convs = append(convs, c)
	}
	return convs, nil
}

// PutFormUser stores a form-captured user under a generated push id.
func (s *DynamoStore) PutFormUser(ctx context.Context, user *FormUser) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return s.putItem(ctx, s.tables.Users, user)
}

// ListFormUsers returns every form-captured user.
func (s *DynamoStore) ListFormUsers(ctx context.Context) ([]FormUser, error) {
	items, err := s.scanAll(ctx, s.tables.Users)
	if err != nil {
		return nil, err
	}
	users := make([]FormUser, 0, len(items))
	for _, item := range items {
		var u FormUser
		if err := attributevalue.UnmarshalMap(item, &u); err != nil {
			s.logger.Warn("skipping undecodable user record", "error", err)
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

// IncrementTotalUsers atomically bumps the total_users counter.
func (s *DynamoStore) IncrementTotalUsers(ctx context.Context) error {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tables.Metrics),
		Key: map[string]types.AttributeValue{
			"metric": &types.AttributeValueMemberS{Value: "total_users"},
		},
		UpdateExpression: aws.String("ADD #v :one"),
		ExpressionAttributeNames: map[string]string{
			"#v": "value",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	return classify(err)
}
