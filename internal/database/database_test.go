package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/imyashkale/geoconnect/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo records requests and returns scripted responses
type fakeDynamo struct {
	items        map[string]map[string]types.AttributeValue
	transactions []*dynamodb.TransactWriteItemsInput
	scans        []*dynamodb.ScanInput
	scanPages    []*dynamodb.ScanOutput
	updateErr    error
	transactErr  error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func keyString(key map[string]types.AttributeValue) string {
	s := ""
	for _, name := range []string{"Id", "ConnectionId", "Kind"} {
		if v, ok := key[name].(*types.AttributeValueMemberS); ok {
			s += name + "=" + v.Value + ";"
		}
	}
	return s
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[keyString(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return &dynamodb.UpdateItemOutput{}, f.updateErr
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scans = append(f.scans, in)
	if len(f.scanPages) == 0 {
		return &dynamodb.ScanOutput{}, nil
	}
	page := f.scanPages[0]
	f.scanPages = f.scanPages[1:]
	return page, nil
}

func (f *fakeDynamo) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.transactions = append(f.transactions, in)
	return &dynamodb.TransactWriteItemsOutput{}, f.transactErr
}

func (f *fakeDynamo) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{}, nil
}

func conditionalCancel() error {
	return &types.TransactionCanceledException{
		Message: aws.String("Transaction cancelled"),
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("None")},
			{Code: aws.String("ConditionalCheckFailed")},
		},
	}
}

func testServer() *models.Server {
	return &models.Server{
		Id:         "srv-1",
		Title:      "Roads",
		OwnerId:    "user-1",
		ServerType: "WMS",
		URL:        "https://example.com/wms",
		Operations: map[string]interface{}{},
		CreatedAt:  time.Unix(1700000000, 0),
		UpdatedAt:  time.Unix(1700000000, 0),
	}
}

func TestCreateServerWritesMarker(t *testing.T) {
	fake := newFakeDynamo()
	table := NewServerTable(&Client{DynamoDB: fake}, "Servers")

	require.NoError(t, table.CreateServer(context.Background(), testServer()))
	require.Len(t, fake.transactions, 1)

	items := fake.transactions[0].TransactItems
	require.Len(t, items, 2)
	marker := items[1].Put
	assert.Equal(t, "attribute_not_exists(Id)", aws.ToString(marker.ConditionExpression))
	assert.Equal(t, ServerUniqueKey("WMS", "https://example.com/wms"), marker.Item["Id"].(*types.AttributeValueMemberS).Value)
}

func TestCreateServerDuplicate(t *testing.T) {
	fake := newFakeDynamo()
	fake.transactErr = conditionalCancel()
	table := NewServerTable(&Client{DynamoDB: fake}, "Servers")

	err := table.CreateServer(context.Background(), testServer())
	assert.ErrorIs(t, err, ErrAlreadyExists)

	fake.transactErr = errors.New("throttled")
	err = table.CreateServer(context.Background(), testServer())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyExists)
}

func TestGetServer(t *testing.T) {
	fake := newFakeDynamo()
	table := NewServerTable(&Client{DynamoDB: fake}, "Servers")
	ctx := context.Background()

	_, err := table.GetServer(ctx, "srv-1")
	assert.ErrorIs(t, err, ErrNotFound)

	av, err := attributevalue.MarshalMap(toServerItem(testServer()))
	require.NoError(t, err)
	fake.items[keyString(idKey("srv-1"))] = av

	server, err := table.GetServer(ctx, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, "Roads", server.Title)
	assert.Equal(t, "WMS", server.ServerType)
	assert.NotNil(t, server.Operations)
	assert.Nil(t, server.LastCheckedAt)

	markerId := ServerUniqueKey("WMS", "https://example.com/wms")
	fake.items[keyString(idKey(markerId))] = map[string]types.AttributeValue{
		"Id":         &types.AttributeValueMemberS{Value: markerId},
		"RecordType": &types.AttributeValueMemberS{Value: recordTypeUnique},
	}
	_, err = table.GetServer(ctx, markerId)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListServersPaginates(t *testing.T) {
	fake := newFakeDynamo()
	table := NewServerTable(&Client{DynamoDB: fake}, "Servers")

	first := testServer()
	second := testServer()
	second.Id = "srv-2"
	av1, _ := attributevalue.MarshalMap(toServerItem(first))
	av2, _ := attributevalue.MarshalMap(toServerItem(second))

	fake.scanPages = []*dynamodb.ScanOutput{
		{Items: []map[string]types.AttributeValue{av1}, LastEvaluatedKey: idKey("srv-1")},
		{Items: []map[string]types.AttributeValue{av2}},
	}

	servers, err := table.ListServers(context.Background())
	require.NoError(t, err)
	assert.Len(t, servers, 2)
	assert.Len(t, fake.scans, 2)
}

func TestUpdateServerMovesMarker(t *testing.T) {
	fake := newFakeDynamo()
	table := NewServerTable(&Client{DynamoDB: fake}, "Servers")
	server := testServer()

	require.NoError(t, table.UpdateServer(context.Background(), server, server.URL))
	assert.Len(t, fake.transactions[0].TransactItems, 1)

	require.NoError(t, table.UpdateServer(context.Background(), server, "https://old.example.com"))
	assert.Len(t, fake.transactions[1].TransactItems, 3)
}

func TestUpdateLivenessMissingServer(t *testing.T) {
	fake := newFakeDynamo()
	fake.updateErr = &types.ConditionalCheckFailedException{Message: aws.String("failed")}
	table := NewServerTable(&Client{DynamoDB: fake}, "Servers")

	err := table.UpdateLiveness(context.Background(), "srv-1", true, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateConnection(t *testing.T) {
	fake := newFakeDynamo()
	table := NewConnectionTable(&Client{DynamoDB: fake}, "Connections", "ConnectionCredentials")
	conn := &models.Connection{Id: "c1", OwnerId: "u1", ServerId: "srv-1", AuthType: "TOKEN", Kind: models.KindToken}

	err := table.CreateConnection(context.Background(), conn, &CredentialRecord{ConnectionId: "c1", Kind: "simple"})
	assert.Error(t, err, "kind mismatch must be rejected before writing")
	assert.Empty(t, fake.transactions)

	require.NoError(t, table.CreateConnection(context.Background(), conn, &CredentialRecord{ConnectionId: "c1", Kind: "token", Token: "sealed"}))
	items := fake.transactions[0].TransactItems
	require.Len(t, items, 3)
	assert.Equal(t, "ConnectionCredentials", aws.ToString(items[2].Put.TableName))

	fake.transactErr = conditionalCancel()
	err = table.CreateConnection(context.Background(), conn, &CredentialRecord{ConnectionId: "c1", Kind: "token"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetCredential(t *testing.T) {
	fake := newFakeDynamo()
	table := NewConnectionTable(&Client{DynamoDB: fake}, "Connections", "ConnectionCredentials")
	ctx := context.Background()

	_, err := table.GetCredential(ctx, "c1", models.KindSimple)
	assert.ErrorIs(t, err, ErrNotFound)

	av, err := attributevalue.MarshalMap(&CredentialRecord{ConnectionId: "c1", Kind: "simple", Username: "alice", Password: "sealed"})
	require.NoError(t, err)
	fake.items[keyString(credentialKey("c1", models.KindSimple))] = av

	rec, err := table.GetCredential(ctx, "c1", models.KindSimple)
	require.NoError(t, err)
	assert.Equal(t, "alice", rec.Username)

	_, err = table.GetCredential(ctx, "c1", models.KindToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListConnectionsFilter(t *testing.T) {
	fake := newFakeDynamo()
	table := NewConnectionTable(&Client{DynamoDB: fake}, "Connections", "ConnectionCredentials")

	_, err := table.ListConnections(context.Background(), ConnectionFilter{OwnerId: "u1", ServerId: "srv-1"})
	require.NoError(t, err)
	require.Len(t, fake.scans, 1)
	assert.Equal(t, "RecordType = :rt AND OwnerId = :owner AND ServerId = :server", aws.ToString(fake.scans[0].FilterExpression))
}

func TestDeleteConnectionRemovesCredentials(t *testing.T) {
	fake := newFakeDynamo()
	table := NewConnectionTable(&Client{DynamoDB: fake}, "Connections", "ConnectionCredentials")
	conn := &models.Connection{Id: "c1", OwnerId: "u1", ServerId: "srv-1"}

	require.NoError(t, table.DeleteConnection(context.Background(), conn))
	assert.Len(t, fake.transactions[0].TransactItems, 4)
}
