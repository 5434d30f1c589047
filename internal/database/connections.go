package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/imyashkale/geoconnect/internal/logger"
	"github.com/imyashkale/geoconnect/internal/models"
)

// ConnectionTable handles DynamoDB operations for connections and their
// credential rows. The credentials table is keyed by (ConnectionId, Kind).
type ConnectionTable struct {
	client           *Client
	tableName        string
	credentialsTable string
}

// CredentialRecord is the stored concretization of a connection.
// Password and Token hold sealed values.
type CredentialRecord struct {
	ConnectionId string `dynamodbav:"ConnectionId"`
	Kind         string `dynamodbav:"Kind"`
	Username     string `dynamodbav:"Username,omitempty"`
	Password     string `dynamodbav:"Password,omitempty"`
	Token        string `dynamodbav:"Token,omitempty"`
	Prefix       string `dynamodbav:"Prefix"`
	CreatedAt    int64  `dynamodbav:"CreatedAt"`
}

// ConnectionFilter narrows ListConnections; empty fields match everything
type ConnectionFilter struct {
	OwnerId  string
	ServerId string
}

type connectionItem struct {
	Id         string `dynamodbav:"Id"`
	RecordType string `dynamodbav:"RecordType"`
	Title      string `dynamodbav:"Title"`
	OwnerId    string `dynamodbav:"OwnerId"`
	ServerId   string `dynamodbav:"ServerId"`
	AuthType   string `dynamodbav:"AuthType"`
	Kind       string `dynamodbav:"Kind"`
	CreatedAt  int64  `dynamodbav:"CreatedAt"`
	UpdatedAt  int64  `dynamodbav:"UpdatedAt"`
}

// NewConnectionTable creates a new ConnectionTable instance
func NewConnectionTable(client *Client, tableName, credentialsTable string) *ConnectionTable {
	return &ConnectionTable{
		client:           client,
		tableName:        tableName,
		credentialsTable: credentialsTable,
	}
}

// ConnectionUniqueKey is the marker item id enforcing (server, owner) uniqueness
func ConnectionUniqueKey(serverId, ownerId string) string {
	return "UNIQUE#connection#" + serverId + "#" + ownerId
}

// CreateConnection stores the base row, its uniqueness marker and its one
// credential row atomically. An existing (server, owner) pair or an existing
// credential row yields ErrAlreadyExists.
func (ct *ConnectionTable) CreateConnection(ctx context.Context, conn *models.Connection, cred *CredentialRecord) error {
	if conn.Kind == models.KindBare || cred == nil || cred.Kind != string(conn.Kind) || cred.ConnectionId != conn.Id {
		return fmt.Errorf("credential record does not match connection %s", conn.Id)
	}

	connAV, err := attributevalue.MarshalMap(toConnectionItem(conn))
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}
	credAV, err := attributevalue.MarshalMap(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal connection credentials: %w", err)
	}

	_, err = ct.client.DynamoDB.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(ct.tableName),
				Item:                connAV,
				ConditionExpression: aws.String("attribute_not_exists(Id)"),
			}},
			{Put: &types.Put{
				TableName: aws.String(ct.tableName),
				Item: map[string]types.AttributeValue{
					"Id":           &types.AttributeValueMemberS{Value: ConnectionUniqueKey(conn.ServerId, conn.OwnerId)},
					"RecordType":   &types.AttributeValueMemberS{Value: recordTypeUnique},
					"ConnectionId": &types.AttributeValueMemberS{Value: conn.Id},
				},
				ConditionExpression: aws.String("attribute_not_exists(Id)"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(ct.credentialsTable),
				Item:                credAV,
				ConditionExpression: aws.String("attribute_not_exists(ConnectionId)"),
			}},
		},
	})
	if err != nil {
		if conditionFailed(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create connection: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"connection_id": conn.Id,
		"server_id":     conn.ServerId,
		"kind":          conn.Kind,
	}).Info("Connection created successfully in DynamoDB")
	return nil
}

// GetConnection retrieves the base connection row by ID
func (ct *ConnectionTable) GetConnection(ctx context.Context, id string) (*models.Connection, error) {
	logger.WithField("connection_id", id).Debug("Retrieving connection from DynamoDB")

	result, err := ct.client.DynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(ct.tableName),
		Key:       idKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	conn, err := unmarshalConnection(result.Item)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection: %w", err)
	}
	if conn == nil {
		return nil, ErrNotFound
	}
	return conn, nil
}

// ListConnections retrieves base connection rows matching filter
func (ct *ConnectionTable) ListConnections(ctx context.Context, filter ConnectionFilter) ([]*models.Connection, error) {
	conditions := []string{"RecordType = :rt"}
	values := map[string]types.AttributeValue{
		":rt": &types.AttributeValueMemberS{Value: recordTypeConnection},
	}
	if filter.OwnerId != "" {
		conditions = append(conditions, "OwnerId = :owner")
		values[":owner"] = &types.AttributeValueMemberS{Value: filter.OwnerId}
	}
	if filter.ServerId != "" {
		conditions = append(conditions, "ServerId = :server")
		values[":server"] = &types.AttributeValueMemberS{Value: filter.ServerId}
	}

	items, err := ct.client.scanAll(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(ct.tableName),
		FilterExpression:          aws.String(strings.Join(conditions, " AND ")),
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan connections: %w", err)
	}

	conns := make([]*models.Connection, 0, len(items))
	for _, item := range items {
		conn, err := unmarshalConnection(item)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal connection: %w", err)
		}
		if conn != nil {
			conns = append(conns, conn)
		}
	}
	return conns, nil
}

// GetCredential retrieves the credential row of the given kind
func (ct *ConnectionTable) GetCredential(ctx context.Context, connectionId string, kind models.ConnectionKind) (*CredentialRecord, error) {
	result, err := ct.client.DynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(ct.credentialsTable),
		Key:       credentialKey(connectionId, kind),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get connection credentials: %w", err)
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	var rec CredentialRecord
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection credentials: %w", err)
	}
	return &rec, nil
}

// DeleteConnection removes the base row, its marker and every credential row
func (ct *ConnectionTable) DeleteConnection(ctx context.Context, conn *models.Connection) error {
	items := []types.TransactWriteItem{
		{Delete: &types.Delete{
			TableName:           aws.String(ct.tableName),
			Key:                 idKey(conn.Id),
			ConditionExpression: aws.String("attribute_exists(Id)"),
		}},
		{Delete: &types.Delete{
			TableName: aws.String(ct.tableName),
			Key:       idKey(ConnectionUniqueKey(conn.ServerId, conn.OwnerId)),
		}},
	}
	for _, kind := range []models.ConnectionKind{models.KindSimple, models.KindToken} {
		items = append(items, types.TransactWriteItem{Delete: &types.Delete{
			TableName: aws.String(ct.credentialsTable),
			Key:       credentialKey(conn.Id, kind),
		}})
	}

	_, err := ct.client.DynamoDB.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		if conditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	logger.WithField("connection_id", conn.Id).Info("Connection deleted successfully from DynamoDB")
	return nil
}

func credentialKey(connectionId string, kind models.ConnectionKind) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"ConnectionId": &types.AttributeValueMemberS{Value: connectionId},
		"Kind":         &types.AttributeValueMemberS{Value: string(kind)},
	}
}

func toConnectionItem(c *models.Connection) connectionItem {
	return connectionItem{
		Id:         c.Id,
		RecordType: recordTypeConnection,
		Title:      c.Title,
		OwnerId:    c.OwnerId,
		ServerId:   c.ServerId,
		AuthType:   c.AuthType,
		Kind:       string(c.Kind),
		CreatedAt:  c.CreatedAt.Unix(),
		UpdatedAt:  c.UpdatedAt.Unix(),
	}
}

// unmarshalConnection converts a DynamoDB item to a Connection. Marker items yield nil.
func unmarshalConnection(item map[string]types.AttributeValue) (*models.Connection, error) {
	var temp connectionItem
	if err := attributevalue.UnmarshalMap(item, &temp); err != nil {
		return nil, err
	}
	if temp.RecordType != recordTypeConnection {
		return nil, nil
	}

	return &models.Connection{
		Id:        temp.Id,
		Title:     temp.Title,
		OwnerId:   temp.OwnerId,
		ServerId:  temp.ServerId,
		AuthType:  temp.AuthType,
		Kind:      models.ConnectionKind(temp.Kind),
		CreatedAt: time.Unix(temp.CreatedAt, 0),
		UpdatedAt: time.Unix(temp.UpdatedAt, 0),
	}, nil
}
