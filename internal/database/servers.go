package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/imyashkale/geoconnect/internal/logger"
	"github.com/imyashkale/geoconnect/internal/models"
)

// ServerTable handles all DynamoDB operations for servers.
// Each server row is paired with a marker item keyed by its
// (server_type, url) pair; both are written in one transaction.
type ServerTable struct {
	client    *Client
	tableName string
}

type serverItem struct {
	Id            string                 `dynamodbav:"Id"`
	RecordType    string                 `dynamodbav:"RecordType"`
	Title         string                 `dynamodbav:"Title"`
	OwnerId       string                 `dynamodbav:"OwnerId"`
	ServerType    string                 `dynamodbav:"ServerType"`
	URL           string                 `dynamodbav:"URL"`
	Operations    map[string]interface{} `dynamodbav:"Operations"`
	Alive         bool                   `dynamodbav:"Alive"`
	LastCheckedAt int64                  `dynamodbav:"LastCheckedAt,omitempty"`
	CreatedAt     int64                  `dynamodbav:"CreatedAt"`
	UpdatedAt     int64                  `dynamodbav:"UpdatedAt"`
}

// NewServerTable creates a new ServerTable instance
func NewServerTable(client *Client, tableName string) *ServerTable {
	return &ServerTable{
		client:    client,
		tableName: tableName,
	}
}

// ServerUniqueKey is the marker item id enforcing (server_type, url) uniqueness
func ServerUniqueKey(serverType, url string) string {
	return "UNIQUE#server#" + serverType + "#" + url
}

// CreateServer stores a new server. A server with the same type and url
// yields ErrAlreadyExists.
func (st *ServerTable) CreateServer(ctx context.Context, server *models.Server) error {
	av, err := attributevalue.MarshalMap(toServerItem(server))
	if err != nil {
		return fmt.Errorf("failed to marshal server: %w", err)
	}

	_, err = st.client.DynamoDB.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(st.tableName),
				Item:                av,
				ConditionExpression: aws.String("attribute_not_exists(Id)"),
			}},
			{Put: st.putMarker(server)},
		},
	})
	if err != nil {
		if conditionFailed(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"server_id":   server.Id,
		"server_type": server.ServerType,
	}).Info("Server created successfully in DynamoDB")
	return nil
}

// GetServer retrieves a server by ID
func (st *ServerTable) GetServer(ctx context.Context, id string) (*models.Server, error) {
	logger.WithField("server_id", id).Debug("Retrieving server from DynamoDB")

	result, err := st.client.DynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(st.tableName),
		Key:       idKey(id),
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"server_id": id,
			"error":     err.Error(),
		}).Error("Failed to get server from DynamoDB")
		return nil, fmt.Errorf("failed to get server: %w", err)
	}

	if result.Item == nil {
		return nil, ErrNotFound
	}

	server, err := unmarshalServer(result.Item)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal server: %w", err)
	}
	if server == nil {
		// The id belongs to a marker item
		return nil, ErrNotFound
	}
	return server, nil
}

// ListServers retrieves all servers
func (st *ServerTable) ListServers(ctx context.Context) ([]*models.Server, error) {
	items, err := st.client.scanAll(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(st.tableName),
		FilterExpression: aws.String("RecordType = :rt"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rt": &types.AttributeValueMemberS{Value: recordTypeServer},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan servers: %w", err)
	}

	servers := make([]*models.Server, 0, len(items))
	for _, item := range items {
		server, err := unmarshalServer(item)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal server: %w", err)
		}
		if server != nil {
			servers = append(servers, server)
		}
	}
	return servers, nil
}

// UpdateServer writes the mutable attributes of a server. When the url
// changed from previousURL the uniqueness marker moves with it.
func (st *ServerTable) UpdateServer(ctx context.Context, server *models.Server, previousURL string) error {
	opsAV, err := attributevalue.Marshal(server.Operations)
	if err != nil {
		return fmt.Errorf("failed to marshal operations: %w", err)
	}

	update := &types.Update{
		TableName:           aws.String(st.tableName),
		Key:                 idKey(server.Id),
		UpdateExpression:    aws.String("SET Title = :title, #url = :url, Operations = :ops, UpdatedAt = :updated_at"),
		ConditionExpression: aws.String("attribute_exists(Id)"),
		ExpressionAttributeNames: map[string]string{
			"#url": "URL",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":title":      &types.AttributeValueMemberS{Value: server.Title},
			":url":        &types.AttributeValueMemberS{Value: server.URL},
			":ops":        opsAV,
			":updated_at": unixAV(server.UpdatedAt),
		},
	}

	items := []types.TransactWriteItem{{Update: update}}
	if previousURL != server.URL {
		items = append(items,
			types.TransactWriteItem{Delete: &types.Delete{
				TableName: aws.String(st.tableName),
				Key:       idKey(ServerUniqueKey(server.ServerType, previousURL)),
			}},
			types.TransactWriteItem{Put: st.putMarker(server)},
		)
	}

	_, err = st.client.DynamoDB.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		if conditionFailed(err) {
			// Either the row is gone or the new url is taken
			if _, getErr := st.GetServer(ctx, server.Id); errors.Is(getErr, ErrNotFound) {
				return ErrNotFound
			}
			return ErrAlreadyExists
		}
		logger.WithFields(map[string]interface{}{
			"server_id": server.Id,
			"error":     err.Error(),
		}).Error("Failed to update server in DynamoDB")
		return fmt.Errorf("failed to update server: %w", err)
	}

	logger.WithField("server_id", server.Id).Info("Server updated successfully in DynamoDB")
	return nil
}

// UpdateLiveness records the result of a liveness probe
func (st *ServerTable) UpdateLiveness(ctx context.Context, id string, alive bool, checkedAt time.Time) error {
	_, err := st.client.DynamoDB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(st.tableName),
		Key:                 idKey(id),
		UpdateExpression:    aws.String("SET Alive = :alive, LastCheckedAt = :checked"),
		ConditionExpression: aws.String("attribute_exists(Id) AND RecordType = :rt"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":alive":   &types.AttributeValueMemberBOOL{Value: alive},
			":checked": unixAV(checkedAt),
			":rt":      &types.AttributeValueMemberS{Value: recordTypeServer},
		},
	})
	if err != nil {
		if conditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update server liveness: %w", err)
	}
	return nil
}

// DeleteServer removes a server row and its uniqueness marker
func (st *ServerTable) DeleteServer(ctx context.Context, server *models.Server) error {
	_, err := st.client.DynamoDB.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:           aws.String(st.tableName),
				Key:                 idKey(server.Id),
				ConditionExpression: aws.String("attribute_exists(Id)"),
			}},
			{Delete: &types.Delete{
				TableName: aws.String(st.tableName),
				Key:       idKey(ServerUniqueKey(server.ServerType, server.URL)),
			}},
		},
	})
	if err != nil {
		if conditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete server: %w", err)
	}

	logger.WithField("server_id", server.Id).Info("Server deleted successfully from DynamoDB")
	return nil
}

func (st *ServerTable) putMarker(server *models.Server) *types.Put {
	return &types.Put{
		TableName: aws.String(st.tableName),
		Item: map[string]types.AttributeValue{
			"Id":         &types.AttributeValueMemberS{Value: ServerUniqueKey(server.ServerType, server.URL)},
			"RecordType": &types.AttributeValueMemberS{Value: recordTypeUnique},
			"ServerId":   &types.AttributeValueMemberS{Value: server.Id},
		},
		ConditionExpression: aws.String("attribute_not_exists(Id)"),
	}
}

func toServerItem(s *models.Server) serverItem {
	item := serverItem{
		Id:         s.Id,
		RecordType: recordTypeServer,
		Title:      s.Title,
		OwnerId:    s.OwnerId,
		ServerType: s.ServerType,
		URL:        s.URL,
		Operations: s.Operations,
		Alive:      s.Alive,
		CreatedAt:  s.CreatedAt.Unix(),
		UpdatedAt:  s.UpdatedAt.Unix(),
	}
	if s.LastCheckedAt != nil {
		item.LastCheckedAt = s.LastCheckedAt.Unix()
	}
	return item
}

// unmarshalServer converts a DynamoDB item to a Server. Marker items yield nil.
func unmarshalServer(item map[string]types.AttributeValue) (*models.Server, error) {
	var temp serverItem
	if err := attributevalue.UnmarshalMap(item, &temp); err != nil {
		return nil, err
	}
	if temp.RecordType != recordTypeServer {
		return nil, nil
	}

	operations := temp.Operations
	if operations == nil {
		operations = map[string]interface{}{}
	}

	server := &models.Server{
		Id:         temp.Id,
		Title:      temp.Title,
		OwnerId:    temp.OwnerId,
		ServerType: temp.ServerType,
		URL:        temp.URL,
		Operations: operations,
		Alive:      temp.Alive,
		CreatedAt:  time.Unix(temp.CreatedAt, 0),
		UpdatedAt:  time.Unix(temp.UpdatedAt, 0),
	}
	if temp.LastCheckedAt != 0 {
		checked := time.Unix(temp.LastCheckedAt, 0)
		server.LastCheckedAt = &checked
	}
	return server, nil
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"Id": &types.AttributeValueMemberS{Value: id},
	}
}

func unixAV(t time.Time) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(t.Unix(), 10)}
}

// scanAll follows LastEvaluatedKey until the scan is exhausted
func (c *Client) scanAll(ctx context.Context, input *dynamodb.ScanInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		result, err := c.DynamoDB.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, result.Items...)
		if len(result.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}
