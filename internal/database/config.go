package database

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	appConfig "github.com/imyashkale/geoconnect/internal/config"
	"github.com/imyashkale/geoconnect/internal/logger"
)

// Config holds the DynamoDB configuration
type Config struct {
	Region           string
	ServersTable     string
	ConnectionsTable string
	CredentialsTable string
}

// DynamoAPI is the subset of the DynamoDB client used by this package
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Client wraps the DynamoDB client
type Client struct {
	DynamoDB DynamoAPI
}

// NewConfig creates a new database configuration from the application config
func NewConfig(appCfg *appConfig.Config) *Config {
	return &Config{
		Region:           appCfg.AWSRegion,
		ServersTable:     appCfg.ServersTableName,
		ConnectionsTable: appCfg.ConnectionsTableName,
		CredentialsTable: appCfg.CredentialsTableName,
	}
}

// NewClient creates a new DynamoDB client
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	// Load AWS SDK config
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	client := &Client{DynamoDB: dynamodb.NewFromConfig(awsCfg)}

	for _, table := range []string{cfg.ServersTable, cfg.ConnectionsTable, cfg.CredentialsTable} {
		if err := client.ensureTableExists(ctx, table); err != nil {
			logger.Warnf("Could not verify table existence: %v", err)
		}
	}

	return client, nil
}

// ensureTableExists checks if the DynamoDB table exists
func (c *Client) ensureTableExists(ctx context.Context, tableName string) error {
	_, err := c.DynamoDB.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		return fmt.Errorf("table %s does not exist or cannot be accessed: %w", tableName, err)
	}

	logger.WithField("table", tableName).Debug("DynamoDB table verified successfully")
	return nil
}
