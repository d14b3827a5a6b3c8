//
// Copyright (C) 2024 dynotx authors
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/dynotx/dynotx
//

package dynotx

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/fogfish/opts"
	"github.com/rs/zerolog"
)

// DynamoDB declares the AWS API used by the library
type DynamoDB interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchGetItem(context.Context, *dynamodb.BatchGetItemInput, ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	TransactWriteItems(context.Context, *dynamodb.TransactWriteItemsInput, ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	CreateTable(context.Context, *dynamodb.CreateTableInput, ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// Option type to configure the client
type Option = opts.Option[Options]

// Config Options
type Options struct {
	service DynamoDB
	logger  zerolog.Logger
}

var (
	// Set DynamoDB client for the client
	WithService = opts.ForType[Options, DynamoDB]()

	// Configure client's DynamoDB to use provided the aws.Config
	WithConfig = opts.FMap(optsFromConfig)

	// Use default aws.Config for the DynamoDB client
	WithDefaultService = opts.From(optsDefaultService)

	// Emit debug telemetry through the logger
	WithLogger = opts.ForType[Options, zerolog.Logger]()
)

func optsDefault() Options {
	return Options{
		logger: zerolog.Nop(),
	}
}

func optsDefaultService(c *Options) error {
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return err
	}
	return optsFromConfig(c, cfg)
}

func optsFromConfig(c *Options, cfg aws.Config) error {
	if c.service == nil {
		c.service = dynamodb.NewFromConfig(cfg)
	}
	return nil
}

// Client is the facade over one DynamoDB connection. Record operations
// are generic functions taking the client, the transaction context is
// executed through it.
type Client struct {
	service DynamoDB
	logger  zerolog.Logger
}

// New creates the client. Without options it dials DynamoDB with the
// default AWS config of the environment.
func New(opt ...Option) (*Client, error) {
	c := optsDefault()
	if err := opts.Apply(&c, opt); err != nil {
		return nil, errInvalidConfig.New(err)
	}

	if c.service == nil {
		if err := optsDefaultService(&c); err != nil {
			return nil, errInvalidConfig.New(err)
		}
	}

	return &Client{service: c.service, logger: c.logger}, nil
}

// Must panics if the client cannot be built
//
//	client := dynotx.Must(dynotx.New())
func Must(c *Client, err error) *Client {
	if err != nil {
		panic(err)
	}
	return c
}
