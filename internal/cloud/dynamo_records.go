// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
)

// DynamoDBAPI is the part of *dynamodb.Client the record store calls.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoDBRecordStore keeps image records in a table keyed by filename.
// PutItem replaces any existing item, which is the upsert.
type DynamoDBRecordStore struct {
	client DynamoDBAPI
	table  string
}

func NewDynamoDBRecordStore(client DynamoDBAPI, table string) *DynamoDBRecordStore {
	return &DynamoDBRecordStore{client: client, table: table}
}

func (s *DynamoDBRecordStore) Upsert(ctx context.Context, record *model.ImageRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", record.Filename, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put %s: %w", record.Filename, err)
	}
	return nil
}

func (s *DynamoDBRecordStore) Get(ctx context.Context, filename string) (*model.ImageRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]ddbtypes.AttributeValue{
			"filename": &ddbtypes.AttributeValueMemberS{Value: filename},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get %s: %w", filename, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrRecordNotFound
	}
	record := &model.ImageRecord{}
	if err := attributevalue.UnmarshalMap(out.Item, record); err != nil {
		return nil, fmt.Errorf("unmarshal record %s: %w", filename, err)
	}
	if record.Tags == nil {
		record.Tags = map[string]string{}
	}
	return record, nil
}
