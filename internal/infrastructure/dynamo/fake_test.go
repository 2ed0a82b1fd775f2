package dynamo

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeTable is an in-memory single-table stand-in for the DynamoDB client.
// It understands exactly the condition expressions the repos issue.
type fakeTable struct {
	mu    sync.Mutex
	pk    string
	items map[string]map[string]types.AttributeValue
	err   error
}

func newFakeTable(pk string) *fakeTable {
	return &fakeTable{pk: pk, items: map[string]map[string]types.AttributeValue{}}
}

func sval(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.items[sval(in.Item[f.pk])] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[sval(in.Key[f.pk])]}, nil
}

func (f *fakeTable) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	key := sval(in.Key[f.pk])
	if in.ConditionExpression != nil {
		item, ok := f.items[key]
		if !ok || sval(item[in.ExpressionAttributeNames["#c"]]) != sval(in.ExpressionAttributeValues[":code"]) {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	delete(f.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeTable) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	attr := in.ExpressionAttributeNames["#a"]
	want := sval(in.ExpressionAttributeValues[":v"])
	var out []map[string]types.AttributeValue
	for _, item := range f.items {
		if sval(item[attr]) == want {
			out = append(out, item)
		}
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

// TransactWriteItems applies insert-only puts atomically: if any target key
// exists nothing is written.
func (f *fakeTable) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, ti := range in.TransactItems {
		if ti.Put == nil {
			continue
		}
		if _, exists := f.items[sval(ti.Put.Item[f.pk])]; exists {
			return nil, &types.TransactionCanceledException{}
		}
	}
	for _, ti := range in.TransactItems {
		if ti.Put != nil {
			f.items[sval(ti.Put.Item[f.pk])] = ti.Put.Item
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}
