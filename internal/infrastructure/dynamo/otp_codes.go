package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/studygroup-api/internal/domain"
)

// otpItem is the stored shape of an OTP record.
// PK: email. expires_at drives DynamoDB's TTL reaper, which may lag by hours,
// so reads compare against expires_at_ms instead.
type otpItem struct {
	Email       string `dynamodbav:"email"`
	Code        string `dynamodbav:"code"`
	ExpiresAt   int64  `dynamodbav:"expires_at"`
	ExpiresAtMs int64  `dynamodbav:"expires_at_ms"`
}

func (it otpItem) record() *domain.OTPRecord {
	return &domain.OTPRecord{
		Email:     it.Email,
		Code:      it.Code,
		ExpiresAt: time.UnixMilli(it.ExpiresAtMs),
	}
}

// OTPCodeRepo is an OTP ledger backed by a DynamoDB table.
type OTPCodeRepo struct {
	client    API
	tableName string
	now       func() time.Time
}

func NewOTPCodeRepo(client API, tableName string) *OTPCodeRepo {
	return &OTPCodeRepo{client: client, tableName: tableName, now: time.Now}
}

func (r *OTPCodeRepo) Put(ctx context.Context, email, code string, ttl time.Duration) error {
	exp := r.now().Add(ttl)
	item, err := attributevalue.MarshalMap(otpItem{
		Email:       email,
		Code:        code,
		ExpiresAt:   exp.Unix(),
		ExpiresAtMs: exp.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OTPCodeRepo) Get(ctx context.Context, email string) (*domain.OTPRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("no OTP for %s: %w", email, domain.ErrOTPNotFound)
	}
	var it otpItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal otp: %w", err)
	}
	return it.record(), nil
}

func (r *OTPCodeRepo) Remove(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldEmail, email),
	})
	return err
}

// CompareAndRemove deletes the record only while it still carries code, so
// of two concurrent verifications exactly one sees true.
func (r *OTPCodeRepo) CompareAndRemove(ctx context.Context, email, code string) (bool, error) {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldEmail, email),
		ConditionExpression:       aws.String("#c = :code"),
		ExpressionAttributeNames:  map[string]string{"#c": fieldCode},
		ExpressionAttributeValues: map[string]types.AttributeValue{":code": strValue(code)},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
