package dynamo

import "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

func strValue(v string) *types.AttributeValueMemberS {
	return &types.AttributeValueMemberS{Value: v}
}
