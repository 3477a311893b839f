package dynamodb

import (
	"fmt"

	"algoitny-backend/pkg/common"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// decodeStartKey converts an opaque client cursor back into an
// ExclusiveStartKey. All key attributes in this table are strings.
func decodeStartKey(cursor string) (map[string]types.AttributeValue, error) {
	c, err := common.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	if len(c) == 0 {
		return nil, nil
	}
	key := make(map[string]types.AttributeValue, len(c))
	for name, value := range c {
		key[name] = &types.AttributeValueMemberS{Value: value}
	}
	return key, nil
}

// encodeNextKey converts a LastEvaluatedKey into an opaque client cursor.
func encodeNextKey(lastKey map[string]types.AttributeValue) (string, error) {
	if len(lastKey) == 0 {
		return "", nil
	}
	c := make(common.Cursor, len(lastKey))
	for name, value := range lastKey {
		s, ok := value.(*types.AttributeValueMemberS)
		if !ok {
			return "", fmt.Errorf("unsupported key attribute type for %s", name)
		}
		c[name] = s.Value
	}
	return common.EncodeCursor(c)
}
