package dynamodb

import (
	"context"
	"testing"
	"time"

	"algoitny-backend/domain/entities"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProgressRepository_Append(t *testing.T) {
	client := &fakeClient{}
	repo := NewProgressRepository(client, "algoitny", zap.NewNop())
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	err := repo.Append(context.Background(), entities.JobKindScriptGeneration, entities.ProgressEntry{
		JobID:     "job-1",
		Seq:       1,
		Step:      "claim",
		Message:   "claimed by worker-1",
		CreatedAt: createdAt,
	})
	require.NoError(t, err)

	require.Len(t, client.putCalls, 1)
	var item progressItem
	require.NoError(t, attributevalue.UnmarshalMap(client.putCalls[0].Item, &item))
	assert.Equal(t, jobPK(entities.JobKindScriptGeneration, "job-1"), item.PK)
	assert.Equal(t, progressSK(createdAt, 1), item.SK)
	assert.Equal(t, "PROGRESS", item.EntityType)
	assert.Equal(t, "claim", item.Step)
	assert.Greater(t, item.TTL, createdAt.Unix())
}

func TestProgressRepository_List_FollowsPagination(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	makeItem := func(seq int, step string) map[string]types.AttributeValue {
		av, err := attributevalue.MarshalMap(progressItem{
			PK:        jobPK(entities.JobKindScriptGeneration, "job-1"),
			SK:        progressSK(base.Add(time.Duration(seq)*time.Second), seq),
			JobID:     "job-1",
			Seq:       seq,
			Step:      step,
			CreatedAt: base.Add(time.Duration(seq) * time.Second).Format(time.RFC3339Nano),
		})
		require.NoError(t, err)
		return av
	}

	pageTwoToken := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "x"},
	}
	client := &fakeClient{}
	client.query = func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		if in.ExclusiveStartKey == nil {
			return &dynamodb.QueryOutput{
				Items:            []map[string]types.AttributeValue{makeItem(1, "claim")},
				LastEvaluatedKey: pageTwoToken,
			}, nil
		}
		return &dynamodb.QueryOutput{
			Items: []map[string]types.AttributeValue{makeItem(2, "generate")},
		}, nil
	}

	repo := NewProgressRepository(client, "algoitny", zap.NewNop())
	entries, err := repo.List(context.Background(), entities.JobKindScriptGeneration, "job-1")
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Seq)
	assert.Equal(t, "claim", entries[0].Step)
	assert.Equal(t, 2, entries[1].Seq)
	assert.Equal(t, "generate", entries[1].Step)
	assert.Len(t, client.queryCalls, 2)
}
