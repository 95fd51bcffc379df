package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bring-api/internal/models"
)

func TestAICommentRepositoryReplaceKeepsOnePerMode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAICommentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Replace(ctx, &models.AIComment{DreamID: "d", UserID: "u", Mode: "klasik", Text: "ilk"}))
	require.NoError(t, repo.Replace(ctx, &models.AIComment{DreamID: "d", UserID: "u", Mode: "jung", Text: "gölge"}))
	require.NoError(t, repo.Replace(ctx, &models.AIComment{DreamID: "d", UserID: "u", Mode: "klasik", Text: "ikinci"}))

	total, err := repo.CountModes(ctx, "d", "u")
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	has, err := repo.HasMode(ctx, "d", "u", "klasik")
	require.NoError(t, err)
	require.True(t, has)

	comments, err := repo.ListByDreamAndUser(ctx, "d", "u")
	require.NoError(t, err)
	require.Len(t, comments, 2)

	texts := map[string]string{}
	for _, comment := range comments {
		texts[comment.Mode] = comment.Text
	}
	require.Equal(t, "ikinci", texts["klasik"])

	others, err := repo.ListByDreamAndUser(ctx, "d", "someone-else")
	require.NoError(t, err)
	require.Empty(t, others)
}
