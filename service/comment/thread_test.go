package comment

import (
	"testing"

	"github.com/artcorner/art-corner-server/cmd/models"
	"github.com/stretchr/testify/assert"
)

func comment(id uint, parentID *uint, reactions ...models.CommentReaction) models.Comment {
	c := models.Comment{Reactions: reactions}
	c.ID = id
	c.ParentID = parentID
	return c
}

func ptr(id uint) *uint { return &id }

func TestBuildThreadTopLevelAndReplies(t *testing.T) {
	comments := []models.Comment{
		comment(1, nil),
		comment(2, ptr(1)),
		comment(3, ptr(1)),
		comment(4, nil),
	}

	thread := buildThread(comments)

	assert.Len(t, thread, 2)
	assert.Equal(t, uint(1), thread[0].ID)
	assert.Len(t, thread[0].Replies, 2)
	assert.Equal(t, uint(4), thread[1].ID)
	assert.Empty(t, thread[1].Replies)
}

func TestBuildThreadCollapsesDeepChains(t *testing.T) {
	// 3 replies to 2 which replies to 1: both 2 and 3 surface as direct
	// replies of 1.
	comments := []models.Comment{
		comment(1, nil),
		comment(2, ptr(1)),
		comment(3, ptr(2)),
	}

	thread := buildThread(comments)

	assert.Len(t, thread, 1)
	assert.Len(t, thread[0].Replies, 2)
	assert.Equal(t, uint(2), thread[0].Replies[0].ID)
	assert.Equal(t, uint(3), thread[0].Replies[1].ID)
}

func TestBuildThreadDropsOrphans(t *testing.T) {
	// Parent 99 is not in the set, so the reply has no root to attach to.
	comments := []models.Comment{
		comment(1, nil),
		comment(2, ptr(99)),
	}

	thread := buildThread(comments)

	assert.Len(t, thread, 1)
	assert.Empty(t, thread[0].Replies)
}

func TestBuildThreadCountsReactions(t *testing.T) {
	comments := []models.Comment{
		comment(1, nil,
			models.CommentReaction{Kind: models.ReactionLike},
			models.CommentReaction{Kind: models.ReactionLike},
			models.CommentReaction{Kind: models.ReactionDislike},
		),
	}

	thread := buildThread(comments)

	assert.Equal(t, 2, thread[0].Likes)
	assert.Equal(t, 1, thread[0].Dislikes)
}

func TestBuildThreadSurvivesCycles(t *testing.T) {
	// Corrupt data: 2 and 3 point at each other. Neither reaches a
	// top-level root, so both are dropped instead of looping forever.
	comments := []models.Comment{
		comment(1, nil),
		comment(2, ptr(3)),
		comment(3, ptr(2)),
	}

	thread := buildThread(comments)

	assert.Len(t, thread, 1)
	assert.Empty(t, thread[0].Replies)
}
