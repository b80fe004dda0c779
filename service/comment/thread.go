package comment

import "github.com/artcorner/art-corner-server/cmd/models"

// ThreadComment is one displayed comment with its directly nested replies.
type ThreadComment struct {
	models.Comment
	Likes    int             `json:"likes"`
	Dislikes int             `json:"dislikes"`
	Replies  []ThreadComment `json:"replies,omitempty"`
}

// buildThread assembles the display tree from a flat comment list. Only
// true top-level comments are promoted; every other comment nests one
// level under the top-level root of its parent chain, so chains deeper
// than one level collapse into their nearest surviving ancestor.
// Comments whose chain never reaches a known top-level comment are
// dropped as orphans.
func buildThread(comments []models.Comment) []ThreadComment {
	byID := make(map[uint]*models.Comment, len(comments))
	for i := range comments {
		byID[comments[i].ID] = &comments[i]
	}

	rootOf := func(c *models.Comment) (uint, bool) {
		seen := make(map[uint]bool)
		cur := c
		for cur.ParentID != nil {
			if seen[cur.ID] {
				return 0, false // cycle guard
			}
			seen[cur.ID] = true
			parent, ok := byID[*cur.ParentID]
			if !ok {
				return 0, false
			}
			cur = parent
		}
		if cur.ID == c.ID {
			return 0, false
		}
		return cur.ID, true
	}

	thread := make([]ThreadComment, 0)
	index := make(map[uint]int)
	for i := range comments {
		if comments[i].ParentID == nil {
			index[comments[i].ID] = len(thread)
			thread = append(thread, wrap(comments[i]))
		}
	}

	for i := range comments {
		c := &comments[i]
		if c.ParentID == nil {
			continue
		}
		rootID, ok := rootOf(c)
		if !ok {
			continue
		}
		pos, ok := index[rootID]
		if !ok {
			continue
		}
		thread[pos].Replies = append(thread[pos].Replies, wrap(*c))
	}

	return thread
}

func wrap(c models.Comment) ThreadComment {
	tc := ThreadComment{Comment: c}
	for _, reaction := range c.Reactions {
		switch reaction.Kind {
		case models.ReactionLike:
			tc.Likes++
		case models.ReactionDislike:
			tc.Dislikes++
		}
	}
	return tc
}
