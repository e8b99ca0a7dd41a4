package app

import "brandpost/internal/app/model"

func mergeOutcomes(outcomes []postOutcome) ([]model.PostRecord, []model.PostFailure) {
	posts := make([]model.PostRecord, 0, len(outcomes))
	failures := make([]model.PostFailure, 0)
	for _, outcome := range outcomes {
		switch {
		case outcome.record != nil:
			posts = append(posts, *outcome.record)
		case outcome.failure != nil:
			failures = append(failures, *outcome.failure)
		}
	}
	return posts, failures
}

func buildStatistics(requested int, posts []model.PostRecord, failures []model.PostFailure) model.Statistics {
	withVisuals := 0
	for _, post := range posts {
		if post.ImagePath != "" {
			withVisuals++
		}
	}
	return model.Statistics{
		Requested:        requested,
		Succeeded:        len(posts),
		Failed:           len(failures),
		PostsWithVisuals: withVisuals,
	}
}
