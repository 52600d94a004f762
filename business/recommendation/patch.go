package recommendation

import "myLearnCore/domain"

func mergeUserFeatures(f domain.UserFeatures, p domain.UserFeaturesPatch) domain.UserFeatures {
	if p.Grade != nil {
		f.Grade = *p.Grade
	}
	if p.Goal != nil {
		f.Goal = *p.Goal
	}
	if p.TotalStudyTime != nil {
		f.TotalStudyTime = *p.TotalStudyTime
	}
	if p.AverageSessionDuration != nil {
		f.AverageSessionDuration = *p.AverageSessionDuration
	}
	if p.CompletionRate != nil {
		f.CompletionRate = *p.CompletionRate
	}
	if p.AverageScore != nil {
		f.AverageScore = *p.AverageScore
	}
	if p.StreakDays != nil {
		f.StreakDays = *p.StreakDays
	}
	if p.PreferredTopics != nil {
		f.PreferredTopics = p.PreferredTopics
	}
	if p.WeakTopics != nil {
		f.WeakTopics = p.WeakTopics
	}
	if p.StrongTopics != nil {
		f.StrongTopics = p.StrongTopics
	}
	if p.PreferredTimeOfDay != nil {
		f.PreferredTimeOfDay = *p.PreferredTimeOfDay
	}
	if p.StudyFrequency != nil {
		f.StudyFrequency = *p.StudyFrequency
	}
	if p.InteractionPatterns != nil {
		f.InteractionPatterns = p.InteractionPatterns
	}
	return f
}

func mergeTopicFeatures(f domain.TopicFeatures, p domain.TopicFeaturesPatch) domain.TopicFeatures {
	if p.Difficulty != nil {
		f.Difficulty = *p.Difficulty
	}
	if p.EstimatedTime != nil {
		f.EstimatedTime = *p.EstimatedTime
	}
	if p.Section != nil {
		f.Section = *p.Section
	}
	if p.Tags != nil {
		f.Tags = p.Tags
	}
	if p.Popularity != nil {
		f.Popularity = *p.Popularity
	}
	if p.AverageRating != nil {
		f.AverageRating = *p.AverageRating
	}
	if p.CompletionRate != nil {
		f.CompletionRate = *p.CompletionRate
	}
	if p.AverageScore != nil {
		f.AverageScore = *p.AverageScore
	}
	if p.RetryRate != nil {
		f.RetryRate = *p.RetryRate
	}
	if p.Prerequisites != nil {
		f.Prerequisites = p.Prerequisites
	}
	if p.RelatedTopics != nil {
		f.RelatedTopics = p.RelatedTopics
	}
	return f
}
