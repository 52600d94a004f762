package domain

import "time"

// StudySession durations are milliseconds.
type StudySession struct {
	ID              string        `json:"id"`
	UserID          string        `json:"userId"`
	TopicID         string        `json:"topicId"`
	StartTime       time.Time     `json:"startTime"`
	EndTime         *time.Time    `json:"endTime,omitempty"`
	Duration        int64         `json:"duration"`
	BlocksCompleted int           `json:"blocksCompleted"`
	TotalBlocks     int           `json:"totalBlocks"`
	Interactions    []Interaction `json:"interactions"`
}

type Interaction struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

type QuestionAttempt struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer string `json:"selectedAnswer"`
	CorrectAnswer  string `json:"correctAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
	TimeSpent      int64  `json:"timeSpent"`
	HintsUsed      int    `json:"hintsUsed"`
}

type TestAttempt struct {
	ID             string            `json:"id"`
	UserID         string            `json:"userId"`
	TopicID        string            `json:"topicId"`
	StartTime      time.Time         `json:"startTime"`
	EndTime        *time.Time        `json:"endTime,omitempty"`
	Duration       int64             `json:"duration"`
	Questions      []QuestionAttempt `json:"questions"`
	Score          float64           `json:"score"`
	TotalQuestions int               `json:"totalQuestions"`
	CorrectAnswers int               `json:"correctAnswers"`
}

type QuestionMistake struct {
	QuestionID     string    `json:"questionId"`
	TopicID        string    `json:"topicId"`
	UserID         string    `json:"userId"`
	SelectedAnswer string    `json:"selectedAnswer"`
	CorrectAnswer  string    `json:"correctAnswer"`
	Timestamp      time.Time `json:"timestamp"`
	Attempts       int       `json:"attempts"`
}

type TopicMistakes struct {
	TopicID  string `json:"topicId"`
	Mistakes int    `json:"mistakes"`
}

type TopicScore struct {
	TopicID      string  `json:"topicId"`
	AverageScore float64 `json:"averageScore"`
}

// DailyStats StudyTime is milliseconds.
type DailyStats struct {
	Date           string  `json:"date"`
	SessionsCount  int     `json:"sessionsCount"`
	StudyTime      int64   `json:"studyTime"`
	TestsCompleted int     `json:"testsCompleted"`
	AverageScore   float64 `json:"averageScore"`
	TopicsStudied  int     `json:"topicsStudied"`
}
