package httpapi

import (
	"learnquiz/internal/auth"
	"learnquiz/internal/quiz"
)

type loginResponse struct {
	AccessToken string    `json:"accessToken"`
	User        auth.User `json:"user"`
}

type createCourseRequest struct {
	CourseID   string `json:"courseId"`
	CourseName string `json:"courseName"`
}

type createQuizRequest struct {
	Questions []quiz.Question `json:"questions"`
}

type importQuizRequest struct {
	Amount int `json:"amount"`
}

type quizSummaryResponse struct {
	QuizID        string `json:"quizId"`
	CourseID      string `json:"courseId"`
	CourseName    string `json:"courseName"`
	QuestionCount int    `json:"questionCount"`
}

type feedbackRequest struct {
	Message string `json:"message"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type coursesResponse struct {
	Courses []quiz.Course `json:"courses"`
}

type leaderboardResponse struct {
	Leaderboard []quiz.StandingEntry `json:"leaderboard"`
}

type scoresResponse struct {
	Scores []quiz.ScoreRecord `json:"scores"`
}

type feedbackListResponse struct {
	Feedback []quiz.Feedback `json:"feedback"`
}

type usersResponse struct {
	Users []auth.User `json:"users"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toQuizSummary(q quiz.Quiz) quizSummaryResponse {
	return quizSummaryResponse{
		QuizID:        q.QuizID,
		CourseID:      q.CourseID,
		CourseName:    q.CourseName,
		QuestionCount: len(q.Questions),
	}
}
