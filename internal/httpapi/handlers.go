package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"learnquiz/internal/auth"
	"learnquiz/internal/quiz"
)

func (a *API) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var request auth.RegisterInput
	if !decodeJSON(w, r, &request) {
		return
	}
	// Elevated roles are granted by an admin, not chosen at sign-up.
	if request.Role != auth.RoleLecturer {
		request.Role = auth.RoleStudent
	}

	user, err := a.auth.Register(r.Context(), request)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var request auth.LoginInput
	if !decodeJSON(w, r, &request) {
		return
	}

	token, user, err := a.auth.Login(r.Context(), request)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, User: user})
}

func (a *API) HandleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := a.quizzes.ListCourses(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, coursesResponse{Courses: courses})
}

func (a *API) HandleMyCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := a.quizzes.ListLecturerCourses(r.Context(), auth.SubjectFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, coursesResponse{Courses: courses})
}

func (a *API) HandleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var request createCourseRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	course, err := a.quizzes.CreateCourse(r.Context(), auth.SubjectFromContext(r.Context()), request.CourseID, request.CourseName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, course)
}

func (a *API) HandleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var request createQuizRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	created, err := a.quizzes.CreateQuiz(r.Context(), chi.URLParam(r, "courseID"), request.Questions)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuizSummary(created))
}

func (a *API) HandleImportQuiz(w http.ResponseWriter, r *http.Request) {
	var request importQuizRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &request) {
		return
	}

	created, err := a.quizzes.ImportQuiz(r.Context(), chi.URLParam(r, "courseID"), request.Amount)
	if err != nil {
		a.logger.Printf("import quiz course=%s: %v", chi.URLParam(r, "courseID"), err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuizSummary(created))
}

func (a *API) HandleCoursePerformance(w http.ResponseWriter, r *http.Request) {
	size, err := parseLimit(r, quiz.LeaderboardSize)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	perf, err := a.quizzes.CoursePerformance(r.Context(), chi.URLParam(r, "courseID"), size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, perf)
}

func (a *API) HandlePutFeedback(w http.ResponseWriter, r *http.Request) {
	var request feedbackRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	feedback, err := a.quizzes.SendFeedback(
		r.Context(),
		auth.SubjectFromContext(r.Context()),
		chi.URLParam(r, "studentID"),
		chi.URLParam(r, "courseID"),
		request.Message,
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

func (a *API) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, quiz.LeaderboardSize)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	board, err := a.quizzes.Leaderboard(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Leaderboard: board})
}

func (a *API) HandleMyScores(w http.ResponseWriter, r *http.Request) {
	scores, err := a.quizzes.StudentScores(r.Context(), auth.SubjectFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scoresResponse{Scores: scores})
}

func (a *API) HandleMyRecommendations(w http.ResponseWriter, r *http.Request) {
	courses, err := a.quizzes.Recommendations(r.Context(), auth.SubjectFromContext(r.Context()), quiz.RecommendationCount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, coursesResponse{Courses: courses})
}

func (a *API) HandleMyFeedback(w http.ResponseWriter, r *http.Request) {
	items, err := a.quizzes.StudentFeedback(r.Context(), auth.SubjectFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feedbackListResponse{Feedback: items})
}

func (a *API) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.auth.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usersResponse{Users: users})
}

func (a *API) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := a.auth.DeleteUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) HandleAssistantChat(w http.ResponseWriter, r *http.Request) {
	if a.assistant == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "assistant unavailable"})
		return
	}

	var request chatRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	reply, err := a.assistant.Complete(r.Context(), request.Message)
	if err != nil {
		a.logger.Printf("assistant chat user=%s: %v", auth.SubjectFromContext(r.Context()), err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}
