package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"learnquiz/internal/auth"
)

const requestTimeout = 30 * time.Second

type RouterOptions struct {
	CORSOrigins []string
}

func NewRouter(api *API, opts RouterOptions) http.Handler {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(api.logger), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Quiz sessions stay open longer than any request timeout. Only students
	// record scores.
	r.With(auth.Middleware(api.auth), auth.RequireRole(auth.RoleStudent)).Get("/ws/quizzes/{courseID}", api.HandlePlay)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Post("/auth/register", api.HandleRegister)
		r.Post("/auth/login", api.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(api.auth))

			r.Get("/courses", api.HandleListCourses)
			r.Get("/leaderboard", api.HandleLeaderboard)
			r.Get("/me/scores", api.HandleMyScores)
			r.Get("/me/recommendations", api.HandleMyRecommendations)
			r.Get("/me/feedback", api.HandleMyFeedback)
			r.Post("/assistant/chat", api.HandleAssistantChat)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleLecturer, auth.RoleAdmin))
				r.Post("/courses", api.HandleCreateCourse)
				r.Get("/courses/mine", api.HandleMyCourses)
				r.Put("/courses/{courseID}/quiz", api.HandleCreateQuiz)
				r.Post("/courses/{courseID}/quiz/import", api.HandleImportQuiz)
				r.Get("/courses/{courseID}/performance", api.HandleCoursePerformance)
				r.Put("/courses/{courseID}/feedback/{studentID}", api.HandlePutFeedback)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleAdmin))
				r.Get("/users", api.HandleListUsers)
				r.Delete("/users/{userID}", api.HandleDeleteUser)
			})
		})
	})

	return r
}
