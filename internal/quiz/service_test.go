package quiz

import (
	"context"
	"errors"
	"testing"

	"learnquiz/internal/opentdb"
)

type fakeCourseRepo struct {
	courses map[string]Course
}

func newFakeCourseRepo(courses ...Course) *fakeCourseRepo {
	f := &fakeCourseRepo{courses: make(map[string]Course)}
	for _, course := range courses {
		f.courses[course.CourseID] = course
	}
	return f
}

func (f *fakeCourseRepo) CreateCourse(_ context.Context, course Course) error {
	if _, ok := f.courses[course.CourseID]; ok {
		return ErrCourseExists
	}
	f.courses[course.CourseID] = course
	return nil
}

func (f *fakeCourseRepo) GetCourse(_ context.Context, courseID string) (Course, error) {
	course, ok := f.courses[courseID]
	if !ok {
		return Course{}, ErrCourseNotFound
	}
	return course, nil
}

func (f *fakeCourseRepo) ListCourses(context.Context) ([]Course, error) {
	out := make([]Course, 0, len(f.courses))
	for _, course := range f.courses {
		out = append(out, course)
	}
	return out, nil
}

func (f *fakeCourseRepo) ListCoursesByLecturer(_ context.Context, lecturerID string) ([]Course, error) {
	out := make([]Course, 0)
	for _, course := range f.courses {
		if course.LecturerID == lecturerID {
			out = append(out, course)
		}
	}
	return out, nil
}

type fakeQuizRepo struct {
	byCourse map[string]Quiz
	saveErr  error

	saveCalls  int
	fetchCalls int
}

func newFakeQuizRepo() *fakeQuizRepo {
	return &fakeQuizRepo{byCourse: make(map[string]Quiz)}
}

func (f *fakeQuizRepo) SaveQuiz(_ context.Context, quiz Quiz) error {
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.byCourse[quiz.CourseID] = quiz
	return nil
}

func (f *fakeQuizRepo) FetchQuiz(_ context.Context, courseID string) (Quiz, error) {
	f.fetchCalls++
	quiz, ok := f.byCourse[courseID]
	if !ok {
		return Quiz{}, ErrQuizNotFound
	}
	return quiz, nil
}

type fakeScoreRepo struct {
	records []ScoreRecord
}

func (f *fakeScoreRepo) GetScore(_ context.Context, key string) (ScoreRecord, bool, error) {
	for _, record := range f.records {
		if ScoreKey(record.UserID, record.CourseID) == key {
			return record, true, nil
		}
	}
	return ScoreRecord{}, false, nil
}

func (f *fakeScoreRepo) PutScore(_ context.Context, _ string, record ScoreRecord) error {
	f.records = append(f.records, record)
	return nil
}

func (f *fakeScoreRepo) ListScores(context.Context) ([]ScoreRecord, error) {
	out := make([]ScoreRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeScoreRepo) ListScoresByCourse(_ context.Context, courseID string) ([]ScoreRecord, error) {
	out := make([]ScoreRecord, 0)
	for _, record := range f.records {
		if record.CourseID == courseID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeScoreRepo) ListScoresByStudent(_ context.Context, studentID string) ([]ScoreRecord, error) {
	out := make([]ScoreRecord, 0)
	for _, record := range f.records {
		if record.UserID == studentID {
			out = append(out, record)
		}
	}
	return out, nil
}

type fakeFeedbackRepo struct {
	byKey map[string]Feedback
}

func (f *fakeFeedbackRepo) PutFeedback(_ context.Context, key string, feedback Feedback) error {
	if f.byKey == nil {
		f.byKey = make(map[string]Feedback)
	}
	f.byKey[key] = feedback
	return nil
}

func (f *fakeFeedbackRepo) ListFeedbackForStudent(_ context.Context, studentID string) ([]Feedback, error) {
	out := make([]Feedback, 0)
	for _, item := range f.byKey {
		if item.StudentID == studentID {
			out = append(out, item)
		}
	}
	return out, nil
}

type fakeNames map[string]string

func (f fakeNames) DisplayName(_ context.Context, userID string) (string, error) {
	name, ok := f[userID]
	if !ok {
		return "", errors.New("unknown user")
	}
	return name, nil
}

func validQuestions(n int) []Question {
	questions := make([]Question, n)
	for idx := range questions {
		questions[idx] = Question{
			Question:      "Question",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: LabelD,
		}
	}
	return questions
}

func TestCreateQuizValidatesAndCaches(t *testing.T) {
	quizzes := newFakeQuizRepo()
	service := NewService(Deps{
		Courses: newFakeCourseRepo(Course{CourseID: "c1", CourseName: "Networks"}),
		Quizzes: quizzes,
	})
	ctx := context.Background()

	if _, err := service.CreateQuiz(ctx, "c1", validQuestions(4)); !errors.Is(err, ErrTooFewQuestions) {
		t.Fatalf("expected ErrTooFewQuestions, got %v", err)
	}

	bad := validQuestions(5)
	bad[2].Options = []string{"a", "b", "c"}
	if _, err := service.CreateQuiz(ctx, "c1", bad); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	if _, err := service.CreateQuiz(ctx, "missing", validQuestions(5)); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}

	created, err := service.CreateQuiz(ctx, "c1", validQuestions(5))
	if err != nil {
		t.Fatalf("CreateQuiz returned error: %v", err)
	}
	if created.QuizID == "" || created.CourseName != "Networks" {
		t.Fatalf("unexpected quiz %+v", created)
	}

	fetched, err := service.FetchQuiz(ctx, "c1")
	if err != nil {
		t.Fatalf("FetchQuiz returned error: %v", err)
	}
	if fetched.QuizID != created.QuizID {
		t.Fatalf("expected cached quiz %s, got %s", created.QuizID, fetched.QuizID)
	}
	if quizzes.fetchCalls != 0 {
		t.Fatalf("expected cache hit, repo was queried %d times", quizzes.fetchCalls)
	}
}

func TestCreateQuizSaveFailureInvalidatesCache(t *testing.T) {
	quizzes := newFakeQuizRepo()
	service := NewService(Deps{
		Courses: newFakeCourseRepo(Course{CourseID: "c1", CourseName: "Networks"}),
		Quizzes: quizzes,
	})
	ctx := context.Background()

	if _, err := service.CreateQuiz(ctx, "c1", validQuestions(5)); err != nil {
		t.Fatalf("CreateQuiz returned error: %v", err)
	}

	quizzes.saveErr = errors.New("disk full")
	if _, err := service.CreateQuiz(ctx, "c1", validQuestions(6)); err == nil {
		t.Fatal("expected save error")
	}

	if _, err := service.FetchQuiz(ctx, "c1"); err != nil {
		t.Fatalf("FetchQuiz returned error: %v", err)
	}
	if quizzes.fetchCalls != 1 {
		t.Fatalf("expected repo fetch after invalidation, got %d calls", quizzes.fetchCalls)
	}
}

func TestFetchQuizEmptyIsNotFound(t *testing.T) {
	quizzes := newFakeQuizRepo()
	quizzes.byCourse["c1"] = Quiz{CourseID: "c1"}
	service := NewService(Deps{Quizzes: quizzes})

	if _, err := service.FetchQuiz(context.Background(), "c1"); !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if _, err := service.FetchQuiz(context.Background(), "c2"); !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestImportQuizUsesFetcher(t *testing.T) {
	var requested int
	fetcher := func(_ context.Context, amount int) ([]opentdb.RawQuestion, error) {
		requested = amount
		raw := make([]opentdb.RawQuestion, amount)
		for idx := range raw {
			raw[idx] = opentdb.RawQuestion{
				Question:         "Q",
				CorrectAnswer:    "right",
				IncorrectAnswers: []string{"w1", "w2", "w3"},
			}
		}
		return raw, nil
	}

	service := NewService(Deps{
		Courses: newFakeCourseRepo(Course{CourseID: "c1", CourseName: "Trivia"}),
		Quizzes: newFakeQuizRepo(),
		Fetcher: fetcher,
	})

	created, err := service.ImportQuiz(context.Background(), "c1", 0)
	if err != nil {
		t.Fatalf("ImportQuiz returned error: %v", err)
	}
	if requested != defaultImportAmount {
		t.Fatalf("expected default amount %d, got %d", defaultImportAmount, requested)
	}
	if len(created.Questions) != defaultImportAmount {
		t.Fatalf("expected %d questions, got %d", defaultImportAmount, len(created.Questions))
	}
}

func TestLeaderboardRanksByAverage(t *testing.T) {
	scores := &fakeScoreRepo{records: []ScoreRecord{
		{UserID: "u1", CourseID: "c1", ScorePercentage: 50},
		{UserID: "u1", CourseID: "c2", ScorePercentage: 100},
		{UserID: "u2", CourseID: "c1", ScorePercentage: 80},
		{UserID: "u3", CourseID: "c1", ScorePercentage: 75},
		{UserID: "u4", CourseID: "c1", ScorePercentage: 10},
		{UserID: "u5", CourseID: "c1", ScorePercentage: 20},
		{UserID: "u6", CourseID: "c1", ScorePercentage: 30},
	}}
	service := NewService(Deps{Scores: scores, Names: fakeNames{"u2": "Ada"}})

	board, err := service.Leaderboard(context.Background(), 0)
	if err != nil {
		t.Fatalf("Leaderboard returned error: %v", err)
	}
	if len(board) != LeaderboardSize {
		t.Fatalf("expected %d entries, got %d", LeaderboardSize, len(board))
	}
	if board[0].UserID != "u2" || board[0].Name != "Ada" {
		t.Fatalf("expected u2 (Ada) first, got %+v", board[0])
	}
	// u1 and u3 tie on 75; user id breaks the tie.
	if board[1].UserID != "u1" || board[1].QuizCount != 2 || board[2].UserID != "u3" {
		t.Fatalf("unexpected tie order: %+v", board[1:3])
	}
	if board[1].Name != "u1" {
		t.Fatalf("expected user id as fallback name, got %q", board[1].Name)
	}
}

func TestCoursePerformanceTopAndBottom(t *testing.T) {
	records := make([]ScoreRecord, 0, 7)
	for idx, pct := range []float64{90, 10, 70, 50, 30, 60, 80} {
		records = append(records, ScoreRecord{UserID: string(rune('a' + idx)), CourseID: "c1", ScorePercentage: pct})
	}
	records = append(records, ScoreRecord{UserID: "z", CourseID: "c2", ScorePercentage: 100})

	service := NewService(Deps{
		Courses: newFakeCourseRepo(Course{CourseID: "c1", CourseName: "Networks"}),
		Scores:  &fakeScoreRepo{records: records},
	})

	perf, err := service.CoursePerformance(context.Background(), "c1", 0)
	if err != nil {
		t.Fatalf("CoursePerformance returned error: %v", err)
	}
	if len(perf.Top) != 5 || perf.Top[0].AverageScore != 90 {
		t.Fatalf("unexpected top %+v", perf.Top)
	}
	if len(perf.Bottom) != 5 || perf.Bottom[len(perf.Bottom)-1].AverageScore != 10 {
		t.Fatalf("unexpected bottom %+v", perf.Bottom)
	}
	for _, entry := range perf.Top {
		if entry.UserID == "z" {
			t.Fatal("score from another course leaked into course performance")
		}
	}

	if _, err := service.CoursePerformance(context.Background(), "nope", 0); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestRecommendationsPickLowestScores(t *testing.T) {
	service := NewService(Deps{
		Courses: newFakeCourseRepo(
			Course{CourseID: "c1", CourseName: "One"},
			Course{CourseID: "c2", CourseName: "Two"},
			Course{CourseID: "c3", CourseName: "Three"},
			Course{CourseID: "c4", CourseName: "Four"},
		),
		Scores: &fakeScoreRepo{records: []ScoreRecord{
			{UserID: "s1", CourseID: "c1", ScorePercentage: 90},
			{UserID: "s1", CourseID: "c2", ScorePercentage: 20},
			{UserID: "s1", CourseID: "gone", ScorePercentage: 0},
			{UserID: "s1", CourseID: "c3", ScorePercentage: 40},
			{UserID: "s1", CourseID: "c4", ScorePercentage: 60},
			{UserID: "s2", CourseID: "c1", ScorePercentage: 5},
		}},
	})

	courses, err := service.Recommendations(context.Background(), "s1", 0)
	if err != nil {
		t.Fatalf("Recommendations returned error: %v", err)
	}
	got := make([]string, 0, len(courses))
	for _, course := range courses {
		got = append(got, course.CourseID)
	}
	want := []string{"c2", "c3", "c4"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for idx := range want {
		if got[idx] != want[idx] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSendFeedbackUsesScoreKey(t *testing.T) {
	feedback := &fakeFeedbackRepo{}
	service := NewService(Deps{
		Courses:  newFakeCourseRepo(Course{CourseID: "c1", CourseName: "Networks", LecturerID: "l1"}),
		Feedback: feedback,
	})
	ctx := context.Background()

	if _, err := service.SendFeedback(ctx, "l1", "s1", "c1", "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	if _, err := service.SendFeedback(ctx, "l1", "s1", "c1", "Revise subnetting"); err != nil {
		t.Fatalf("SendFeedback returned error: %v", err)
	}
	if _, err := service.SendFeedback(ctx, "l1", "s1", "c1", "Much better now"); err != nil {
		t.Fatalf("SendFeedback returned error: %v", err)
	}

	item, ok := feedback.byKey["s1_c1"]
	if !ok || item.Message != "Much better now" || len(feedback.byKey) != 1 {
		t.Fatalf("expected one overwritten feedback under s1_c1, got %+v", feedback.byKey)
	}

	list, _ := service.StudentFeedback(ctx, "s1")
	if len(list) != 1 {
		t.Fatalf("expected 1 feedback item, got %d", len(list))
	}
}

func TestCreateCourseRejectsBlankAndDuplicate(t *testing.T) {
	service := NewService(Deps{Courses: newFakeCourseRepo()})
	ctx := context.Background()

	if _, err := service.CreateCourse(ctx, "l1", " ", "Networks"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := service.CreateCourse(ctx, "l1", "c1", "Networks"); err != nil {
		t.Fatalf("CreateCourse returned error: %v", err)
	}
	if _, err := service.CreateCourse(ctx, "l1", "c1", "Networks again"); !errors.Is(err, ErrCourseExists) {
		t.Fatalf("expected ErrCourseExists, got %v", err)
	}
	mine, _ := service.ListLecturerCourses(ctx, "l1")
	if len(mine) != 1 {
		t.Fatalf("expected 1 lecturer course, got %d", len(mine))
	}
}
