package quiz

// Quizzes are immutable once published until the lecturer re-authors them,
// so fetched quizzes are cached per course and replaced on CreateQuiz.

func (s *Service) getCachedQuiz(courseID string) (Quiz, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizCache[courseID]
	return quiz, ok
}

func (s *Service) setCachedQuiz(quiz Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizCache[quiz.CourseID] = quiz
}

func (s *Service) invalidateQuiz(courseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.quizCache, courseID)
}

func applyLimit(entries []StandingEntry, limit int) []StandingEntry {
	if limit <= 0 || limit >= len(entries) {
		return entries
	}
	return entries[:limit]
}
