package models

import "time"

// CourseCode — код курса, по которому тренер раздаёт анкету своим
// слушателям и по которому затем фильтруются результаты.
// CreatedBy и поля автора равны nil, если владелец кода удалён:
// сам код и привязанные к нему анкеты при этом сохраняются.
type CourseCode struct {
	ID        int64
	Code      string
	CreatedBy *string
	CreatedAt time.Time

	// Поля списка: агрегаты и автор, подтягиваются join-ом.
	SubmissionCount int
	AvgFairScore    *float64
	CreatorName     *string
	CreatorEmail    *string
}

// CourseCodeStats — распределение итоговых FAIR-баллов по коду курса.
type CourseCodeStats struct {
	Total    int
	AvgScore *float64
	Low      int
	Moderate int
	High     int
}

// QuestionStats — разбивка ответов по одному FAIR-вопросу: количество
// да/нет и среднее намерение улучшить для каждой группы.
type QuestionStats struct {
	Question         string
	Label            string
	Yes              int
	YesAvgLikelihood *float64
	No               int
	NoAvgLikelihood  *float64
}
