package models

import "time"

// Answers — набор ответов анкеты FAIR-Aware в том виде, в котором его
// присылает публичная форма. Поля cq/yq — код курса и сведения об
// участнике, fq/aq/iq/rq — вопросы по принципам FAIR (парные поля с
// суффиксом i — намерение улучшить, шкала 1-5), qq — обратная связь.
type Answers struct {
	CQ1 string `json:"cq1" validate:"max=255"`
	YQ1 string `json:"yq1" validate:"required"`
	YQ2 string `json:"yq2" validate:"required"`
	YQ3 string `json:"yq3" validate:"required"`

	FQ1  string `json:"fq1" validate:"max=3"`
	FQ1i string `json:"fq1i" validate:"max=1"`
	FQ2  string `json:"fq2" validate:"max=3"`
	FQ2i string `json:"fq2i" validate:"max=1"`
	FQ3  string `json:"fq3" validate:"max=3"`
	FQ3i string `json:"fq3i" validate:"max=1"`

	AQ1  string `json:"aq1" validate:"max=3"`
	AQ1i string `json:"aq1i" validate:"max=1"`
	AQ2  string `json:"aq2" validate:"max=3"`
	AQ2i string `json:"aq2i" validate:"max=1"`

	IQ1  string `json:"iq1" validate:"max=3"`
	IQ1i string `json:"iq1i" validate:"max=1"`

	RQ1  string `json:"rq1" validate:"max=3"`
	RQ1i string `json:"rq1i" validate:"max=1"`
	RQ2  string `json:"rq2" validate:"max=3"`
	RQ2i string `json:"rq2i" validate:"max=1"`
	RQ3  string `json:"rq3" validate:"max=3"`
	RQ3i string `json:"rq3i" validate:"max=1"`
	RQ4  string `json:"rq4" validate:"max=3"`
	RQ4i string `json:"rq4i" validate:"max=1"`

	QQ1 string `json:"qq1"`
	QQ2 string `json:"qq2"`
	QQ3 string `json:"qq3"`
	QQ4 string `json:"qq4" validate:"max=50"`
}

// Submission — сохранённая анкета вместе с серверными атрибутами.
type Submission struct {
	ID             int64     `json:"-"`
	Host           string    `json:"host"`
	SubmissionDate time.Time `json:"date"`
	Answers
}

// SubmissionSummary — укороченная строка анкеты для списков и дашборда.
type SubmissionSummary struct {
	ID             int64
	CQ1            string
	SubmissionDate time.Time
	FQ1, FQ2, FQ3  string
	AQ1, AQ2       string
	IQ1            string
	RQ1, RQ2       string
	RQ3, RQ4       string
}

// DashboardStats — агрегаты для главной страницы админ-панели.
type DashboardStats struct {
	TotalSubmissions   int
	MonthlySubmissions int
	CourseCodeCount    int
	Recent             []SubmissionSummary
}
