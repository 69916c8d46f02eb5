// Package fairscore содержит расчёт итогового FAIR-балла анкеты:
// балл равен числу ответов "yes" на десять вопросов по принципам
// Findable/Accessible/Interoperable/Reusable.
package fairscore

import (
	"strings"

	"github.com/fairaware/fair-aware/internal/models"
)

// Question — один из десяти оцениваемых FAIR-вопросов.
type Question struct {
	// Key — имя колонки ответа в таблице анкет; колонка намерения — Key + "i".
	Key   string
	Label string
}

// Questions перечисляет оцениваемые вопросы в порядке анкеты.
var Questions = []Question{
	{Key: "fq1", Label: "F1: Persistent identifier"},
	{Key: "fq2", Label: "F2: Metadata for discovery"},
	{Key: "fq3", Label: "F3: Human & machine readable"},
	{Key: "aq1", Label: "A1: Licence and access info"},
	{Key: "aq2", Label: "A2: Metadata persistence"},
	{Key: "iq1", Label: "I1: Controlled vocabularies"},
	{Key: "rq1", Label: "R1: Provenance info"},
	{Key: "rq2", Label: "R2: Community standards"},
	{Key: "rq3", Label: "R3: Preferred format"},
	{Key: "rq4", Label: "R4: Digital preservation"},
}

// IntentionLabels сопоставляет значение шкалы намерения его подписи.
var IntentionLabels = map[string]string{
	"1": "Very unlikely",
	"2": "Unlikely",
	"3": "Neutral",
	"4": "Likely",
	"5": "Very likely",
}

// Score возвращает FAIR-балл набора ответов: количество "yes"
// без учёта регистра среди десяти оцениваемых полей.
func Score(a models.Answers) int {
	fields := []string{a.FQ1, a.FQ2, a.FQ3, a.AQ1, a.AQ2, a.IQ1, a.RQ1, a.RQ2, a.RQ3, a.RQ4}
	score := 0
	for _, f := range fields {
		if strings.EqualFold(f, "yes") {
			score++
		}
	}
	return score
}

// ScoreSummary возвращает FAIR-балл укороченной строки анкеты.
func ScoreSummary(sm models.SubmissionSummary) int {
	fields := []string{sm.FQ1, sm.FQ2, sm.FQ3, sm.AQ1, sm.AQ2, sm.IQ1, sm.RQ1, sm.RQ2, sm.RQ3, sm.RQ4}
	score := 0
	for _, f := range fields {
		if strings.EqualFold(f, "yes") {
			score++
		}
	}
	return score
}

// QuestionAnswer — ответ и намерение улучшить по одному вопросу.
type QuestionAnswer struct {
	Label     string
	Answer    string
	Intention string
}

// QuestionAnswers раскладывает ответы анкеты по оцениваемым вопросам
// в порядке Questions.
func QuestionAnswers(a models.Answers) []QuestionAnswer {
	answers := []string{a.FQ1, a.FQ2, a.FQ3, a.AQ1, a.AQ2, a.IQ1, a.RQ1, a.RQ2, a.RQ3, a.RQ4}
	intentions := []string{a.FQ1i, a.FQ2i, a.FQ3i, a.AQ1i, a.AQ2i, a.IQ1i, a.RQ1i, a.RQ2i, a.RQ3i, a.RQ4i}

	result := make([]QuestionAnswer, len(Questions))
	for i, q := range Questions {
		result[i] = QuestionAnswer{
			Label:     q.Label,
			Answer:    answers[i],
			Intention: intentions[i],
		}
	}
	return result
}

// ScoreLabel возвращает словесную оценку балла: Low до 6,
// Moderate для 6-7, High от 8.
func ScoreLabel(score int) string {
	switch {
	case score < 6:
		return "Low"
	case score < 8:
		return "Moderate"
	default:
		return "High"
	}
}
