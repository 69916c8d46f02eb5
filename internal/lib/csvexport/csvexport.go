// Package csvexport выгружает сохранённые анкеты в CSV с фиксированным
// набором колонок. Значения очищаются от переводов строк и лишних
// пробелов, чтобы файл открывался табличными редакторами без сюрпризов.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fairaware/fair-aware/internal/models"
)

// header фиксирует порядок и подписи колонок выгрузки. Подписи
// устоялись у потребителей файлов, менять их нельзя.
var header = []string{
	"Host", "Date",
	"Code",
	"Domain", "Role", "Organization",
	"FQ1", "FQ1-i", "FQ2", "FQ2-i", "FQ3", "FQ3-i",
	"AQ1", "AQ1-i", "AQ2", "AQ2-i",
	"IQ1", "IQ1-i",
	"RQ1", "RQ1-i", "RQ2", "RQ2-i", "RQ3", "RQ3-i", "RQ4", "RQ4-i",
	"Not understandable", "Missing metrics", "General feedback", "Awareness raised",
}

// Filename возвращает имя файла выгрузки для заданной области:
// FAIRAware_<scope>_results_<timestamp>.csv.
func Filename(scope string, now time.Time) string {
	return fmt.Sprintf("FAIRAware_%s_results_%s.csv", scope, now.UTC().Format("2006-01-02_150405"))
}

// Write пишет анкеты в CSV вместе со строкой заголовка.
func Write(w io.Writer, subs []models.Submission) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csvexport.Write: %w", err)
	}

	for _, sub := range subs {
		record := []string{
			sub.Host,
			sub.SubmissionDate.UTC().Format("2006-01-02 15:04:05"),
			sub.CQ1,
			sub.YQ1, sub.YQ2, sub.YQ3,
			sub.FQ1, sub.FQ1i, sub.FQ2, sub.FQ2i, sub.FQ3, sub.FQ3i,
			sub.AQ1, sub.AQ1i, sub.AQ2, sub.AQ2i,
			sub.IQ1, sub.IQ1i,
			sub.RQ1, sub.RQ1i, sub.RQ2, sub.RQ2i, sub.RQ3, sub.RQ3i, sub.RQ4, sub.RQ4i,
			sub.QQ1, sub.QQ2, sub.QQ3, sub.QQ4,
		}
		for i, v := range record {
			record[i] = clean(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("csvexport.Write: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csvexport.Write: %w", err)
	}
	return nil
}

// clean схлопывает любые последовательности пробельных символов,
// включая переводы строк, в один пробел.
func clean(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
