// Package metrics содержит счётчики Prometheus приложения. Все метрики
// регистрируются в реестре по умолчанию и отдаются обработчиком /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SubmissionsTotal считает принятые анкеты.
var SubmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "fairaware_submissions_total",
	Help: "Total number of accepted assessment submissions.",
})

// LoginAttemptsTotal считает попытки входа в админ-панель по результату.
var LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fairaware_login_attempts_total",
	Help: "Total number of admin login attempts by result.",
}, []string{"result"})
