// Пакет metrics содержит счетчики Prometheus ядра редактора.
// Все методы безопасны для nil-получателя: редактор без метрик просто не считает.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "richtext"

// Результаты транзакции.
const (
	ResultOK      = "ok"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// Способы импорта вставки.
const (
	ImportFragment = "fragment"
	ImportHTML     = "html"
	ImportText     = "text"
	ImportFallback = "fallback"
)

type Metrics struct {
	transactions *prometheus.CounterVec
	imports      *prometheus.CounterVec
	links        prometheus.Counter
	deferred     *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Editor transactions by action and result",
		}, []string{"action", "result"}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Pasted data imports by kind",
		}, []string{"kind"}),
		links: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_detected_total",
			Help:      "Links created by auto detection",
		}),
		deferred: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deferred_tasks_total",
			Help:      "Deferred tasks by result",
		}, []string{"result"}),
	}
}

// Register регистрирует все счетчики в reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	if m == nil {
		return nil
	}
	for _, c := range []prometheus.Collector{m.transactions, m.imports, m.links, m.deferred} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveTransaction(action string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultFailed
	}
	m.transactions.WithLabelValues(action, result).Inc()
}

func (m *Metrics) ObserveImport(kind string) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(kind).Inc()
}

func (m *Metrics) LinkDetected() {
	if m == nil {
		return
	}
	m.links.Inc()
}

// ObserveDeferred учитывает выполнение (ResultOK) или пропуск (ResultSkipped) отложенной задачи.
func (m *Metrics) ObserveDeferred(result string) {
	if m == nil {
		return
	}
	m.deferred.WithLabelValues(result).Inc()
}

// WriteText выводит счетчики из g в текстовом формате Prometheus.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
