package editor

import (
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/transforms"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/metrics"
)

// deferredTask - действие, которое выполняется после текущего шага и до следующего события ввода.
type deferredTask struct {
	action string
	run    func(tx *transforms.Tx) error
}

// schedule кладет задачу в единственный слот очереди. Невыполненная задача вытесняется.
func (e *Editor) schedule(t deferredTask) {
	if e.pending != nil {
		e.logger.Debug("replace deferred task", "old", e.pending.action, "new", t.action)
		e.metrics.ObserveDeferred(metrics.ResultSkipped)
	}
	e.pending = &t
}

// HasPending сообщает, ждет ли задача в очереди.
func (e *Editor) HasPending() bool {
	return e.pending != nil
}

// RunPending выполняет отложенную задачу, если она есть. Задача, адреса которой устарели,
// молча пропускается. Возвращает false, если очередь была пуста.
func (e *Editor) RunPending() bool {
	t := e.pending
	if t == nil {
		return false
	}
	e.pending = nil

	if err := e.apply(t.action, t.run); err != nil {
		e.logger.Debug("skip deferred task", "action", t.action, "err", err)
		e.metrics.ObserveDeferred(metrics.ResultSkipped)
		return true
	}
	e.metrics.ObserveDeferred(metrics.ResultOK)
	if t.action == linkAction {
		e.metrics.LinkDetected()
	}
	return true
}
