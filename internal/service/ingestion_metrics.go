package service

import (
	"fmt"
	"sync"
	"time"
)

// IngestionMetrics tracks statistics about a data ingestion run
type IngestionMetrics struct {
	mu               sync.RWMutex
	StartTime        time.Time
	Duration         time.Duration
	TotalRows        int
	SuccessfulRows   int
	Duplicates       int
	ValidationErrors int
	RosterEvents     int
	Errors           int
}

// NewIngestionMetrics creates a new metrics tracker
func NewIngestionMetrics() *IngestionMetrics {
	return &IngestionMetrics{
		StartTime: time.Now(),
	}
}

// Reset resets all metrics
func (m *IngestionMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartTime = time.Now()
	m.Duration = 0
	m.TotalRows = 0
	m.SuccessfulRows = 0
	m.Duplicates = 0
	m.ValidationErrors = 0
	m.RosterEvents = 0
	m.Errors = 0
}

// RecordRow increments successful row count
func (m *IngestionMetrics) RecordRow() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuccessfulRows++
}

// RecordDuplicate increments duplicate count
func (m *IngestionMetrics) RecordDuplicate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duplicates++
}

// RecordValidationError increments validation error count
func (m *IngestionMetrics) RecordValidationError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ValidationErrors++
}

// RecordRosterEvent increments applied roster event count
func (m *IngestionMetrics) RecordRosterEvent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RosterEvents++
}

// RecordError increments error count
func (m *IngestionMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors++
}

// String returns a formatted string representation of metrics
func (m *IngestionMetrics) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	successRate := float64(0)
	if m.TotalRows > 0 {
		successRate = float64(m.SuccessfulRows) / float64(m.TotalRows) * 100
	}

	return fmt.Sprintf(
		"IngestionMetrics{Total=%d, Successful=%d (%.1f%%), Duplicates=%d, ValidationErrors=%d, RosterEvents=%d, Errors=%d, Duration=%v}",
		m.TotalRows,
		m.SuccessfulRows,
		successRate,
		m.Duplicates,
		m.ValidationErrors,
		m.RosterEvents,
		m.Errors,
		m.Duration,
	)
}
