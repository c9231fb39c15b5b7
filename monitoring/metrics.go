// Package monitoring 提供服务指标收集
package monitoring

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricType 指标类型
type MetricType string

const (
	MetricTypeCounter MetricType = "counter"
	MetricTypeGauge   MetricType = "gauge"
)

// Metric 指标
type Metric struct {
	Name      string            `json:"name"`
	Type      MetricType        `json:"type"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Help      string            `json:"help,omitempty"`
}

// MetricsCollector 指标收集器
type MetricsCollector struct {
	metrics     map[string]*Metric
	help        map[string]string
	metricsLock sync.RWMutex

	startTime time.Time
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics:   make(map[string]*Metric),
		help:      make(map[string]string),
		startTime: time.Now(),
	}
}

// Describe 设置指标说明
func (mc *MetricsCollector) Describe(name, help string) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()
	mc.help[name] = help
}

// IncrCounter 增加计数器
func (mc *MetricsCollector) IncrCounter(name string, value float64, labels map[string]string) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()

	m := mc.series(name, MetricTypeCounter, labels)
	m.Value += value
	m.Timestamp = time.Now()
}

// SetGauge 设置仪表
func (mc *MetricsCollector) SetGauge(name string, value float64, labels map[string]string) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()

	m := mc.series(name, MetricTypeGauge, labels)
	m.Value = value
	m.Timestamp = time.Now()
}

// Value 获取指标当前值
func (mc *MetricsCollector) Value(name string, labels map[string]string) float64 {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	if m, ok := mc.metrics[seriesKey(name, labels)]; ok {
		return m.Value
	}
	return 0
}

// series 调用方需持有写锁
func (mc *MetricsCollector) series(name string, typ MetricType, labels map[string]string) *Metric {
	key := seriesKey(name, labels)
	m, ok := mc.metrics[key]
	if !ok {
		copied := make(map[string]string, len(labels))
		for k, v := range labels {
			copied[k] = v
		}
		m = &Metric{Name: name, Type: typ, Labels: copied}
		mc.metrics[key] = m
	}
	return m
}

// ExportPrometheus 导出Prometheus格式
func (mc *MetricsCollector) ExportPrometheus() string {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	byName := make(map[string][]*Metric)
	for _, m := range mc.metrics {
		byName[m.Name] = append(byName[m.Name], m)
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		series := byName[name]
		sort.Slice(series, func(i, j int) bool {
			return formatLabels(series[i].Labels) < formatLabels(series[j].Labels)
		})

		help := mc.help[name]
		if help == "" {
			help = fmt.Sprintf("Metric %s", name)
		}
		fmt.Fprintf(&b, "# HELP %s %s\n", name, help)
		fmt.Fprintf(&b, "# TYPE %s %s\n", name, series[0].Type)
		for _, m := range series {
			fmt.Fprintf(&b, "%s%s %g\n", name, formatLabels(m.Labels), m.Value)
		}
	}

	fmt.Fprintf(&b, "# HELP uptime_seconds Seconds since the collector started\n")
	fmt.Fprintf(&b, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(&b, "uptime_seconds %g\n", mc.GetUptime().Seconds())
	return b.String()
}

// GetUptime 获取运行时间
func (mc *MetricsCollector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

func seriesKey(name string, labels map[string]string) string {
	return name + formatLabels(labels)
}

// formatLabels 按键排序输出 {k="v",...}
func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf(`%s="%s"`, k, labels[k])
	}
	return "{" + strings.Join(parts, ",") + "}"
}
