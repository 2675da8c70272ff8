package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

var (
	stageTransitions = newCounterVec("to")
	llmCalls         = newCounterVec("agent")
	llmFailures      = newCounterVec("agent")
	rateLimited      = newCounterVec("group")
	prerenderJobs    = newCounterVec("outcome")

	llmDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncStageTransition counts a session moving into stage to.
func IncStageTransition(to string) {
	stageTransitions.Inc(to)
}

// IncLLMCall counts one completion request made on behalf of agent.
func IncLLMCall(agent string) {
	llmCalls.Inc(agent)
}

func IncLLMFailure(agent string) {
	llmFailures.Inc(agent)
}

// IncRateLimited counts a request rejected by the limiter for group.
func IncRateLimited(group string) {
	rateLimited.Inc(group)
}

// IncPrerenderJob counts a worker message by outcome.
func IncPrerenderJob(outcome string) {
	prerenderJobs.Inc(outcome)
}

// ObserveLLMDurationMs records the wall time of a completion request in milliseconds.
func ObserveLLMDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	llmDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounterVec(&buf, "stage_transitions_total", "Session stage transitions by target stage", stageTransitions)
	writeCounterVec(&buf, "llm_calls_total", "LLM completion requests by agent", llmCalls)
	writeCounterVec(&buf, "llm_failures_total", "Failed LLM completion requests by agent", llmFailures)
	writeCounterVec(&buf, "rate_limited_total", "Requests rejected by the rate limiter by group", rateLimited)
	writeCounterVec(&buf, "prerender_jobs_total", "Export worker messages by outcome", prerenderJobs)
	writeHistogram(&buf, "llm_call_duration_ms", "LLM completion latency in milliseconds", llmDuration.Snapshot())
	return buf.String()
}

type counterVec struct {
	mu     sync.Mutex
	label  string
	values map[string]uint64
}

func newCounterVec(label string) *counterVec {
	return &counterVec{label: label, values: make(map[string]uint64)}
}

func (c *counterVec) Inc(value string) {
	if strings.TrimSpace(value) == "" {
		value = "unknown"
	}
	c.mu.Lock()
	c.values[value]++
	c.mu.Unlock()
}

func (c *counterVec) Get(value string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[value]
}

func (c *counterVec) snapshot() ([]string, map[string]uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.values))
	out := make(map[string]uint64, len(c.values))
	for k, v := range c.values {
		keys = append(keys, k)
		out[k] = v
	}
	sort.Strings(keys)
	return keys, out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe records value in the first bucket that holds it; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounterVec(buf *bytes.Buffer, name, help string, c *counterVec) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys, values := c.snapshot()
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, c.label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
