package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsInitialization(t *testing.T) {
	m := getTestMetrics()

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.DBConnectionsOpen)
	assert.NotNil(t, m.DBQueryDuration)
	assert.NotNil(t, m.ExternalAPIRequestsTotal)
	assert.NotNil(t, m.ProjectsTotal)
	assert.NotNil(t, m.TasksTotal)
	assert.NotNil(t, m.RuleFiringsTotal)
	assert.NotNil(t, m.RuleChainDepth)
	assert.NotNil(t, m.RealtimeConnections)
}

// 모든 메트릭은 네임스페이스 + snake_case + help 문자열을 가진다
func TestMetricNamingAndHelp(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry, nil)

	// vectors only show up after a first observation
	m.RecordHTTPRequest("GET", "/api/projects", 200, 0)
	m.RecordDBQuery("select", "tasks", 0, nil)
	m.RecordExternalAPICall("/api/users", "GET", 500, 0, nil)
	m.IncrementTaskMoved("reorder")
	m.RecordRuleFiring("comment_added", "send_notification", RuleResultApplied)

	families, err := registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	for _, mf := range families {
		name := mf.GetName()
		assert.True(t, strings.HasPrefix(name, namespace+"_"), "metric %s lacks namespace", name)
		assert.Equal(t, strings.ToLower(name), name, "metric %s is not snake_case", name)
		assert.NotContains(t, name, "-")
		assert.NotEmpty(t, mf.GetHelp(), "metric %s has no help", name)
	}
}

func TestShouldSkipEndpoint(t *testing.T) {
	assert.True(t, ShouldSkipEndpoint("/metrics"))
	assert.True(t, ShouldSkipEndpoint("/health"))
	assert.True(t, ShouldSkipEndpoint("/ready"))
	assert.True(t, ShouldSkipEndpoint("/api/board/health"))
	assert.True(t, ShouldSkipEndpoint("/swagger/index.html"))
	assert.True(t, ShouldSkipEndpoint("/api/boards/ws/projects/:projectId"))
	assert.False(t, ShouldSkipEndpoint("/api/projects/:projectId/board"))
}

func TestNormalizeEndpoint(t *testing.T) {
	got := normalizeEndpoint("/api/users/123e4567-e89b-12d3-a456-426614174000/exists")
	assert.Equal(t, "/api/users/{id}/exists", got)

	got = normalizeEndpoint("http://user-service:8081/api/users/123E4567-E89B-12D3-A456-426614174000?fields=id")
	assert.Equal(t, "/api/users/{id}", got)
}
