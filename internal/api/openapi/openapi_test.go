package openapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	doc, err := Load()
	require.NoError(t, err)

	for _, path := range []string{
		"/agents/",
		"/agents/{id}",
		"/agents/codename/{codename}",
		"/agents/{id}/increment-mission",
		"/agents/{id}/missions",
		"/agents/{id}/status",
		"/agents/status/{status}",
		"/agents/top-performers/",
		"/agents/search",
		"/agents/report/status",
	} {
		require.NotNil(t, doc.Paths.Find(path), "missing path %s", path)
	}

	status := doc.Components.Schemas["AgentStatus"].Value
	require.Len(t, status.Enum, 5)
}

func TestDocument(t *testing.T) {
	require.NotEmpty(t, Document())
}
