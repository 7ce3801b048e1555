package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/contexo/internal/models"
)

func TestSelectStrategies(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{
			name:     "Definition token selects DEFINES forward",
			query:    "what methods does the Parser class expose",
			expected: []string{"defines_forward"},
		},
		{
			name:     "Token punctuation stripped before matching",
			query:    "list the functions.",
			expected: []string{"defines_forward"},
		},
		{
			name:     "Callers phrase selects CALL reverse",
			query:    "who calls validate_config",
			expected: []string{"call_reverse"},
		},
		{
			name:     "Called by phrase selects CALL reverse",
			query:    "where is run_pipeline called by the scheduler",
			expected: []string{"call_reverse"},
		},
		{
			name:     "Calls token selects CALL forward",
			query:    "what does main call?",
			expected: []string{"call_forward"},
		},
		{
			name:     "Import substring selects IMPORT reverse",
			query:    "which modules import requests",
			expected: []string{"import_reverse"},
		},
		{
			name:     "No intent gets the default pair",
			query:    "how does chunking work",
			expected: []string{"defines_forward", "call_forward"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategies := SelectStrategies(tt.query)
			require.Len(t, strategies, len(tt.expected))
			for i, s := range strategies {
				assert.Equal(t, tt.expected[i], s.Name)
			}
		})
	}
}

func TestSelectStrategiesDefinesWins(t *testing.T) {
	// "in" is a definition token and matches before the callers phrase
	strategies := SelectStrategies("callers defined in app.py")
	require.Len(t, strategies, 1)
	assert.Equal(t, "defines_forward", strategies[0].Name)
}

func TestExecuteStrategiesDedup(t *testing.T) {
	g := NewCodebaseGraph()
	g.AddEdge("app.py", "app.py#main", models.RelationDefines)
	g.AddEdge("app.py", "app.py#helper", models.RelationCall)
	g.AddEdge("app.py", "app.py#main", models.RelationCall)

	out := ExecuteStrategies(g, "app.py", []TraversalStrategy{
		strategyDefinesForward,
		strategyCallForward,
	})

	// app.py#main reached by both strategies, kept at first-seen position
	require.Len(t, out, 2)
	assert.Equal(t, "app.py#main", out[0].CanonicalID)
	assert.Equal(t, "app.py#helper", out[1].CanonicalID)
}

func TestPickStartCanonicalID(t *testing.T) {
	assert.Equal(t, "", PickStartCanonicalID(nil))
	assert.Equal(t, "pkg/util/io.py#Reader.read", PickStartCanonicalID([]string{
		"pkg/util/io.py",
		"pkg/util/io.py#Reader.read",
		"main.py#run",
	}))
}

func TestTraversalStrategyRun(t *testing.T) {
	g := NewCodebaseGraph()
	g.AddEdge("a.py#f", "b.py#g", models.RelationCall)
	g.AddEdge("a.py#f", "c.py#h", models.RelationImport)

	out := strategyCallForward.Run(g, "a.py#f")
	require.Len(t, out, 1)
	assert.Equal(t, "b.py#g", out[0].CanonicalID)
}
