package glossary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/tradqa/internal/tmx"
)

func TestParseCSV_WithHeader(t *testing.T) {
	csv := "term,translation\nChaos Engineering,Ingeniería del Caos\nresilience,resiliencia\n"
	g, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, Glossary{
		"Chaos Engineering": "Ingeniería del Caos",
		"resilience":        "resiliencia",
	}, g)
}

func TestParseCSV_Headerless(t *testing.T) {
	csv := "latency,latencia\nthroughput,rendimiento\n"
	g, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, g, 2)
	assert.Equal(t, "latencia", g["latency"])
}

func TestParseCSV_SkipsBadRows(t *testing.T) {
	csv := "term,translation\nonlyterm\n,\nvalid,válido\n"
	g, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, Glossary{"valid": "válido"}, g)
}

func TestFilter_ExactSubstring(t *testing.T) {
	g := Glossary{
		"resilience": "resiliencia",
		"latency":    "latencia",
	}
	filtered := Filter("We improve RESILIENCE under load.", g)
	assert.Equal(t, Glossary{"resilience": "resiliencia"}, filtered)
}

func TestFilter_MultiWordFuzzy(t *testing.T) {
	g := Glossary{
		"chaos engineering": "ingeniería del caos",
	}
	// Punctuation noise between the words still counts as present.
	filtered := Filter("Chaos-engineering is a discipline.", g)
	assert.Contains(t, filtered, "chaos engineering")
}

func TestFilter_SingleWordNoFuzzy(t *testing.T) {
	// Single-word terms require a literal substring; near-misses stay out.
	g := Glossary{"kubernetes": "kubernetes"}
	filtered := Filter("We run kubernetas clusters.", g)
	assert.NotContains(t, filtered, "kubernetes")
}

func TestFilter_Empty(t *testing.T) {
	assert.Empty(t, Filter("some text", nil))
	assert.Empty(t, Filter("some text", Glossary{}))
	assert.Empty(t, Filter("", Glossary{"a": "b"}))
}

func TestFilter_Deterministic(t *testing.T) {
	g := Glossary{
		"chaos engineering": "ingeniería del caos",
		"resilience":        "resiliencia",
		"latency":           "latencia",
	}
	text := "Chaos Engineering improves resilience."
	first := Filter(text, g)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Filter(text, g))
	}
}

func TestExtractFromTMX(t *testing.T) {
	entries := []tmx.Entry{
		{Source: "Deploy the Orchestrator now", Target: "Despliega el Orquestador ahora"},
		{Source: "Restart the Orchestrator today", Target: "Reinicia el Orquestador hoy"},
		{Source: "Nothing relevant here", Target: "Nada relevante aquí"},
	}
	candidates := ExtractFromTMX(entries, 2, 0)
	require.NotEmpty(t, candidates)
	assert.Equal(t, "Orchestrator", candidates[0].Term)
	assert.Equal(t, "Orquestador", candidates[0].Translation)
	assert.Equal(t, 2, candidates[0].Occurrences)
}
