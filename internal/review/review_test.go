package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/tradqa/internal/glossary"
	"github.com/valpere/tradqa/internal/job"
	"github.com/valpere/tradqa/internal/llm"
	"github.com/valpere/tradqa/internal/tmx"
)

type mockClient struct {
	responses []string
	err       error
	calls     int
}

func (m *mockClient) Generate(_ context.Context, _ llm.Prompt) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return `{"score": 0.9, "explanation": ""}`, nil
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

func newTestEngine(client llm.Client) *Engine {
	return NewEngine(client, time.Second, zerolog.Nop())
}

func TestGlossaryScale(t *testing.T) {
	tests := []struct {
		rate float64
		want float64
	}{
		{1.0, 1.0},
		{0.9, 0.7},
		{0.8, 0.5},
		{0.7, 0.2},
		{0.5, 0.0},
		{0.25, -0.5},
		{0.0, -1.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, glossaryScale(tt.rate), 1e-9, "rate %v", tt.rate)
	}
}

func TestEvalGlossary_AllTermsMissing(t *testing.T) {
	e := newTestEngine(nil)
	st := &job.State{
		OriginalContent:   "Chaos Engineering is a discipline.",
		TranslatedContent: "Kaos Engineering es una disciplina.",
		TargetLanguage:    "es",
		Glossary:          glossary.Glossary{"Chaos Engineering": "Ingeniería del Caos"},
	}

	cmd := e.evalGlossary(st)
	assert.Equal(t, job.DimensionGlossary, cmd.dim)
	assert.InDelta(t, -1.0, cmd.score.Value, 1e-9)
	assert.Contains(t, cmd.score.Explanation, "'Chaos Engineering' (should be 'Ingeniería del Caos')")
	assert.Contains(t, cmd.score.Explanation, "0/1 terms correct")
	assert.Equal(t, stageAggregate, cmd.next, "score below threshold must route to aggregation")
}

func TestEvalGlossary_Vacuous(t *testing.T) {
	e := newTestEngine(nil)
	st := &job.State{
		OriginalContent:   "Nothing terminological here.",
		TranslatedContent: "Rien de terminologique ici.",
		Glossary:          glossary.Glossary{"Chaos Engineering": "Ingeniería del Caos"},
	}

	cmd := e.evalGlossary(st)
	assert.InDelta(t, 1.0, cmd.score.Value, 1e-9)
	assert.Empty(t, cmd.score.Explanation)
	assert.Equal(t, stageTMX, cmd.next)
}

func TestEvalGlossary_FuzzyInflectionCounts(t *testing.T) {
	e := newTestEngine(nil)
	// Expected "base de datos"; translation carries the plural.
	st := &job.State{
		OriginalContent:   "Back up the database daily.",
		TranslatedContent: "Respalde las bases de datos a diario.",
		Glossary:          glossary.Glossary{"database": "base de datos"},
	}

	cmd := e.evalGlossary(st)
	assert.InDelta(t, 1.0, cmd.score.Value, 1e-9)
}

func TestEvalGlossary_UsesFilteredSubset(t *testing.T) {
	e := newTestEngine(nil)
	st := &job.State{
		OriginalContent:   "The database is down.",
		TranslatedContent: "La base está caída.",
		Glossary: glossary.Glossary{
			"database": "base de datos",
			"server":   "servidor",
		},
		FilteredGlossary: glossary.Glossary{},
	}

	cmd := e.evalGlossary(st)
	assert.InDelta(t, 1.0, cmd.score.Value, 1e-9, "empty filtered glossary means nothing to check")
}

func TestEvalTMX_NoMemorySkipsDimension(t *testing.T) {
	e := newTestEngine(nil)
	st := &job.State{OriginalContent: "Hello", TranslatedContent: "Bonjour"}

	cmd := e.evalTMX(st)
	assert.Empty(t, string(cmd.dim))
	assert.Equal(t, stageGrammar, cmd.next)
}

func TestEvalTMX_ExactMatchHonored(t *testing.T) {
	e := newTestEngine(nil)
	st := &job.State{
		OriginalContent:   "Save your work.",
		TranslatedContent: "Guarde su trabajo.",
		Memory: &tmx.Memory{Entries: []tmx.Entry{
			{Source: "Save your work.", Target: "Guarde su trabajo."},
		}},
	}

	cmd := e.evalTMX(st)
	assert.InDelta(t, 1.0, cmd.score.Value, 1e-9)
	assert.Equal(t, stageGrammar, cmd.next)
}

func TestEvalTMX_ExactMatchViolated(t *testing.T) {
	e := newTestEngine(nil)
	st := &job.State{
		OriginalContent:   "Save your work.",
		TranslatedContent: "Almacene sus documentos personales.",
		Memory: &tmx.Memory{Entries: []tmx.Entry{
			{Source: "Save your work.", Target: "Guarde su trabajo."},
		}},
	}

	cmd := e.evalTMX(st)
	assert.InDelta(t, -0.5, cmd.score.Value, 1e-9)
	assert.Contains(t, cmd.score.Explanation, `"Guarde su trabajo."`)
	assert.Contains(t, cmd.score.Explanation, `"Almacene sus documentos personales."`)
	assert.Equal(t, stageAggregate, cmd.next, "exact-match violation must route to aggregation")
}

func TestEvalTMX_ExactMatchCaseInsensitive(t *testing.T) {
	e := newTestEngine(nil)

	ignored := &job.State{
		OriginalContent:   "save your work.",
		TranslatedContent: "Almacene sus documentos personales.",
		Memory: &tmx.Memory{Entries: []tmx.Entry{
			{Source: "Save Your Work.", Target: "Guarde su trabajo."},
		}},
	}
	cmd := e.evalTMX(ignored)
	assert.InDelta(t, -0.5, cmd.score.Value, 1e-9, "a case-variant exact hit must still bind the translation")
	assert.Equal(t, stageAggregate, cmd.next)

	casedTarget := &job.State{
		OriginalContent:   "Save your work.",
		TranslatedContent: "GUARDE SU TRABAJO.",
		Memory: &tmx.Memory{Entries: []tmx.Entry{
			{Source: "Save your work.", Target: "Guarde su trabajo."},
		}},
	}
	cmd = e.evalTMX(casedTarget)
	assert.InDelta(t, 1.0, cmd.score.Value, 1e-9, "capitalization alone must not violate an exact match")
	assert.Equal(t, stageGrammar, cmd.next)
}

func TestEvalTMX_FuzzyConsistency(t *testing.T) {
	mem := &tmx.Memory{Entries: []tmx.Entry{
		{Source: "Please save your work now.", Target: "Por favor guarde su trabajo ahora."},
	}}

	e := newTestEngine(nil)

	consistent := &job.State{
		OriginalContent:   "Please save your work soon.",
		TranslatedContent: "Por favor guarde su trabajo pronto.",
		Memory:            mem,
	}
	cmd := e.evalTMX(consistent)
	assert.InDelta(t, 1.0, cmd.score.Value, 1e-9)

	divergent := &job.State{
		OriginalContent:   "Please save your work soon.",
		TranslatedContent: "Sí",
		Memory:            mem,
	}
	cmd = e.evalTMX(divergent)
	assert.InDelta(t, 0.2, cmd.score.Value, 1e-9)
	assert.NotEmpty(t, cmd.score.Explanation)
	assert.Equal(t, stageGrammar, cmd.next, "0.2 is above the exit threshold")
}

func TestParseReview(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantErr bool
	}{
		{"plain", `{"score": 0.8, "explanation": "minor issues"}`, 0.8, false},
		{"fenced", "```json\n{\"score\": 0.5, \"explanation\": \"\"}\n```", 0.5, false},
		{"prose around", `Here is my assessment: {"score": -0.3, "explanation": "agreement errors"} Hope that helps.`, -0.3, false},
		{"clamped high", `{"score": 1.5, "explanation": ""}`, 1.0, false},
		{"clamped low", `{"score": -2.0, "explanation": ""}`, -1.0, false},
		{"no json", "I cannot evaluate this text.", 0, true},
		{"malformed", `{"score": "high"}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := parseReview(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, sc.Value, 1e-9)
		})
	}
}

func TestEvalWithModel_NilClient(t *testing.T) {
	e := newTestEngine(nil)
	sc := e.evalWithModel(context.Background(), job.DimensionGrammar, llm.Prompt{User: "x"})
	assert.Zero(t, sc.Value)
	assert.Contains(t, sc.Explanation, "no generation credentials")
}

func TestEvalWithModel_CallFailure(t *testing.T) {
	e := newTestEngine(&mockClient{err: errors.New("boom")})
	sc := e.evalWithModel(context.Background(), job.DimensionStyle, llm.Prompt{User: "x"})
	assert.Zero(t, sc.Value)
	assert.Contains(t, sc.Explanation, "Style Adherence review failed")
}

func TestEvalWithModel_UnparseableResponse(t *testing.T) {
	e := newTestEngine(&mockClient{responses: []string{"no json here"}})
	sc := e.evalWithModel(context.Background(), job.DimensionGrammar, llm.Prompt{User: "x"})
	assert.Zero(t, sc.Value)
	assert.Contains(t, sc.Explanation, "unparseable")
}

func TestAggregate_WeightedThreeWay(t *testing.T) {
	e := newTestEngine(nil)
	st := &job.State{}
	st.SetDimension(job.DimensionGlossary, job.Score{Value: 0.9})
	st.SetDimension(job.DimensionGrammar, job.Score{Value: 0.8})
	st.SetDimension(job.DimensionStyle, job.Score{Value: 0.6, Explanation: "Register too informal"})

	e.aggregate(st)

	require.NotNil(t, st.ReviewScore)
	assert.InDelta(t, 0.79, *st.ReviewScore, 1e-9)
	assert.Contains(t, st.ReviewExplanation, "Style Adherence: Register too informal")
	assert.NotContains(t, st.ReviewExplanation, "Glossary Compliance")
	assert.NotContains(t, st.ReviewExplanation, "Grammar Quality")
}

func TestAggregate_RenormalizesPartialDimensions(t *testing.T) {
	e := newTestEngine(nil)
	st := &job.State{}
	st.SetDimension(job.DimensionGlossary, job.Score{Value: 1.0})
	st.SetDimension(job.DimensionStyle, job.Score{Value: 0.8})

	e.aggregate(st)

	require.NotNil(t, st.ReviewScore)
	// (1.0*0.40 + 0.8*0.25) / 0.65
	assert.InDelta(t, 0.9230769, *st.ReviewScore, 1e-6)
}

func TestAggregate_FourWayWithMemory(t *testing.T) {
	e := newTestEngine(nil)
	st := &job.State{}
	st.SetDimension(job.DimensionGlossary, job.Score{Value: 1.0})
	st.SetDimension(job.DimensionTMX, job.Score{Value: 1.0})
	st.SetDimension(job.DimensionGrammar, job.Score{Value: 0.5})
	st.SetDimension(job.DimensionStyle, job.Score{Value: 0.5})

	e.aggregate(st)

	require.NotNil(t, st.ReviewScore)
	// 1.0*0.30 + 1.0*0.20 + 0.5*0.30 + 0.5*0.20
	assert.InDelta(t, 0.75, *st.ReviewScore, 1e-9)
}

func TestAggregate_GenericSummaryWhenLowWithoutExplanations(t *testing.T) {
	e := newTestEngine(nil)
	st := &job.State{}
	st.SetDimension(job.DimensionGlossary, job.Score{Value: 0.5})
	st.SetDimension(job.DimensionGrammar, job.Score{Value: 0.5})
	st.SetDimension(job.DimensionStyle, job.Score{Value: 0.5})

	e.aggregate(st)

	require.NotNil(t, st.ReviewScore)
	assert.InDelta(t, 0.5, *st.ReviewScore, 1e-9)
	assert.Contains(t, st.ReviewExplanation, "Scores:")
	assert.Contains(t, st.ReviewExplanation, "glossary_faithfulness=0.50")
}

func TestAggregate_NoDimensions(t *testing.T) {
	e := newTestEngine(nil)
	st := &job.State{}

	e.aggregate(st)

	require.NotNil(t, st.ReviewScore)
	assert.Zero(t, *st.ReviewScore)
	assert.Contains(t, st.ReviewExplanation, "No review dimensions")
}

func TestQualityLabel(t *testing.T) {
	assert.Equal(t, "excellent", QualityLabel(0.85))
	assert.Equal(t, "excellent", QualityLabel(0.7))
	assert.Equal(t, "acceptable", QualityLabel(0.5))
	assert.Equal(t, "needs improvement", QualityLabel(0.1))
	assert.Equal(t, "poor", QualityLabel(-0.3))
}

func TestReview_FullRun(t *testing.T) {
	client := &mockClient{responses: []string{
		`{"score": 0.9, "explanation": ""}`,
		`{"score": 0.8, "explanation": ""}`,
	}}
	e := newTestEngine(client)

	st := &job.State{
		OriginalContent:   "The database needs a backup.",
		TranslatedContent: "La base de datos necesita una copia de seguridad.",
		SourceLanguage:    "en",
		TargetLanguage:    "es",
		Glossary:          glossary.Glossary{"database": "base de datos"},
	}

	err := e.Review(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls, "grammar and style each call the model once")

	require.NotNil(t, st.ReviewScore)
	// glossary 1.0*0.40 + grammar 0.9*0.35 + style 0.8*0.25
	assert.InDelta(t, 0.915, *st.ReviewScore, 1e-9)
	assert.Empty(t, st.ReviewExplanation)

	_, hasTMX := st.Dimension(job.DimensionTMX)
	assert.False(t, hasTMX, "no memory was loaded")
}

func TestReview_GlossaryEarlyExitSkipsModelStages(t *testing.T) {
	client := &mockClient{}
	e := newTestEngine(client)

	st := &job.State{
		OriginalContent:   "Chaos Engineering matters.",
		TranslatedContent: "Kaos Engineering importa.",
		Glossary:          glossary.Glossary{"Chaos Engineering": "Ingeniería del Caos"},
	}

	err := e.Review(context.Background(), st)
	require.NoError(t, err)
	assert.Zero(t, client.calls, "early exit must not spend model calls")

	_, hasGrammar := st.Dimension(job.DimensionGrammar)
	_, hasStyle := st.Dimension(job.DimensionStyle)
	assert.False(t, hasGrammar)
	assert.False(t, hasStyle)

	require.NotNil(t, st.ReviewScore)
	assert.InDelta(t, -1.0, *st.ReviewScore, 1e-9)
	assert.Contains(t, st.ReviewExplanation, "Glossary Compliance:")
}

func TestReview_MissingTranslation(t *testing.T) {
	e := newTestEngine(&mockClient{})

	st := &job.State{OriginalContent: "Hello"}
	err := e.Review(context.Background(), st)
	require.NoError(t, err)

	sc, ok := st.Dimension(job.DimensionGlossary)
	require.True(t, ok)
	assert.InDelta(t, -1.0, sc.Value, 1e-9)
	assert.Contains(t, sc.Explanation, "No translated content")

	require.NotNil(t, st.ReviewScore)
	assert.InDelta(t, -1.0, *st.ReviewScore, 1e-9)
}

func TestReview_ModelFailureDoesNotAbort(t *testing.T) {
	e := newTestEngine(&mockClient{err: errors.New("upstream 500")})

	st := &job.State{
		OriginalContent:   "Hello world.",
		TranslatedContent: "Hola mundo.",
	}
	err := e.Review(context.Background(), st)
	require.NoError(t, err)

	grammar, ok := st.Dimension(job.DimensionGrammar)
	require.True(t, ok)
	assert.Zero(t, grammar.Value)

	style, ok := st.Dimension(job.DimensionStyle)
	require.True(t, ok)
	assert.Zero(t, style.Value)

	require.NotNil(t, st.ReviewScore)
	// glossary 1.0*0.40 + 0 + 0, renormalized over all three weights
	assert.InDelta(t, 0.4, *st.ReviewScore, 1e-9)
}

func TestReview_ContextCancelled(t *testing.T) {
	e := newTestEngine(&mockClient{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := &job.State{OriginalContent: "a", TranslatedContent: "b"}
	err := e.Review(ctx, st)
	assert.ErrorIs(t, err, context.Canceled)
}
