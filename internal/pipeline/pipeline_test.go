package pipeline

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
	"github.com/valpere/tradqa/internal/review"
	"github.com/valpere/tradqa/internal/translate"
)

type scriptedClient struct {
	translation string
	reviewJSON  string
	calls       int
}

func (s *scriptedClient) Generate(_ context.Context, p llm.Prompt) (string, error) {
	s.calls++
	if s.calls == 1 {
		return s.translation, nil
	}
	return s.reviewJSON, nil
}

type failingChecker struct{ called bool }

func (f *failingChecker) Check(string, string) error {
	f.called = true
	return errors.New("expected es but detected en")
}

func newPipeline(client llm.Client) *Pipeline {
	return New(translate.New(client, 0, zerolog.Nop()), zerolog.Nop())
}

func TestRun_FullJob(t *testing.T) {
	client := &scriptedClient{
		translation: "La base de datos está caída.",
		reviewJSON:  `{"score": 0.9, "explanation": ""}`,
	}
	p := newPipeline(client)
	p.Reviewer = review.NewEngine(client, time.Second, zerolog.Nop())

	st := &job.State{
		OriginalContent: "The database is down.",
		SourceLanguage:  "en",
		TargetLanguage:  "es",
		Glossary: glossary.Glossary{
			"database":   "base de datos",
			"kubernetes": "kubernetes",
		},
	}

	require.NoError(t, p.Run(context.Background(), st))

	assert.NotEmpty(t, st.ID, "job gets an ID assigned")
	assert.Equal(t, "La base de datos está caída.", st.TranslatedContent)

	require.NotNil(t, st.FilteredGlossary)
	assert.Contains(t, st.FilteredGlossary, "database")
	assert.NotContains(t, st.FilteredGlossary, "kubernetes", "irrelevant terms filtered out")

	require.NotNil(t, st.ReviewScore)
	assert.Greater(t, *st.ReviewScore, 0.7)
}

func TestRun_CheckpointAmendsGlossary(t *testing.T) {
	client := &scriptedClient{translation: "ok translation"}
	p := newPipeline(client)

	var seen glossary.Glossary
	p.Checkpoint = func(_ context.Context, filtered glossary.Glossary) (glossary.Glossary, error) {
		seen = filtered
		return glossary.Glossary{"database": "banco de datos"}, nil
	}

	st := &job.State{
		OriginalContent: "The database is down.",
		SourceLanguage:  "en",
		TargetLanguage:  "es",
		Glossary:        glossary.Glossary{"database": "base de datos"},
	}

	require.NoError(t, p.Run(context.Background(), st))
	assert.Contains(t, seen, "database")
	assert.Equal(t, "banco de datos", st.FilteredGlossary["database"])
}

func TestRun_CheckpointRejectionAborts(t *testing.T) {
	client := &scriptedClient{}
	p := newPipeline(client)
	p.Checkpoint = func(context.Context, glossary.Glossary) (glossary.Glossary, error) {
		return nil, errors.New("terms not approved")
	}

	st := &job.State{
		OriginalContent: "The database is down.",
		Glossary:        glossary.Glossary{"database": "base de datos"},
	}

	err := p.Run(context.Background(), st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checkpoint rejected")
	assert.Zero(t, client.calls, "rejection must happen before any generation call")
	assert.Empty(t, st.TranslatedContent)
}

func TestRun_NilCheckpointProceeds(t *testing.T) {
	p := newPipeline(&scriptedClient{translation: "traducción"})

	st := &job.State{
		OriginalContent: "Hello world, this needs translating.",
		SourceLanguage:  "en",
		TargetLanguage:  "es",
	}
	require.NoError(t, p.Run(context.Background(), st))
	assert.Equal(t, "traducción", st.TranslatedContent)
}

func TestRun_ValidatorFailureIsNotFatal(t *testing.T) {
	checker := &failingChecker{}
	p := newPipeline(&scriptedClient{translation: "wrong language output"})
	p.Checker = checker

	st := &job.State{
		OriginalContent: "Hello world, this needs translating.",
		SourceLanguage:  "en",
		TargetLanguage:  "es",
	}

	require.NoError(t, p.Run(context.Background(), st))
	assert.True(t, checker.called)
	assert.Equal(t, "wrong language output", st.TranslatedContent)
}

func TestRun_NoReviewerSkipsReview(t *testing.T) {
	p := newPipeline(&scriptedClient{translation: "hola"})

	st := &job.State{
		OriginalContent: "Hello there everyone.",
		SourceLanguage:  "en",
		TargetLanguage:  "es",
	}
	require.NoError(t, p.Run(context.Background(), st))
	assert.Nil(t, st.ReviewScore)
	assert.Empty(t, st.Dimensions)
}

func TestRun_TranslationErrorPropagates(t *testing.T) {
	p := newPipeline(nil)

	st := &job.State{OriginalContent: "Hello"}
	err := p.Run(context.Background(), st)
	assert.ErrorIs(t, err, llm.ErrCredentialsMissing)
}

func TestRun_PreservesExistingID(t *testing.T) {
	p := newPipeline(&scriptedClient{translation: "hola"})

	st := &job.State{ID: "job-42", OriginalContent: "Hello there everyone."}
	require.NoError(t, p.Run(context.Background(), st))
	assert.Equal(t, "job-42", st.ID)
}
