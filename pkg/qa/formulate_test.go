package qa

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const question = "What caused World War II?"

func TestParseQueries(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr error
	}{
		{
			name: "Clean array",
			raw:  `["causes of world war II", "treaty of versailles"]`,
			want: []string{"causes of world war II", "treaty of versailles"},
		},
		{
			name: "Array inside prose",
			raw:  "Sure! Here are the queries:\n[\"rise of fascism europe\"]\nGood luck.",
			want: []string{"rise of fascism europe"},
		},
		{
			name: "Bare quoted string gets brackets",
			raw:  `"appeasement policy 1938"`,
			want: []string{"appeasement policy 1938"},
		},
		{
			name: "Bare strings separated by commas",
			raw:  `"invasion of poland", "great depression germany"`,
			want: []string{"invasion of poland", "great depression germany"},
		},
		{
			name:    "Malformed JSON",
			raw:     `[causes of the war`,
			want:    []string{question},
			wantErr: ErrMalformedQueries,
		},
		{
			name:    "Plain prose",
			raw:     "search for the causes of the war",
			want:    []string{question},
			wantErr: ErrMalformedQueries,
		},
		{
			name:    "Object instead of strings",
			raw:     `{"query": "causes"}`,
			want:    []string{question},
			wantErr: ErrNoUsableQueries,
		},
		{
			name:    "Empty array",
			raw:     `[]`,
			want:    []string{question},
			wantErr: ErrNoUsableQueries,
		},
		{
			name: "Filtered and capped",
			raw:  `["", "ww2", "What caused World War II?", "one query", "two query", "three query", "four query"]`,
			want: []string{"one query", "two query", "three query"},
		},
		{
			name: "Non-string entries are skipped",
			raw:  `[42, "munich agreement", null]`,
			want: []string{"munich agreement"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseQueries(tt.raw, question)
			assert.Equal(t, tt.want, got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFilterQueries_CountsCharacters(t *testing.T) {
	// five characters, ten bytes
	assert.Empty(t, filterQueries([]string{"ééééé"}, question))
	assert.Equal(t, []string{"éééééé"}, filterQueries([]string{"  éééééé  "}, question))
}

func TestFormulateQuery(t *testing.T) {
	llm := newScriptedLLM().on(kindClassify, reply("  COMPARISON \n"))
	p := newTestPipeline(t, llm, newMemoryStore(t), staticSearcher(nil))

	s, err := p.formulateQuery(context.Background(), slog.Default(), State{Question: question})
	require.NoError(t, err)

	assert.Equal(t, Comparison, s.QuestionType)
	assert.Equal(t, []string{"causes of world war II", "treaty of versailles impact"}, s.SearchQueries)
	assert.Empty(t, s.Recoveries)

	require.Len(t, llm.calls(kindQueries), 1)
	assert.Contains(t, llm.calls(kindQueries)[0], "classified as: COMPARISON")
}

func TestFormulateQuery_UnknownLabelPassesThrough(t *testing.T) {
	llm := newScriptedLLM().on(kindClassify, reply("TRIVIA"))
	p := newTestPipeline(t, llm, newMemoryStore(t), staticSearcher(nil))

	s, err := p.formulateQuery(context.Background(), slog.Default(), State{Question: question})
	require.NoError(t, err)
	assert.Equal(t, QuestionType("TRIVIA"), s.QuestionType)
	assert.False(t, s.QuestionType.Known())
}

func TestFormulateQuery_Fallbacks(t *testing.T) {
	cause := errors.New("model overloaded")

	tests := []struct {
		name          string
		llm           *scriptedLLM
		wantType      QuestionType
		wantRecovered int
	}{
		{"Malformed output", newScriptedLLM().on(kindQueries, reply("I cannot help with that")), Factual, 1},
		{"Generation fails", newScriptedLLM().on(kindQueries, fail(cause)), Factual, 1},
		{"Both fail", newScriptedLLM().on(kindClassify, fail(cause)).on(kindQueries, fail(cause)), "", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, tt.llm, newMemoryStore(t), staticSearcher(nil))

			s, err := p.formulateQuery(context.Background(), slog.Default(), State{Question: question})
			require.NoError(t, err)

			assert.Equal(t, []string{question}, s.SearchQueries)
			assert.Equal(t, tt.wantType, s.QuestionType)
			require.Len(t, s.Recoveries, tt.wantRecovered)
			for _, r := range s.Recoveries {
				assert.Equal(t, StageFormulateQuery, r.Stage)
			}
		})
	}
}
