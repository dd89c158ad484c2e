package placeholder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul/chainsmith/internal/apperr"
	"github.com/rahul/chainsmith/internal/model"
)

func steps(goals ...string) []model.Step {
	out := make([]model.Step, len(goals))
	for i, g := range goals {
		out[i] = model.Step{ID: g, Goal: g}
	}
	return out
}

func TestExtractNames(t *testing.T) {
	tests := []struct {
		name  string
		steps []model.Step
		want  []string
	}{
		{"none", steps("plain goal"), nil},
		{"single", steps("Summarize {{APP}}"), []string{"APP"}},
		{"whitespace tolerant", steps("{{  APP }} and {{ user_2}}"), []string{"APP", "user_2"}},
		{"first appearance across steps", steps("{{B}} then {{A}}", "{{A}} {{C}} {{B}}"), []string{"B", "A", "C"}},
		{"case sensitive", steps("{{name}} {{Name}}"), []string{"name", "Name"}},
		{"ignores non identifiers", steps("{{ two words }} {{a-b}}"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractNames(tt.steps))
		})
	}
}

func TestExtractNames_Deterministic(t *testing.T) {
	s := steps("{{Z}} {{Y}}", "{{X}} {{Z}}")
	first := ExtractNames(s)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ExtractNames(s))
	}
}

func TestSubstitute(t *testing.T) {
	values := map[string]string{"APP": "Notes", "BLANK": "   "}

	assert.Equal(t, "Review Notes now", Substitute("Review {{ APP }} now", values))
	assert.Equal(t, "Notes and Notes", Substitute("{{APP}} and {{APP}}", values))
	assert.Equal(t, "keep {{ BLANK }}", Substitute("keep {{ BLANK }}", values))
	assert.Equal(t, "keep {{UNKNOWN}}", Substitute("keep {{UNKNOWN}}", values))
	assert.Equal(t, "{{UNKNOWN}}", Substitute("{{UNKNOWN}}", nil))
}

func TestValidate(t *testing.T) {
	names := []string{"APP", "USER", "ROLE"}

	require.NoError(t, Validate(names, map[string]string{"APP": "a", "USER": "b", "ROLE": "c"}))

	err := Validate(names, map[string]string{"APP": "a", "USER": "", "ROLE": ""})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	name, ok := apperr.PlaceholderOf(err)
	require.True(t, ok)
	assert.Equal(t, "USER", name)

	assert.Equal(t, []string{"USER", "ROLE"}, Missing(names, map[string]string{"APP": "a"}))
}
