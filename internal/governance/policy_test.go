package governance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoalPolicy_Evaluate(t *testing.T) {
	p := NewGoalPolicy()
	require.NoError(t, p.AddRule("credentials", `(?i)password`))
	p.BlockTarget("Grok")
	ctx := context.Background()

	tests := []struct {
		name   string
		req    Request
		effect Effect
		step   int
	}{
		{"allowed", Request{Target: "Gemini", Goals: []string{"Summarize release notes", "Shorten it"}}, EffectAllow, 0},
		{"blocked target", Request{Target: "Grok", Goals: []string{"Summarize release notes"}}, EffectDeny, 0},
		{"second goal matches", Request{Target: "Gemini", Goals: []string{"Draft a form", "Ask for the PASSWORD"}}, EffectDeny, 2},
		{"no goals", Request{Target: "Gemini"}, EffectAllow, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := p.Evaluate(ctx, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.effect, d.Effect)
			assert.Equal(t, tt.step, d.Step)
		})
	}
}

func TestGoalPolicy_ReasonNamesRule(t *testing.T) {
	p := NewGoalPolicy()
	require.NoError(t, p.AddRule("credentials", `(?i)password`))

	d, err := p.Evaluate(context.Background(), Request{Target: "Gemini", Goals: []string{"password"}})
	require.NoError(t, err)
	assert.Equal(t, "step 1 matches rule credentials", d.Reason)
}

func TestGoalPolicy_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGoalPolicy().Evaluate(ctx, Request{Target: "Gemini"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromConfig(t *testing.T) {
	p, err := FromConfig([]string{`(?i)password`}, []string{"Grok"})
	require.NoError(t, err)
	assert.True(t, p.Blocks("Grok"))
	require.Len(t, p.Rules(), 1)
	assert.Equal(t, `(?i)password`, p.Rules()[0].Name)

	_, err = FromConfig([]string{"("}, nil)
	assert.Error(t, err)
}
