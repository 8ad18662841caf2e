package pattern

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryCompiles(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{"SBI", "HDFC", "ICICI", "AXIS", "MPESA"}, r.Institutions())
}

func TestIdentify(t *testing.T) {
	r := Default()

	tests := []struct {
		name   string
		sender string
		body   string
		want   string
	}{
		{name: "sender with route prefix", sender: "VM-HDFCBK", body: "anything", want: "HDFC"},
		{name: "bare sender", sender: "SBIINB", body: "", want: "SBI"},
		{name: "mpesa sender", sender: "MPESA", body: "", want: "MPESA"},
		{name: "body keyword fallback", sender: "+254700000000", body: "Your M-PESA balance is Ksh10.00", want: "MPESA"},
		{name: "unknown", sender: "ACME", body: "Rs.500 debited", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Identify(tt.sender, tt.body)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestCandidatesOrderInstitutionFirst(t *testing.T) {
	r := Default()
	inst := r.Identify("MPESA", "")
	require.NotNil(t, inst)

	rules := r.Candidates(inst, FieldAmount)
	require.NotEmpty(t, rules)
	assert.True(t, strings.HasPrefix(rules[0].Name, "mpesa_"))
	assert.Equal(t, "amount_bare", rules[len(rules)-1].Name)
}

func TestFindAllCapturesValueAndSpan(t *testing.T) {
	r := Default()
	body := "Rs.500 debited. Avbl Bal: Rs.10,000.00"

	var prefix CompiledRule
	for _, c := range r.Candidates(nil, FieldAmount) {
		if c.Name == "amount_currency_prefix" {
			prefix = c
		}
	}
	matches := prefix.FindAll(body)
	require.Len(t, matches, 2)
	assert.Equal(t, "500", matches[0].Value)
	assert.Equal(t, "Rs.500", matches[0].Span.Text)
	assert.Equal(t, "10,000.00", matches[1].Value)
	assert.Equal(t, body[matches[1].ValueSpan.Start:matches[1].ValueSpan.End], "10,000.00")
}

func TestNewRegistryRejectsBadRules(t *testing.T) {
	_, err := NewRegistry(nil, []Rule{{Name: "broken", Field: FieldAmount, Regex: "(", Confidence: 0.5}}, DefaultKeywords())
	require.ErrorIs(t, err, ErrInvalidRule)

	_, err = NewRegistry(nil, []Rule{{Name: "nofield", Regex: "x", Confidence: 0.5}}, DefaultKeywords())
	require.ErrorIs(t, err, ErrInvalidRule)

	_, err = NewRegistry(nil, []Rule{{Name: "conf", Field: FieldAmount, Regex: "x", Confidence: 2}}, DefaultKeywords())
	require.ErrorIs(t, err, ErrInvalidRule)
}

func TestAddInstitutionsReplacesByName(t *testing.T) {
	r := Default()
	err := r.AddInstitutions([]Institution{
		{Name: "hdfc", Senders: []string{`^NEWHDFC$`}},
		{Name: "EQUITY", Currency: "KES", Senders: []string{`^EQUITY$`}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"SBI", "hdfc", "ICICI", "AXIS", "MPESA", "EQUITY"}, r.Institutions())
	got := r.Identify("NEWHDFC", "")
	require.NotNil(t, got)
	assert.Equal(t, "hdfc", got.Name)
}

func TestLoadInstitutionsFromConfig(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
patterns:
  institutions:
    - name: EQUITY
      currency: KES
      senders: ["^EQUITYBANK$"]
      rules:
        - name: equity_amount
          field: amount
          regex: 'KES\s*(\d+(?:\.\d{2})?)'
          confidence: 0.8
`)))

	r, err := NewRegistryFromConfig(v)
	require.NoError(t, err)

	inst := r.Identify("EQUITYBANK", "")
	require.NotNil(t, inst)
	assert.Equal(t, "KES", inst.Currency)
	rules := r.Candidates(inst, FieldAmount)
	assert.Equal(t, "equity_amount", rules[0].Name)
	assert.InDelta(t, 0.8, rules[0].Confidence, 1e-9)
}

func TestLoadInstitutionsMissingKey(t *testing.T) {
	got, err := LoadInstitutions(viper.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadInstitutionsRequiresIdentification(t *testing.T) {
	v := viper.New()
	v.Set(InstitutionsKey, []map[string]any{{"name": "NOPE"}})

	_, err := LoadInstitutions(v)
	require.ErrorIs(t, err, ErrInvalidRule)
}
