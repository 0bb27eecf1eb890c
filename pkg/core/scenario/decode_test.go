package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation_synthesis/pkg/core/valuation"
)

const yamlScenario = `
target:
  name: Target Co
  ticker: TGT
  ebitda: 100
  net_debt: 150
  shares_outstanding: 50
peer_set: us-software
dcf:
  free_cash_flows: [100, 110, 120]
  wacc: 0.1
  terminal_growth: 0.02
  sensitivity_mode: gordon
sotp:
  segments:
    - name: Core
      valuation_method: EV/EBITDA Multiple
      ebitda: 60
      multiple: 9
`

func TestDecode_YAML(t *testing.T) {
	// Execute
	req, err := Decode([]byte(yamlScenario), FormatYAML)

	// Verify
	require.NoError(t, err)
	assert.Equal(t, "Target Co", req.Target.Name)
	assert.Equal(t, 150.0, req.Target.NetDebt)
	assert.Equal(t, "us-software", req.PeerSet)
	require.NotNil(t, req.DCF)
	assert.Equal(t, []float64{100, 110, 120}, req.DCF.FreeCashFlows)
	assert.Equal(t, 0.1, req.DCF.WACC)
	assert.Equal(t, valuation.TerminalGordon, req.DCF.Mode)
	require.NotNil(t, req.SOTP)
	assert.Equal(t, valuation.SegmentEVEBITDA, req.SOTP.Segments[0].Method)
}

func TestDecode_AutoDetectsYAML(t *testing.T) {
	req, err := Decode([]byte(yamlScenario), FormatAuto)

	require.NoError(t, err)
	assert.Equal(t, "TGT", req.Target.Ticker)
}

func TestDecodeInto_FallbackChain(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format Format
		want   Format
	}{
		{
			name:   "strict json",
			input:  `{"target": {"name": "Target Co", "ebitda": 100}, "peers": [{"name": "A", "ebitda": 10}]}`,
			format: FormatJSON,
			want:   FormatJSON,
		},
		{
			name: "hjson with comments and unquoted keys",
			input: `{
  # hand-written
  target: {
    name: Target Co
    ebitda: 100
  }
  peers: [
    {
      name: A
      ebitda: 10
    }
  ]
}`,
			format: FormatAuto,
			want:   FormatHJSON,
		},
		{
			name:   "declared hjson skips strict json",
			input:  `{"target": {"name": "Target Co", "ebitda": 100}, "peers": [{"name": "A", "ebitda": 10}]}`,
			format: FormatHJSON,
			want:   FormatHJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Decode([]byte(tt.input), tt.format)
			require.NoError(t, err)
			assert.Equal(t, "Target Co", req.Target.Name)
			assert.Equal(t, 100.0, req.Target.EBITDA)
			require.Len(t, req.Peers, 1)
			assert.Equal(t, 10.0, req.Peers[0].EBITDA)

			var raw struct {
				Target valuation.FinancialEntity `json:"target"`
			}
			got, err := DecodeInto([]byte(tt.input), tt.format, &raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_RepairsMalformedJSON(t *testing.T) {
	// Trailing comma and a missing closing brace
	input := `{"target": {"name": "Target Co", "ebitda": 100,}, "peer_set": "software"`

	req, err := Decode([]byte(input), FormatJSON)

	require.NoError(t, err)
	assert.Equal(t, "Target Co", req.Target.Name)
	assert.Equal(t, "software", req.PeerSet)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte(`{"peers": []}`), FormatJSON)
	assert.ErrorIs(t, err, ErrMissingTarget)

	_, err = Decode([]byte("target: [unterminated"), FormatYAML)
	assert.ErrorIs(t, err, ErrUndecodable)
}

func TestFormatDetection(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("deals/acme.yml"))
	assert.Equal(t, FormatHJSON, FormatFromPath("acme.HJSON"))
	assert.Equal(t, FormatJSON, FormatFromPath("acme.json"))
	assert.Equal(t, FormatAuto, FormatFromPath("acme"))

	assert.Equal(t, FormatYAML, FormatFromContentType("application/x-yaml; charset=utf-8"))
	assert.Equal(t, FormatJSON, FormatFromContentType("application/json"))
	assert.Equal(t, FormatAuto, FormatFromContentType(""))
}

func TestDecodeInto_FailedParsersLeaveTargetUntouched(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format Format
	}{
		{name: "json type error after a valid field", input: `{"name": "Half Done", "ebitda": "lots"}`, format: FormatJSON},
		{name: "yaml type error after a valid field", input: "name: Half Done\nebitda: [1, 2]\n", format: FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valuation.FinancialEntity{Ticker: "KEEP"}

			_, err := DecodeInto([]byte(tt.input), tt.format, &e)

			assert.ErrorIs(t, err, ErrUndecodable)
			assert.Equal(t, valuation.FinancialEntity{Ticker: "KEEP"}, e)
		})
	}
}

func TestDecodeInto_SuccessReplacesTarget(t *testing.T) {
	e := valuation.FinancialEntity{Ticker: "OLD", EBITDA: 1}

	format, err := DecodeInto([]byte("{\n  name: Fresh\n  ebitda: 7\n}"), FormatAuto, &e)

	require.NoError(t, err)
	assert.Equal(t, FormatHJSON, format)
	assert.Equal(t, valuation.FinancialEntity{Name: "Fresh", EBITDA: 7}, e)
}

func TestDecodeInto_RequiresPointer(t *testing.T) {
	_, err := DecodeInto([]byte(`{}`), FormatJSON, valuation.FinancialEntity{})

	assert.ErrorIs(t, err, ErrUndecodable)
}
