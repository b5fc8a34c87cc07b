//go:build unit
// +build unit

package core

import (
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBackendSetting struct {
	Host    string `toml:"host"`
	Port    string `toml:"port"`
	Retries int    `toml:"retries"`
}

func TestRegisterSettings(t *testing.T) {
	s := registeredSettings()
	assert.Equal(t, 2, len(s.ComponentSetting))
}

func TestParseSettings(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantError bool
		want      *Setting
	}{
		{
			name: "empty",
			in:   "",
			want: &Setting{
				ComponentSetting: map[string]interface{}{},
				RunGroupSetting:  map[string]interface{}{},
			},
		},
		{
			name: "component table",
			in: heredoc.Doc(`
				[com.gateway]
				host = "backend"
			`),
			want: &Setting{
				ComponentSetting: map[string]interface{}{
					"gateway": map[string]interface{}{"host": "backend"},
				},
				RunGroupSetting: map[string]interface{}{},
			},
		},
		{
			name:      "broken toml",
			in:        "[com.gateway",
			wantError: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetSetting()
			gotError := globalSetting.parseSetting(tt.in)
			if tt.wantError {
				assert.NotNil(t, gotError)
				return
			}
			assert.Nil(t, gotError)
			assert.Equal(t, tt.want, globalSetting)
		})
	}
}

func TestDecodeComponentSetting(t *testing.T) {
	ResetSetting()
	RegisterSetting("gateway", testBackendSetting{Host: "localhost", Port: "50061", Retries: 1})

	// the registered default is used while nothing is parsed
	got := testBackendSetting{}
	require.Nil(t, DecodeComponentSetting("gateway", &got))
	assert.Equal(t, testBackendSetting{Host: "localhost", Port: "50061", Retries: 1}, got)

	require.Nil(t, globalSetting.parseSetting(heredoc.Doc(`
		[com.gateway]
		host = "backend"
		retries = 3
	`)))
	got = testBackendSetting{Port: "50061"}
	require.Nil(t, DecodeComponentSetting("gateway", &got))
	assert.Equal(t, testBackendSetting{Host: "backend", Port: "50061", Retries: 3}, got)

	assert.EqualError(t, DecodeComponentSetting("missing", &got), "missing setting is not found")
}

func registeredSettings() *Setting {
	ns := newSetting()
	ns.registerSetting("gateway", &testBackendSetting{})
	ns.registerSetting("subprocess", &testBackendSetting{})
	return ns
}
