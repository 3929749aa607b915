package system

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeygen(t *testing.T) {
	tests := []struct {
		mode string
		want []string
	}{
		{"local", []string{"local_key_hex"}},
		{"public", []string{"secret_key_hex", "public_key_hex"}},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cmd := NewKeygenCommand()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetArgs([]string{"--mode", tt.mode})

			require.NoError(t, cmd.Execute())
			assert.Contains(t, out.String(), `mode: "`+tt.mode+`"`)
			for _, key := range tt.want {
				assert.True(t, strings.Contains(out.String(), key+":"), "missing %s in %s", key, out.String())
			}
		})
	}
}

func TestKeygenUnknownMode(t *testing.T) {
	cmd := NewKeygenCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--mode", "jwt"})
	assert.Error(t, cmd.Execute())
}
