package flagx

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-c", "authkeeper.yaml", "-a", ":3200"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-c", "authkeeper.yaml"},
		},
		{
			name:    "equals form",
			args:    []string{"-config=alt.json", "-a", ":3200"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-config=alt.json"},
		},
		{
			name:    "order preserved",
			args:    []string{"-config=first.json", "-c", "second.yaml", "-l", "debug"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-config=first.json", "-c", "second.yaml"},
		},
		{
			name:    "nothing allowed",
			args:    []string{"-d", "postgres://", "--k=secret", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "dangling flag",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "next token is a flag",
			args:    []string{"-c", "-l"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "empty",
			args:    nil,
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowed)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("FilterArgs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	assert.Equal(t, "/etc/authkeeper.yaml", ConfigFileFlag([]string{"-c", "/etc/authkeeper.yaml"}))
	assert.Equal(t, "conf.json", ConfigFileFlag([]string{"-a", ":3200", "-config", "conf.json"}))
	assert.Equal(t, "b.json", ConfigFileFlag([]string{"-c", "a.json", "-config=b.json"}))
	assert.Empty(t, ConfigFileFlag([]string{"-x", "1", "-y", "2"}))
}
