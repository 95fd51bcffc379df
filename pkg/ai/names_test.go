package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFoldName(t *testing.T) {
	cases := map[string]string{
		"Defne":       "defne",
		"Defne Öz":    "defneoz",
		"defne oz":    "defneoz",
		"AHMET DEMİR": "ahmetdemir",
		"Işıl_Çağ-99": "isilcag99",
		"  ":          "",
	}

	for input, want := range cases {
		require.Equal(t, want, FoldName(input), input)
	}
}

func TestAllowListMatchesDisplayNameOrUsername(t *testing.T) {
	allow := NewAllowList([]string{"defne", "Defne Öz", ""})

	require.True(t, allow.Allows(&Profile{DisplayName: "DEFNE ÖZ"}))
	require.True(t, allow.Allows(&Profile{DisplayName: "Someone", Username: "defne"}))
	require.False(t, allow.Allows(&Profile{DisplayName: "Defneler"}))
	require.False(t, allow.Allows(&Profile{}))
	require.False(t, allow.Allows(nil))
	require.False(t, AllowList{}.Allows(&Profile{DisplayName: "defne"}))
}
