package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveModeGatesPositiveMode(t *testing.T) {
	allow := NewAllowList([]string{"defne", "defneoz", "ahmetdemir"})

	require.Equal(t, ModePositive, ResolveMode(ModePositive, &Profile{DisplayName: "Defne Öz"}, allow))
	require.Equal(t, ModePositive, ResolveMode(ModePositive, &Profile{Username: "ahmetdemir"}, allow))
	require.Equal(t, ModeClassic, ResolveMode(ModePositive, &Profile{DisplayName: "Ayşe"}, allow))
	require.Equal(t, ModeClassic, ResolveMode(ModePositive, nil, allow))
}

func TestResolveModeKeepsOtherModes(t *testing.T) {
	for _, mode := range Modes() {
		if mode == ModePositive {
			continue
		}
		require.Equal(t, mode, ResolveMode(mode, nil, nil))
	}
	require.Equal(t, ModeClassic, ResolveMode("tarot", nil, nil))
	require.Equal(t, ModeJung, ParseMode(" JUNG "))
}

func TestBuildPromptInsertsDreamAndPersonalContext(t *testing.T) {
	dream := "Bir kuyuya düştüm %s 100%"
	prompt := BuildPrompt(dream, ModeShort, &Profile{Age: "31", Interests: "dağcılık"})

	require.True(t, strings.HasPrefix(prompt, promptPreamble))
	require.Contains(t, prompt, dream)
	require.Contains(t, prompt, "yaşı 31")
	require.Contains(t, prompt, "ilgi alanları dağcılık")
	require.NotContains(t, prompt, "mesleği")
	require.Contains(t, prompt, "çok kısa ve öz")

	plain := BuildPrompt("rüya", ModeFreud, nil)
	require.NotContains(t, plain, "kişiselleştir")
	require.Contains(t, plain, "Freud")
}
