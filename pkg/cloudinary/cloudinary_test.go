package cloudinary

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestJoinFolder(t *testing.T) {
	require.Equal(t, "bring/user_images/u1", joinFolder("/bring/", "user_images/u1/"))
	require.Equal(t, "messages/c1", joinFolder("", "messages/c1"))
	require.Equal(t, "bring", joinFolder("bring", ""))
}

func TestBuildPublicID(t *testing.T) {
	id := buildPublicID("Yüz fotoğrafım.png")
	require.True(t, strings.HasPrefix(id, "Y-z-foto-raf-m-"), id)

	require.True(t, strings.HasPrefix(buildPublicID("???.jpg"), "image-"))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"}, zerolog.Nop())
	require.Error(t, err)
}
