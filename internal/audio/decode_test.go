package audio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDetection(t *testing.T) {
	assert.Equal(t, formatWAV, formatFromExt(".WAV"))
	assert.Equal(t, formatOgg, formatFromExt("oga"))
	assert.Equal(t, formatUnknown, formatFromExt(".flac"))

	assert.Equal(t, formatWAV, formatFromMagic([]byte("RIFF")))
	assert.Equal(t, formatOgg, formatFromMagic([]byte("OggS")))
	assert.Equal(t, formatMP3, formatFromMagic([]byte("ID3\x04")))
	assert.Equal(t, formatMP3, formatFromMagic([]byte{0xFF, 0xFB, 0x90, 0x00}))
	assert.Equal(t, formatUnknown, formatFromMagic([]byte("fLaC")))
}

func TestTempWAVDecodesBack(t *testing.T) {
	pcm := make([]float32, 1600)
	for i := range pcm {
		pcm[i] = 0.25
	}

	f, err := TempWAV(pcm)
	require.NoError(t, err)
	defer os.Remove(f.Name())
	defer f.Close()
	assert.Equal(t, ".wav", filepath.Ext(f.Name()))

	got, err := DecodeFile(f.Name(), DecodeOptions{})
	require.NoError(t, err)
	require.Len(t, got, len(pcm))
	assert.InDelta(t, 0.25, got[800], 1e-3)

	got, err = DecodeFile(f.Name(), DecodeOptions{MaxSamples: 100})
	require.NoError(t, err)
	assert.Len(t, got, 100)
}

func TestDecode_SniffsWithoutExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, EncodeWAV(f, []float32{0, 0.5, -0.5, 0}, 8000))
	require.NoError(t, f.Close())

	got, err := DecodeFile(path, DecodeOptions{})
	require.NoError(t, err)
	assert.Len(t, got, 8, "8 kHz input is resampled to 16 kHz")
}

func TestDecode_Unsupported(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("fLaC....")), "", DecodeOptions{})
	assert.ErrorContains(t, err, "unsupported")
}
