package audio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	opus "github.com/pekim/opus"
)

type format int

const (
	formatUnknown format = iota
	formatWAV
	formatMP3
	formatOgg
)

// DecodeOptions limits decoded output; zero means no limit.
type DecodeOptions struct {
	MaxSamples int
}

// DecodeFile reads a wav, mp3 or ogg (vorbis or opus) file into mono 16 kHz
// PCM.
func DecodeFile(path string, opt DecodeOptions) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pcm, err := Decode(f, filepath.Ext(path), opt)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return pcm, nil
}

// Decode picks a decoder from the extension hint, falling back to sniffing
// the first bytes.
func Decode(r io.ReadSeeker, ext string, opt DecodeOptions) ([]float32, error) {
	f := formatFromExt(ext)
	if f == formatUnknown {
		magic, _ := bufio.NewReader(r).Peek(4)
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		f = formatFromMagic(magic)
	}

	switch f {
	case formatWAV:
		return decodeWAV(r, opt)
	case formatMP3:
		return decodeMP3(r, opt)
	case formatOgg:
		pcm, err := decodeVorbis(r, opt)
		if err == nil {
			return pcm, nil
		}
		if _, serr := r.Seek(0, io.SeekStart); serr != nil {
			return nil, serr
		}
		pcm, oerr := decodeOpus(r, opt)
		if oerr != nil {
			return nil, fmt.Errorf("ogg is neither vorbis (%v) nor opus (%w)", err, oerr)
		}
		return pcm, nil
	default:
		return nil, fmt.Errorf("unsupported audio format %q", ext)
	}
}

func formatFromExt(ext string) format {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "wav":
		return formatWAV
	case "mp3":
		return formatMP3
	case "ogg", "oga", "opus":
		return formatOgg
	default:
		return formatUnknown
	}
}

func formatFromMagic(magic []byte) format {
	switch {
	case bytes.HasPrefix(magic, []byte("RIFF")):
		return formatWAV
	case bytes.HasPrefix(magic, []byte("OggS")):
		return formatOgg
	case bytes.HasPrefix(magic, []byte("ID3")), len(magic) >= 2 && magic[0] == 0xFF && magic[1]&0xE0 == 0xE0:
		return formatMP3
	default:
		return formatUnknown
	}
}

func decodeWAV(r io.ReadSeeker, opt DecodeOptions) ([]float32, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, errors.New("empty wav")
	}

	channels, rate := 1, 44100
	if buf.Format != nil {
		if buf.Format.NumChannels > 0 {
			channels = buf.Format.NumChannels
		}
		if buf.Format.SampleRate > 0 {
			rate = buf.Format.SampleRate
		}
	}

	return normalize(intsToFloat(buf.Data, int(dec.BitDepth)), channels, rate, opt.MaxSamples), nil
}

func decodeMP3(r io.Reader, opt DecodeOptions) ([]float32, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}

	// go-mp3 always yields 16-bit little-endian stereo
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	return normalize(int16ToFloat(samples), 2, rate, opt.MaxSamples), nil
}

func decodeVorbis(r io.Reader, opt DecodeOptions) ([]float32, error) {
	pcm, f, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if f == nil || f.Channels <= 0 || f.SampleRate <= 0 {
		return nil, errors.New("invalid ogg/vorbis stream")
	}
	return normalize(pcm, f.Channels, f.SampleRate, opt.MaxSamples), nil
}

func decodeOpus(r io.ReadSeeker, opt DecodeOptions) ([]float32, error) {
	dec, err := opus.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	defer dec.Destroy()

	channels := dec.ChannelCount()
	if channels <= 0 {
		channels = 1
	}

	// opusfile always decodes at 48 kHz
	var (
		pcm []float32
		buf = make([]int16, 24000*channels)
	)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			pcm = append(pcm, int16ToFloat(buf[:n*channels])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if len(pcm) == 0 {
		return nil, errors.New("empty opus stream")
	}

	return normalize(pcm, channels, 48000, opt.MaxSamples), nil
}
