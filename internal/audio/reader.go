// Package audio decodes audio files to mono float64 samples at the reference
// sample rate used by the analyzer.
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// ReferenceRate is the sample rate all decoded audio is brought to.
const ReferenceRate = 44100

// Metadata describes the decoded source before resampling.
type Metadata struct {
	Duration   float64 // seconds
	SampleRate int
	Channels   int
	Codec      string
}

// Buffer holds a fully decoded mono track at ReferenceRate.
type Buffer struct {
	Samples []float64
	Meta    Metadata
}

// Duration returns the decoded length in seconds.
func (b *Buffer) Duration() float64 {
	return float64(len(b.Samples)) / float64(ReferenceRate)
}

// Decode reads an audio file of any supported format into a mono buffer at
// the reference rate. WAV, MP3, FLAC and OGG decode natively; anything else
// is handed to the ffmpeg subprocess decoder.
func Decode(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	var (
		samples []float64
		rate    int
		chans   int
		codec   string
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		samples, rate, chans, err = decodeWAV(f)
		codec = "pcm"
	case ".mp3":
		samples, rate, chans, err = decodeMP3(f)
		codec = "mp3"
	case ".flac":
		samples, rate, chans, err = decodeFLAC(f)
		codec = "flac"
	case ".ogg":
		samples, rate, chans, err = decodeOGG(f)
		codec = "vorbis"
	default:
		// AAC, M4A and friends go through the external decoder.
		samples, err = decodeFFmpeg(path)
		rate, chans, codec = ReferenceRate, 1, "ffmpeg"
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples in %s", filepath.Base(path))
	}

	mono := Downmix(samples, chans)
	if rate != ReferenceRate {
		mono = Resample(mono, rate, ReferenceRate)
	}

	return &Buffer{
		Samples: mono,
		Meta: Metadata{
			Duration:   float64(len(mono)) / float64(ReferenceRate),
			SampleRate: rate,
			Channels:   chans,
			Codec:      codec,
		},
	}, nil
}

func decodeWAV(f *os.File) ([]float64, int, int, error) {
	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, err
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, 0, 0, errors.New("empty WAV stream")
	}
	bitDepth := int(d.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) * scale
	}
	return samples, buf.Format.SampleRate, buf.Format.NumChannels, nil
}

func decodeMP3(f *os.File) ([]float64, int, int, error) {
	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, 0, 0, err
	}
	// go-mp3 always yields 16-bit little-endian stereo.
	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, 0, 0, err
	}
	n := len(raw) / 2
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		v := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
		samples[i] = float64(v) / 32768.0
	}
	return samples, d.SampleRate(), 2, nil
}

func decodeFLAC(f *os.File) ([]float64, int, int, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, 0, 0, err
	}
	info := stream.Info
	chans := int(info.NChannels)
	scale := 1.0 / float64(int64(1)<<(info.BitsPerSample-1))

	var samples []float64
	for {
		fr, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, 0, err
		}
		blockLen := len(fr.Subframes[0].Samples)
		for i := 0; i < blockLen; i++ {
			for ch := 0; ch < chans; ch++ {
				samples = append(samples, float64(fr.Subframes[ch].Samples[i])*scale)
			}
		}
	}
	return samples, int(info.SampleRate), chans, nil
}

func decodeOGG(f *os.File) ([]float64, int, int, error) {
	data, format, err := oggvorbis.ReadAll(f)
	if err != nil {
		return nil, 0, 0, err
	}
	samples := make([]float64, len(data))
	for i, v := range data {
		samples[i] = float64(v)
	}
	return samples, format.SampleRate, format.Channels, nil
}

// Downmix averages interleaved channels into mono. Partial trailing frames
// (truncated reads at EOF) are zero-padded.
func Downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}
	n := (len(interleaved) + channels - 1) / channels
	mono := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			idx := i*channels + ch
			if idx < len(interleaved) {
				sum += interleaved[idx]
			}
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

// Resample converts between sample rates with linear interpolation. Quality
// is secondary here: the analyzer consumes energy statistics, not waveforms.
func Resample(in []float64, fromRate, toRate int) []float64 {
	if fromRate == toRate || len(in) == 0 {
		return in
	}
	ratio := float64(fromRate) / float64(toRate)
	n := int(float64(len(in)) / ratio)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		pos := float64(i) * ratio
		j := int(pos)
		frac := pos - float64(j)
		if j+1 < len(in) {
			out[i] = in[j]*(1-frac) + in[j+1]*frac
		} else if j < len(in) {
			out[i] = in[j]
		}
	}
	return out
}
