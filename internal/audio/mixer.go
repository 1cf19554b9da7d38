package audio

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"jarvis/internal/sysexec"
)

const (
	defaultSink = "@DEFAULT_SINK@"
	maxVolume   = 150
)

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type sinkInput struct {
	ID      int
	Volume  int
	AppName string
}

type fade struct {
	id   int
	from int
	to   int
}

// Mixer drives PulseAudio/PipeWire through pactl: master volume for voice
// commands, and ducking of other applications while the assistant talks.
type Mixer struct {
	run       sysexec.Runner
	selfNames []string
	minVolume int

	mu       sync.Mutex
	ducked   bool
	original map[int]int // sink-input id -> volume before ducking
}

// NewMixer never touches streams whose application.name is in selfNames.
func NewMixer(run sysexec.Runner, selfNames []string, minVolume int) *Mixer {
	if run == nil {
		run = sysexec.ExecRunner
	}
	return &Mixer{
		run:       run,
		selfNames: append([]string(nil), selfNames...),
		minVolume: min(max(minVolume, 0), maxVolume),
		original:  make(map[int]int),
	}
}

// ChangeVolume moves the default sink by delta percent.
func (m *Mixer) ChangeVolume(ctx context.Context, delta int) error {
	arg := fmt.Sprintf("%+d%%", delta)
	if _, err := m.run(ctx, "pactl", "set-sink-volume", defaultSink, arg); err != nil {
		return fmt.Errorf("pactl set-sink-volume %s: %w", arg, err)
	}
	return nil
}

// ToggleMute flips the mute state of the default sink.
func (m *Mixer) ToggleMute(ctx context.Context) error {
	if _, err := m.run(ctx, "pactl", "set-sink-mute", defaultSink, "toggle"); err != nil {
		return fmt.Errorf("pactl set-sink-mute: %w", err)
	}
	return nil
}

// Duck fades every foreign stream to current*factor, never below minVolume.
// Calling it twice without Restore is a no-op.
func (m *Mixer) Duck(ctx context.Context, factor float64, duration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ducked {
		return nil
	}

	inputs, err := m.sinkInputs(ctx)
	if err != nil {
		return err
	}

	m.original = make(map[int]int)
	var fades []fade
	for _, in := range inputs {
		if m.isSelf(in) {
			continue
		}
		target := math.Max(float64(in.Volume)*factor, float64(m.minVolume))
		m.original[in.ID] = in.Volume
		fades = append(fades, fade{id: in.ID, from: in.Volume, to: int(math.Round(math.Min(target, maxVolume)))})
	}

	if err := m.fade(ctx, fades, duration); err != nil {
		return err
	}
	m.ducked = true
	return nil
}

// Restore fades ducked streams back. Streams that appeared after Duck are
// left alone.
func (m *Mixer) Restore(ctx context.Context, duration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ducked {
		return nil
	}

	inputs, err := m.sinkInputs(ctx)
	if err != nil {
		return err
	}

	var fades []fade
	for _, in := range inputs {
		orig, ok := m.original[in.ID]
		if !ok || m.isSelf(in) {
			continue
		}
		fades = append(fades, fade{id: in.ID, from: in.Volume, to: orig})
	}

	if err := m.fade(ctx, fades, duration); err != nil {
		return err
	}
	m.original = make(map[int]int)
	m.ducked = false
	return nil
}

func (m *Mixer) isSelf(in sinkInput) bool {
	for _, name := range m.selfNames {
		if in.AppName == name {
			return true
		}
	}
	return false
}

func (m *Mixer) fade(ctx context.Context, fades []fade, duration time.Duration) error {
	if len(fades) == 0 {
		return nil
	}

	const minStep = 10 * time.Millisecond
	steps := max(int(duration/minStep), 1)
	if duration <= 0 {
		steps = 0
	}

	for i := 0; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		frac := 1.0
		if steps > 0 {
			frac = float64(i) / float64(steps)
		}
		for _, f := range fades {
			v := int(math.Round(float64(f.from) + float64(f.to-f.from)*frac))
			if err := m.setInputVolume(ctx, f.id, v); err != nil {
				return err
			}
		}

		if i < steps {
			time.Sleep(duration / time.Duration(steps))
		}
	}
	return nil
}

func (m *Mixer) sinkInputs(ctx context.Context) ([]sinkInput, error) {
	out, err := m.run(ctx, "pactl", "list", "sink-inputs")
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}
	return parseSinkInputs(string(out)), nil
}

func (m *Mixer) setInputVolume(ctx context.Context, id, percent int) error {
	percent = min(max(percent, 0), maxVolume)
	arg := fmt.Sprintf("%d%%", percent)
	if _, err := m.run(ctx, "pactl", "set-sink-input-volume", strconv.Itoa(id), arg); err != nil {
		return fmt.Errorf("set volume id=%d: %w", id, err)
	}
	return nil
}

// parseSinkInputs reads `pactl list sink-inputs` output.
func parseSinkInputs(text string) []sinkInput {
	blocks := strings.Split(text, "Sink Input #")
	var res []sinkInput

	for _, block := range blocks[1:] {
		header, body, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(header))
		if err != nil {
			continue
		}

		in := sinkInput{ID: id}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && in.Volume == 0 {
				if m := percentRe.FindStringSubmatch(line); len(m) == 2 {
					in.Volume, _ = strconv.Atoi(m[1])
				}
			}
			if strings.HasPrefix(line, "application.name =") && in.AppName == "" {
				// application.name = "Firefox"
				in.AppName = strings.Trim(strings.TrimSpace(strings.TrimPrefix(line, "application.name =")), `"`)
			}
		}

		if in.Volume == 0 && in.AppName == "" {
			continue
		}
		res = append(res, in)
	}

	return res
}
