package radio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/airadio/api/internal/logging"
	"github.com/airadio/api/internal/model"
)

// OrderArtifacts lays out the show: intro segments by index, then each
// song followed by its transition. A transition is only placed when
// transitions are enabled, it exists for the song's index and the song is
// not the last one.
func OrderArtifacts(intro []model.AudioArtifact, songs []model.Song, transitions []model.AudioArtifact, withTransitions bool) []model.AudioArtifact {
	segments := append([]model.AudioArtifact(nil), intro...)
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Index < segments[j].Index
	})

	byIndex := make(map[int]model.AudioArtifact, len(transitions))
	for _, t := range transitions {
		if _, dup := byIndex[t.Index]; !dup {
			byIndex[t.Index] = t
		}
	}

	out := make([]model.AudioArtifact, 0, len(segments)+2*len(songs))
	out = append(out, segments...)
	for i, song := range songs {
		out = append(out, model.AudioArtifact{Path: song.Path, Role: model.RoleSong, Index: i})
		if !withTransitions || i == len(songs)-1 {
			continue
		}
		if t, ok := byIndex[i]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Assembler joins audio files into one
type Assembler struct {
	mode     model.AssembleMode
	readFile func(name string) ([]byte, error)
}

// NewAssembler creates an assembler. Unknown modes use byte concatenation.
func NewAssembler(mode model.AssembleMode) *Assembler {
	if mode != model.AssembleFFmpeg {
		mode = model.AssembleConcat
	}
	return &Assembler{mode: mode, readFile: os.ReadFile}
}

// Mode reports how files are joined
func (a *Assembler) Mode() model.AssembleMode {
	return a.mode
}

// Assemble writes parts to output in order. Unreadable parts are skipped
// with a warning. The output must exist and be non-empty afterwards.
func (a *Assembler) Assemble(ctx context.Context, parts []model.AudioArtifact, output string, log zerolog.Logger) error {
	defer logging.TraceDuration(log, "assemble")()

	var inputs []string
	for _, p := range parts {
		info, err := os.Stat(p.Path)
		if err != nil || info.IsDir() {
			log.Warn().Err(err).Str("path", p.Path).Str("role", string(p.Role)).Msg("skipping unreadable audio")
			continue
		}
		inputs = append(inputs, p.Path)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("%w: nothing to combine", ErrAssemblyFailed)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}

	var err error
	if a.mode == model.AssembleFFmpeg {
		err = ffmpegConcat(inputs, output)
	} else {
		err = a.byteConcat(ctx, inputs, output, log)
	}
	if err != nil {
		return err
	}

	info, err := os.Stat(output)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrAssemblyFailed, output)
	}
	return nil
}

// byteConcat appends each input whole. An input that cannot be read in
// full is left out; a failed write fails the assembly.
func (a *Assembler) byteConcat(ctx context.Context, inputs []string, output string, log zerolog.Logger) error {
	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}
	defer out.Close()

	for _, path := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := a.readFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping audio that could not be read")
			continue
		}
		if _, err := out.Write(data); err != nil {
			return fmt.Errorf("%w: write %s: %v", ErrAssemblyFailed, output, err)
		}
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}
	return nil
}

// ffmpegConcat re-encodes inputs through the concat demuxer.
func ffmpegConcat(inputs []string, output string) error {
	list, err := os.CreateTemp(filepath.Dir(output), ".concat-*.txt")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}
	defer os.Remove(list.Name())

	for _, path := range inputs {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		fmt.Fprintf(list, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if err := list.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}

	err = ffmpeg.Input(list.Name(), ffmpeg.KwArgs{"f": "concat", "safe": "0"}).
		Output(output, ffmpeg.KwArgs{
			"c:a": "libmp3lame",
			"b:a": "192k",
		}).
		OverWriteOutput().
		Run()
	if err != nil {
		return fmt.Errorf("%w: ffmpeg: %v", ErrAssemblyFailed, err)
	}
	return nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// MediaDuration returns the length of an audio file in seconds.
func MediaDuration(path string) (float64, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	var p probeOutput
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return 0, fmt.Errorf("decode ffprobe output: %w", err)
	}
	d, err := strconv.ParseFloat(p.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", p.Format.Duration, err)
	}
	return d, nil
}
