package radio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/airadio/api/internal/catalog"
	"github.com/airadio/api/internal/client"
	"github.com/airadio/api/internal/metrics"
	"github.com/airadio/api/internal/model"
	"github.com/airadio/api/internal/task"
)

// The opening phrase is drawn out and followed by a longer pause.
const (
	openingSpeed = 0.9
	openingPause = 800
)

// Progress receives stage progress and partial results of a run.
// *task.Execution implements it.
type Progress interface {
	Report(stage model.Stage, percent int, message string)
	Record(fn func(*model.JobResult))
}

var _ Progress = (*task.Execution)(nil)

// Options wires an Orchestrator
type Options struct {
	Catalog     catalog.Catalog
	LLM         client.LLM
	Synthesizer client.Synthesizer
	Transcriber client.Transcriber
	// Storage is optional; when set the finished show is uploaded.
	Storage client.Storage
	// SignedURLExpiry > 0 publishes a presigned link instead of the
	// public URL, for private buckets.
	SignedURLExpiry time.Duration
	Templates       Templates

	CacheDir     string
	OutputDir    string
	AssembleMode model.AssembleMode

	SynthDelayMin   time.Duration
	SynthDelayMax   time.Duration
	TranscriptLimit int
	Attempts        int
}

// Orchestrator runs the radio show pipeline for generate_radio jobs
type Orchestrator struct {
	scripts     *ScriptWriter
	segmenter   *Segmenter
	voice       *Voice
	transitions *TransitionWriter
	assembler   *Assembler
	storage     client.Storage
	signExpiry  time.Duration

	cacheDir  string
	outputDir string

	newPacer func() *Pacer
	measure  func(path string) (float64, error)
}

var _ task.Handler = (*Orchestrator)(nil)

// NewOrchestrator builds the pipeline from opts
func NewOrchestrator(opts Options) *Orchestrator {
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	templates := opts.Templates
	if len(templates.IntroTemplates) == 0 {
		templates = DefaultTemplates()
	}
	voice := NewVoice(opts.Synthesizer, attempts)

	return &Orchestrator{
		scripts:     NewScriptWriter(opts.Catalog, opts.Transcriber, opts.LLM, templates, opts.TranscriptLimit, attempts),
		segmenter:   NewSegmenter(opts.LLM, attempts),
		voice:       voice,
		transitions: NewTransitionWriter(opts.LLM, voice, attempts),
		assembler:   NewAssembler(opts.AssembleMode),
		storage:     opts.Storage,
		signExpiry:  opts.SignedURLExpiry,
		cacheDir:    opts.CacheDir,
		outputDir:   opts.OutputDir,
		newPacer: func() *Pacer {
			return NewPacer(opts.SynthDelayMin, opts.SynthDelayMax)
		},
		measure: MediaDuration,
	}
}

// Handle runs one generate_radio job
func (o *Orchestrator) Handle(ctx context.Context, exec *task.Execution) error {
	var params model.RadioParams
	if err := exec.DecodeParams(&params); err != nil {
		return err
	}
	return o.Run(ctx, exec.JobID, params, exec, exec.Log)
}

// Run executes every stage in order. On failure all files the run created
// are removed before the error is returned.
func (o *Orchestrator) Run(ctx context.Context, jobID string, params model.RadioParams, p Progress, log zerolog.Logger) (err error) {
	artist := strings.TrimSpace(params.ArtistName)
	if artist == "" {
		return errors.New("artist_name is required")
	}
	opts := params.DJOptions.WithDefaults()
	opts.Speed = clampFloat(opts.Speed, model.MinSegmentSpeed, model.MaxSegmentSpeed)

	artifacts := &ArtifactSet{}
	defer func() {
		if err != nil {
			artifacts.Cleanup(log)
		}
	}()

	log.Info().
		Str("artist", artist).
		Bool("dj_transitions", params.EnableDJTransitions).
		Str("dj_style", string(opts.Style)).
		Msg("starting radio generation")

	// Script generation
	var script *Script
	var opening string
	err = o.stage(ctx, model.StageScriptGeneration, func() error {
		p.Report(model.StageScriptGeneration, 2, fmt.Sprintf("generating script for %s", artist))

		var err error
		script, err = o.scripts.Write(ctx, artist, log)
		if err != nil {
			return err
		}

		if params.OpeningPhrase {
			opening, err = o.scripts.OpeningPhrase(ctx, log)
			if err != nil {
				return err
			}
		}

		p.Record(func(r *model.JobResult) {
			r.Script = &model.ScriptResult{
				Artist:        artist,
				TotalSongs:    len(script.Songs),
				Prompt:        script.Prompt,
				Script:        script.Text,
				OpeningPhrase: opening,
			}
		})
		p.Report(model.StageScriptGeneration, 10, "script generated")
		return nil
	})
	if err != nil {
		return err
	}

	// Segmentation
	var segments []model.Segment
	err = o.stage(ctx, model.StageScriptSegmentation, func() error {
		p.Report(model.StageScriptSegmentation, 15, "segmenting script")

		var err error
		segments, err = o.segmenter.Segment(ctx, script.Text, log)
		if err != nil {
			return err
		}
		if len(segments) == 0 {
			return fmt.Errorf("%w: script has no speakable text", ErrMalformedResponse)
		}
		if opening != "" {
			segments = append([]model.Segment{{
				Text:    opening,
				Speed:   openingSpeed,
				PauseMS: openingPause,
			}}, segments...)
		}

		p.Record(func(r *model.JobResult) {
			r.Segments = append([]model.Segment(nil), segments...)
		})
		p.Report(model.StageScriptSegmentation, 40, fmt.Sprintf("script split into %d segments", len(segments)))
		return nil
	})
	if err != nil {
		return err
	}

	// The catalog spelling of the artist names the output files.
	base := fileBase(script.Songs[0].Artist)
	tag := shortID(jobID)

	// Audio generation
	var intro []model.AudioArtifact
	err = o.stage(ctx, model.StageAudioGeneration, func() error {
		var err error
		intro, err = o.synthesizeSegments(ctx, segments, base, tag, jobID, p, artifacts, log)
		if err != nil {
			return err
		}

		paths := artifactPaths(intro)
		p.Record(func(r *model.JobResult) { r.AudioFiles = paths })
		p.Report(model.StageAudioGeneration, 70, fmt.Sprintf("synthesized %d of %d segments", len(intro), len(segments)))
		return nil
	})
	if err != nil {
		return err
	}

	// Transitions
	var transitions []model.AudioArtifact
	if params.EnableDJTransitions && len(script.Songs) > 1 {
		err = o.stage(ctx, model.StageTransitions, func() error {
			var err error
			transitions, err = o.generateTransitions(ctx, script.Songs, opts, base, tag, jobID, p, artifacts, log)
			if err != nil {
				return err
			}

			paths := artifactPaths(transitions)
			p.Record(func(r *model.JobResult) { r.TransitionFiles = paths })
			return nil
		})
		if err != nil {
			return err
		}
	}

	// Assembly
	return o.stage(ctx, model.StageCombining, func() error {
		p.Report(model.StageCombining, 90, "combining audio")

		var introFile string
		if len(intro) > 0 {
			introFile = filepath.Join(o.cacheDir, fmt.Sprintf("%s_radio_intro_%s.mp3", base, jobID))
			artifacts.Add(model.AudioArtifact{Path: introFile, Role: model.RoleCombinedIntro, JobID: jobID})
			if err := o.assembler.Assemble(ctx, OrderArtifacts(intro, nil, nil, false), introFile, log); err != nil {
				return err
			}
		}

		output := filepath.Join(o.outputDir, fmt.Sprintf("%s_radio_show_%s.mp3", base, jobID))
		artifacts.Add(model.AudioArtifact{Path: output, Role: model.RoleFullShow, JobID: jobID})
		parts := OrderArtifacts(intro, script.Songs, transitions, params.EnableDJTransitions)
		if err := o.assembler.Assemble(ctx, parts, output, log); err != nil {
			return err
		}
		log.Info().Str("output_file", output).Int("parts", len(parts)).Str("mode", string(o.assembler.Mode())).Msg("show assembled")

		duration, err := o.measure(output)
		if err != nil {
			log.Debug().Err(err).Msg("duration unavailable")
		}
		url := o.upload(ctx, jobID, output, log)

		p.Record(func(r *model.JobResult) {
			r.IntroFile = introFile
			r.OutputFile = output
			r.OutputURL = url
			r.DurationSeconds = duration
		})
		p.Report(model.StageCompleted, 100, "radio show ready")
		return nil
	})
}

// stage runs fn after a cancellation check and tags its error.
func (o *Orchestrator) stage(ctx context.Context, stage model.Stage, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: stage, Err: err}
	}

	start := time.Now()
	err := fn()
	metrics.ObserveStage(string(stage), time.Since(start))
	if err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	return nil
}

// synthesizeSegments speaks each segment in order. A segment that fails
// is skipped; only cancellation stops the loop.
func (o *Orchestrator) synthesizeSegments(ctx context.Context, segments []model.Segment, base, tag, jobID string, p Progress, artifacts *ArtifactSet, log zerolog.Logger) ([]model.AudioArtifact, error) {
	pacer := o.newPacer()
	n := len(segments)

	var out []model.AudioArtifact
	for i, seg := range segments {
		if err := pacer.Wait(ctx); err != nil {
			return nil, err
		}
		p.Report(model.StageAudioGeneration, 40+30*i/n, fmt.Sprintf("synthesizing segment %d/%d", i+1, n))

		a := model.AudioArtifact{
			Path:  filepath.Join(o.cacheDir, fmt.Sprintf("%s_intro_%d_%s.mp3", base, i, tag)),
			Role:  model.RoleIntroSegment,
			Index: i,
			JobID: jobID,
		}
		artifacts.Add(a)

		if err := o.voice.SpeakToFile(ctx, seg.Text, seg.Speed, a.Path); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			os.Remove(a.Path)
			metrics.IncSegmentSkipped()
			log.Warn().Err(err).Int("segment", i).Msg("skipping segment after synthesis failure")
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// generateTransitions writes one transition per adjacent song pair. A
// language model failure ends the run; a synthesis failure only drops
// that transition.
func (o *Orchestrator) generateTransitions(ctx context.Context, songs []model.Song, opts model.DJOptions, base, tag, jobID string, p Progress, artifacts *ArtifactSet, log zerolog.Logger) ([]model.AudioArtifact, error) {
	pairs := len(songs) - 1

	var out []model.AudioArtifact
	for i := 0; i < pairs; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.Report(model.StageTransitions, 70+20*i/pairs,
			fmt.Sprintf("writing transition %s -> %s", songs[i].Name, songs[i+1].Name))

		text, err := o.transitions.Text(ctx, songs[i], songs[i+1], opts, log)
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", i, err)
		}

		a := model.AudioArtifact{
			Path:  filepath.Join(o.cacheDir, fmt.Sprintf("%s_transition_%d_%s.mp3", base, i, tag)),
			Role:  model.RoleTransition,
			Index: i,
			JobID: jobID,
		}
		artifacts.Add(a)

		ok, err := o.transitions.Render(ctx, text, opts.Speed, a.Path, log)
		if err != nil {
			return nil, err
		}
		if !ok {
			os.Remove(a.Path)
			log.Warn().Int("transition", i).Msg("skipping transition")
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// upload publishes the show when storage is configured. Failures are
// logged and leave the local file as the only output.
func (o *Orchestrator) upload(ctx context.Context, jobID, path string, log zerolog.Logger) string {
	if o.storage == nil {
		return ""
	}
	key := fmt.Sprintf("shows/%s/%s", jobID, filepath.Base(path))
	url, err := o.storage.UploadFile(ctx, key, path, "audio/mpeg")
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to upload show")
		return ""
	}
	if o.signExpiry > 0 {
		signed, err := o.storage.GetSignedURL(ctx, key, o.signExpiry)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to presign show url")
			return ""
		}
		url = signed
	}
	log.Info().Str("url", url).Msg("show uploaded")
	return url
}

var unsafeFileChars = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

func fileBase(artist string) string {
	return unsafeFileChars.Replace(artist)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func artifactPaths(as []model.AudioArtifact) []string {
	paths := make([]string, 0, len(as))
	for _, a := range as {
		paths = append(paths, a.Path)
	}
	return paths
}
