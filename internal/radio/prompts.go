package radio

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/airadio/api/internal/model"
)

// SystemPrompt is sent with every language model request.
const SystemPrompt = "You are a professional radio DJ with a warm and engaging personality."

// DefaultTranscriptLimit bounds each transcript embedded in the intro prompt.
const DefaultTranscriptLimit = 200

const introPromptTemplate = `You are a professional radio DJ host with a natural, poetic, and conversational voice, inspired by BBC Radio 1 and NPR.

Your task is to write a radio intro script (under 50 words) that sounds like a real DJ welcoming the listener and setting the mood for the track.

Tone: Warm, reflective, poetic, and HUMAN. Do not sound like an AI.
Style: Natural speech with emotional connection. Use metaphors, mood setting, or short storytelling.

Song Transcripts:
%s

Here are some example scripts to inspire your style (replace {artist} and {song_name} with actual values):
%s

Write a spoken-style intro that:
* Feels natural and unscripted
* Has a soft welcome
* Sets a mood that matches the songs
* Ends by naturally introducing the artist + track

Only write the final radio script, no extra explanations or markdown.`

const segmentationPromptTemplate = `You are a voice production assistant preparing a radio DJ intro for high-quality voice synthesis.

Your task is to:

1. Split the following DJ script into natural-sounding audio segments (each 1-2 spoken phrases).
2. Assign a realistic speech speed for each segment (between 0.7 and 1.2).
3. Add a pause duration in milliseconds after each segment (between 300 and 1500ms).

Format each segment as a JSON object with:
- "audio": the text to speak
- "speed": speech rate (0.7-1.2)
- "break_after": pause in milliseconds

Return an array of these objects.

Example format:
[
  {
    "audio": "Good evening, music lovers...",
    "speed": 0.95,
    "break_after": 800
  }
]

Script to segment:
%s`

// OpeningPhrasePrompt asks for a short stretched-out show opener.
const OpeningPhrasePrompt = `You are a creative radio DJ voice assistant.

Write a dramatic, catchy opening phrase (maximum 5 words) that stretches naturally when spoken aloud.

It should be perfect for starting a radio show and pulling listeners in. Example: 'Gooood Mooorrrnnninnnggggg Everyone!'

Return ONLY the phrase, no extra explanation or formatting.`

const transitionPromptTemplate = `You are a professional radio DJ creating a smooth transition between songs.
Current Song: %s by %s
Next Song: %s by %s

Create a natural, engaging transition that:
1. References elements or mood from the current song
2. Creates anticipation for the next song
3. Maintains the energy and flow
4. Sounds human and conversational

Keep it between %d and %d words.
Make it feel like a real radio DJ speaking naturally.`

var styleAdditions = map[model.DJStyle]string{
	model.DJStyleEnergetic:    "\nUse high-energy language and create excitement!",
	model.DJStyleSmooth:       "\nKeep it mellow and flowing, perfect for late-night radio.",
	model.DJStyleStorytelling: "\nWeave a brief narrative that connects these songs together.",
	model.DJStyleTechnical:    "\nInclude interesting musical or production details about the songs.",
	model.DJStylePoetic:       "\nUse metaphors and poetic language to paint a mood.",
}

var lengthWords = map[model.DJLength][2]int{
	model.DJLengthShort:  {15, 25},
	model.DJLengthMedium: {25, 40},
	model.DJLengthLong:   {40, 60},
}

// Truncate cuts s to limit runes and marks the cut with "...".
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit]) + "..."
}

// IntroPrompt embeds every transcript and the style exemplars.
func IntroPrompt(transcripts []model.SongTranscript, templates Templates, limit int) string {
	parts := make([]string, 0, len(transcripts))
	for _, t := range transcripts {
		parts = append(parts, fmt.Sprintf("Song: %s\nTranscript:\n%s\n", t.SongName, Truncate(t.Transcript, limit)))
	}

	examples := make([]string, 0, len(templates.IntroTemplates))
	for _, tpl := range templates.IntroTemplates {
		examples = append(examples, "Script: "+tpl.Script)
	}

	return fmt.Sprintf(introPromptTemplate, strings.Join(parts, "\n"), strings.Join(examples, "\n"))
}

// SegmentationPrompt asks for the script as a JSON array of segments.
func SegmentationPrompt(script string) string {
	return fmt.Sprintf(segmentationPromptTemplate, script)
}

// TransitionPrompt asks for a spoken bridge between two songs. Unknown
// styles and lengths fall back to smooth and medium.
func TransitionPrompt(current, next model.Song, style model.DJStyle, length model.DJLength) string {
	words, ok := lengthWords[length]
	if !ok {
		words = lengthWords[model.DJLengthMedium]
	}
	addition, ok := styleAdditions[style]
	if !ok {
		addition = styleAdditions[model.DJStyleSmooth]
	}

	base := fmt.Sprintf(transitionPromptTemplate,
		current.Name, current.Artist,
		next.Name, next.Artist,
		words[0], words[1],
	)
	return base + addition
}

// CleanOpeningPhrase strips quotes and keeps at most five words.
func CleanOpeningPhrase(s string) string {
	s = strings.NewReplacer(`"`, "", "“", "", "”", "").Replace(s)
	words := strings.Fields(s)
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ")
}
