// Package voice implements the spoken complaint dialogue.
//
// Speech I/O is delegated to external programs so the binary carries no
// audio stack:
//   - Speaker: espeak, spd-say or say (first found on PATH), or TTS_COMMAND
//   - Recognizer: STT_COMMAND, whose stdout is the transcript
//
// When nothing is available the dialogue degrades to text: prompts are
// printed and answers are read line by line from stdin.
package voice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"complaintdesk/internal/config"
	cderrors "complaintdesk/internal/errors"
)

// Speaker says a line of text.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Recognizer returns one utterance.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// CommandSpeaker runs a TTS program with the text as its last argument.
type CommandSpeaker struct {
	Program string
	Args    []string
	// Echo also prints each line so the transcript stays readable.
	Echo io.Writer
}

// Speak runs the program and waits for it to finish.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	if s.Echo != nil {
		fmt.Fprintf(s.Echo, "🔊 %s\n", text)
	}
	args := append(append([]string{}, s.Args...), text)
	out, err := exec.CommandContext(ctx, s.Program, args...).CombinedOutput()
	if err != nil {
		return cderrors.NewServiceUnavailableError("tts", fmt.Errorf("%s: %w: %s", s.Program, err, strings.TrimSpace(string(out))))
	}
	return nil
}

// TextSpeaker prints prompts instead of speaking them.
type TextSpeaker struct {
	Out io.Writer
}

// Speak writes the line to Out.
func (s *TextSpeaker) Speak(_ context.Context, text string) error {
	_, err := fmt.Fprintf(s.Out, "🔊 %s\n", text)
	return err
}

// CommandRecognizer runs an STT program and returns its trimmed stdout.
type CommandRecognizer struct {
	Program string
	Args    []string
}

// Listen runs the program once.
func (r *CommandRecognizer) Listen(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, r.Program, r.Args...).Output()
	if err != nil {
		return "", cderrors.NewServiceUnavailableError("stt", fmt.Errorf("%s: %w", r.Program, err))
	}
	return strings.TrimSpace(string(out)), nil
}

// LineRecognizer reads typed answers, one per line.
type LineRecognizer struct {
	scanner *bufio.Scanner
	prompt  io.Writer
}

// NewLineRecognizer reads from in and prints a "> " prompt to prompt
// (which may be nil).
func NewLineRecognizer(in io.Reader, prompt io.Writer) *LineRecognizer {
	return &LineRecognizer{scanner: bufio.NewScanner(in), prompt: prompt}
}

// Listen returns the next line, or io.EOF when input is exhausted.
func (r *LineRecognizer) Listen(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.prompt != nil {
		fmt.Fprint(r.prompt, "> ")
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(r.scanner.Text()), nil
}

// Detect picks the speaker and recognizer once at startup.
//
// Order for speech output:
//  1. TTS_COMMAND when set and found
//  2. espeak (female voice variant unless VOICE_GENDER=male), spd-say, say
//  3. TextSpeaker on out
//
// Input uses STT_COMMAND when set and found, otherwise lines from in.
func Detect(cfg *config.Config, in io.Reader, out io.Writer, log *slog.Logger) (Speaker, Recognizer) {
	if log == nil {
		log = slog.Default()
	}

	speaker := detectSpeaker(cfg, out, log)
	recognizer := detectRecognizer(cfg, in, out, log)
	return speaker, recognizer
}

func detectSpeaker(cfg *config.Config, out io.Writer, log *slog.Logger) Speaker {
	if program, args, ok := splitCommand(cfg.TTSCommand); ok {
		if _, err := lookPath(program); err == nil {
			log.Info("✓ Using configured TTS command", "program", program)
			return &CommandSpeaker{Program: program, Args: args, Echo: out}
		}
		log.Warn("⚠️  TTS_COMMAND not found",
			"error", cderrors.NewServiceUnavailableError("tts", fmt.Errorf("%s not on PATH", program)))
	}

	female := cfg.VoiceGender != "male"
	candidates := []CommandSpeaker{
		{Program: "espeak", Args: espeakArgs(cfg.Language, female)},
		{Program: "spd-say", Args: spdSayArgs(female)},
		{Program: "say"},
	}
	for _, c := range candidates {
		if _, err := lookPath(c.Program); err == nil {
			log.Info("✓ Speech output", "program", c.Program)
			s := c
			s.Echo = out
			return &s
		}
	}

	log.Warn("⚠️  No text-to-speech program found, prompts will be printed",
		"error", cderrors.NewServiceUnavailableError("tts", fmt.Errorf("none of espeak, spd-say, say on PATH")))
	return &TextSpeaker{Out: out}
}

func detectRecognizer(cfg *config.Config, in io.Reader, out io.Writer, log *slog.Logger) Recognizer {
	if program, args, ok := splitCommand(cfg.STTCommand); ok {
		if _, err := lookPath(program); err == nil {
			log.Info("✓ Speech input", "program", program)
			return &CommandRecognizer{Program: program, Args: args}
		}
		log.Warn("⚠️  STT_COMMAND not found, answers will be typed",
			"error", cderrors.NewServiceUnavailableError("stt", fmt.Errorf("%s not on PATH", program)))
	} else {
		log.Info("⌨️  No STT_COMMAND set, answers will be typed")
	}
	return NewLineRecognizer(in, out)
}

// splitCommand splits a configured command line on whitespace. ok is false
// when it names no program.
func splitCommand(line string) (program string, args []string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

func espeakArgs(lang string, female bool) []string {
	voice := "en"
	if lang != "" {
		voice = lang
	}
	if female {
		voice += "+f3"
	}
	return []string{"-v", voice, "-s", "150", "-p", "50"}
}

func spdSayArgs(female bool) []string {
	voice := "male1"
	if female {
		voice = "female1"
	}
	return []string{"-w", "-t", voice}
}
