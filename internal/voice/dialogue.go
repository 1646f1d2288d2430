package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"complaintdesk/internal/complaint"
	"complaintdesk/internal/desk"
	cderrors "complaintdesk/internal/errors"
	"complaintdesk/internal/translate"
)

// ErrCancelled is returned by Run when the caller says "cancel".
var ErrCancelled = errors.New("complaint cancelled")

// SubmitFunc records a completed form.
type SubmitFunc func(ctx context.Context, form complaint.Form) (desk.Receipt, error)

// DefaultMaxAttempts bounds re-asking a single question.
const DefaultMaxAttempts = 3

// Dialogue asks the form questions aloud and submits the answers.
type Dialogue struct {
	speaker     Speaker
	recognizer  Recognizer
	translator  *translate.Translator
	submit      SubmitFunc
	log         *slog.Logger
	maxAttempts int
}

// NewDialogue creates a dialogue. translator may be nil.
func NewDialogue(speaker Speaker, recognizer Recognizer, translator *translate.Translator, submit SubmitFunc, log *slog.Logger) *Dialogue {
	if log == nil {
		log = slog.Default()
	}
	return &Dialogue{
		speaker:     speaker,
		recognizer:  recognizer,
		translator:  translator,
		submit:      submit,
		log:         log,
		maxAttempts: DefaultMaxAttempts,
	}
}

// Run walks through the questions, reads the answers back and submits.
//
// Flow:
//  1. Greet, then ask each question; empty or invalid answers are re-asked
//  2. Read the collected form back
//  3. "yes" submits, "edit <field>" re-asks one field, "cancel" stops
//  4. Speak the ticket ID (or the reason the submission failed)
func (d *Dialogue) Run(ctx context.Context) (desk.Receipt, error) {
	d.say(ctx, "Hello! I am your complaint assistant. I will ask you a few questions to file your complaint.")

	var form complaint.Form
	for _, q := range complaint.Questions {
		answer, err := d.ask(ctx, q)
		if err != nil {
			return desk.Receipt{}, err
		}
		form.Set(q.Field, answer)
	}

	for {
		d.readBack(ctx, form)
		d.say(ctx, "Say yes to submit, edit followed by a field name to change it, or cancel.")

		reply, err := d.recognizer.Listen(ctx)
		if err != nil {
			return desk.Receipt{}, err
		}
		reply = strings.ToLower(strings.TrimSpace(reply))

		switch {
		case reply == "yes" || reply == "y":
			return d.finish(ctx, form)
		case reply == "cancel":
			d.say(ctx, "Your complaint has been cancelled.")
			d.log.Info("🚫 Voice complaint cancelled")
			return desk.Receipt{}, ErrCancelled
		case strings.HasPrefix(reply, "edit"):
			q, ok := findQuestion(strings.TrimSpace(strings.TrimPrefix(reply, "edit")))
			if !ok {
				d.say(ctx, "Which field? Say name, mobile, location, type or description.")
				continue
			}
			answer, err := d.ask(ctx, q)
			if err != nil {
				return desk.Receipt{}, err
			}
			form.Set(q.Field, answer)
		default:
			d.say(ctx, "Sorry, I did not understand.")
		}
	}
}

func (d *Dialogue) finish(ctx context.Context, form complaint.Form) (desk.Receipt, error) {
	receipt, err := d.submit(ctx, form)
	if err != nil {
		var dup *cderrors.DuplicateComplaintError
		if errors.As(err, &dup) {
			d.say(ctx, fmt.Sprintf("You already have an open %s complaint with ticket %s.", dup.ComplaintType, spell(dup.TicketID)))
		} else {
			d.say(ctx, "Sorry, your complaint could not be saved.")
		}
		return desk.Receipt{}, err
	}

	d.say(ctx, fmt.Sprintf("Your complaint has been registered. Your ticket ID is %s. It has been assigned to the %s.",
		spell(receipt.TicketID()), receipt.Record.Department))
	return receipt, nil
}

// ask speaks the prompt until a valid answer arrives or attempts run out.
func (d *Dialogue) ask(ctx context.Context, q complaint.Question) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		d.say(ctx, q.Prompt)

		answer, err := d.recognizer.Listen(ctx)
		if err != nil {
			return "", err
		}
		answer = strings.TrimSpace(answer)

		if err := complaint.ValidateField(q.Field, answer); err != nil {
			lastErr = err
			d.log.Debug("Answer rejected", "field", q.Field, "attempt", attempt, "error", err)
			if cderrors.IsMissingField(err) {
				d.say(ctx, "I did not catch that.")
			} else {
				d.say(ctx, "That does not look right. A mobile number has 10 digits.")
			}
			continue
		}
		return answer, nil
	}
	return "", lastErr
}

func (d *Dialogue) readBack(ctx context.Context, form complaint.Form) {
	d.say(ctx, "Here is what I have.")
	for _, q := range complaint.Questions {
		d.speakRaw(ctx, fmt.Sprintf("%s: %s", d.translator.Translate(ctx, q.Field), form.Get(q.Field)))
	}
}

// say translates text before speaking it.
func (d *Dialogue) say(ctx context.Context, text string) {
	d.speakRaw(ctx, d.translator.Translate(ctx, text))
}

func (d *Dialogue) speakRaw(ctx context.Context, text string) {
	if err := d.speaker.Speak(ctx, text); err != nil {
		d.log.Warn("⚠️  Speech output failed", "error", err)
	}
}

var fieldAliases = map[string]string{
	"name":        complaint.ColName,
	"mobile":      complaint.ColMobile,
	"phone":       complaint.ColMobile,
	"location":    complaint.ColLocation,
	"address":     complaint.ColLocation,
	"type":        complaint.ColType,
	"description": complaint.ColDescription,
	"details":     complaint.ColDescription,
}

func findQuestion(spoken string) (complaint.Question, bool) {
	field, ok := fieldAliases[spoken]
	for _, q := range complaint.Questions {
		if (ok && q.Field == field) || strings.EqualFold(q.Field, spoken) {
			return q, true
		}
	}
	return complaint.Question{}, false
}

// spell separates the characters of an ID so TTS reads them one by one.
func spell(id string) string {
	return strings.Join(strings.Split(id, ""), " ")
}
