// Package dispatch executes resolved voice commands and dialogue answers.
//
// The [Dispatcher] performs no I/O of its own: navigation, wallet transfers,
// speech output and UI feedback all go through the injected [Capabilities].
// It owns no state and no timers either; the pipeline controller decides
// when each method runs and keeps the dialogue session it returns.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Kingvic300/Inkluziv--wallet/internal/dialogue"
	"github.com/Kingvic300/Inkluziv--wallet/internal/feedback"
	"github.com/Kingvic300/Inkluziv--wallet/internal/observe"
	"github.com/Kingvic300/Inkluziv--wallet/internal/voicecmd"
	"github.com/Kingvic300/Inkluziv--wallet/internal/wallet"
	"github.com/Kingvic300/Inkluziv--wallet/pkg/provider/tts"
)

// User-facing messages.
const (
	MessageNotRecognized  = "Command not recognized, please try again."
	MessageTransferFailed = "Transaction failed. Please try again later."
	DetailNotRecognized   = "not recognized"
)

var (
	// ErrNoWallet is reported when a transfer completes a dialogue but no
	// wallet capability is configured.
	ErrNoWallet = errors.New("dispatch: no wallet configured")

	// ErrTransferUnsuccessful is reported when the wallet returns no error
	// but does not confirm success.
	ErrTransferUnsuccessful = errors.New("dispatch: wallet reported an unsuccessful transfer")
)

// Navigator moves the UI to a route.
type Navigator interface {
	Navigate(ctx context.Context, route string) error
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(ctx context.Context, route string) error

// Navigate calls f.
func (f NavigatorFunc) Navigate(ctx context.Context, route string) error {
	return f(ctx, route)
}

// Wallet performs token transfers.
type Wallet interface {
	Transfer(ctx context.Context, recipient string, amount float64, currency string) (wallet.TransferResult, error)
}

// Capabilities are the collaborators the dispatcher calls into. Nil fields
// are replaced with no-op implementations, except Wallet: without one every
// transfer fails.
type Capabilities struct {
	Navigator Navigator
	Wallet    Wallet
	Speaker   tts.Speaker
	Feedback  feedback.Sink
}

// Option is a functional option for configuring a [Dispatcher].
type Option func(*Dispatcher)

// WithMachine sets the dialogue machine. Default: dialogue.New().
func WithMachine(m *dialogue.Machine) Option {
	return func(d *Dispatcher) {
		d.machine = m
	}
}

// WithMetrics sets the metrics sink. Default: observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// Dispatcher executes commands and dialogue answers. It is safe for
// concurrent use as long as its capabilities are.
type Dispatcher struct {
	nav      Navigator
	wallet   Wallet
	speaker  tts.Speaker
	feedback feedback.Sink
	machine  *dialogue.Machine
	metrics  *observe.Metrics
}

// New creates a Dispatcher.
func New(caps Capabilities, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		nav:      caps.Navigator,
		wallet:   caps.Wallet,
		speaker:  caps.Speaker,
		feedback: caps.Feedback,
	}
	if d.nav == nil {
		d.nav = NavigatorFunc(func(context.Context, string) error { return nil })
	}
	if d.speaker == nil {
		d.speaker = tts.Discard
	}
	if d.feedback == nil {
		d.feedback = feedback.Discard
	}
	for _, o := range opts {
		o(d)
	}
	if d.machine == nil {
		d.machine = dialogue.New()
	}
	if d.metrics == nil {
		d.metrics = observe.DefaultMetrics()
	}
	return d
}

// Machine returns the dialogue machine in use.
func (d *Dispatcher) Machine() *dialogue.Machine {
	return d.machine
}

// Acknowledge announces a matched command before its action runs.
func (d *Dispatcher) Acknowledge(cmd voicecmd.Command) {
	d.feedback.Announce("Command recognized: " + cmd.Description)
	d.feedback.Status(feedback.Status{Kind: feedback.StatusProcessing, Detail: cmd.Description})
}

// Execute runs cmd's action: navigate, then either start the command's flow
// or speak its reply. The returned session is active only when a flow
// started.
func (d *Dispatcher) Execute(ctx context.Context, cmd voicecmd.Command) dialogue.Session {
	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "dispatch.execute",
		trace.WithAttributes(
			attribute.String("command", cmd.Name),
			attribute.String("route", cmd.Action.Route),
		),
	)
	defer func() {
		span.End()
		d.metrics.DispatchDuration.Record(ctx, time.Since(start).Seconds())
	}()

	if route := cmd.Action.Route; route != "" {
		if err := d.nav.Navigate(ctx, route); err != nil {
			observe.FailSpan(span, err)
			observe.Logger(ctx).Warn("dispatch: navigate failed", "route", route, "err", err)
			d.feedback.Status(feedback.Status{Kind: feedback.StatusError, Detail: "navigation failed"})
		}
	}

	if cmd.Action.StartsFlow() {
		session, prompt := d.machine.Start()
		d.metrics.RecordCommand(ctx, cmd.Name, observe.OutcomeFlowStarted)
		d.metrics.RecordDialogueStep(ctx, session.Step.String())
		d.say(ctx, prompt)
		return session
	}

	d.metrics.RecordCommand(ctx, cmd.Name, observe.OutcomeExecuted)
	if cmd.Action.Reply != "" {
		d.speak(ctx, cmd.Action.Reply)
	}
	return dialogue.Session{}
}

// NotRecognized reports a transcript that matched no command.
func (d *Dispatcher) NotRecognized(ctx context.Context, transcript string) {
	d.metrics.RecordCommand(ctx, "", observe.OutcomeNotRecognized)
	d.speak(ctx, MessageNotRecognized)
	d.feedback.Announce(fmt.Sprintf("Command %q not recognized. Try again.", transcript))
	d.feedback.Status(feedback.Status{Kind: feedback.StatusError, Detail: DetailNotRecognized})
}

// Answer feeds transcript to the active session and performs whatever the
// outcome requires: speak the next prompt, announce a cancellation, or run
// the transfer. The returned session replaces the caller's; once its step is
// terminal the caller must drop it.
func (d *Dispatcher) Answer(ctx context.Context, session dialogue.Session, transcript string) dialogue.Session {
	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "dispatch.answer",
		trace.WithAttributes(attribute.String("step", session.Step.String())),
	)
	defer func() {
		span.End()
		d.metrics.DispatchDuration.Record(ctx, time.Since(start).Seconds())
	}()

	out := d.machine.Advance(session, transcript)
	if out.Err != nil {
		observe.Logger(ctx).Debug("dispatch: re-prompting", "step", session.Step.String(), "err", out.Err)
	} else if out.Session.Step != session.Step {
		d.metrics.RecordDialogueStep(ctx, out.Session.Step.String())
	}

	switch {
	case out.Canceled:
		d.say(ctx, dialogue.MessageCanceled)
		return out.Session

	case out.Transfer != nil:
		return d.transfer(ctx, span, out.Session, *out.Transfer)

	default:
		if out.Prompt != "" {
			d.say(ctx, out.Prompt)
		}
		return out.Session
	}
}

func (d *Dispatcher) transfer(ctx context.Context, span trace.Span, session dialogue.Session, req dialogue.TransferRequest) dialogue.Session {
	span.SetAttributes(
		attribute.String("currency", req.Currency),
		attribute.Float64("amount", req.Amount),
	)

	var (
		res wallet.TransferResult
		err error
	)
	if d.wallet == nil {
		err = ErrNoWallet
	} else {
		res, err = d.wallet.Transfer(ctx, req.Recipient, req.Amount, req.Currency)
	}
	if err == nil && !res.Success {
		err = ErrTransferUnsuccessful
	}

	if err != nil {
		observe.FailSpan(span, err)
		observe.Logger(ctx).Warn("dispatch: transfer failed",
			"currency", req.Currency,
			"amount", req.Amount,
			"err", err)
		d.metrics.RecordTransfer(ctx, req.Currency, "error")
		d.metrics.RecordDialogueStep(ctx, dialogue.StepAborted.String())

		d.speak(ctx, MessageTransferFailed)
		d.feedback.Announce(MessageTransferFailed + " " + err.Error())
		d.feedback.Status(feedback.Status{Kind: feedback.StatusError, Detail: "transfer failed"})
		return d.machine.Abort(session)
	}

	d.metrics.RecordTransfer(ctx, req.Currency, "ok")
	msg := fmt.Sprintf("Successfully sent %s %s to %s. Your new balance is %s %s.",
		formatAmount(req.Amount), req.Currency, req.Recipient,
		formatAmount(res.NewBalance), req.Currency)
	d.say(ctx, msg)
	observe.Logger(ctx).Info("dispatch: transfer completed", "currency", req.Currency, "amount", req.Amount, "tx_id", res.TxID)
	return session
}

// say speaks text and mirrors it as a screen-reader announcement.
func (d *Dispatcher) say(ctx context.Context, text string) {
	d.speak(ctx, text)
	d.feedback.Announce(text)
}

func (d *Dispatcher) speak(ctx context.Context, text string) {
	if err := d.speaker.Speak(ctx, text); err != nil {
		observe.Logger(ctx).Warn("dispatch: speak failed", "err", err)
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
