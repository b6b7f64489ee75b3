// Package assistant assembles the caller-facing results of the four AI
// operations. Every operation returns a well-formed result: when the
// completion endpoint is unavailable or misbehaves the templated fallback is
// returned instead of an error.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/careprep/ai-service/internal/extract"
	"github.com/careprep/ai-service/internal/fallback"
	"github.com/careprep/ai-service/internal/model"
	"github.com/careprep/ai-service/internal/prompt"
	"github.com/careprep/ai-service/internal/textutil"
	"github.com/careprep/ai-service/pkg/completion"
	"github.com/careprep/ai-service/pkg/logger"
	"github.com/careprep/ai-service/pkg/messaging"
	"github.com/careprep/ai-service/pkg/metrics"
)

// Operation names used in metrics and events.
const (
	OpSymptomSummary  = "symptom_summary"
	OpDocumentSummary = "document_summary"
	OpChat            = "chat"
	OpOCRCleanup      = "ocr_cleanup"
)

const (
	SourceModel    = "model"
	SourceFallback = "fallback"

	// EventChannel is the broker channel completion events are published on.
	EventChannel = "careprep.ai.events"

	// DoctorSummaryLength bounds the doctor summary of a document.
	DoctorSummaryLength = 1000
	// MinOCRLength is the shortest OCR text worth sending to the model.
	MinOCRLength = 50

	publishTimeout = 2 * time.Second
)

// Sampling parameters per task.
var (
	symptomParams  = params{temperature: 0.7, maxTokens: 1500}
	documentParams = params{temperature: 0.5, maxTokens: 2000}
	chatParams     = params{temperature: 0.7, maxTokens: 800}
	ocrParams      = params{temperature: 0.3, maxTokens: 2000}
)

// ErrUnexpected wraps a panic recovered while producing a model result.
var ErrUnexpected = errors.New("assistant: unexpected failure")

type params struct {
	temperature float32
	maxTokens   int
}

type Service interface {
	GenerateSymptomSummary(ctx context.Context, symptoms []model.SymptomRecord) model.SymptomSummary
	SummarizeDocument(ctx context.Context, documentText string) model.DocumentSummary
	Chat(ctx context.Context, message string, mode model.ChatMode, chatCtx model.ChatContext) model.ChatResult
	CleanupOCRText(ctx context.Context, rawText string) string
}

// Event is the payload published after each operation.
type Event struct {
	Operation string    `json:"operation"`
	Source    string    `json:"source"`
	At        time.Time `json:"at"`
}

type service struct {
	client    completion.Completer
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	log       *logger.Logger
	now       func() time.Time
}

// NewService returns a Service backed by client. publisher, m and log may be nil.
func NewService(client completion.Completer, publisher messaging.Publisher, m *metrics.Metrics, log *logger.Logger) Service {
	if log == nil {
		log = logger.Nop()
	}
	return &service{
		client:    client,
		publisher: publisher,
		metrics:   m,
		log:       log.With("assistant"),
		now:       time.Now,
	}
}

func (s *service) GenerateSymptomSummary(ctx context.Context, symptoms []model.SymptomRecord) model.SymptomSummary {
	res, err := guard(func() (model.SymptomSummary, error) {
		reply, err := s.complete(ctx, prompt.SymptomSummary(symptoms), symptomParams)
		if err != nil {
			return model.SymptomSummary{}, err
		}
		return model.SymptomSummary{Success: true, Summary: reply}, nil
	})
	if err != nil {
		s.degraded(OpSymptomSummary, err)
		res = fallback.SymptomSummary(symptoms)
	}
	s.finish(ctx, OpSymptomSummary, err)
	return res
}

func (s *service) SummarizeDocument(ctx context.Context, documentText string) model.DocumentSummary {
	res, err := guard(func() (model.DocumentSummary, error) {
		reply, err := s.complete(ctx, prompt.DocumentSummary(documentText), documentParams)
		if err != nil {
			return model.DocumentSummary{}, err
		}

		parsed := extract.Parse(reply)
		patientSummary := parsed.PatientSummary
		if patientSummary == "" {
			patientSummary = textutil.TruncateUTF8(strings.TrimSpace(reply), extract.MaxFallbackSummary)
		}
		return model.DocumentSummary{
			Success:        true,
			ProcessedText:  documentText,
			DoctorSummary:  textutil.Preview(documentText, DoctorSummaryLength),
			PatientSummary: patientSummary,
			Medications:    parsed.Medications,
			FollowUps:      parsed.FollowUps,
			RedFlags:       parsed.RedFlags,
		}, nil
	})
	if err != nil {
		s.degraded(OpDocumentSummary, err)
		res = fallback.DocumentSummary(documentText)
	}
	res.Normalize()
	s.finish(ctx, OpDocumentSummary, err)
	return res
}

// Chat answers message using the prompt for mode. Any mode other than
// pre_visit is answered as post_visit.
func (s *service) Chat(ctx context.Context, message string, mode model.ChatMode, chatCtx model.ChatContext) model.ChatResult {
	if mode != model.ModePreVisit {
		mode = model.ModePostVisit
	}
	res, err := guard(func() (model.ChatResult, error) {
		var p string
		if mode == model.ModePreVisit {
			p = prompt.PreVisitChat(message, chatCtx.Symptoms)
		} else {
			p = prompt.PostVisitChat(message, chatCtx.Summary)
		}
		reply, err := s.complete(ctx, p, chatParams)
		if err != nil {
			return model.ChatResult{}, err
		}
		return model.ChatResult{Success: true, Response: reply}, nil
	})
	if err != nil {
		s.degraded(OpChat, err, "mode", string(mode))
		res = fallback.Chat(message, mode)
	}
	s.finish(ctx, OpChat, err)
	return res
}

func (s *service) CleanupOCRText(ctx context.Context, rawText string) string {
	if textutil.RuneLen(rawText) < MinOCRLength {
		return fallback.OCRCleanup(rawText)
	}
	res, err := guard(func() (string, error) {
		return s.complete(ctx, prompt.OCRCleanup(rawText), ocrParams)
	})
	if err != nil {
		s.degraded(OpOCRCleanup, err)
		res = fallback.OCRCleanup(rawText)
	}
	s.finish(ctx, OpOCRCleanup, err)
	return res
}

// complete returns the trimmed reply, treating a blank reply as empty.
func (s *service) complete(ctx context.Context, p string, prm params) (string, error) {
	reply, err := s.client.Complete(ctx, completion.UserPrompt(p, prm.temperature, prm.maxTokens))
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", completion.ErrEmptyResponse
	}
	return reply, nil
}

// guard runs fn and converts a panic into ErrUnexpected.
func guard[T any](fn func() (T, error)) (res T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			res, err = zero, fmt.Errorf("%w: %v", ErrUnexpected, r)
		}
	}()
	return fn()
}

func (s *service) degraded(op string, err error, fields ...interface{}) {
	fields = append(fields, "operation", op)
	if errors.Is(err, completion.ErrNotConfigured) {
		s.log.Debug("completion not configured, using fallback", fields...)
		return
	}
	s.log.Warn("completion failed, using fallback: "+err.Error(), fields...)
}

func (s *service) finish(ctx context.Context, op string, err error) {
	source := SourceModel
	if err != nil {
		source = SourceFallback
	}
	s.metrics.ObserveResponse(op, source)

	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	perr := s.publisher.Publish(pubCtx, EventChannel, messaging.Message{
		Type:    "ai." + op + ".completed",
		Payload: Event{Operation: op, Source: source, At: s.now().UTC()},
	})
	s.metrics.ObservePublish(perr)
	if perr != nil {
		s.log.Error(perr, "failed to publish event", "operation", op)
	}
}
