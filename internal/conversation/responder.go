package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/imsolutions/chatdesk/internal/observability/metrics"
	"github.com/imsolutions/chatdesk/pkg/logging"
)

// FallbackReply is returned whenever the LLM is unavailable or errors out.
const FallbackReply = "I apologize for the inconvenience, but I'm currently experiencing some technical difficulties. Please try again in a moment."

const maxReplyLines = 6

var chatTracer = otel.Tracer("chatdesk.internal.conversation")

// Responder turns a visitor message into a reply. Lookup order is the FAQ
// table, then the response cache, then the LLM. Any failure along the way
// degrades to FallbackReply; Respond never returns an error.
type Responder struct {
	content CompanyContent
	faq     []FAQEntry
	cache   ResponseCache
	llm     LLMClient
	timeout time.Duration
	metrics *metrics.ChatMetrics
	logger  *logging.Logger
}

// NewResponder wires the chat pipeline. cache, llm, and chatMetrics may be
// nil; the responder degrades accordingly.
func NewResponder(content CompanyContent, cache ResponseCache, llm LLMClient, timeout time.Duration, chatMetrics *metrics.ChatMetrics, logger *logging.Logger) *Responder {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Responder{
		content: content,
		faq:     BuildFAQ(content),
		cache:   cache,
		llm:     llm,
		timeout: timeout,
		metrics: chatMetrics,
		logger:  logger,
	}
}

// Respond produces the reply for a visitor message.
func (r *Responder) Respond(ctx context.Context, message string) string {
	ctx, span := chatTracer.Start(ctx, "conversation.respond")
	defer span.End()

	if reply, ok := MatchFAQ(r.faq, message); ok {
		span.SetAttributes(attribute.String("reply.source", "faq"))
		r.metrics.ObserveReply("faq")
		return reply
	}

	if r.cache != nil {
		if reply, ok := r.cache.Get(ctx, message); ok {
			span.SetAttributes(attribute.String("reply.source", "cache"))
			r.metrics.ObserveReply("cache")
			return reply
		}
	}

	if r.llm == nil {
		r.logger.Warn("chat: no llm client configured, returning fallback")
		span.SetAttributes(attribute.String("reply.source", "fallback"))
		r.metrics.ObserveReply("fallback")
		return FallbackReply
	}

	llmCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	raw, err := r.llm.Generate(llmCtx, r.buildPrompt(message))
	r.metrics.ObserveLLMLatency(time.Since(start).Seconds())
	if err != nil {
		r.logger.Error("chat: llm completion failed", "error", err)
		span.SetAttributes(attribute.String("reply.source", "fallback"))
		r.metrics.ObserveReply("fallback")
		return FallbackReply
	}

	reply := formatReply(raw)
	if r.cache != nil {
		r.cache.Set(ctx, message, reply)
	}
	span.SetAttributes(attribute.String("reply.source", "llm"))
	r.metrics.ObserveReply("llm")
	return reply
}

func (r *Responder) buildPrompt(message string) string {
	name := r.content.CompanyInfo.Name
	return fmt.Sprintf(`You are a customer service rep for %s.
Answer this question briefly (max 6 lines): %s

Company Info:
- Type: %s
- Founded: %s
- Location: %s

Services: %s and more.

Be brief, helpful, and professional. Do not include contact information or website details in your response. If question is unrelated to %s, politely redirect to our services.`,
		name,
		message,
		r.content.CompanyInfo.Type,
		r.content.CompanyInfo.Founded,
		r.content.CompanyInfo.Location,
		r.content.TopServices(5),
		name,
	)
}

// formatReply strips markdown emphasis and caps the reply at six lines.
func formatReply(raw string) string {
	reply := strings.ReplaceAll(strings.TrimSpace(raw), "*", "")
	lines := strings.Split(reply, "\n")
	if len(lines) > maxReplyLines {
		lines = lines[:maxReplyLines]
	}
	return strings.Join(lines, "\n")
}
