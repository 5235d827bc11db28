package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imsolutions/chatdesk/pkg/logging"
)

type fakeLLM struct {
	reply string
	err   error
	calls int
}

func (f *fakeLLM) Generate(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestRespondFAQBypassesLLM(t *testing.T) {
	llm := &fakeLLM{reply: "llm answer"}
	r := NewResponder(testContent(), nil, llm, time.Second, nil, logging.New("error", "text"))

	reply := r.Respond(context.Background(), "what are your services?")
	assert.Contains(t, reply, "digital marketing")
	assert.Zero(t, llm.calls, "FAQ hit must not reach the LLM")
}

func TestRespondCachesLLMReply(t *testing.T) {
	llm := &fakeLLM{reply: "We build **great** campaigns."}
	cache := NewMemoryResponseCache(8, time.Hour)
	r := NewResponder(testContent(), cache, llm, time.Second, nil, logging.New("error", "text"))

	first := r.Respond(context.Background(), "do you run ad campaigns?")
	assert.Equal(t, "We build great campaigns.", first, "markdown emphasis should be stripped")

	second := r.Respond(context.Background(), "do you run ad campaigns?")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, llm.calls, "second request should be served from cache")
}

func TestRespondTruncatesLongReplies(t *testing.T) {
	llm := &fakeLLM{reply: "1\n2\n3\n4\n5\n6\n7\n8"}
	r := NewResponder(testContent(), nil, llm, time.Second, nil, logging.New("error", "text"))

	reply := r.Respond(context.Background(), "tell me everything")
	require.Equal(t, 6, len(strings.Split(reply, "\n")))
	assert.Equal(t, "1\n2\n3\n4\n5\n6", reply)
}

func TestRespondLLMErrorFallsBack(t *testing.T) {
	llm := &fakeLLM{err: errors.New("boom")}
	cache := NewMemoryResponseCache(8, time.Hour)
	r := NewResponder(testContent(), cache, llm, time.Second, nil, logging.New("error", "text"))

	reply := r.Respond(context.Background(), "do you run ad campaigns?")
	assert.Equal(t, FallbackReply, reply)

	_, ok := cache.Get(context.Background(), "do you run ad campaigns?")
	assert.False(t, ok, "fallback replies must not be cached")
}

func TestRespondNoLLMFallsBack(t *testing.T) {
	r := NewResponder(testContent(), nil, nil, time.Second, nil, logging.New("error", "text"))

	reply := r.Respond(context.Background(), "do you run ad campaigns?")
	assert.Equal(t, FallbackReply, reply)
}

func TestBuildPromptIncludesCompanyProfile(t *testing.T) {
	r := NewResponder(testContent(), nil, nil, time.Second, nil, logging.New("error", "text"))

	prompt := r.buildPrompt("what do you do?")
	assert.Contains(t, prompt, "IM Solutions")
	assert.Contains(t, prompt, "Founded: 2012")
	assert.Contains(t, prompt, "what do you do?")
	assert.Contains(t, prompt, "SEO, Social Media Marketing, Web Development, PPC, Content Marketing and more.")
}
