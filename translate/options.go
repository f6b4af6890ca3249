package translate

import (
	"strings"
	"time"

	"github.com/doctrans/doctrans/chunk"
	"github.com/doctrans/doctrans/langmeta"
)

// ---------------------------------------------------------------------------
// Translation options
// ---------------------------------------------------------------------------

// Options controls how a document is translated.
type Options struct {
	// Provider is the AI provider configuration.
	Provider Provider
	// SourceLang is the source language code (e.g., "en"). Optional.
	SourceLang string
	// TargetLang is the target language code (e.g., "ru", "de").
	TargetLang string
	// TargetLangName overrides the display name substituted into prompts.
	TargetLangName string
	// ProtectedKeys lists key substrings whose values are never translated.
	ProtectedKeys []string
	// Topic selects a built-in system prompt: "default", "ui", "docs", "marketing".
	Topic string
	// SystemPrompt overrides the topic prompt entirely.
	SystemPrompt string
	// MaxBytes is the serialized chunk budget (0 = chunk.DefaultMaxBytes).
	MaxBytes int
	// MaxRetries is the maximum number of retries on rate limit (429). Default: 3.
	MaxRetries int
	// Timeout is the per-request timeout (overrides provider timeout if set).
	Timeout time.Duration
	// Invoker overrides the provider HTTP call. Used for testing and for
	// embedding the engine behind a custom model client.
	Invoker Invoker
	// OnProgress is called after each chunk completes.
	OnProgress func(done, total int)
	// OnLog emits log messages during translation.
	OnLog func(format string, args ...any)
	// OnError emits error messages during translation.
	OnError func(format string, args ...any)
	// Verbose enables detailed logging.
	Verbose bool
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) progress(done, total int) {
	if o.OnProgress != nil {
		o.OnProgress(done, total)
	}
}

func (o *Options) effectiveTimeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	if o.Provider.Timeout > 0 {
		return o.Provider.Timeout
	}
	return 120 * time.Second
}

func (o *Options) effectiveMaxRetries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return 3
}

func (o *Options) effectiveMaxBytes() int {
	if o.MaxBytes > 0 {
		return o.MaxBytes
	}
	return chunk.DefaultMaxBytes
}

func (o *Options) invoker() Invoker {
	if o.Invoker != nil {
		return o.Invoker
	}
	return providerInvoker(o)
}

// resolvedPrompt returns the system prompt with {{targetLang}} and
// {{sourceLang}} replaced by display names.
func (o *Options) resolvedPrompt() string {
	prompt := o.SystemPrompt
	if prompt == "" {
		topic := o.Topic
		if topic == "" {
			topic = "default"
		}
		prompt = getPrompt(topic)
	}
	target := o.TargetLangName
	if target == "" {
		target = langmeta.DisplayName(o.TargetLang)
	}
	prompt = strings.ReplaceAll(prompt, "{{targetLang}}", target)
	if o.SourceLang != "" {
		prompt = strings.ReplaceAll(prompt, "{{sourceLang}}", langmeta.DisplayName(o.SourceLang))
	}
	return prompt
}
