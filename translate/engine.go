// Package translate implements AI-powered translation of structured JSON
// documents using HTTP API-based providers: Google AI (Gemini), Groq,
// Anthropic, Custom OpenAI, and Ollama.
//
// The engine extracts translatable string values, batches them into
// byte-budgeted chunks, sends each chunk to the model, validates that the
// reply preserves placeholders, URLs, and emails, and binds the results back
// into a copy of the source document. A chunk whose reply cannot be used
// falls back to its source values; the output document is always complete.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/doctrans/doctrans/check"
	"github.com/doctrans/doctrans/chunk"
	"github.com/doctrans/doctrans/cleanjson"
	"github.com/doctrans/doctrans/extract"
	"github.com/doctrans/doctrans/langmeta"
	"github.com/doctrans/doctrans/merge"
)

// batchWidth is how many chunks are in flight at once. Batches run
// sequentially; chunks within a batch run concurrently.
const batchWidth = 3

// Invoker sends one prompt pair to a model and returns the raw reply text.
// The default invoker calls the configured HTTP provider.
type Invoker func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

// Result is the outcome of translating one document.
type Result struct {
	// Data is the translated document, structurally identical to the source.
	Data any
	// Issues lists advisory integrity findings (placeholder, URL, or email
	// mismatches). The affected translations are kept.
	Issues []string
	// Fallbacks counts chunks whose source values were kept because the
	// model reply was unusable.
	Fallbacks int
	// Advisory summarizes the issue count ("3 soft issues"). Informational;
	// a non-empty Advisory never means the translation failed.
	Advisory string
}

// Document translates every translatable string value of doc and returns a
// new document with the same structure. The source document is not modified.
func Document(ctx context.Context, doc any, opts Options) (*Result, error) {
	if opts.TargetLang == "" && opts.TargetLangName == "" {
		return nil, fmt.Errorf("no target language configured")
	}

	entries := extract.Extract(doc, opts.ProtectedKeys)
	if len(entries) == 0 {
		clone, err := merge.Bind(doc, nil, nil)
		if err != nil {
			return nil, err
		}
		opts.log("nothing to translate")
		return &Result{Data: clone}, nil
	}

	size := chunk.Size(entries, opts.effectiveMaxBytes())
	chunks := chunk.Split(entries, size)
	opts.log("translating %d values in %d chunks of up to %d", len(entries), len(chunks), size)

	systemPrompt := opts.resolvedPrompt()
	invoke := opts.invoker()

	values, issues, fallbacks, err := translateChunks(ctx, invoke, systemPrompt, chunks, &opts)
	if err != nil {
		return nil, err
	}

	if len(values) != len(entries) {
		return nil, fmt.Errorf("translated %d values for %d entries", len(values), len(entries))
	}

	bound, err := merge.Bind(doc, entries, values)
	if err != nil {
		return nil, err
	}

	res := &Result{Data: bound, Issues: issues, Fallbacks: fallbacks}
	if len(issues) > 0 {
		res.Advisory = fmt.Sprintf("%d soft issues", len(issues))
		opts.logError("%s", res.Advisory)
	}
	return res, nil
}

// translateChunks runs the chunks in batches of batchWidth. Within a batch
// chunks run concurrently; batches are sequential so a rate-limited provider
// is never hit by the whole document at once.
func translateChunks(ctx context.Context, invoke Invoker, systemPrompt string, chunks [][]extract.Entry, opts *Options) ([]string, []string, int, error) {
	chunkValues := make([][]string, len(chunks))
	chunkIssues := make([][]string, len(chunks))
	chunkFellBack := make([]bool, len(chunks))

	var mu sync.Mutex
	done := 0

	for start := 0; start < len(chunks); start += batchWidth {
		end := min(start+batchWidth, len(chunks))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				values, issues, fellBack := translateChunk(ctx, invoke, systemPrompt, chunks[i], i, opts)
				mu.Lock()
				chunkValues[i] = values
				chunkIssues[i] = issues
				chunkFellBack[i] = fellBack
				done++
				opts.progress(done, len(chunks))
				mu.Unlock()
			}(i)
		}
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return nil, nil, 0, err
		}
	}

	var values []string
	var issues []string
	fallbacks := 0
	for i := range chunks {
		values = append(values, chunkValues[i]...)
		issues = append(issues, chunkIssues[i]...)
		if chunkFellBack[i] {
			fallbacks++
		}
	}
	return values, issues, fallbacks, nil
}

// translateChunk translates one chunk and returns exactly one value per
// entry. Any failure to obtain a usable reply falls back to the source
// values; fallback chunks contribute no issues.
func translateChunk(ctx context.Context, invoke Invoker, systemPrompt string, entries []extract.Entry, chunkIdx int, opts *Options) (values []string, issues []string, fellBack bool) {
	fallback := func(reason string, args ...any) ([]string, []string, bool) {
		opts.logError("chunk %d: %s, keeping source values", chunkIdx, fmt.Sprintf(reason, args...))
		src := make([]string, len(entries))
		for i, e := range entries {
			src[i] = e.Value
		}
		return src, nil, true
	}

	userPrompt, err := buildChunkPrompt(entries)
	if err != nil {
		return fallback("building prompt: %v", err)
	}

	reply, err := invoke(ctx, systemPrompt, userPrompt)
	if err != nil {
		return fallback("provider call failed: %v", err)
	}

	cleaned, err := cleanjson.Clean(reply, "translation")
	if err != nil {
		return fallback("%v", err)
	}

	translated, err := parseChunkReply(cleaned, len(entries))
	if err != nil {
		return fallback("%v", err)
	}

	// Every non-trivial entry must be answered before any reply value is
	// taken. Trivial entries are forced back to the source regardless.
	for i, e := range entries {
		if check.IsTrivial(e.Value) {
			continue
		}
		if _, ok := translated[i]; !ok {
			return fallback("reply is missing item %d", i)
		}
	}

	values = make([]string, len(entries))
	for i, e := range entries {
		if check.IsTrivial(e.Value) {
			values[i] = e.Value
			continue
		}
		candidate := translated[i]

		if !check.PlaceholdersEqual(e.Value, candidate) {
			issues = append(issues, fmt.Sprintf("chunk %d item %d (%s): placeholder mismatch", chunkIdx, i, e.Path))
		}
		if !check.URLsEqual(e.Value, candidate) {
			issues = append(issues, fmt.Sprintf("chunk %d item %d (%s): URL mismatch", chunkIdx, i, e.Path))
		}
		if !check.EmailsEqual(e.Value, candidate) {
			issues = append(issues, fmt.Sprintf("chunk %d item %d (%s): email mismatch", chunkIdx, i, e.Path))
		}
		values[i] = check.RepairEdgeWhitespace(e.Value, candidate)
	}
	return values, issues, false
}

// buildChunkPrompt serializes a chunk as a JSON object keyed "0".."n-1".
func buildChunkPrompt(entries []extract.Entry) (string, error) {
	payload := make(map[string]string, len(entries))
	for i, e := range entries {
		payload[strconv.Itoa(i)] = e.Value
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// parseChunkReply decodes a cleaned reply into index -> translation. Accepts
// the requested object shape and, leniently, a bare array in input order.
func parseChunkReply(cleaned string, count int) (map[int]string, error) {
	var obj map[string]string
	if err := json.Unmarshal([]byte(cleaned), &obj); err == nil {
		translated := make(map[int]string, len(obj))
		for k, v := range obj {
			idx, err := strconv.Atoi(k)
			if err != nil || idx < 0 || idx >= count {
				return nil, fmt.Errorf("reply has unexpected key %q", k)
			}
			translated[idx] = v
		}
		return translated, nil
	}

	var arr []string
	if err := json.Unmarshal([]byte(cleaned), &arr); err == nil {
		if len(arr) != count {
			return nil, fmt.Errorf("reply has %d items, expected %d", len(arr), count)
		}
		translated := make(map[int]string, len(arr))
		for i, v := range arr {
			translated[i] = v
		}
		return translated, nil
	}

	return nil, fmt.Errorf("reply is neither an object nor an array of strings")
}

// Languages translates doc into each target language in turn, reusing the
// same options. Languages run sequentially to keep rate limit pressure flat.
// A failing language is logged and skipped; the remaining languages still
// run. The returned map holds every successful result, and the error, if
// non-nil, names the languages that failed. Cancellation aborts immediately.
func Languages(ctx context.Context, doc any, langs []string, opts Options) (map[string]*Result, error) {
	results := make(map[string]*Result, len(langs))
	var failed []string
	for _, lang := range langs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		langOpts := opts
		langOpts.TargetLang = lang
		langOpts.TargetLangName = ""
		opts.log("translating to %s (%s)", lang, langmeta.DisplayName(lang))

		res, err := Document(ctx, doc, langOpts)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			opts.logError("translating to %s: %v", lang, err)
			failed = append(failed, lang)
			continue
		}
		results[lang] = res
	}
	if len(failed) > 0 {
		return results, fmt.Errorf("%d language(s) failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return results, nil
}
