package ai

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"job-search-mas/internal/domain/ports/adapter"
)

const fallbackEncoding = "cl100k_base"

var encoders sync.Map // model -> *tiktoken.Tiktoken

func encoderFor(model string) *tiktoken.Tiktoken {
	if v, ok := encoders.Load(model); ok {
		return v.(*tiktoken.Tiktoken)
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		if enc, err = tiktoken.GetEncoding(fallbackEncoding); err != nil {
			return nil
		}
	}
	encoders.Store(model, enc)
	return enc
}

// countMessageTokens follows the chat format accounting: 3 tokens of framing per
// message plus 3 for the reply primer. Without an encoder it estimates 4 bytes per token.
func countMessageTokens(model string, messages []adapter.Message) int {
	enc := encoderFor(model)
	total := 3
	for _, m := range messages {
		total += 3 + countText(enc, m.Role) + countText(enc, m.Content)
	}
	return total
}

func countText(enc *tiktoken.Tiktoken, s string) int {
	if enc == nil {
		return estimateTokens(s)
	}
	return len(enc.Encode(s, nil, nil))
}

func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// truncateTokens cuts s to at most max tokens of the model's encoding.
func truncateTokens(model, s string, max int) string {
	if max <= 0 {
		return s
	}
	enc := encoderFor(model)
	if enc == nil {
		if r := []rune(s); len(r) > max*4 {
			return string(r[:max*4])
		}
		return s
	}
	ids := enc.Encode(s, nil, nil)
	if len(ids) <= max {
		return s
	}
	return enc.Decode(ids[:max])
}
