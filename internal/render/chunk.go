// ABOUTME: Packs formatted blocks into transport-sized chat messages
// ABOUTME: Preserves block boundaries; oversized blocks degrade at a line boundary

package render

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// BlockSeparator joins blocks within one outbound message.
const BlockSeparator = "\n\n"

// Chunk greedily packs consecutive blocks into messages, starting a new
// message when adding the next block would exceed maxLen bytes or maxBlocks
// blocks. Block order is preserved and a block is never split across
// messages.
//
// A single block larger than maxLen is truncated at the nearest preceding
// line boundary. This is a lossy path: it is logged and reported through
// the returned flag so callers can surface it to monitoring.
func Chunk(blocks []string, maxLen, maxBlocks int) (messages []string, truncated bool) {
	if maxBlocks <= 0 {
		maxBlocks = 1
	}

	var current strings.Builder
	count := 0

	flush := func() {
		if count > 0 {
			messages = append(messages, current.String())
			current.Reset()
			count = 0
		}
	}

	for _, block := range blocks {
		if block == "" {
			continue
		}
		if maxLen > 0 && len(block) > maxLen {
			block = truncateBlock(block, maxLen)
			truncated = true
			slog.Warn("block truncated to fit transport limit",
				"component", "render",
				"max_len", maxLen,
			)
		}

		if count > 0 {
			next := current.Len() + len(BlockSeparator) + len(block)
			if count >= maxBlocks || (maxLen > 0 && next > maxLen) {
				flush()
			}
		}
		if count > 0 {
			current.WriteString(BlockSeparator)
		}
		current.WriteString(block)
		count++
	}
	flush()

	return messages, truncated
}

// truncateBlock cuts a block down to at most maxLen bytes: at the last
// newline before the limit, falling back to the last space, and only as
// a last resort to a hard byte cut. Whatever boundary is chosen, the
// result is repaired so it never ends inside a markup construct.
func truncateBlock(block string, maxLen int) string {
	if len(block) <= maxLen {
		return block
	}
	cut := block[:maxLen]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	} else if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return trimDanglingMarkup(cut)
}

// trimDanglingMarkup repairs a byte-level cut so the result still parses
// as transport markup: whole UTF-8 sequences only, no tag left open by
// an unmatched '<', and no escape backslash left without the byte it
// escapes.
func trimDanglingMarkup(cut string) string {
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	if open := strings.LastIndexByte(cut, '<'); open >= 0 && !strings.ContainsRune(cut[open:], '>') {
		cut = cut[:open]
	}
	// A MarkdownV2 escape is a backslash plus the escaped byte; an odd
	// run of trailing backslashes means the cut split one apart.
	run := 0
	for run < len(cut) && cut[len(cut)-1-run] == '\\' {
		run++
	}
	if run%2 == 1 {
		cut = cut[:len(cut)-1]
	}
	return cut
}
