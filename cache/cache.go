// Package cache implements the prompt-cache discipline of spec §4.7: every
// outgoing request marks exactly the system prompt and the last block of the
// history's last user turn as an ephemeral cache boundary, without mutating
// the caller's history. Grounded on spec §4.7 directly — the teacher's
// CacheOptions/CacheCheckpointPart is a policy-driven abstraction for a
// different cache model, so this is new code written in the teacher's
// defensive-copy idiom rather than adapted from a single source file.
package cache

import "github.com/agentrt/runtime/model"

// Apply returns the system block list and a defensively-copied history with
// cache markers applied: a single ephemeral system text block, and the
// ephemeral marker set on the last block of the last user turn. The input
// history is never mutated; callers may rely on its referential stability.
func Apply(systemPrompt string, history []model.Message) ([]model.Block, []model.Message) {
	system := []model.Block{{Type: model.BlockText, Text: systemPrompt, CacheControl: model.Ephemeral}}

	out := make([]model.Message, len(history))
	copy(out, history)

	lastUser := -1
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Role == model.RoleUser {
			lastUser = i
			break
		}
	}
	if lastUser == -1 {
		return system, out
	}

	orig := out[lastUser]
	content := make([]model.Block, len(orig.Content))
	copy(content, orig.Content)
	if n := len(content); n > 0 {
		marked := content[n-1]
		marked.CacheControl = model.Ephemeral
		content[n-1] = marked
	}
	out[lastUser] = model.Message{Role: orig.Role, Content: content}
	return system, out
}
