package command

import "strings"

// Complete implements spec.md §4.2's triple-context completion: command
// name completion when the buffer begins with '/', subcommand completion
// for `/cmd `, and delegation to the command's own argument completer for
// `/cmd sub `. It returns the candidate list and the prefix length (in
// bytes of buffer) that a single/common completion should replace.
func (r *Registry) Complete(ctx Context, buffer string) (candidates []string, replaceFrom int) {
	if !strings.HasPrefix(buffer, "/") {
		return nil, 0
	}
	body := buffer[1:]

	if !strings.Contains(body, " ") {
		// Context (a): completing the command name itself.
		return r.completeNames(body), 1
	}

	sp := strings.IndexByte(body, ' ')
	name := body[:sp]
	d, ok := r.byName[name]
	if !ok {
		return nil, len(buffer)
	}
	rest := body[sp+1:]

	if d.Complete == nil {
		return nil, len(buffer)
	}

	// Split rest into already-complete args plus the partial token being
	// typed, mirroring the editor's buffer/cursor contract.
	args, partial, partialStart := splitTrailingPartial(rest)
	cands := d.Complete(ctx, args, partial)
	replaceFrom = 1 + sp + 1 + partialStart
	return cands, replaceFrom
}

func (r *Registry) completeNames(partial string) []string {
	var out []string
	seen := map[string]bool{}
	for _, d := range r.order {
		if strings.HasPrefix(d.Name, partial) && !seen[d.Name] {
			out = append(out, d.Name)
			seen[d.Name] = true
		}
	}
	return withTrailingSpaceIfSole(sortedStrings(out))
}

// withTrailingSpaceIfSole appends a trailing space to a single full match
// so a command-name or subcommand-name completion leaves the cursor
// ready for the next argument (spec.md:194: "/opl<Tab>" -> "/oplist ",
// then "add al<Tab>" -> "/oplist add alice"), rather than butting the
// next typed word directly against the completed name. Left alone when
// there's more than one candidate, since those are shown as-is in the
// completions system message, not inserted.
func withTrailingSpaceIfSole(candidates []string) []string {
	if len(candidates) == 1 {
		return []string{candidates[0] + " "}
	}
	return candidates
}

// splitTrailingPartial splits "add al" into args=["add"], partial="al",
// and the byte offset at which "al" starts. A trailing space (e.g.
// "add ") yields partial="" so the next full word is being started.
func splitTrailingPartial(s string) (args []string, partial string, partialStart int) {
	if s == "" {
		return nil, "", 0
	}
	fields := strings.Fields(s)
	trailingSpace := strings.HasSuffix(s, " ")
	if trailingSpace {
		return fields, "", len(s)
	}
	if len(fields) == 0 {
		return nil, "", 0
	}
	last := fields[len(fields)-1]
	idx := strings.LastIndex(s, last)
	return fields[:len(fields)-1], last, idx
}

// CommonPrefix returns the longest common prefix of candidates, used
// when Tab has more than one match (spec.md §4.2: "if multiple, the
// common prefix is inserted").
func CommonPrefix(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	prefix := candidates[0]
	for _, c := range candidates[1:] {
		for !strings.HasPrefix(c, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}
